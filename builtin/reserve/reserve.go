// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reserve implements the reward escrow. Its balance lives in the
// reward asset; the controller decides who may pull from it.
package reserve

import (
	"github.com/holiman/uint256"

	"github.com/taisys-technologies/audit-stakingpool/builtin/asset"
	"github.com/taisys-technologies/audit-stakingpool/builtin/control"
	"github.com/taisys-technologies/audit-stakingpool/log"
	"github.com/taisys-technologies/audit-stakingpool/solidity"
	"github.com/taisys-technologies/audit-stakingpool/state"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

var logger = log.WithContext("pkg", "reserve")

type Reserve struct {
	*control.Control
	addr  types.Address
	asset *asset.Asset
}

func New(addr types.Address, state *state.State, asset *asset.Asset) *Reserve {
	return &Reserve{
		Control: control.New(solidity.NewContext(addr, state)),
		addr:    addr,
		asset:   asset,
	}
}

func (r *Reserve) Address() types.Address {
	return r.addr
}

// Approve lets spender pull up to amount. Controller only.
func (r *Reserve) Approve(caller, spender types.Address, amount *uint256.Int) error {
	if err := r.Require(caller); err != nil {
		return err
	}
	if err := r.asset.Approve(r.addr, spender, amount); err != nil {
		return err
	}
	logger.Debug("pull approved", "spender", spender, "amount", amount)
	return nil
}

// Pull moves amount from the reserve to to, on behalf of spender.
func (r *Reserve) Pull(spender, to types.Address, amount *uint256.Int) error {
	return r.asset.TransferFrom(spender, r.addr, to, amount)
}

func (r *Reserve) Balance() (*uint256.Int, error) {
	return r.asset.BalanceOf(r.addr)
}

func (r *Reserve) Allowance(spender types.Address) (*uint256.Int, error) {
	return r.asset.Allowance(r.addr, spender)
}
