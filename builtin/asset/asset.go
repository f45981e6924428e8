// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package asset

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/taisys-technologies/audit-stakingpool/builtin/control"
	"github.com/taisys-technologies/audit-stakingpool/builtin/reverts"
	"github.com/taisys-technologies/audit-stakingpool/solidity"
	"github.com/taisys-technologies/audit-stakingpool/state"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

var (
	balancesKey   = types.Blake2b([]byte("balances"))
	allowancesKey = types.Blake2b([]byte("allowances"))
	supplyKey     = types.Blake2b([]byte("total-supply"))
)

func allowanceKey(owner, spender types.Address) types.Bytes32 {
	return types.Blake2b(owner.Bytes(), spender.Bytes())
}

// Asset is a fungible token ledger.
type Asset struct {
	*control.Control
	addr       types.Address
	balances   *solidity.Mapping[types.Address, *uint256.Int]
	allowances *solidity.Mapping[types.Bytes32, *uint256.Int]
	supply     *solidity.Raw[*uint256.Int]
}

func New(addr types.Address, state *state.State) *Asset {
	sctx := solidity.NewContext(addr, state)
	return &Asset{
		Control:    control.New(sctx),
		addr:       addr,
		balances:   solidity.NewMapping[types.Address, *uint256.Int](sctx, balancesKey),
		allowances: solidity.NewMapping[types.Bytes32, *uint256.Int](sctx, allowancesKey),
		supply:     solidity.NewRaw[*uint256.Int](sctx, supplyKey),
	}
}

func (a *Asset) Address() types.Address {
	return a.addr
}

func (a *Asset) BalanceOf(owner types.Address) (*uint256.Int, error) {
	return a.balances.Get(owner)
}

func (a *Asset) TotalSupply() (*uint256.Int, error) {
	return a.supply.Get()
}

func (a *Asset) Allowance(owner, spender types.Address) (*uint256.Int, error) {
	return a.allowances.Get(allowanceKey(owner, spender))
}

func (a *Asset) setBalance(owner types.Address, v *uint256.Int) error {
	if v.IsZero() {
		a.balances.Delete(owner)
		return nil
	}
	return a.balances.Set(owner, v)
}

// Mint credits amount to to. Controller only.
func (a *Asset) Mint(caller, to types.Address, amount *uint256.Int) error {
	if err := a.Require(caller); err != nil {
		return err
	}
	if to.IsZero() {
		return reverts.New(reverts.InvalidInput, "mint to zero address")
	}
	supply, err := a.supply.Get()
	if err != nil {
		return err
	}
	if supply, err = types.AddAmount(supply, amount); err != nil {
		return errors.Wrap(err, "mint")
	}
	bal, err := a.balances.Get(to)
	if err != nil {
		return err
	}
	if err := a.supply.Upsert(supply); err != nil {
		return err
	}
	return a.setBalance(to, new(uint256.Int).Add(bal, amount))
}

// Transfer moves amount from from to to.
func (a *Asset) Transfer(from, to types.Address, amount *uint256.Int) error {
	if to.IsZero() {
		return reverts.New(reverts.InvalidInput, "transfer to zero address")
	}
	fromBal, err := a.balances.Get(from)
	if err != nil {
		return err
	}
	if fromBal.Lt(amount) {
		return reverts.New(reverts.InsufficientFunds, "balance %v of %v below %v", fromBal, from, amount)
	}
	if err := a.setBalance(from, new(uint256.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	toBal, err := a.balances.Get(to)
	if err != nil {
		return err
	}
	return a.setBalance(to, new(uint256.Int).Add(toBal, amount))
}

// Approve sets the amount spender may move out of owner's balance.
func (a *Asset) Approve(owner, spender types.Address, amount *uint256.Int) error {
	if spender.IsZero() {
		return reverts.New(reverts.InvalidInput, "approve zero spender")
	}
	key := allowanceKey(owner, spender)
	if amount.IsZero() {
		a.allowances.Delete(key)
		return nil
	}
	return a.allowances.Set(key, amount.Clone())
}

// TransferFrom moves amount from from to to, consuming the allowance of spender.
func (a *Asset) TransferFrom(spender, from, to types.Address, amount *uint256.Int) error {
	key := allowanceKey(from, spender)
	allowance, err := a.allowances.Get(key)
	if err != nil {
		return err
	}
	if allowance.Lt(amount) {
		return reverts.New(reverts.InsufficientFunds, "allowance %v of %v below %v", allowance, spender, amount)
	}
	if err := a.Transfer(from, to, amount); err != nil {
		return err
	}
	if rest := new(uint256.Int).Sub(allowance, amount); rest.IsZero() {
		a.allowances.Delete(key)
	} else if err := a.allowances.Set(key, rest); err != nil {
		return err
	}
	return nil
}
