// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package assets

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/taisys-technologies/audit-stakingpool/api/auth"
	"github.com/taisys-technologies/audit-stakingpool/api/utils"
	"github.com/taisys-technologies/audit-stakingpool/staking"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

type Balance struct {
	Owner   types.Address `json:"owner"`
	Balance *uint256.Int  `json:"balance"`
}

type Allowance struct {
	Owner     types.Address `json:"owner"`
	Spender   types.Address `json:"spender"`
	Allowance *uint256.Int  `json:"allowance"`
}

type ApproveRequest struct {
	auth.Expiry
	Spender types.Address `json:"spender"`
	Amount  *uint256.Int  `json:"amount"`
}

type TransferRequest struct {
	auth.Expiry
	To     types.Address `json:"to"`
	Amount *uint256.Int  `json:"amount"`
}

type Assets struct {
	pool *staking.Pool
	now  func() uint64
}

func New(pool *staking.Pool, now func() uint64) *Assets {
	return &Assets{pool, now}
}

func (a *Assets) handleGetBalance(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	owner, err := utils.AddressVar(req, "owner")
	if err != nil {
		return err
	}
	bal, err := a.pool.BalanceOf(addr, owner)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Balance{Owner: owner, Balance: bal})
}

func (a *Assets) handleGetAllowance(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	owner, err := utils.AddressVar(req, "owner")
	if err != nil {
		return err
	}
	spender, err := utils.AddressVar(req, "spender")
	if err != nil {
		return err
	}
	v, err := a.pool.Allowance(addr, owner, spender)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Allowance{Owner: owner, Spender: spender, Allowance: v})
}

func (a *Assets) handleApprove(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	var body ApproveRequest
	owner, err := auth.Decode(req, &body, a.now())
	if err != nil {
		return err
	}
	if body.Amount == nil {
		return utils.BadRequest(errors.New("body: amount required"))
	}
	if err := a.pool.Approve(addr, owner, body.Spender, body.Amount); err != nil {
		return err
	}
	return utils.WriteJSON(w, &Allowance{Owner: owner, Spender: body.Spender, Allowance: body.Amount})
}

func (a *Assets) handleTransfer(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	var body TransferRequest
	from, err := auth.Decode(req, &body, a.now())
	if err != nil {
		return err
	}
	if body.Amount == nil {
		return utils.BadRequest(errors.New("body: amount required"))
	}
	if err := a.pool.Transfer(addr, from, body.To, body.Amount); err != nil {
		return err
	}
	bal, err := a.pool.BalanceOf(addr, from)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Balance{Owner: from, Balance: bal})
}

func (a *Assets) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}/balances/{owner}").
		Methods(http.MethodGet).
		Name("GET /assets/{address}/balances/{owner}").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetBalance))
	sub.Path("/{address}/allowances/{owner}/{spender}").
		Methods(http.MethodGet).
		Name("GET /assets/{address}/allowances/{owner}/{spender}").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetAllowance))
	sub.Path("/{address}/approve").
		Methods(http.MethodPost).
		Name("POST /assets/{address}/approve").
		HandlerFunc(utils.WrapHandlerFunc(a.handleApprove))
	sub.Path("/{address}/transfer").
		Methods(http.MethodPost).
		Name("POST /assets/{address}/transfer").
		HandlerFunc(utils.WrapHandlerFunc(a.handleTransfer))
}
