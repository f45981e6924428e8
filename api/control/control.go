// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package control serves the administrative pool operations. Every request
// is signed and the signer must control the component it touches.
package control

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

type Receipt struct {
	Op     string        `json:"op"`
	Caller types.Address `json:"caller"`
}

type PeriodRequest struct {
	auth.Expiry
	Length uint64 `json:"length"`
}

type LevelRequest struct {
	auth.Expiry
	Rate  *uint256.Int `json:"rate"`
	Lower *uint256.Int `json:"lower"`
	Upper *uint256.Int `json:"upper"`
}

type ThresholdRequest struct {
	auth.Expiry
	Periods uint64 `json:"periods"`
}

type AddressRequest struct {
	auth.Expiry
	Address types.Address `json:"address"`
}

type AllowanceRequest struct {
	auth.Expiry
	Spender types.Address `json:"spender"`
	Amount  *uint256.Int  `json:"amount"`
}

type GrantRequest struct {
	auth.Expiry
	Owner types.Address `json:"owner"`
	ID    *uint256.Int  `json:"id"`
}

type MintRequest struct {
	auth.Expiry
	To     types.Address `json:"to"`
	Amount *uint256.Int  `json:"amount"`
}

type ControllerRequest struct {
	auth.Expiry
	Component types.Address `json:"component"`
	Next      types.Address `json:"next"`
}

type Control struct {
	pool *staking.Pool
	now  func() uint64
}

func New(pool *staking.Pool, now func() uint64) *Control {
	return &Control{pool, now}
}

var errAmountRequired = utils.BadRequest(errors.New("body: amount required"))

// signed decodes a signed body of type T and runs op on behalf of its signer.
func signed[T any, PT interface {
	*T
	auth.Expirer
}](c *Control, op string, fn func(req *http.Request, caller types.Address, body PT, now uint64) error) utils.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		body := PT(new(T))
		now := c.now()
		caller, err := auth.Decode(req, body, now)
		if err != nil {
			return err
		}
		if err := fn(req, caller, body, now); err != nil {
			return err
		}
		return utils.WriteJSON(w, &Receipt{Op: op, Caller: caller})
	}
}

func (c *Control) appendPeriod(_ *http.Request, caller types.Address, body *PeriodRequest, now uint64) error {
	return c.pool.AppendPeriod(caller, body.Length, now)
}

func (c *Control) addLevel(_ *http.Request, caller types.Address, body *LevelRequest, _ uint64) error {
	if body.Rate == nil || body.Lower == nil || body.Upper == nil {
		return utils.BadRequest(errors.New("body: rate, lower and upper required"))
	}
	return c.pool.AddLevel(caller, body.Rate, body.Lower, body.Upper)
}

func (c *Control) setThreshold(_ *http.Request, caller types.Address, body *ThresholdRequest, _ uint64) error {
	return c.pool.SetPeriodThreshold(caller, body.Periods)
}

func (c *Control) setReserve(_ *http.Request, caller types.Address, body *AddressRequest, _ uint64) error {
	return c.pool.SetRewardReserve(caller, body.Address)
}

func (c *Control) approveReserve(_ *http.Request, caller types.Address, body *AllowanceRequest, _ uint64) error {
	if body.Amount == nil {
		return errAmountRequired
	}
	return c.pool.ApproveReserve(caller, body.Spender, body.Amount)
}

func (c *Control) addRegistry(_ *http.Request, caller types.Address, body *AddressRequest, _ uint64) error {
	return c.pool.AddRegistry(caller, body.Address)
}

// deployRegistry deploys a registry controlled by the signer.
func (c *Control) deployRegistry(_ *http.Request, caller types.Address, body *AddressRequest, _ uint64) error {
	return c.pool.DeployRegistry(body.Address, caller)
}

func (c *Control) addChecker(req *http.Request, caller types.Address, body *AddressRequest, _ uint64) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	return c.pool.AddChecker(addr, caller, body.Address)
}

func (c *Control) grant(req *http.Request, caller types.Address, body *GrantRequest, _ uint64) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	if body.ID == nil {
		return utils.BadRequest(errors.New("body: id required"))
	}
	return c.pool.Grant(addr, caller, body.Owner, body.ID)
}

func (c *Control) mint(req *http.Request, caller types.Address, body *MintRequest, _ uint64) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	if body.Amount == nil {
		return errAmountRequired
	}
	return c.pool.Mint(addr, caller, body.To, body.Amount)
}

func (c *Control) setController(_ *http.Request, caller types.Address, body *ControllerRequest, _ uint64) error {
	return c.pool.SetController(body.Component, caller, body.Next)
}

func (c *Control) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	routes := []struct {
		path    string
		handler utils.HandlerFunc
	}{
		{"/periods", signed(c, "append-period", c.appendPeriod)},
		{"/levels", signed(c, "add-level", c.addLevel)},
		{"/threshold", signed(c, "set-threshold", c.setThreshold)},
		{"/reserve", signed(c, "set-reserve", c.setReserve)},
		{"/reserve/approve", signed(c, "approve-reserve", c.approveReserve)},
		{"/registries", signed(c, "add-registry", c.addRegistry)},
		{"/registries/deploy", signed(c, "deploy-registry", c.deployRegistry)},
		{"/registries/{address}/checkers", signed(c, "add-checker", c.addChecker)},
		{"/registries/{address}/grants", signed(c, "grant", c.grant)},
		{"/assets/{address}/mint", signed(c, "mint", c.mint)},
		{"/controller", signed(c, "set-controller", c.setController)},
	}
	for _, r := range routes {
		sub.Path(r.path).
			Methods(http.MethodPost).
			Name(http.MethodPost + " " + pathPrefix + r.path).
			HandlerFunc(utils.WrapHandlerFunc(r.handler))
	}
}
