// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package control gates the administrative methods of a builtin component
// behind a single controller address kept in the component's storage.
package control

import (
	"github.com/taisys-technologies/audit-stakingpool/builtin/reverts"
	"github.com/taisys-technologies/audit-stakingpool/solidity"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

var controllerKey = types.Blake2b([]byte("controller"))

type Control struct {
	controller *solidity.Raw[types.Address]
}

func New(sctx *solidity.Context) *Control {
	return &Control{controller: solidity.NewRaw[types.Address](sctx, controllerKey)}
}

// Controller returns the current controller, zero if none was installed.
func (c *Control) Controller() (types.Address, error) {
	return c.controller.Get()
}

// Initialize installs the first controller. It fails once a controller exists.
func (c *Control) Initialize(controller types.Address) error {
	if controller.IsZero() {
		return reverts.New(reverts.InvalidInput, "zero controller")
	}
	current, err := c.controller.Get()
	if err != nil {
		return err
	}
	if !current.IsZero() {
		return reverts.New(reverts.AlreadyRegistered, "controller already set")
	}
	return c.controller.Upsert(controller)
}

// Require fails with PermissionDenied unless caller is the controller.
func (c *Control) Require(caller types.Address) error {
	current, err := c.controller.Get()
	if err != nil {
		return err
	}
	if current.IsZero() || current != caller {
		return reverts.New(reverts.PermissionDenied, "caller %v is not the controller", caller)
	}
	return nil
}

// SetController hands control over to next.
func (c *Control) SetController(caller, next types.Address) error {
	if err := c.Require(caller); err != nil {
		return err
	}
	if next.IsZero() {
		return reverts.New(reverts.InvalidInput, "zero controller")
	}
	return c.controller.Upsert(next)
}
