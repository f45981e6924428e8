// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package gateway decides whether an owner may stake, by asking the
// certificate registries registered with it.
package gateway

import (
	"github.com/taisys-technologies/audit-stakingpool/builtin/control"
	"github.com/taisys-technologies/audit-stakingpool/builtin/directory"
	"github.com/taisys-technologies/audit-stakingpool/builtin/reverts"
	"github.com/taisys-technologies/audit-stakingpool/log"
	"github.com/taisys-technologies/audit-stakingpool/solidity"
	"github.com/taisys-technologies/audit-stakingpool/state"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

var (
	logger        = log.WithContext("pkg", "gateway")
	registriesKey = types.Blake2b([]byte("registries"))
	listedKey     = types.Blake2b([]byte("listed"))
)

type Gateway struct {
	*control.Control
	registries *solidity.Array[types.Address]
	listed     *solidity.Mapping[types.Address, bool]
	dir        *directory.Directory
}

func New(addr types.Address, state *state.State, dir *directory.Directory) *Gateway {
	sctx := solidity.NewContext(addr, state)
	return &Gateway{
		Control:    control.New(sctx),
		registries: solidity.NewArray[types.Address](sctx, registriesKey),
		listed:     solidity.NewMapping[types.Address, bool](sctx, listedKey),
		dir:        dir,
	}
}

// AddRegistry registers the certificate registry at addr.
func (g *Gateway) AddRegistry(caller, addr types.Address) error {
	if err := g.Require(caller); err != nil {
		return err
	}
	if addr.IsZero() {
		return reverts.New(reverts.InvalidInput, "zero registry address")
	}
	if _, ok := g.dir.Holder(addr); !ok {
		return reverts.New(reverts.InvalidInput, "no registry at %v", addr)
	}
	listed, err := g.listed.Get(addr)
	if err != nil {
		return err
	}
	if listed {
		return reverts.New(reverts.AlreadyRegistered, "registry %v", addr)
	}
	if err := g.listed.Set(addr, true); err != nil {
		return err
	}
	if _, err := g.registries.Append(addr); err != nil {
		return err
	}
	logger.Debug("registry added", "registry", addr)
	return nil
}

func (g *Gateway) Registries() ([]types.Address, error) {
	return g.registries.All()
}

// IsEligible reports whether owner holds a certificate in any registered registry.
func (g *Gateway) IsEligible(owner types.Address) (bool, error) {
	registries, err := g.registries.All()
	if err != nil {
		return false, err
	}
	for _, addr := range registries {
		holder, ok := g.dir.Holder(addr)
		if !ok {
			logger.Warn("registry not resolvable", "registry", addr)
			continue
		}
		n, err := holder.BalanceOf(owner)
		if err != nil {
			return false, err
		}
		if n > 0 {
			return true, nil
		}
	}
	return false, nil
}
