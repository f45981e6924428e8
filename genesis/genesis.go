// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"github.com/pkg/errors"

	"github.com/taisys-technologies/audit-stakingpool/builtin"
	"github.com/taisys-technologies/audit-stakingpool/log"
	"github.com/taisys-technologies/audit-stakingpool/staking"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

var logger = log.WithContext("pkg", "genesis")

// Genesis bootstraps an empty pool.
type Genesis struct {
	id         types.Bytes32
	name       string
	launchTime uint64
	controller types.Address
	steps      []step
}

// ID returns the genesis id.
func (g *Genesis) ID() types.Bytes32 {
	return g.id
}

// Name returns network name.
func (g *Genesis) Name() string {
	return g.name
}

func (g *Genesis) LaunchTime() uint64 {
	return g.launchTime
}

func (g *Genesis) Controller() types.Address {
	return g.controller
}

// Apply runs the bootstrap steps against p. A pool whose ledger already has a
// controller is left untouched and applied is false.
func (g *Genesis) Apply(p *staking.Pool) (applied bool, err error) {
	current, err := p.Controller(builtin.Ledger.Address)
	if err != nil {
		return false, err
	}
	if !current.IsZero() {
		logger.Debug("pool already bootstrapped", "controller", current)
		return false, nil
	}

	if err := p.Initialize(g.controller); err != nil {
		return false, errors.Wrap(err, "initialize")
	}
	for _, s := range g.steps {
		if err := s.proc(p); err != nil {
			return false, errors.Wrap(err, s.name)
		}
	}
	logger.Info("genesis applied", "name", g.name, "id", g.id.AbbrevString(), "steps", len(g.steps))
	return true, nil
}
