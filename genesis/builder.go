// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"github.com/pkg/errors"

	"github.com/taisys-technologies/audit-stakingpool/staking"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

// Builder helper to build a genesis.
type Builder struct {
	name       string
	launchTime uint64
	controller types.Address
	steps      []step
}

type step struct {
	name string
	proc func(p *staking.Pool) error
}

// Name set the network name.
func (b *Builder) Name(name string) *Builder {
	b.name = name
	return b
}

// LaunchTime set the time the first period starts.
func (b *Builder) LaunchTime(t uint64) *Builder {
	b.launchTime = t
	return b
}

// Controller set the controller installed on every component.
func (b *Builder) Controller(c types.Address) *Builder {
	b.controller = c
	return b
}

// Step add a bootstrap step, run in insertion order after the controller is installed.
func (b *Builder) Step(name string, proc func(p *staking.Pool) error) *Builder {
	b.steps = append(b.steps, step{name, proc})
	return b
}

// Build build the genesis. id identifies the configuration it was built from.
func (b *Builder) Build(id types.Bytes32) (*Genesis, error) {
	if b.controller.IsZero() {
		return nil, errors.New("controller must be set")
	}
	steps := make([]step, len(b.steps))
	copy(steps, b.steps)
	return &Genesis{
		id:         id,
		name:       b.name,
		launchTime: b.launchTime,
		controller: b.controller,
		steps:      steps,
	}, nil
}
