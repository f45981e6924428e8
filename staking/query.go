// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/holiman/uint256"

	"github.com/taisys-technologies/audit-stakingpool/builtin/ledger"
	"github.com/taisys-technologies/audit-stakingpool/builtin/levels"
	"github.com/taisys-technologies/audit-stakingpool/builtin/reverts"
	"github.com/taisys-technologies/audit-stakingpool/builtin/timeline"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

// Info summarizes the pool configuration.
type Info struct {
	TotalDeposited *uint256.Int
	Threshold      uint64
	RewardReserve  types.Address
	CurrentPeriod  *timeline.Period
	Registries     []types.Address
	Events         uint64
}

// RegistryInfo describes a deployed certificate registry.
type RegistryInfo struct {
	Address    types.Address
	Controller types.Address
	Checkers   []types.Address
}

func (p *Pool) Info() (info *Info, err error) {
	err = p.view(func() error {
		info = &Info{}
		if info.TotalDeposited, err = p.ledger.TotalDeposited(); err != nil {
			return err
		}
		if info.Threshold, err = p.ledger.Threshold(); err != nil {
			return err
		}
		if info.RewardReserve, err = p.ledger.RewardReserve(); err != nil {
			return err
		}
		current, ok, err := p.timeline.Current()
		if err != nil {
			return err
		}
		if ok {
			info.CurrentPeriod = &current
		}
		if info.Registries, err = p.gateway.Registries(); err != nil {
			return err
		}
		info.Events, err = p.journal.count()
		return err
	})
	return
}

func (p *Pool) Periods() (periods []timeline.Period, err error) {
	err = p.view(func() error {
		periods, err = p.timeline.All()
		return err
	})
	return
}

func (p *Pool) Levels() (all []*levels.Level, err error) {
	err = p.view(func() error {
		all, err = p.levels.All()
		return err
	})
	return
}

// Stake returns the stored stake of owner, as of its last settlement.
func (p *Pool) Stake(owner types.Address) (s *ledger.Stake, err error) {
	err = p.view(func() error {
		s, err = p.ledger.Get(owner)
		return err
	})
	return
}

// Replay reconstructs the stake of owner at time at from the journal.
func (p *Pool) Replay(owner types.Address, at uint64) (s *ledger.Stake, err error) {
	err = p.view(func() error {
		events, err := p.journal.byOwner(owner)
		if err != nil {
			return err
		}
		entries := make([]ledger.Entry, 0, len(events))
		for _, ev := range events {
			entries = append(entries, ev.Entry())
		}
		s, err = p.ledger.Replay(entries, at)
		return err
	})
	return
}

func (p *Pool) IsEligible(owner types.Address) (ok bool, err error) {
	err = p.view(func() error {
		ok, err = p.gateway.IsEligible(owner)
		return err
	})
	return
}

// Events returns the journaled events of owner in order.
func (p *Pool) Events(owner types.Address) (events []*Event, err error) {
	err = p.view(func() error {
		events, err = p.journal.byOwner(owner)
		return err
	})
	return
}

// EventRange returns at most limit journaled events starting at seq from.
func (p *Pool) EventRange(from, limit uint64) (events []*Event, err error) {
	err = p.view(func() error {
		events, err = p.journal.slice(from, limit)
		return err
	})
	return
}

func (p *Pool) EventCount() (n uint64, err error) {
	err = p.view(func() error {
		n, err = p.journal.count()
		return err
	})
	return
}

func (p *Pool) Registry(addr types.Address) (info *RegistryInfo, err error) {
	err = p.view(func() error {
		r, err := p.registry(addr)
		if err != nil {
			return err
		}
		info = &RegistryInfo{Address: addr}
		if info.Controller, err = r.Controller(); err != nil {
			return err
		}
		info.Checkers, err = r.Checkers()
		return err
	})
	return
}

// Certificates lists the certificate ids owner holds in the registry.
func (p *Pool) Certificates(registryAddr, owner types.Address) (ids []*uint256.Int, err error) {
	err = p.view(func() error {
		r, err := p.registry(registryAddr)
		if err != nil {
			return err
		}
		n, err := r.BalanceOf(owner)
		if err != nil {
			return err
		}
		ids = make([]*uint256.Int, 0, n)
		for i := range n {
			id, err := r.TokenOf(owner, i)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	return
}

func (p *Pool) OwnerOf(registryAddr types.Address, id *uint256.Int) (owner types.Address, err error) {
	err = p.view(func() error {
		r, err := p.registry(registryAddr)
		if err != nil {
			return err
		}
		owner, err = r.OwnerOf(id)
		return err
	})
	return
}

func (p *Pool) BalanceOf(assetAddr, owner types.Address) (bal *uint256.Int, err error) {
	err = p.view(func() error {
		a, err := p.asset(assetAddr)
		if err != nil {
			return err
		}
		bal, err = a.BalanceOf(owner)
		return err
	})
	return
}

func (p *Pool) Allowance(assetAddr, owner, spender types.Address) (v *uint256.Int, err error) {
	err = p.view(func() error {
		a, err := p.asset(assetAddr)
		if err != nil {
			return err
		}
		v, err = a.Allowance(owner, spender)
		return err
	})
	return
}

// Controller returns the controller of the component at addr.
func (p *Pool) Controller(component types.Address) (c types.Address, err error) {
	err = p.view(func() error {
		comp, ok := p.components()[component]
		if !ok {
			return reverts.New(reverts.InvalidInput, "no component at %v", component)
		}
		c, err = comp.Controller()
		return err
	})
	return
}
