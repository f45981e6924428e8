// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/holiman/uint256"

	"github.com/taisys-technologies/audit-stakingpool/builtin"
	"github.com/taisys-technologies/audit-stakingpool/builtin/asset"
	"github.com/taisys-technologies/audit-stakingpool/builtin/registry"
	"github.com/taisys-technologies/audit-stakingpool/builtin/reverts"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

type controlled interface {
	Initialize(controller types.Address) error
	Controller() (types.Address, error)
	SetController(caller, next types.Address) error
}

func (p *Pool) components() map[types.Address]controlled {
	all := map[types.Address]controlled{
		builtin.Timeline.Address:    p.timeline,
		builtin.Levels.Address:      p.levels,
		builtin.Ledger.Address:      p.ledger,
		builtin.Gateway.Address:     p.gateway,
		builtin.StakeAsset.Address:  p.stakeAsset,
		builtin.RewardAsset.Address: p.rewardAsset,
		builtin.Reserve.Address:     p.reserve,
	}
	for addr, r := range p.registries {
		all[addr] = r
	}
	return all
}

func (p *Pool) asset(addr types.Address) (*asset.Asset, error) {
	switch addr {
	case builtin.StakeAsset.Address:
		return p.stakeAsset, nil
	case builtin.RewardAsset.Address:
		return p.rewardAsset, nil
	}
	return nil, reverts.New(reverts.InvalidInput, "no asset at %v", addr)
}

func (p *Pool) registry(addr types.Address) (*registry.Registry, error) {
	if r, ok := p.registries[addr]; ok {
		return r, nil
	}
	return nil, reverts.New(reverts.InvalidInput, "no registry at %v", addr)
}

// Initialize installs controller on every builtin component without one.
func (p *Pool) Initialize(controller types.Address) error {
	return p.transact("initialize", func() error {
		for addr, c := range p.components() {
			current, err := c.Controller()
			if err != nil {
				return err
			}
			if !current.IsZero() {
				continue
			}
			if err := c.Initialize(controller); err != nil {
				return err
			}
			logger.Debug("controller installed", "component", addr, "controller", controller)
		}
		return nil
	})
}

// SetController hands the component at addr over to next.
func (p *Pool) SetController(component, caller, next types.Address) error {
	return p.transact("set-controller", func() error {
		c, ok := p.components()[component]
		if !ok {
			return reverts.New(reverts.InvalidInput, "no component at %v", component)
		}
		return c.SetController(caller, next)
	})
}

func (p *Pool) AppendPeriod(caller types.Address, length, now uint64) error {
	return p.transact("append-period", func() error {
		return p.timeline.Append(caller, length, now)
	})
}

func (p *Pool) AddLevel(caller types.Address, rate, lower, upper *uint256.Int) error {
	return p.transact("add-level", func() error {
		return p.levels.Add(caller, rate, lower, upper)
	})
}

func (p *Pool) SetPeriodThreshold(caller types.Address, n uint64) error {
	return p.transact("set-threshold", func() error {
		return p.ledger.SetThreshold(caller, n)
	})
}

// SetRewardReserve points reward payouts at the reserve at addr.
func (p *Pool) SetRewardReserve(caller, addr types.Address) error {
	return p.transact("set-reserve", func() error {
		if err := p.ledger.SetRewardReserve(caller, addr); err != nil {
			return err
		}
		if _, ok := p.dir.Reserve(addr); !ok {
			return reverts.New(reverts.InvalidInput, "no reserve at %v", addr)
		}
		return nil
	})
}

func (p *Pool) AddRegistry(caller, addr types.Address) error {
	return p.transact("add-registry", func() error {
		return p.gateway.AddRegistry(caller, addr)
	})
}

// DeployRegistry creates a certificate registry at addr controlled by controller.
func (p *Pool) DeployRegistry(addr, controller types.Address) error {
	err := p.transact("deploy-registry", func() error {
		if addr.IsZero() {
			return reverts.New(reverts.InvalidInput, "zero registry address")
		}
		if _, ok := p.components()[addr]; ok {
			return reverts.New(reverts.AlreadyRegistered, "component at %v", addr)
		}
		r := builtin.NewRegistry(addr, p.state, p.dir)
		if err := r.Initialize(controller); err != nil {
			return err
		}
		_, err := p.deployments.Append(addr)
		return err
	})
	if err != nil {
		return err
	}

	p.lock.Lock()
	defer p.lock.Unlock()
	p.bindRegistry(addr)
	logger.Info("registry deployed", "registry", addr, "controller", controller)
	return nil
}

func (p *Pool) AddChecker(registryAddr, caller, checker types.Address) error {
	return p.transact("add-checker", func() error {
		r, err := p.registry(registryAddr)
		if err != nil {
			return err
		}
		return r.AddChecker(caller, checker)
	})
}

func (p *Pool) Grant(registryAddr, caller, owner types.Address, id *uint256.Int) error {
	return p.transact("grant", func() error {
		r, err := p.registry(registryAddr)
		if err != nil {
			return err
		}
		return r.Grant(caller, owner, id)
	})
}

// Release gives up certificate id. It fails while the owner is staking.
func (p *Pool) Release(registryAddr, caller types.Address, id *uint256.Int) error {
	return p.transact("release", func() error {
		r, err := p.registry(registryAddr)
		if err != nil {
			return err
		}
		return r.Release(caller, id)
	})
}

// ApproveReserve lets spender pull up to amount from the reward reserve.
func (p *Pool) ApproveReserve(caller, spender types.Address, amount *uint256.Int) error {
	return p.transact("approve-reserve", func() error {
		return p.reserve.Approve(caller, spender, amount)
	})
}

func (p *Pool) Mint(assetAddr, caller, to types.Address, amount *uint256.Int) error {
	return p.transact("mint", func() error {
		a, err := p.asset(assetAddr)
		if err != nil {
			return err
		}
		return a.Mint(caller, to, amount)
	})
}

// Approve sets the allowance of spender over owner's balance of the asset.
func (p *Pool) Approve(assetAddr, owner, spender types.Address, amount *uint256.Int) error {
	return p.transact("approve", func() error {
		a, err := p.asset(assetAddr)
		if err != nil {
			return err
		}
		return a.Approve(owner, spender, amount)
	})
}

func (p *Pool) Transfer(assetAddr, from, to types.Address, amount *uint256.Int) error {
	return p.transact("transfer", func() error {
		a, err := p.asset(assetAddr)
		if err != nil {
			return err
		}
		return a.Transfer(from, to, amount)
	})
}
