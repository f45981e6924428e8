// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"fmt"
	"os"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/taisys-technologies/audit-stakingpool/builtin"
	"github.com/taisys-technologies/audit-stakingpool/staking"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

// Amount is a decimal or 0x-prefixed hex amount in yaml.
type Amount struct {
	uint256.Int
}

func NewAmount(v uint64) *Amount {
	return &Amount{*uint256.NewInt(v)}
}

// Value returns a copy of the amount, zero when a is nil.
func (a *Amount) Value() *uint256.Int {
	if a == nil {
		return new(uint256.Int)
	}
	return a.Int.Clone()
}

func (a Amount) MarshalYAML() (any, error) {
	return a.Int.Dec(), nil
}

func (a *Amount) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: amount must be a scalar", node.Line)
	}
	v, err := types.ParseAmount(node.Value)
	if err != nil {
		return errors.Wrapf(err, "line %d", node.Line)
	}
	a.Int = *v
	return nil
}

// CustomGenesis is user customized genesis
type CustomGenesis struct {
	Name       string        `yaml:"name"`
	LaunchTime uint64        `yaml:"launchTime"`
	Controller types.Address `yaml:"controller"`
	Periods    []Period      `yaml:"periods"`
	Threshold  uint64        `yaml:"threshold"`
	Levels     []Level       `yaml:"levels"`
	Registries []Registry    `yaml:"registries"`
	Reserve    Reserve       `yaml:"reserve"`
	Accounts   []Account     `yaml:"accounts"`
}

// Period is a period length taking effect at From, or at launch time when From is zero.
type Period struct {
	From   uint64 `yaml:"from,omitempty"`
	Length uint64 `yaml:"length"`
}

type Level struct {
	Rate  *Amount `yaml:"rate"`
	Lower *Amount `yaml:"lower"`
	Upper *Amount `yaml:"upper"`
}

// Registry is a certificate registry deployed at genesis. Checkers default
// to the stake ledger.
type Registry struct {
	Address      types.Address   `yaml:"address"`
	Checkers     []types.Address `yaml:"checkers,omitempty"`
	Certificates []Certificate   `yaml:"certificates"`
}

type Certificate struct {
	ID    *Amount       `yaml:"id"`
	Owner types.Address `yaml:"owner"`
}

// Reserve funds the reward reserve and grants the ledger a pull allowance,
// which defaults to the funding.
type Reserve struct {
	Funding   *Amount `yaml:"funding"`
	Allowance *Amount `yaml:"allowance,omitempty"`
}

// Account receives stake asset and optionally approves the ledger to pull it.
type Account struct {
	Address types.Address `yaml:"address"`
	Balance *Amount       `yaml:"balance"`
	Approve bool          `yaml:"approve,omitempty"`
}

// LoadCustomGenesis reads a yaml genesis file.
func LoadCustomGenesis(path string) (*CustomGenesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis file")
	}
	var gen CustomGenesis
	if err := yaml.Unmarshal(data, &gen); err != nil {
		return nil, errors.Wrap(err, "decode genesis file")
	}
	return &gen, nil
}

func (gen *CustomGenesis) validate() error {
	if gen.Controller.IsZero() {
		return errors.New("controller must be set")
	}
	if len(gen.Levels) > 0 && len(gen.Periods) == 0 {
		return errors.New("levels require at least one period")
	}
	from := gen.LaunchTime
	for i, p := range gen.Periods {
		if p.Length == 0 {
			return fmt.Errorf("period %d: length must not be 0", i)
		}
		if p.From != 0 {
			if p.From < from {
				return fmt.Errorf("period %d: starts before its predecessor", i)
			}
			from = p.From
		}
	}
	for i, l := range gen.Levels {
		if l.Rate == nil || l.Lower == nil || l.Upper == nil {
			return fmt.Errorf("level %d: rate, lower and upper must be set", i)
		}
		if l.Lower.Cmp(&l.Upper.Int) >= 0 {
			return fmt.Errorf("level %d: lower must be less than upper", i)
		}
	}
	seen := make(map[types.Address]bool)
	for i, r := range gen.Registries {
		if r.Address.IsZero() {
			return fmt.Errorf("registry %d: address must be set", i)
		}
		if seen[r.Address] {
			return fmt.Errorf("registry %d: duplicated address %v", i, r.Address)
		}
		seen[r.Address] = true
		for j, c := range r.Certificates {
			if c.ID == nil || c.Owner.IsZero() {
				return fmt.Errorf("registry %d certificate %d: id and owner must be set", i, j)
			}
		}
	}
	for _, a := range gen.Accounts {
		if a.Balance == nil || a.Balance.IsZero() {
			return fmt.Errorf("%v: balance must be a non-zero integer", a.Address)
		}
	}
	return nil
}

// ID is the blake2b hash of the canonical yaml encoding.
func (gen *CustomGenesis) ID() (types.Bytes32, error) {
	data, err := yaml.Marshal(gen)
	if err != nil {
		return types.Bytes32{}, err
	}
	return types.Blake2b(data), nil
}

// NewCustomNet create custom network genesis.
func NewCustomNet(gen *CustomGenesis) (*Genesis, error) {
	if err := gen.validate(); err != nil {
		return nil, err
	}
	id, err := gen.ID()
	if err != nil {
		return nil, err
	}

	name := gen.Name
	if name == "" {
		name = "customnet"
	}
	c := gen.Controller
	ledgerAddr := builtin.Ledger.Address

	b := new(Builder).
		Name(name).
		LaunchTime(gen.LaunchTime).
		Controller(c)

	for _, r := range gen.Registries {
		b.Step("registry "+r.Address.String(), func(p *staking.Pool) error {
			if err := p.DeployRegistry(r.Address, c); err != nil {
				return err
			}
			checkers := r.Checkers
			if len(checkers) == 0 {
				checkers = []types.Address{ledgerAddr}
			}
			for _, checker := range checkers {
				if err := p.AddChecker(r.Address, c, checker); err != nil {
					return err
				}
			}
			for _, cert := range r.Certificates {
				if err := p.Grant(r.Address, c, cert.Owner, cert.ID.Value()); err != nil {
					return err
				}
			}
			return p.AddRegistry(c, r.Address)
		})
	}

	b.Step("periods", func(p *staking.Pool) error {
		for _, period := range gen.Periods {
			from := period.From
			if from == 0 {
				from = gen.LaunchTime
			}
			if err := p.AppendPeriod(c, period.Length, from); err != nil {
				return err
			}
		}
		return nil
	})
	b.Step("levels", func(p *staking.Pool) error {
		for _, l := range gen.Levels {
			if err := p.AddLevel(c, l.Rate.Value(), l.Lower.Value(), l.Upper.Value()); err != nil {
				return err
			}
		}
		return nil
	})
	if gen.Threshold > 0 {
		b.Step("threshold", func(p *staking.Pool) error {
			return p.SetPeriodThreshold(c, gen.Threshold)
		})
	}

	b.Step("reserve", func(p *staking.Pool) error {
		if err := p.SetRewardReserve(c, builtin.Reserve.Address); err != nil {
			return err
		}
		funding := gen.Reserve.Funding.Value()
		if !funding.IsZero() {
			if err := p.Mint(builtin.RewardAsset.Address, c, builtin.Reserve.Address, funding); err != nil {
				return err
			}
		}
		allowance := funding
		if gen.Reserve.Allowance != nil {
			allowance = gen.Reserve.Allowance.Value()
		}
		if allowance.IsZero() {
			return nil
		}
		return p.ApproveReserve(c, ledgerAddr, allowance)
	})

	b.Step("accounts", func(p *staking.Pool) error {
		for _, a := range gen.Accounts {
			if err := p.Mint(builtin.StakeAsset.Address, c, a.Address, a.Balance.Value()); err != nil {
				return err
			}
			if a.Approve {
				if err := p.Approve(builtin.StakeAsset.Address, a.Address, ledgerAddr, a.Balance.Value()); err != nil {
					return err
				}
			}
		}
		return nil
	})

	return b.Build(id)
}
