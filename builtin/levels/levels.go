// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package levels

import (
	"github.com/holiman/uint256"

	"github.com/taisys-technologies/audit-stakingpool/builtin/control"
	"github.com/taisys-technologies/audit-stakingpool/builtin/reverts"
	"github.com/taisys-technologies/audit-stakingpool/log"
	"github.com/taisys-technologies/audit-stakingpool/solidity"
	"github.com/taisys-technologies/audit-stakingpool/state"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

var (
	logger    = log.WithContext("pkg", "levels")
	levelsKey = types.Blake2b([]byte("levels"))
)

// Level pays Rate per period for principals in [Lower, Upper).
type Level struct {
	Rate  *uint256.Int
	Lower *uint256.Int
	Upper *uint256.Int
}

// Contains reports whether amount falls in [Lower, Upper).
func (l *Level) Contains(amount *uint256.Int) bool {
	return !amount.Lt(l.Lower) && amount.Lt(l.Upper)
}

// PeriodCounter is the part of the timeline the level table depends on.
type PeriodCounter interface {
	Count() (uint64, error)
}

// Levels is the ordered deposit tier table.
type Levels struct {
	*control.Control
	levels   *solidity.Array[*Level]
	timeline PeriodCounter
}

func New(addr types.Address, state *state.State, timeline PeriodCounter) *Levels {
	sctx := solidity.NewContext(addr, state)
	return &Levels{
		Control:  control.New(sctx),
		levels:   solidity.NewArray[*Level](sctx, levelsKey),
		timeline: timeline,
	}
}

// Add appends a tier. A period must be configured first.
func (l *Levels) Add(caller types.Address, rate, lower, upper *uint256.Int) error {
	if err := l.Require(caller); err != nil {
		return err
	}
	if !lower.Lt(upper) {
		return reverts.New(reverts.InvalidLevelRange, "lower %v not below upper %v", lower, upper)
	}
	n, err := l.timeline.Count()
	if err != nil {
		return err
	}
	if n == 0 {
		return reverts.New(reverts.PeriodRequired, "no period configured")
	}
	idx, err := l.levels.Append(&Level{Rate: rate.Clone(), Lower: lower.Clone(), Upper: upper.Clone()})
	if err != nil {
		return err
	}
	logger.Debug("level added", "index", idx, "rate", rate, "lower", lower, "upper", upper)
	return nil
}

func (l *Levels) Count() (uint64, error) {
	return l.levels.Len()
}

func (l *Levels) Get(i uint64) (*Level, error) {
	return l.levels.Get(i)
}

func (l *Levels) All() ([]*Level, error) {
	return l.levels.All()
}

// RateFor resolves amount to the rate of its tier.
func (l *Levels) RateFor(amount *uint256.Int) (*uint256.Int, error) {
	all, err := l.levels.All()
	if err != nil {
		return nil, err
	}
	return RateFor(all, amount)
}

// RateFor returns the rate of the first level, in insertion order, containing amount.
func RateFor(levels []*Level, amount *uint256.Int) (*uint256.Int, error) {
	for _, level := range levels {
		if level.Contains(amount) {
			return level.Rate.Clone(), nil
		}
	}
	return nil, reverts.New(reverts.NotInAnyLevel, "no level covers %v", amount)
}
