// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package timeline

import (
	"github.com/taisys-technologies/audit-stakingpool/builtin/control"
	"github.com/taisys-technologies/audit-stakingpool/builtin/reverts"
	"github.com/taisys-technologies/audit-stakingpool/log"
	"github.com/taisys-technologies/audit-stakingpool/solidity"
	"github.com/taisys-technologies/audit-stakingpool/state"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

var (
	logger     = log.WithContext("pkg", "timeline")
	periodsKey = types.Blake2b([]byte("periods"))
)

// Period is a period length that applies from EffectiveFrom on.
type Period struct {
	EffectiveFrom uint64
	Length        uint64
}

// Timeline is the append-only history of period lengths.
type Timeline struct {
	*control.Control
	periods *solidity.Array[Period]
}

func New(addr types.Address, state *state.State) *Timeline {
	sctx := solidity.NewContext(addr, state)
	return &Timeline{
		Control: control.New(sctx),
		periods: solidity.NewArray[Period](sctx, periodsKey),
	}
}

// Append records a new period length effective from now.
func (t *Timeline) Append(caller types.Address, length, now uint64) error {
	if err := t.Require(caller); err != nil {
		return err
	}
	if length == 0 {
		return reverts.New(reverts.InvalidPeriod, "zero period length")
	}
	idx, err := t.periods.Append(Period{EffectiveFrom: now, Length: length})
	if err != nil {
		return err
	}
	logger.Debug("period appended", "index", idx, "from", now, "length", length)
	return nil
}

func (t *Timeline) Count() (uint64, error) {
	return t.periods.Len()
}

func (t *Timeline) Get(i uint64) (Period, error) {
	return t.periods.Get(i)
}

// Current returns the latest period. ok is false while the timeline is empty.
func (t *Timeline) Current() (p Period, ok bool, err error) {
	n, err := t.periods.Len()
	if err != nil || n == 0 {
		return Period{}, false, err
	}
	p, err = t.periods.Get(n - 1)
	if err != nil {
		return Period{}, false, err
	}
	return p, true, nil
}

func (t *Timeline) All() ([]Period, error) {
	return t.periods.All()
}

// Elapsed counts the whole periods between from and to. settledTo is the end
// of the last counted period.
func (t *Timeline) Elapsed(from, to uint64) (count uint64, settledTo uint64, err error) {
	periods, err := t.periods.All()
	if err != nil {
		return 0, from, err
	}
	count, settledTo = Elapsed(periods, from, to)
	return
}

// Elapsed walks the period history from `from` towards `to`. Each period takes
// the length in effect at its beginning, and the history before the first
// record uses the first record's length. Partial periods are not counted.
func Elapsed(periods []Period, from, to uint64) (count uint64, settledTo uint64) {
	cursor := from
	if len(periods) == 0 || to <= from {
		return 0, cursor
	}
	for {
		i := segmentAt(periods, cursor)
		length := periods[i].Length
		n := (to - cursor) / length
		if i+1 == len(periods) {
			return count + n, cursor + n*length
		}
		end := periods[i+1].EffectiveFrom
		toEnd := (end-cursor-1)/length + 1
		if n < toEnd {
			return count + n, cursor + n*length
		}
		count += toEnd
		cursor += toEnd * length
	}
}

// segmentAt returns the index of the last period effective at or before t, 0 if none.
func segmentAt(periods []Period, t uint64) int {
	i := 0
	for j := 1; j < len(periods); j++ {
		if periods[j].EffectiveFrom > t {
			break
		}
		i = j
	}
	return i
}
