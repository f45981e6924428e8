// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/taisys-technologies/audit-stakingpool/builtin/control"
	"github.com/taisys-technologies/audit-stakingpool/builtin/levels"
	"github.com/taisys-technologies/audit-stakingpool/builtin/reverts"
	"github.com/taisys-technologies/audit-stakingpool/builtin/timeline"
	"github.com/taisys-technologies/audit-stakingpool/log"
	"github.com/taisys-technologies/audit-stakingpool/solidity"
	"github.com/taisys-technologies/audit-stakingpool/state"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

var (
	logger       = log.WithContext("pkg", "ledger")
	stakesKey    = types.Blake2b([]byte("stakes"))
	totalKey     = types.Blake2b([]byte("total-deposited"))
	thresholdKey = types.Blake2b([]byte("period-threshold"))
	reserveKey   = types.Blake2b([]byte("reward-reserve"))
)

// Ledger keeps the per-owner stakes and settles their rewards.
type Ledger struct {
	*control.Control
	stakes    *solidity.Mapping[types.Address, *Stake]
	total     *solidity.Raw[*uint256.Int]
	threshold *solidity.Raw[uint64]
	reserve   *solidity.Raw[types.Address]
	timeline  *timeline.Timeline
	levels    *levels.Levels
}

func New(addr types.Address, state *state.State, timeline *timeline.Timeline, levels *levels.Levels) *Ledger {
	sctx := solidity.NewContext(addr, state)
	return &Ledger{
		Control:   control.New(sctx),
		stakes:    solidity.NewMapping[types.Address, *Stake](sctx, stakesKey),
		total:     solidity.NewRaw[*uint256.Int](sctx, totalKey),
		threshold: solidity.NewRaw[uint64](sctx, thresholdKey),
		reserve:   solidity.NewRaw[types.Address](sctx, reserveKey),
		timeline:  timeline,
		levels:    levels,
	}
}

// Get returns the stake of owner. An empty stake is returned for unknown owners.
func (l *Ledger) Get(owner types.Address) (*Stake, error) {
	s, err := l.stakes.Get(owner)
	if err != nil {
		return nil, err
	}
	return s.normalize(), nil
}

func (l *Ledger) put(owner types.Address, s *Stake) error {
	if s.IsEmpty() {
		l.stakes.Delete(owner)
		return nil
	}
	return l.stakes.Set(owner, s)
}

// IsActive reports whether owner has a stake with nonzero principal.
func (l *Ledger) IsActive(owner types.Address) (bool, error) {
	s, err := l.Get(owner)
	if err != nil {
		return false, err
	}
	return !s.IsEmpty(), nil
}

func (l *Ledger) TotalDeposited() (*uint256.Int, error) {
	return l.total.Get()
}

func (l *Ledger) Threshold() (uint64, error) {
	return l.threshold.Get()
}

// SetThreshold sets the minimum number of whole periods since the original
// deposit before rewards are paid.
func (l *Ledger) SetThreshold(caller types.Address, n uint64) error {
	if err := l.Require(caller); err != nil {
		return err
	}
	if n == 0 {
		return reverts.New(reverts.InvalidInput, "zero period threshold")
	}
	if err := l.threshold.Upsert(n); err != nil {
		return err
	}
	logger.Debug("period threshold set", "threshold", n)
	return nil
}

// RewardReserve returns the address rewards are pulled from, zero if unset.
func (l *Ledger) RewardReserve() (types.Address, error) {
	return l.reserve.Get()
}

func (l *Ledger) SetRewardReserve(caller, addr types.Address) error {
	if err := l.Require(caller); err != nil {
		return err
	}
	if addr.IsZero() {
		return reverts.New(reverts.InvalidInput, "zero reward reserve")
	}
	if err := l.reserve.Upsert(addr); err != nil {
		return err
	}
	logger.Debug("reward reserve set", "reserve", addr)
	return nil
}

// settle converts the whole periods elapsed since the last settlement into accrued reward.
func (l *Ledger) settle(s *Stake, now uint64) error {
	if s.IsEmpty() {
		return nil
	}
	k, to, err := l.timeline.Elapsed(s.LastSettled, now)
	if err != nil || k == 0 {
		return err
	}
	rate, err := l.levels.RateFor(s.Principal)
	if err != nil {
		return err
	}
	return settleWith(s, k, to, rate)
}

func settleWith(s *Stake, k, to uint64, rate *uint256.Int) error {
	reward, err := types.MulAmount(rate, k)
	if err != nil {
		return errors.Wrap(err, "settle")
	}
	accrued, err := types.AddAmount(s.Accrued, reward)
	if err != nil {
		return errors.Wrap(err, "settle")
	}
	s.Accrued = accrued
	s.LastSettled = to
	return nil
}

// Settle settles the stake of owner at now.
func (l *Ledger) Settle(owner types.Address, now uint64) error {
	s, err := l.Get(owner)
	if err != nil {
		return err
	}
	if s.IsEmpty() {
		return nil
	}
	if err := l.settle(s, now); err != nil {
		return err
	}
	return l.put(owner, s)
}

// Deposit adds amount to the principal of owner. The tier is resolved
// against the principal after the deposit.
func (l *Ledger) Deposit(owner types.Address, amount *uint256.Int, now uint64) error {
	if amount.IsZero() {
		return reverts.New(reverts.InvalidInput, "zero amount")
	}
	s, err := l.Get(owner)
	if err != nil {
		return err
	}
	principal, err := types.AddAmount(s.Principal, amount)
	if err != nil {
		return errors.Wrap(err, "deposit")
	}
	if _, err := l.levels.RateFor(principal); err != nil {
		return err
	}

	if s.IsEmpty() {
		s = newStake()
		s.LastSettled = now
		s.DepositedAt = now
	} else if err := l.settle(s, now); err != nil {
		return err
	}
	s.Principal = principal

	total, err := l.total.Get()
	if err != nil {
		return err
	}
	if total, err = types.AddAmount(total, amount); err != nil {
		return errors.Wrap(err, "deposit")
	}
	if err := l.total.Upsert(total); err != nil {
		return err
	}
	return l.put(owner, s)
}

// unlocked reports whether the threshold is met for s at now.
func (l *Ledger) unlocked(s *Stake, now uint64) (bool, error) {
	threshold, err := l.threshold.Get()
	if err != nil {
		return false, err
	}
	staked, _, err := l.timeline.Elapsed(s.DepositedAt, now)
	if err != nil {
		return false, err
	}
	return staked >= threshold, nil
}

// Claim pays out up to amount of the accrued reward of owner.
// The payout is capped at the accrued balance.
func (l *Ledger) Claim(owner types.Address, amount *uint256.Int, now uint64) (*uint256.Int, error) {
	if amount.IsZero() {
		return nil, reverts.New(reverts.InvalidInput, "zero amount")
	}
	s, err := l.Get(owner)
	if err != nil {
		return nil, err
	}
	if s.IsEmpty() {
		return nil, reverts.New(reverts.TooEarly, "no stake")
	}
	if err := l.settle(s, now); err != nil {
		return nil, err
	}
	ok, err := l.unlocked(s, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, reverts.New(reverts.TooEarly, "staking too short to be claimed")
	}

	payout := types.MinAmount(amount, s.Accrued)
	s.Accrued = new(uint256.Int).Sub(s.Accrued, payout)
	if err := l.put(owner, s); err != nil {
		return nil, err
	}
	return payout, nil
}

// Exit settles and clears the stake of owner, returning the principal and the
// reward paid. Reward accrued before the threshold is met is forfeited.
func (l *Ledger) Exit(owner types.Address, now uint64) (principal, payout *uint256.Int, err error) {
	s, err := l.Get(owner)
	if err != nil {
		return nil, nil, err
	}
	if s.IsEmpty() {
		return new(uint256.Int), new(uint256.Int), nil
	}
	if err := l.settle(s, now); err != nil {
		return nil, nil, err
	}
	ok, err := l.unlocked(s, now)
	if err != nil {
		return nil, nil, err
	}
	payout = new(uint256.Int)
	if ok {
		payout.Set(s.Accrued)
	} else if !s.Accrued.IsZero() {
		logger.Debug("accrual forfeited", "owner", owner, "accrued", s.Accrued)
	}

	total, err := l.total.Get()
	if err != nil {
		return nil, nil, err
	}
	if total.Lt(s.Principal) {
		return nil, nil, errors.Errorf("total deposited %v below principal %v", total, s.Principal)
	}
	if err := l.total.Upsert(new(uint256.Int).Sub(total, s.Principal)); err != nil {
		return nil, nil, err
	}
	l.stakes.Delete(owner)
	return s.Principal, payout, nil
}

// Replay rebuilds the stake of an owner at time at from its journal, using the
// current period history and level table.
func (l *Ledger) Replay(entries []Entry, at uint64) (*Stake, error) {
	periods, err := l.timeline.All()
	if err != nil {
		return nil, err
	}
	table, err := l.levels.All()
	if err != nil {
		return nil, err
	}
	return Replay(periods, table, entries, at)
}

// Replay applies entries in order, ignoring those after at, then settles at at.
func Replay(periods []timeline.Period, table []*levels.Level, entries []Entry, at uint64) (*Stake, error) {
	s := newStake()
	settle := func(now uint64) error {
		if s.IsEmpty() {
			return nil
		}
		k, to := timeline.Elapsed(periods, s.LastSettled, now)
		if k == 0 {
			return nil
		}
		rate, err := levels.RateFor(table, s.Principal)
		if err != nil {
			return err
		}
		return settleWith(s, k, to, rate)
	}

	for _, e := range entries {
		if e.Time > at {
			break
		}
		switch e.Action {
		case ActionDeposit:
			if s.IsEmpty() {
				s = newStake()
				s.LastSettled = e.Time
				s.DepositedAt = e.Time
			} else if err := settle(e.Time); err != nil {
				return nil, err
			}
			principal, err := types.AddAmount(s.Principal, e.Amount)
			if err != nil {
				return nil, errors.Wrap(err, "replay")
			}
			s.Principal = principal
		case ActionClaim:
			if err := settle(e.Time); err != nil {
				return nil, err
			}
			if s.Accrued.Lt(e.Amount) {
				return nil, errors.Errorf("replay: claim of %v exceeds accrued %v", e.Amount, s.Accrued)
			}
			s.Accrued = new(uint256.Int).Sub(s.Accrued, e.Amount)
		case ActionExit:
			s = newStake()
		default:
			return nil, errors.Errorf("replay: unknown action %d", e.Action)
		}
	}
	if err := settle(at); err != nil {
		return nil, err
	}
	return s, nil
}
