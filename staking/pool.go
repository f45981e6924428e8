// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staking runs the staking pool: it gates depositor actions on
// eligibility, settles the ledger, moves funds and journals the result, all
// in one atomic unit per call.
package staking

import (
	"sync"
	"time"

	"github.com/holiman/uint256"

	"github.com/taisys-technologies/audit-stakingpool/builtin"
	"github.com/taisys-technologies/audit-stakingpool/builtin/asset"
	"github.com/taisys-technologies/audit-stakingpool/builtin/directory"
	"github.com/taisys-technologies/audit-stakingpool/builtin/gateway"
	"github.com/taisys-technologies/audit-stakingpool/builtin/ledger"
	"github.com/taisys-technologies/audit-stakingpool/builtin/levels"
	"github.com/taisys-technologies/audit-stakingpool/builtin/registry"
	"github.com/taisys-technologies/audit-stakingpool/builtin/reserve"
	"github.com/taisys-technologies/audit-stakingpool/builtin/reverts"
	"github.com/taisys-technologies/audit-stakingpool/builtin/timeline"
	"github.com/taisys-technologies/audit-stakingpool/kv"
	"github.com/taisys-technologies/audit-stakingpool/log"
	"github.com/taisys-technologies/audit-stakingpool/solidity"
	"github.com/taisys-technologies/audit-stakingpool/state"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

var (
	logger = log.WithContext("pkg", "staking")

	// JournalAddress holds the event journal and the deployed registry list.
	JournalAddress = types.BytesToAddress([]byte("Journal"))
	deploymentsKey = types.Blake2b([]byte("registries"))
)

// Indexer receives committed events.
type Indexer interface {
	Index(events []*Event) error
}

// Pool is the staking pool. It is safe for concurrent use; operations run serially.
type Pool struct {
	lock    sync.Mutex
	state   *state.State
	dir     *directory.Directory
	pending []*Event
	indexer Indexer

	timeline    *timeline.Timeline
	levels      *levels.Levels
	ledger      *ledger.Ledger
	gateway     *gateway.Gateway
	stakeAsset  *asset.Asset
	rewardAsset *asset.Asset
	reserve     *reserve.Reserve
	registries  map[types.Address]*registry.Registry
	deployments *solidity.Array[types.Address]
	journal     *journal
}

// New opens the pool stored in db.
func New(db kv.Store) (*Pool, error) {
	st := state.New(db)
	dir := directory.New()

	tl := builtin.Timeline.WithState(st)
	lv := builtin.Levels.WithState(st, tl)
	lg := builtin.Ledger.WithState(st, tl, lv)
	reward := builtin.RewardAsset.WithState(st)
	rsv := builtin.Reserve.WithState(st, reward)

	p := &Pool{
		state:       st,
		dir:         dir,
		timeline:    tl,
		levels:      lv,
		ledger:      lg,
		gateway:     builtin.Gateway.WithState(st, dir),
		stakeAsset:  builtin.StakeAsset.WithState(st),
		rewardAsset: reward,
		reserve:     rsv,
		registries:  make(map[types.Address]*registry.Registry),
		deployments: solidity.NewArray[types.Address](solidity.NewContext(JournalAddress, st), deploymentsKey),
		journal:     newJournal(JournalAddress, st),
	}
	dir.PutChecker(builtin.Ledger.Address, lg)
	dir.PutReserve(builtin.Reserve.Address, rsv)

	deployed, err := p.deployments.All()
	if err != nil {
		return nil, err
	}
	for _, addr := range deployed {
		p.bindRegistry(addr)
	}
	return p, nil
}

// SetIndexer installs the receiver of committed events.
func (p *Pool) SetIndexer(indexer Indexer) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.indexer = indexer
}

func (p *Pool) bindRegistry(addr types.Address) *registry.Registry {
	r := builtin.NewRegistry(addr, p.state, p.dir)
	p.registries[addr] = r
	p.dir.PutHolder(addr, r)
	return r
}

// transact runs fn as one atomic unit: state written by fn is committed when
// it succeeds and discarded when it fails.
func (p *Pool) transact(op string, fn func() error) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	start := time.Now()
	checkpoint := p.state.NewCheckpoint()
	p.pending = nil

	err := fn()
	if err == nil {
		err = p.state.Commit()
	}
	if err != nil {
		p.state.RevertTo(checkpoint)
		p.pending = nil
		result := "error"
		if reverts.IsRevertErr(err) {
			result = "revert"
			logger.Debug("operation reverted", "op", op, "err", err)
		} else {
			logger.Warn("operation failed", "op", op, "err", err)
		}
		metricOperationCount().AddWithLabel(1, map[string]string{"op": op, "result": result})
		return err
	}

	events := p.pending
	p.pending = nil
	if len(events) > 0 && p.indexer != nil {
		if err := p.indexer.Index(events); err != nil {
			logger.Warn("failed to index events", "count", len(events), "err", err)
		}
	}
	if total, err := p.ledger.TotalDeposited(); err == nil && total.IsUint64() {
		metricTotalDeposited().Set(int64(total.Uint64()))
	}
	metricOperationCount().AddWithLabel(1, map[string]string{"op": op, "result": "ok"})
	metricOperationDuration().ObserveWithLabels(time.Since(start).Milliseconds(), map[string]string{"op": op})
	return nil
}

// view runs fn with the pool locked, without committing anything.
func (p *Pool) view(fn func() error) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	return fn()
}

func (p *Pool) record(action ledger.Action, owner types.Address, amount, principal *uint256.Int, now uint64) error {
	if principal == nil {
		principal = new(uint256.Int)
	}
	ev := &Event{
		Action:    action,
		Owner:     owner,
		Amount:    amount.Clone(),
		Principal: principal.Clone(),
		Time:      now,
	}
	if err := p.journal.append(ev); err != nil {
		return err
	}
	p.pending = append(p.pending, ev)
	return nil
}

func (p *Pool) requireEligible(owner types.Address) error {
	eligible, err := p.gateway.IsEligible(owner)
	if err != nil {
		return err
	}
	if !eligible {
		return reverts.New(reverts.NotEligible, "%v holds no certificate", owner)
	}
	return nil
}

// payReward pulls amount from the configured reward reserve to owner.
func (p *Pool) payReward(owner types.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	addr, err := p.ledger.RewardReserve()
	if err != nil {
		return err
	}
	if addr.IsZero() {
		return reverts.New(reverts.InvalidInput, "reward reserve not set")
	}
	rsv, ok := p.dir.Reserve(addr)
	if !ok {
		return reverts.New(reverts.InvalidInput, "no reserve at %v", addr)
	}
	return rsv.Pull(builtin.Ledger.Address, owner, amount)
}

// Deposit stakes amount for owner. The amount is pulled from the owner's
// stake asset balance, so the owner must have approved the ledger first.
func (p *Pool) Deposit(owner types.Address, amount *uint256.Int, now uint64) error {
	return p.transact("deposit", func() error {
		if err := p.requireEligible(owner); err != nil {
			return err
		}
		if err := p.ledger.Deposit(owner, amount, now); err != nil {
			return err
		}
		if err := p.stakeAsset.TransferFrom(builtin.Ledger.Address, owner, builtin.Ledger.Address, amount); err != nil {
			return err
		}
		logger.Debug("deposited", "owner", owner, "amount", amount)
		return p.record(ledger.ActionDeposit, owner, amount, nil, now)
	})
}

// Claim pays out up to amount of the owner's accrued reward and returns the payout.
func (p *Pool) Claim(owner types.Address, amount *uint256.Int, now uint64) (*uint256.Int, error) {
	var payout *uint256.Int
	err := p.transact("claim", func() error {
		if err := p.requireEligible(owner); err != nil {
			return err
		}
		paid, err := p.ledger.Claim(owner, amount, now)
		if err != nil {
			return err
		}
		if err := p.payReward(owner, paid); err != nil {
			return err
		}
		payout = paid
		logger.Debug("claimed", "owner", owner, "payout", paid)
		return p.record(ledger.ActionClaim, owner, paid, nil, now)
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

// Exit returns the owner's principal and, once the threshold is met, the
// accrued reward. The stake is cleared.
func (p *Pool) Exit(owner types.Address, now uint64) (principal, payout *uint256.Int, err error) {
	err = p.transact("exit", func() error {
		if err := p.requireEligible(owner); err != nil {
			return err
		}
		returned, paid, err := p.ledger.Exit(owner, now)
		if err != nil {
			return err
		}
		principal, payout = returned, paid
		if returned.IsZero() {
			return nil
		}
		if err := p.stakeAsset.Transfer(builtin.Ledger.Address, owner, returned); err != nil {
			return err
		}
		if err := p.payReward(owner, paid); err != nil {
			return err
		}
		logger.Debug("exited", "owner", owner, "principal", returned, "payout", paid)
		return p.record(ledger.ActionExit, owner, paid, returned, now)
	})
	if err != nil {
		return nil, nil, err
	}
	return principal, payout, nil
}
