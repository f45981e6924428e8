// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/holiman/uint256"

	"github.com/taisys-technologies/audit-stakingpool/builtin/ledger"
	"github.com/taisys-technologies/audit-stakingpool/solidity"
	"github.com/taisys-technologies/audit-stakingpool/state"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

var (
	eventsKey      = types.Blake2b([]byte("events"))
	ownerEventsKey = types.Blake2b([]byte("owner-events"))
)

// Event is a committed stake action.
type Event struct {
	Seq       uint64
	Action    ledger.Action
	Owner     types.Address
	Amount    *uint256.Int // deposited amount, or reward paid for claim and exit
	Principal *uint256.Int // principal returned by exit
	Time      uint64
}

// Entry converts the event into a ledger replay entry.
func (e *Event) Entry() ledger.Entry {
	return ledger.Entry{Action: e.Action, Amount: e.Amount, Time: e.Time}
}

// journal is the append-only event log, kept in state so it commits with the stakes.
type journal struct {
	sctx   *solidity.Context
	events *solidity.Array[*Event]
}

func newJournal(addr types.Address, state *state.State) *journal {
	sctx := solidity.NewContext(addr, state)
	return &journal{
		sctx:   sctx,
		events: solidity.NewArray[*Event](sctx, eventsKey),
	}
}

func (j *journal) ownerSeqs(owner types.Address) *solidity.Array[uint64] {
	return solidity.NewArray[uint64](j.sctx, solidity.Slot(ownerEventsKey, owner.Bytes()))
}

func (j *journal) append(ev *Event) error {
	seq, err := j.events.Len()
	if err != nil {
		return err
	}
	ev.Seq = seq
	if _, err := j.events.Append(ev); err != nil {
		return err
	}
	_, err = j.ownerSeqs(ev.Owner).Append(seq)
	return err
}

func (j *journal) count() (uint64, error) {
	return j.events.Len()
}

// slice returns at most limit events starting from seq from.
func (j *journal) slice(from, limit uint64) ([]*Event, error) {
	n, err := j.events.Len()
	if err != nil {
		return nil, err
	}
	var out []*Event
	for seq := from; seq < n && uint64(len(out)) < limit; seq++ {
		ev, err := j.events.Get(seq)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func (j *journal) byOwner(owner types.Address) ([]*Event, error) {
	seqs, err := j.ownerSeqs(owner).All()
	if err != nil {
		return nil, err
	}
	out := make([]*Event, 0, len(seqs))
	for _, seq := range seqs {
		ev, err := j.events.Get(seq)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}
