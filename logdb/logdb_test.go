// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taisys-technologies/audit-stakingpool/builtin/ledger"
	"github.com/taisys-technologies/audit-stakingpool/staking"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

var (
	alice = types.BytesToAddress([]byte("alice"))
	bob   = types.BytesToAddress([]byte("bob"))
)

func newEvents(n int) []*staking.Event {
	events := make([]*staking.Event, 0, n)
	for i := range n {
		owner := alice
		if i%2 == 1 {
			owner = bob
		}
		action := ledger.ActionDeposit
		if i%3 == 2 {
			action = ledger.ActionClaim
		}
		events = append(events, &staking.Event{
			Seq:       uint64(i),
			Action:    action,
			Owner:     owner,
			Amount:    uint256.NewInt(uint64(i + 1)),
			Principal: new(uint256.Int),
			Time:      uint64(1000 + i*10),
		})
	}
	return events
}

func newTestDB(t *testing.T) *LogDB {
	db, err := NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestIndexAndFilter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	events := newEvents(10)
	require.NoError(t, db.Index(events))

	all, err := db.FilterEvents(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, events, all)

	owner := bob
	got, err := db.FilterEvents(ctx, &EventFilter{Owner: &owner})
	require.NoError(t, err)
	require.Len(t, got, 5)
	for _, ev := range got {
		assert.Equal(t, bob, ev.Owner)
	}

	claim := ledger.ActionClaim
	got, err = db.FilterEvents(ctx, &EventFilter{Action: &claim})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []uint64{2, 5, 8}, seqs(got))

	got, err = db.FilterEvents(ctx, &EventFilter{
		Range:   &Range{From: 1020, To: 1060},
		Order:   DESC,
		Options: &Options{Offset: 1, Limit: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{5, 4}, seqs(got))

	// open ended range
	got, err = db.FilterEvents(ctx, &EventFilter{Range: &Range{From: 1080}})
	require.NoError(t, err)
	assert.Equal(t, []uint64{8, 9}, seqs(got))
}

func TestIndexReplaces(t *testing.T) {
	db := newTestDB(t)
	events := newEvents(3)
	require.NoError(t, db.Index(events))

	events[1].Amount = uint256.NewInt(77)
	require.NoError(t, db.Index(events[1:2]))

	all, err := db.FilterEvents(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, uint64(77), all[1].Amount.Uint64())
}

func TestNextSeqAndTruncate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	next, err := db.NextSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), next)

	require.NoError(t, db.Index(newEvents(4)))
	next, err = db.NextSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), next)

	require.NoError(t, db.Truncate(ctx))
	next, err = db.NextSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), next)
}

func TestFilterStatementsReused(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.Index(newEvents(6)))
	base := db.stmts.len()

	a, b := alice, bob
	for _, owner := range []*types.Address{&a, &b, &a} {
		got, err := db.FilterEvents(ctx, &EventFilter{Owner: owner, Order: DESC})
		require.NoError(t, err)
		assert.Len(t, got, 3)
	}
	assert.Equal(t, base+1, db.stmts.len(), "owners share one filter shape")

	_, err := db.FilterEvents(ctx, &EventFilter{Owner: &a, Options: &Options{Limit: 1}})
	require.NoError(t, err)
	assert.Equal(t, base+2, db.stmts.len())

	require.NoError(t, db.stmts.close())
	assert.Zero(t, db.stmts.len())
	_, err = db.FilterEvents(ctx, &EventFilter{Owner: &a})
	assert.NoError(t, err, "statements are prepared again after close")
}

type sliceSource []*staking.Event

func (s sliceSource) EventCount() (uint64, error) { return uint64(len(s)), nil }

func (s sliceSource) EventRange(from, limit uint64) ([]*staking.Event, error) {
	if from >= uint64(len(s)) {
		return nil, nil
	}
	to := min(from+limit, uint64(len(s)))
	return s[from:to], nil
}

func TestSync(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	src := sliceSource(newEvents(25))

	require.NoError(t, db.Index(src[:7]))

	var calls []uint64
	err := Sync(ctx, db, src, 5, func(done, total uint64) {
		assert.Equal(t, uint64(18), total)
		calls = append(calls, done)
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{5, 10, 15, 18}, calls)

	all, err := db.FilterEvents(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []*staking.Event(src), all)

	// nothing left
	require.NoError(t, Sync(ctx, db, src, 5, func(uint64, uint64) { t.Fatal("unexpected progress") }))

	// index ahead of the journal
	assert.Error(t, Sync(ctx, db, src[:3], 5, nil))
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.db")
	db, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, path, db.Path())
	assert.NotEmpty(t, db.DriverVersion())
	require.NoError(t, db.Index(newEvents(3)))
	require.NoError(t, db.Close())

	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()
	next, err := db.NextSeq(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), next)
}

func seqs(events []*staking.Event) []uint64 {
	out := make([]uint64, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Seq)
	}
	return out
}
