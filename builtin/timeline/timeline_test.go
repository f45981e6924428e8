// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package timeline

import (
	"math"
	"sort"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taisys-technologies/audit-stakingpool/builtin/reverts"
	"github.com/taisys-technologies/audit-stakingpool/lvldb"
	"github.com/taisys-technologies/audit-stakingpool/state"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

var (
	admin = types.BytesToAddress([]byte("admin"))
	user  = types.BytesToAddress([]byte("user"))
)

func newTimeline(t *testing.T) *Timeline {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tl := New(types.BytesToAddress([]byte("Timeline")), state.New(db))
	require.NoError(t, tl.Initialize(admin))
	return tl
}

func TestAppend(t *testing.T) {
	tl := newTimeline(t)

	_, ok, err := tl.Current()
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, tl.Append(user, 100, 1), reverts.ErrPermissionDenied)
	assert.ErrorIs(t, tl.Append(admin, 0, 1), reverts.ErrInvalidPeriod)

	n, _ := tl.Count()
	assert.Equal(t, uint64(0), n)

	require.NoError(t, tl.Append(admin, 100, 10))
	require.NoError(t, tl.Append(admin, 50, 500))

	n, _ = tl.Count()
	assert.Equal(t, uint64(2), n)

	p, err := tl.Get(0)
	require.NoError(t, err)
	assert.Equal(t, Period{EffectiveFrom: 10, Length: 100}, p)

	p, ok, err = tl.Current()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Period{EffectiveFrom: 500, Length: 50}, p)
}

func TestElapsedSinglePeriod(t *testing.T) {
	periods := []Period{{EffectiveFrom: 1000, Length: 100}}

	tests := []struct {
		from, to  uint64
		count     uint64
		settledTo uint64
	}{
		{2000, 2000, 0, 2000},
		{2000, 1500, 0, 2000},
		{2000, 2099, 0, 2000},
		{2000, 2100, 1, 2100},
		{2000, 2450, 4, 2400},
		// the first record's length applies before it
		{500, 1250, 7, 1200},
	}
	for _, tt := range tests {
		count, settledTo := Elapsed(periods, tt.from, tt.to)
		assert.Equal(t, tt.count, count, "from %d to %d", tt.from, tt.to)
		assert.Equal(t, tt.settledTo, settledTo, "from %d to %d", tt.from, tt.to)
	}

	count, settledTo := Elapsed(nil, 10, 1000)
	assert.Equal(t, uint64(0), count)
	assert.Equal(t, uint64(10), settledTo)
}

func TestElapsedPeriodShortened(t *testing.T) {
	const (
		long  = 100000
		short = 10000
	)
	tl := newTimeline(t)
	require.NoError(t, tl.Append(admin, long, 0))

	deposited := uint64(100)
	changed := deposited + 4*long + 10
	require.NoError(t, tl.Append(admin, short, changed))

	// the period running across the change keeps its length
	claimAt := changed + long
	count, settledTo, err := tl.Elapsed(deposited, claimAt)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), count)
	assert.Equal(t, deposited+5*long, settledTo)

	claimAt += 3 * short
	more, settledTo, err := tl.Elapsed(settledTo, claimAt)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), more)

	changedAgain := claimAt + 1
	require.NoError(t, tl.Append(admin, short, changedAgain))
	claimAt += short
	last, _, err := tl.Elapsed(settledTo, claimAt)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), last)
	assert.Equal(t, uint64(9), count+more+last)
}

func TestElapsedHugeLength(t *testing.T) {
	tl := newTimeline(t)
	require.NoError(t, tl.Append(admin, math.MaxUint64, 0))
	require.NoError(t, tl.Append(admin, 10, 1000))

	// a period that can never end spans any later change
	count, settledTo, err := tl.Elapsed(500, 2000)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
	assert.Equal(t, uint64(500), settledTo)

	count, settledTo, err = tl.Elapsed(1000, 1030)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
	assert.Equal(t, uint64(1030), settledTo)

	count, settledTo = Elapsed([]Period{{EffectiveFrom: 0, Length: math.MaxUint64}}, 1, math.MaxUint64)
	assert.Equal(t, uint64(0), count)
	assert.Equal(t, uint64(1), settledTo)
}

func randomPeriods(f *fuzz.Fuzzer) []Period {
	var n uint8
	f.Fuzz(&n)
	periods := make([]Period, int(n%5)+1)
	for i := range periods {
		var from uint32
		var length uint16
		f.Fuzz(&from)
		f.Fuzz(&length)
		periods[i] = Period{EffectiveFrom: uint64(from), Length: uint64(length)%5000 + 1}
	}
	sort.SliceStable(periods, func(i, j int) bool {
		return periods[i].EffectiveFrom < periods[j].EffectiveFrom
	})
	return periods
}

func TestElapsedAdditive(t *testing.T) {
	f := fuzz.New().NilChance(0)
	for range 500 {
		periods := randomPeriods(f)

		var a, b, c uint32
		f.Fuzz(&a)
		f.Fuzz(&b)
		f.Fuzz(&c)
		pts := []uint64{uint64(a), uint64(b), uint64(c)}
		sort.Slice(pts, func(i, j int) bool { return pts[i] < pts[j] })

		whole, wholeTo := Elapsed(periods, pts[0], pts[2])
		first, mid := Elapsed(periods, pts[0], pts[1])
		second, secondTo := Elapsed(periods, mid, pts[2])

		assert.LessOrEqual(t, mid, pts[1])
		assert.LessOrEqual(t, wholeTo, pts[2])
		assert.Equal(t, whole, first+second, "periods %v points %v", periods, pts)
		assert.Equal(t, wholeTo, secondTo)
	}
}

func TestElapsedIdempotent(t *testing.T) {
	f := fuzz.New().NilChance(0)
	for range 200 {
		periods := randomPeriods(f)
		var from, to uint32
		f.Fuzz(&from)
		f.Fuzz(&to)

		_, settledTo := Elapsed(periods, uint64(from), uint64(to))
		again, againTo := Elapsed(periods, settledTo, uint64(to))
		assert.Zero(t, again, "periods %v from %d to %d", periods, from, to)
		assert.Equal(t, settledTo, againTo)
	}
}
