// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package levels

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taisys-technologies/audit-stakingpool/builtin/reverts"
	"github.com/taisys-technologies/audit-stakingpool/builtin/timeline"
	"github.com/taisys-technologies/audit-stakingpool/lvldb"
	"github.com/taisys-technologies/audit-stakingpool/state"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

var admin = types.BytesToAddress([]byte("admin"))

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

func newLevels(t *testing.T) (*Levels, *timeline.Timeline) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db)
	tl := timeline.New(types.BytesToAddress([]byte("Timeline")), st)
	require.NoError(t, tl.Initialize(admin))
	lv := New(types.BytesToAddress([]byte("Levels")), st, tl)
	require.NoError(t, lv.Initialize(admin))
	return lv, tl
}

func TestAdd(t *testing.T) {
	lv, tl := newLevels(t)

	assert.ErrorIs(t, lv.Add(admin, u(1), u(0), u(100)), reverts.ErrPeriodRequired)
	require.NoError(t, tl.Append(admin, 100, 0))

	assert.ErrorIs(t, lv.Add(types.Address{1}, u(1), u(0), u(100)), reverts.ErrPermissionDenied)
	assert.ErrorIs(t, lv.Add(admin, u(1), u(100), u(100)), reverts.ErrInvalidLevelRange)
	assert.ErrorIs(t, lv.Add(admin, u(1), u(200), u(100)), reverts.ErrInvalidLevelRange)

	n, _ := lv.Count()
	assert.Equal(t, uint64(0), n)

	require.NoError(t, lv.Add(admin, u(1), u(0), u(100)))
	level, err := lv.Get(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), level.Rate.Uint64())
	assert.Equal(t, uint64(100), level.Upper.Uint64())
}

func TestRateFor(t *testing.T) {
	lv, tl := newLevels(t)
	require.NoError(t, tl.Append(admin, 100, 0))
	require.NoError(t, lv.Add(admin, u(1), u(0), u(100)))
	require.NoError(t, lv.Add(admin, u(10), u(100), u(1000)))
	require.NoError(t, lv.Add(admin, u(100), u(1000), u(10000)))

	tests := []struct {
		amount uint64
		rate   uint64
	}{
		{0, 1}, {9, 1}, {99, 1}, {100, 10}, {999, 10}, {1000, 100}, {9999, 100},
	}
	for _, tt := range tests {
		rate, err := lv.RateFor(u(tt.amount))
		require.NoError(t, err)
		assert.Equal(t, tt.rate, rate.Uint64(), "amount %d", tt.amount)
	}

	_, err := lv.RateFor(u(10000))
	assert.ErrorIs(t, err, reverts.ErrNotInAnyLevel)
}

func TestRateForFirstMatch(t *testing.T) {
	lv, tl := newLevels(t)
	require.NoError(t, tl.Append(admin, 100, 0))
	require.NoError(t, lv.Add(admin, u(10), u(100), u(1000)))
	require.NoError(t, lv.Add(admin, u(1000), u(50), u(150)))

	rate, err := lv.RateFor(u(110))
	require.NoError(t, err)
	assert.Equal(t, uint64(10), rate.Uint64())

	rate, err = lv.RateFor(u(60))
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), rate.Uint64())
}
