// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taisys-technologies/audit-stakingpool/stackedmap"
)

func newMap(src map[string]string) *stackedmap.StackedMap[string, string] {
	return stackedmap.New(func(key string) (string, bool, error) {
		v, ok := src[key]
		return v, ok, nil
	})
}

func get(sm *stackedmap.StackedMap[string, string], key string) string {
	v, _, _ := sm.Get(key)
	return v
}

func TestStackedMap(t *testing.T) {
	sm := newMap(map[string]string{"foo": "bar"})

	assert.Equal(t, 0, sm.Depth())
	assert.Equal(t, "bar", get(sm, "foo"))

	assert.Equal(t, 0, sm.Push())
	sm.Put("foo", "baz")
	sm.Put("foo", "baz1")
	assert.Equal(t, "baz1", get(sm, "foo"))

	assert.Equal(t, 1, sm.Push())
	sm.Put("foo", "qux")
	assert.Equal(t, "qux", get(sm, "foo"))

	sm.Pop()
	assert.Equal(t, 1, sm.Depth())
	assert.Equal(t, "baz1", get(sm, "foo"))

	sm.Push()
	sm.Push()
	sm.PopTo(0)
	assert.Equal(t, 0, sm.Depth())
	assert.Equal(t, "bar", get(sm, "foo"))

	_, found, err := sm.Get("missing")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestStackedMapJournal(t *testing.T) {
	sm := newMap(nil)
	sm.Push()
	sm.Put("a", "1")
	sm.Push()
	sm.Put("b", "2")
	sm.Put("a", "3")

	journal := sm.Journal()
	assert.Len(t, journal, 3)
	assert.Equal(t, "a", journal[0].Key)
	assert.Equal(t, "3", journal[2].Value)

	sm.Pop()
	assert.Len(t, sm.Journal(), 1)
	assert.Equal(t, "1", get(sm, "a"))
}

func TestStackedMapSourceError(t *testing.T) {
	boom := errors.New("boom")
	sm := stackedmap.New(func(string) (int, bool, error) { return 0, false, boom })
	_, _, err := sm.Get("x")
	assert.ErrorIs(t, err, boom)

	sm.Push()
	sm.Put("x", 1)
	v, found, err := sm.Get("x")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, v)
}
