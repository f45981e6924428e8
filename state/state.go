// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"

	"github.com/taisys-technologies/audit-stakingpool/cache"
	"github.com/taisys-technologies/audit-stakingpool/kv"
	"github.com/taisys-technologies/audit-stakingpool/log"
	"github.com/taisys-technologies/audit-stakingpool/stackedmap"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

// StorageBucket prefixes every storage slot in the backing store.
const StorageBucket = kv.Bucket("s")

const defaultCacheSize = 4096

var logger = log.WithContext("pkg", "state")

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	addr types.Address
	key  types.Bytes32
}

func (k storageKey) bytes() []byte {
	return append(append(make([]byte, 0, types.AddressLength+32), k.addr[:]...), k.key[:]...)
}

// State is the journaled storage of every builtin component.
// Writes stay in memory until Commit, and can be reverted to any checkpoint.
type State struct {
	store kv.Store
	cache *cache.LRU
	sm    *stackedmap.StackedMap[storageKey, []byte]
}

// New create state object on top of db.
func New(db kv.Store) *State {
	c, _ := cache.NewLRU(defaultCacheSize)
	s := &State{
		store: StorageBucket.NewStore(db),
		cache: c,
	}
	s.reset()
	return s
}

func (s *State) reset() {
	s.sm = stackedmap.New(s.load)
	s.sm.Push()
}

func (s *State) load(key storageKey) ([]byte, bool, error) {
	v, err := s.cache.GetOrLoad(key, func(any) (any, error) {
		raw, err := s.store.Get(key.bytes())
		if err != nil {
			if s.store.IsNotFound(err) {
				return []byte(nil), nil
			}
			return nil, &Error{err}
		}
		return raw, nil
	})
	if err != nil {
		return nil, false, err
	}
	raw := v.([]byte)
	return raw, len(raw) > 0, nil
}

// GetRawStorage returns the raw value stored at the slot, nil if unset.
func (s *State) GetRawStorage(addr types.Address, key types.Bytes32) ([]byte, error) {
	raw, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// SetRawStorage sets the raw value of the slot. Empty value clears the slot.
func (s *State) SetRawStorage(addr types.Address, key types.Bytes32, raw []byte) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
func (s *State) EncodeStorage(addr types.Address, key types.Bytes32, enc func() ([]byte, error)) error {
	data, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, data)
	return nil
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be passed through.
func (s *State) DecodeStorage(addr types.Address, key types.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	return dec(raw)
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	if revision < 1 {
		panic("state: invalid revision")
	}
	s.sm.PopTo(revision)
}

// Pending returns the number of uncommitted slot writes.
func (s *State) Pending() int {
	return len(s.sm.Journal())
}

// Commit writes all pending changes to the store in one batch.
// Checkpoints are discarded.
func (s *State) Commit() error {
	journal := s.sm.Journal()
	if len(journal) == 0 {
		return nil
	}

	final := make(map[storageKey][]byte, len(journal))
	order := make([]storageKey, 0, len(journal))
	for _, entry := range journal {
		if _, seen := final[entry.Key]; !seen {
			order = append(order, entry.Key)
		}
		final[entry.Key] = entry.Value
	}

	bulk := s.store.Bulk()
	for _, key := range order {
		var err error
		if raw := final[key]; len(raw) == 0 {
			err = bulk.Delete(key.bytes())
		} else {
			err = bulk.Put(key.bytes(), raw)
		}
		if err != nil {
			return &Error{err}
		}
	}
	if err := bulk.Write(); err != nil {
		return &Error{err}
	}

	for _, key := range order {
		s.cache.Add(key, final[key])
	}
	logger.Trace("state committed", "slots", len(order))
	s.reset()
	return nil
}
