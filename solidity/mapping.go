// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/taisys-technologies/audit-stakingpool/types"
)

// Mapping is a key/value storage abstraction for builtin components, similar to the mapping in Solidity.
type Mapping[K Key, V any] struct {
	context *Context
	basePos types.Bytes32
}

func NewMapping[K Key, V any](context *Context, pos types.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{context: context, basePos: pos}
}

// Get returns the value under key. Missing keys yield the zero value.
func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	return load[V](m.context, Slot(m.basePos, key.Bytes()))
}

// Has reports whether a non-empty value is stored under key.
func (m *Mapping[K, V]) Has(key K) (bool, error) {
	raw, err := m.context.state.GetRawStorage(m.context.address, Slot(m.basePos, key.Bytes()))
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}

func (m *Mapping[K, V]) Set(key K, value V) error {
	return m.context.encode(Slot(m.basePos, key.Bytes()), value)
}

func (m *Mapping[K, V]) Delete(key K) {
	m.context.clear(Slot(m.basePos, key.Bytes()))
}
