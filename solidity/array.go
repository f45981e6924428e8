// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/pkg/errors"

	"github.com/taisys-technologies/audit-stakingpool/types"
)

// ErrIndexOutOfRange is returned when reading past the end of an Array.
var ErrIndexOutOfRange = errors.New("array index out of range")

// Array is a dynamic array like Solidity's T[]: the length lives at the base
// position and element i at Slot(base, i). Indices are stable while appending.
type Array[V any] struct {
	context *Context
	basePos types.Bytes32
	length  *Raw[uint64]
}

func NewArray[V any](context *Context, pos types.Bytes32) *Array[V] {
	return &Array[V]{
		context: context,
		basePos: pos,
		length:  NewRaw[uint64](context, pos),
	}
}

func (a *Array[V]) Len() (uint64, error) {
	return a.length.Get()
}

func (a *Array[V]) Get(i uint64) (value V, err error) {
	n, err := a.Len()
	if err != nil {
		return value, err
	}
	if i >= n {
		return value, ErrIndexOutOfRange
	}
	return load[V](a.context, Slot(a.basePos, indexKey(i)))
}

// Append pushes value and returns its index.
func (a *Array[V]) Append(value V) (uint64, error) {
	n, err := a.Len()
	if err != nil {
		return 0, err
	}
	if err := a.context.encode(Slot(a.basePos, indexKey(n)), value); err != nil {
		return 0, err
	}
	if err := a.length.Upsert(n + 1); err != nil {
		return 0, err
	}
	return n, nil
}

// SwapRemove removes element i by moving the last element into its place.
func (a *Array[V]) SwapRemove(i uint64) error {
	n, err := a.Len()
	if err != nil {
		return err
	}
	if i >= n {
		return ErrIndexOutOfRange
	}
	if last := n - 1; i != last {
		v, err := a.Get(last)
		if err != nil {
			return err
		}
		if err := a.context.encode(Slot(a.basePos, indexKey(i)), v); err != nil {
			return err
		}
	}
	a.context.clear(Slot(a.basePos, indexKey(n-1)))
	if n == 1 {
		a.length.Clear()
		return nil
	}
	return a.length.Upsert(n - 1)
}

// All loads every element in index order.
func (a *Array[V]) All() ([]V, error) {
	n, err := a.Len()
	if err != nil {
		return nil, err
	}
	all := make([]V, 0, n)
	for i := uint64(0); i < n; i++ {
		v, err := a.Get(i)
		if err != nil {
			return nil, err
		}
		all = append(all, v)
	}
	return all, nil
}
