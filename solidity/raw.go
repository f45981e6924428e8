// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/taisys-technologies/audit-stakingpool/types"
)

// Raw is a single storage slot holding an rlp encoded value.
type Raw[V any] struct {
	context *Context
	pos     types.Bytes32
}

func NewRaw[V any](context *Context, pos types.Bytes32) *Raw[V] {
	return &Raw[V]{context: context, pos: pos}
}

// Get returns the stored value, or the zero value if the slot is empty.
func (r *Raw[V]) Get() (value V, err error) {
	return load[V](r.context, r.pos)
}

func (r *Raw[V]) Upsert(value V) error {
	return r.context.encode(r.pos, value)
}

func (r *Raw[V]) Clear() {
	r.context.clear(r.pos)
}
