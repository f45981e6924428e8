// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package solidity provides typed storage slots for builtin components,
// laid out the way a contract lays out its storage.
package solidity

import (
	"encoding/binary"
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/taisys-technologies/audit-stakingpool/state"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

// Context binds a component address to the state it stores into.
type Context struct {
	address types.Address
	state   *state.State
}

func NewContext(address types.Address, state *state.State) *Context {
	return &Context{
		address: address,
		state:   state,
	}
}

func (c *Context) Address() types.Address {
	return c.address
}

func (c *Context) State() *state.State {
	return c.state
}

// Key is implemented by mapping keys.
type Key interface {
	Bytes() []byte
}

// Slot derives a child slot position from a parent position and a key.
func Slot(parent types.Bytes32, key []byte) types.Bytes32 {
	return types.Blake2b(key, parent.Bytes())
}

func indexKey(i uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], i)
	return b[:]
}

// load decodes the slot at pos. Pointer types come back allocated even when
// the slot is empty.
func load[V any](c *Context, pos types.Bytes32) (value V, err error) {
	err = c.state.DecodeStorage(c.address, pos, func(raw []byte) error {
		if reflect.ValueOf(value).Kind() == reflect.Ptr {
			value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
		}
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

func (c *Context) encode(pos types.Bytes32, value any) error {
	return c.state.EncodeStorage(c.address, pos, func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}

func (c *Context) clear(pos types.Bytes32) {
	c.state.SetRawStorage(c.address, pos, nil)
}
