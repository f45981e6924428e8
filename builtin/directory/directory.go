// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package directory resolves component addresses to the capabilities other
// components query. Components reference each other by address only.
package directory

import (
	"sync"

	"github.com/holiman/uint256"

	"github.com/taisys-technologies/audit-stakingpool/types"
)

// Checker reports whether owner has a stake with nonzero principal.
type Checker interface {
	IsActive(owner types.Address) (bool, error)
}

// Holder reports how many certificates owner holds.
type Holder interface {
	BalanceOf(owner types.Address) (uint64, error)
}

// Reserve pays rewards to to on behalf of spender.
type Reserve interface {
	Pull(spender, to types.Address, amount *uint256.Int) error
}

type Directory struct {
	lock     sync.RWMutex
	checkers map[types.Address]Checker
	holders  map[types.Address]Holder
	reserves map[types.Address]Reserve
}

func New() *Directory {
	return &Directory{
		checkers: make(map[types.Address]Checker),
		holders:  make(map[types.Address]Holder),
		reserves: make(map[types.Address]Reserve),
	}
}

func (d *Directory) PutReserve(addr types.Address, r Reserve) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.reserves[addr] = r
}

func (d *Directory) Reserve(addr types.Address) (Reserve, bool) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	r, ok := d.reserves[addr]
	return r, ok
}

func (d *Directory) PutChecker(addr types.Address, c Checker) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.checkers[addr] = c
}

func (d *Directory) PutHolder(addr types.Address, h Holder) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.holders[addr] = h
}

func (d *Directory) Checker(addr types.Address) (Checker, bool) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	c, ok := d.checkers[addr]
	return c, ok
}

func (d *Directory) Holder(addr types.Address) (Holder, bool) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	h, ok := d.holders[addr]
	return h, ok
}
