// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package registry maps ownership certificates to their owners. A certificate
// cannot be released while a registered checker reports its owner as staking.
package registry

import (
	"github.com/holiman/uint256"

	"github.com/taisys-technologies/audit-stakingpool/builtin/control"
	"github.com/taisys-technologies/audit-stakingpool/builtin/directory"
	"github.com/taisys-technologies/audit-stakingpool/builtin/reverts"
	"github.com/taisys-technologies/audit-stakingpool/log"
	"github.com/taisys-technologies/audit-stakingpool/solidity"
	"github.com/taisys-technologies/audit-stakingpool/state"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

var (
	logger      = log.WithContext("pkg", "registry")
	ownersKey   = types.Blake2b([]byte("owners"))
	indexKey    = types.Blake2b([]byte("index"))
	tokensKey   = types.Blake2b([]byte("tokens"))
	checkersKey = types.Blake2b([]byte("checkers"))
	checkingKey = types.Blake2b([]byte("checking"))
)

func certKey(id *uint256.Int) types.Bytes32 {
	return types.Bytes32(id.Bytes32())
}

type Registry struct {
	*control.Control
	addr     types.Address
	sctx     *solidity.Context
	owners   *solidity.Mapping[types.Bytes32, types.Address]
	index    *solidity.Mapping[types.Bytes32, uint64]
	checkers *solidity.Array[types.Address]
	checking *solidity.Mapping[types.Address, bool]
	dir      *directory.Directory
}

func New(addr types.Address, state *state.State, dir *directory.Directory) *Registry {
	sctx := solidity.NewContext(addr, state)
	return &Registry{
		Control:  control.New(sctx),
		addr:     addr,
		sctx:     sctx,
		owners:   solidity.NewMapping[types.Bytes32, types.Address](sctx, ownersKey),
		index:    solidity.NewMapping[types.Bytes32, uint64](sctx, indexKey),
		checkers: solidity.NewArray[types.Address](sctx, checkersKey),
		checking: solidity.NewMapping[types.Address, bool](sctx, checkingKey),
		dir:      dir,
	}
}

func (r *Registry) Address() types.Address {
	return r.addr
}

func (r *Registry) tokens(owner types.Address) *solidity.Array[*uint256.Int] {
	return solidity.NewArray[*uint256.Int](r.sctx, solidity.Slot(tokensKey, owner.Bytes()))
}

// AddChecker registers the ledger at addr as a release checker.
func (r *Registry) AddChecker(caller, addr types.Address) error {
	if err := r.Require(caller); err != nil {
		return err
	}
	if addr.IsZero() {
		return reverts.New(reverts.InvalidInput, "zero checker address")
	}
	if _, ok := r.dir.Checker(addr); !ok {
		return reverts.New(reverts.InvalidInput, "no checker at %v", addr)
	}
	checking, err := r.checking.Get(addr)
	if err != nil {
		return err
	}
	if checking {
		return reverts.New(reverts.AlreadyRegistered, "checker %v", addr)
	}
	if err := r.checking.Set(addr, true); err != nil {
		return err
	}
	if _, err := r.checkers.Append(addr); err != nil {
		return err
	}
	logger.Debug("checker added", "registry", r.addr, "checker", addr)
	return nil
}

func (r *Registry) Checkers() ([]types.Address, error) {
	return r.checkers.All()
}

// Grant assigns certificate id to owner. Controller only.
func (r *Registry) Grant(caller, owner types.Address, id *uint256.Int) error {
	if err := r.Require(caller); err != nil {
		return err
	}
	if owner.IsZero() {
		return reverts.New(reverts.InvalidInput, "zero owner")
	}
	key := certKey(id)
	has, err := r.owners.Has(key)
	if err != nil {
		return err
	}
	if has {
		return reverts.New(reverts.AlreadyRegistered, "certificate %v", id)
	}
	idx, err := r.tokens(owner).Append(id.Clone())
	if err != nil {
		return err
	}
	if err := r.index.Set(key, idx); err != nil {
		return err
	}
	if err := r.owners.Set(key, owner); err != nil {
		return err
	}
	logger.Debug("certificate granted", "registry", r.addr, "owner", owner, "id", id)
	return nil
}

// Release removes certificate id. Only its owner may release it, and only
// while no checker reports the owner as staking.
func (r *Registry) Release(caller types.Address, id *uint256.Int) error {
	key := certKey(id)
	owner, err := r.owners.Get(key)
	if err != nil {
		return err
	}
	if owner.IsZero() || owner != caller {
		return reverts.New(reverts.NotOwner, "certificate %v", id)
	}

	checkers, err := r.checkers.All()
	if err != nil {
		return err
	}
	for _, addr := range checkers {
		checker, ok := r.dir.Checker(addr)
		if !ok {
			logger.Warn("checker not resolvable", "registry", r.addr, "checker", addr)
			continue
		}
		active, err := checker.IsActive(owner)
		if err != nil {
			return err
		}
		if active {
			return reverts.New(reverts.CertificateInUse, "owner %v is staking in %v", owner, addr)
		}
	}

	idx, err := r.index.Get(key)
	if err != nil {
		return err
	}
	tokens := r.tokens(owner)
	n, err := tokens.Len()
	if err != nil {
		return err
	}
	if last := n - 1; idx != last {
		moved, err := tokens.Get(last)
		if err != nil {
			return err
		}
		if err := r.index.Set(certKey(moved), idx); err != nil {
			return err
		}
	}
	if err := tokens.SwapRemove(idx); err != nil {
		return err
	}
	r.index.Delete(key)
	r.owners.Delete(key)
	logger.Debug("certificate released", "registry", r.addr, "owner", owner, "id", id)
	return nil
}

func (r *Registry) BalanceOf(owner types.Address) (uint64, error) {
	return r.tokens(owner).Len()
}

// OwnerOf returns the owner of id, zero if the certificate does not exist.
func (r *Registry) OwnerOf(id *uint256.Int) (types.Address, error) {
	return r.owners.Get(certKey(id))
}

// TokenOf returns the i-th certificate held by owner.
func (r *Registry) TokenOf(owner types.Address, i uint64) (*uint256.Int, error) {
	id, err := r.tokens(owner).Get(i)
	if err == solidity.ErrIndexOutOfRange {
		return nil, reverts.New(reverts.InvalidInput, "index %d out of range", i)
	}
	return id, err
}
