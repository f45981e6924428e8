// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gateway

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taisys-technologies/audit-stakingpool/builtin/directory"
	"github.com/taisys-technologies/audit-stakingpool/builtin/registry"
	"github.com/taisys-technologies/audit-stakingpool/builtin/reverts"
	"github.com/taisys-technologies/audit-stakingpool/lvldb"
	"github.com/taisys-technologies/audit-stakingpool/state"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

var (
	admin = types.BytesToAddress([]byte("admin"))
	alice = types.BytesToAddress([]byte("alice"))
	bob   = types.BytesToAddress([]byte("bob"))
)

func TestGateway(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	st := state.New(db)
	dir := directory.New()
	first := registry.New(types.BytesToAddress([]byte("Registry1")), st, dir)
	second := registry.New(types.BytesToAddress([]byte("Registry2")), st, dir)
	dir.PutHolder(first.Address(), first)
	dir.PutHolder(second.Address(), second)

	g := New(types.BytesToAddress([]byte("Gateway")), st, dir)
	for _, c := range []interface{ Initialize(types.Address) error }{first, second, g} {
		require.NoError(t, c.Initialize(admin))
	}

	assert.ErrorIs(t, g.AddRegistry(alice, first.Address()), reverts.ErrPermissionDenied)
	assert.ErrorIs(t, g.AddRegistry(admin, types.Address{}), reverts.ErrInvalidInput)
	assert.ErrorIs(t, g.AddRegistry(admin, bob), reverts.ErrInvalidInput)
	require.NoError(t, g.AddRegistry(admin, first.Address()))
	require.NoError(t, g.AddRegistry(admin, second.Address()))
	assert.ErrorIs(t, g.AddRegistry(admin, first.Address()), reverts.ErrAlreadyRegistered)

	registries, err := g.Registries()
	require.NoError(t, err)
	assert.Equal(t, []types.Address{first.Address(), second.Address()}, registries)

	eligible, err := g.IsEligible(alice)
	require.NoError(t, err)
	assert.False(t, eligible)

	require.NoError(t, second.Grant(admin, alice, uint256.NewInt(11)))
	eligible, err = g.IsEligible(alice)
	require.NoError(t, err)
	assert.True(t, eligible)

	eligible, _ = g.IsEligible(bob)
	assert.False(t, eligible)

	require.NoError(t, second.Release(alice, uint256.NewInt(11)))
	eligible, _ = g.IsEligible(alice)
	assert.False(t, eligible)
}
