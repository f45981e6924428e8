// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taisys-technologies/audit-stakingpool/builtin"
	"github.com/taisys-technologies/audit-stakingpool/lvldb"
	"github.com/taisys-technologies/audit-stakingpool/staking"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

func newPool(t *testing.T) *staking.Pool {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	p, err := staking.New(db)
	require.NoError(t, err)
	return p
}

func TestDevnet(t *testing.T) {
	p := newPool(t)
	g := NewDevnet()
	assert.Equal(t, "devnet", g.Name())
	assert.Equal(t, DevAccounts()[0].Address, g.Controller())

	applied, err := g.Apply(p)
	require.NoError(t, err)
	assert.True(t, applied)

	info, err := p.Info()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), info.Threshold)
	assert.Equal(t, builtin.Reserve.Address, info.RewardReserve)
	assert.Equal(t, []types.Address{DevRegistry}, info.Registries)
	require.NotNil(t, info.CurrentPeriod)
	assert.Equal(t, uint64(60), info.CurrentPeriod.Length)
	assert.Equal(t, g.LaunchTime(), info.CurrentPeriod.EffectiveFrom)

	levels, err := p.Levels()
	require.NoError(t, err)
	assert.Len(t, levels, 3)

	for _, acc := range DevAccounts() {
		ok, err := p.IsEligible(acc.Address)
		require.NoError(t, err)
		assert.True(t, ok)
		bal, err := p.BalanceOf(builtin.StakeAsset.Address, acc.Address)
		require.NoError(t, err)
		assert.Equal(t, uint64(1_000_000), bal.Uint64())
	}
	allowance, err := p.Allowance(builtin.RewardAsset.Address, builtin.Reserve.Address, builtin.Ledger.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000), allowance.Uint64())

	// a dev account can stake right away
	dev := DevAccounts()[1].Address
	require.NoError(t, p.Deposit(dev, uint256.NewInt(500), g.LaunchTime()))
	paid, err := p.Claim(dev, uint256.NewInt(100), g.LaunchTime()+3*60)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), paid.Uint64())

	applied, err = g.Apply(p)
	require.NoError(t, err)
	assert.False(t, applied)
}

const customYAML = `
name: testnet
launchTime: 1000
controller: "0x000000000000000000000000000000000061646d"
periods:
  - length: 100
  - from: 5000
    length: 50
threshold: 2
levels:
  - {rate: 1, lower: 0, upper: 100}
  - {rate: "0x10", lower: 100, upper: "1000000000000000000000"}
registries:
  - address: "0x0000000000000000000000000000000000726567"
    certificates:
      - {id: 1, owner: "0x000000000000000000000000000000616c696365"}
reserve:
  funding: 5000
  allowance: 4000
accounts:
  - {address: "0x000000000000000000000000000000616c696365", balance: 700, approve: true}
  - {address: "0x0000000000000000000000000000000000626f62", balance: 300}
`

func writeGenesis(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCustomNet(t *testing.T) {
	gen, err := LoadCustomGenesis(writeGenesis(t, customYAML))
	require.NoError(t, err)

	admin := types.BytesToAddress([]byte("adm"))
	alice := types.BytesToAddress([]byte("alice"))
	bob := types.BytesToAddress([]byte("bob"))
	assert.Equal(t, admin, gen.Controller)
	assert.Equal(t, "1000000000000000000000", gen.Levels[1].Upper.Dec())
	assert.Equal(t, uint64(16), gen.Levels[1].Rate.Uint64())

	g, err := NewCustomNet(gen)
	require.NoError(t, err)
	assert.Equal(t, "testnet", g.Name())

	id, err := gen.ID()
	require.NoError(t, err)
	assert.Equal(t, id, g.ID())

	p := newPool(t)
	applied, err := g.Apply(p)
	require.NoError(t, err)
	assert.True(t, applied)

	periods, err := p.Periods()
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, uint64(1000), periods[0].EffectiveFrom)
	assert.Equal(t, uint64(5000), periods[1].EffectiveFrom)
	assert.Equal(t, uint64(50), periods[1].Length)

	reg, err := p.Registry(types.BytesToAddress([]byte("reg")))
	require.NoError(t, err)
	assert.Equal(t, admin, reg.Controller)
	assert.Equal(t, []types.Address{builtin.Ledger.Address}, reg.Checkers)

	allowance, err := p.Allowance(builtin.RewardAsset.Address, builtin.Reserve.Address, builtin.Ledger.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(4000), allowance.Uint64())

	approved, err := p.Allowance(builtin.StakeAsset.Address, alice, builtin.Ledger.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(700), approved.Uint64())
	approved, err = p.Allowance(builtin.StakeAsset.Address, bob, builtin.Ledger.Address)
	require.NoError(t, err)
	assert.True(t, approved.IsZero())

	ok, err := p.IsEligible(bob)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCustomNetInvalid(t *testing.T) {
	base := func() *CustomGenesis {
		gen, err := LoadCustomGenesis(writeGenesis(t, customYAML))
		require.NoError(t, err)
		return gen
	}

	for name, mutate := range map[string]func(*CustomGenesis){
		"no controller":     func(g *CustomGenesis) { g.Controller = types.Address{} },
		"zero period":       func(g *CustomGenesis) { g.Periods[0].Length = 0 },
		"period order":      func(g *CustomGenesis) { g.Periods[1].From = 10 },
		"levels no period":  func(g *CustomGenesis) { g.Periods = nil },
		"level range":       func(g *CustomGenesis) { g.Levels[0].Lower = NewAmount(100) },
		"level missing":     func(g *CustomGenesis) { g.Levels[0].Rate = nil },
		"registry zero":     func(g *CustomGenesis) { g.Registries[0].Address = types.Address{} },
		"registry dup":      func(g *CustomGenesis) { g.Registries = append(g.Registries, g.Registries[0]) },
		"certificate owner": func(g *CustomGenesis) { g.Registries[0].Certificates[0].Owner = types.Address{} },
		"zero balance":      func(g *CustomGenesis) { g.Accounts[0].Balance = NewAmount(0) },
	} {
		gen := base()
		mutate(gen)
		_, err := NewCustomNet(gen)
		assert.Error(t, err, name)
	}

	_, err := LoadCustomGenesis(writeGenesis(t, "levels:\n  - {rate: [1], lower: 0, upper: 1}\n"))
	assert.Error(t, err)
	_, err = LoadCustomGenesis(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestGenesisIDChangesWithConfig(t *testing.T) {
	a, err := DevnetGenesis().ID()
	require.NoError(t, err)
	b, err := DevnetGenesis().ID()
	require.NoError(t, err)
	assert.Equal(t, a, b)

	gen := DevnetGenesis()
	gen.Threshold = 4
	c, err := gen.ID()
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
