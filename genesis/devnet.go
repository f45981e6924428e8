// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"crypto/ecdsa"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/taisys-technologies/audit-stakingpool/types"
)

// DevAccount account for development.
type DevAccount struct {
	Address    types.Address
	PrivateKey *ecdsa.PrivateKey
}

var devAccounts atomic.Value

// DevRegistry is the certificate registry deployed by the devnet genesis.
var DevRegistry = types.BytesToAddress([]byte("DevRegistry"))

// DevAccounts returns pre-alloced accounts for dev mode. The first one controls the pool.
func DevAccounts() []DevAccount {
	if accs := devAccounts.Load(); accs != nil {
		return accs.([]DevAccount)
	}

	var accs []DevAccount
	privKeys := []string{
		"dce1443bd2ef0c2631adc1c67e5c93f13dc23a41c18b536effbbdcbcdb96fb65",
		"321d6443bc6177273b5abf54210fe806d451d6b7973bccc2384ef78bbcd0bf51",
		"2d7c882bad2a01105e36dda3646693bc1aaaa45b0ed63fb0ce23c060294f3af2",
		"593537225b037191d322c3b1df585fb1e5100811b71a6f7fc7e29cca1333483e",
		"ca7b25fc980c759df5f3ce17a3d881d6e19a38e651fc4315fc08917edab41058",
	}
	for _, str := range privKeys {
		pk, err := crypto.HexToECDSA(str)
		if err != nil {
			panic(err)
		}
		addr := crypto.PubkeyToAddress(pk.PublicKey)
		accs = append(accs, DevAccount{types.Address(addr), pk})
	}
	devAccounts.Store(accs)
	return accs
}

// DevnetGenesis is the configuration NewDevnet builds from: one minute
// periods, a three period lock and every dev account certified and funded.
func DevnetGenesis() *CustomGenesis {
	accs := DevAccounts()
	gen := &CustomGenesis{
		Name:       "devnet",
		LaunchTime: 1735689600, // 2025-01-01T00:00:00Z
		Controller: accs[0].Address,
		Periods:    []Period{{Length: 60}},
		Threshold:  3,
		Levels: []Level{
			{Rate: NewAmount(1), Lower: NewAmount(0), Upper: NewAmount(100)},
			{Rate: NewAmount(10), Lower: NewAmount(100), Upper: NewAmount(1000)},
			{Rate: NewAmount(100), Lower: NewAmount(1000), Upper: NewAmount(10000)},
		},
		Reserve: Reserve{Funding: NewAmount(1_000_000_000)},
	}
	reg := Registry{Address: DevRegistry}
	for i, acc := range accs {
		reg.Certificates = append(reg.Certificates, Certificate{ID: NewAmount(uint64(i + 1)), Owner: acc.Address})
		gen.Accounts = append(gen.Accounts, Account{Address: acc.Address, Balance: NewAmount(1_000_000), Approve: true})
	}
	gen.Registries = []Registry{reg}
	return gen
}

// NewDevnet create genesis for dev mode.
func NewDevnet() *Genesis {
	g, err := NewCustomNet(DevnetGenesis())
	if err != nil {
		panic(err)
	}
	return g
}
