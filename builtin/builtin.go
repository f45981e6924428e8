// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"github.com/taisys-technologies/audit-stakingpool/builtin/asset"
	"github.com/taisys-technologies/audit-stakingpool/builtin/directory"
	"github.com/taisys-technologies/audit-stakingpool/builtin/gateway"
	"github.com/taisys-technologies/audit-stakingpool/builtin/ledger"
	"github.com/taisys-technologies/audit-stakingpool/builtin/levels"
	"github.com/taisys-technologies/audit-stakingpool/builtin/registry"
	"github.com/taisys-technologies/audit-stakingpool/builtin/reserve"
	"github.com/taisys-technologies/audit-stakingpool/builtin/timeline"
	"github.com/taisys-technologies/audit-stakingpool/state"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

// Builtin components binding.
var (
	Timeline    = &timelineContract{contract{types.BytesToAddress([]byte("Timeline"))}}
	Levels      = &levelsContract{contract{types.BytesToAddress([]byte("Levels"))}}
	Ledger      = &ledgerContract{contract{types.BytesToAddress([]byte("Ledger"))}}
	Gateway     = &gatewayContract{contract{types.BytesToAddress([]byte("Gateway"))}}
	StakeAsset  = &assetContract{contract{types.BytesToAddress([]byte("StakeAsset"))}}
	RewardAsset = &assetContract{contract{types.BytesToAddress([]byte("RewardAsset"))}}
	Reserve     = &reserveContract{contract{types.BytesToAddress([]byte("Reserve"))}}
)

type contract struct {
	Address types.Address
}

type (
	timelineContract struct{ contract }
	levelsContract   struct{ contract }
	ledgerContract   struct{ contract }
	gatewayContract  struct{ contract }
	assetContract    struct{ contract }
	reserveContract  struct{ contract }
)

func (t *timelineContract) WithState(state *state.State) *timeline.Timeline {
	return timeline.New(t.Address, state)
}

func (l *levelsContract) WithState(state *state.State, tl *timeline.Timeline) *levels.Levels {
	return levels.New(l.Address, state, tl)
}

func (l *ledgerContract) WithState(state *state.State, tl *timeline.Timeline, lv *levels.Levels) *ledger.Ledger {
	return ledger.New(l.Address, state, tl, lv)
}

func (g *gatewayContract) WithState(state *state.State, dir *directory.Directory) *gateway.Gateway {
	return gateway.New(g.Address, state, dir)
}

func (a *assetContract) WithState(state *state.State) *asset.Asset {
	return asset.New(a.Address, state)
}

func (r *reserveContract) WithState(state *state.State, reward *asset.Asset) *reserve.Reserve {
	return reserve.New(r.Address, state, reward)
}

// NewRegistry binds a certificate registry deployed at addr.
func NewRegistry(addr types.Address, state *state.State, dir *directory.Directory) *registry.Registry {
	return registry.New(addr, state, dir)
}
