// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"github.com/holiman/uint256"

	"github.com/taisys-technologies/audit-stakingpool/builtin/levels"
	"github.com/taisys-technologies/audit-stakingpool/builtin/timeline"
	"github.com/taisys-technologies/audit-stakingpool/staking"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

type Period struct {
	EffectiveFrom uint64 `json:"effectiveFrom"`
	Length        uint64 `json:"length"`
}

type Level struct {
	Rate  *uint256.Int `json:"rate"`
	Lower *uint256.Int `json:"lower"`
	Upper *uint256.Int `json:"upper"`
}

type Info struct {
	TotalDeposited *uint256.Int    `json:"totalDeposited"`
	Threshold      uint64          `json:"threshold"`
	RewardReserve  types.Address   `json:"rewardReserve"`
	CurrentPeriod  *Period         `json:"currentPeriod"`
	Registries     []types.Address `json:"registries"`
	Events         uint64          `json:"events"`
}

func convertPeriod(p timeline.Period) Period {
	return Period{EffectiveFrom: p.EffectiveFrom, Length: p.Length}
}

func convertLevel(l *levels.Level) Level {
	return Level{Rate: l.Rate, Lower: l.Lower, Upper: l.Upper}
}

func convertInfo(info *staking.Info) *Info {
	out := &Info{
		TotalDeposited: info.TotalDeposited,
		Threshold:      info.Threshold,
		RewardReserve:  info.RewardReserve,
		Registries:     info.Registries,
		Events:         info.Events,
	}
	if out.Registries == nil {
		out.Registries = []types.Address{}
	}
	if info.CurrentPeriod != nil {
		p := convertPeriod(*info.CurrentPeriod)
		out.CurrentPeriod = &p
	}
	return out
}
