// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"github.com/holiman/uint256"

	"github.com/taisys-technologies/audit-stakingpool/api/auth"
	"github.com/taisys-technologies/audit-stakingpool/builtin/ledger"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

type Stake struct {
	Owner       types.Address `json:"owner"`
	Active      bool          `json:"active"`
	Principal   *uint256.Int  `json:"principal"`
	Accrued     *uint256.Int  `json:"accrued"`
	LastSettled uint64        `json:"lastSettled"`
	DepositedAt uint64        `json:"depositedAt"`
}

func convertStake(owner types.Address, s *ledger.Stake) *Stake {
	return &Stake{
		Owner:       owner,
		Active:      !s.IsEmpty(),
		Principal:   s.Principal,
		Accrued:     s.Accrued,
		LastSettled: s.LastSettled,
		DepositedAt: s.DepositedAt,
	}
}

type Eligibility struct {
	Owner    types.Address `json:"owner"`
	Eligible bool          `json:"eligible"`
}

type AmountRequest struct {
	auth.Expiry
	Amount *uint256.Int `json:"amount"`
}

type ExitRequest struct {
	auth.Expiry
}

type ClaimResult struct {
	Paid *uint256.Int `json:"paid"`
}

type ExitResult struct {
	Principal *uint256.Int `json:"principal"`
	Paid      *uint256.Int `json:"paid"`
}
