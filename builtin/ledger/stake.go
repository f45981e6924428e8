// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/holiman/uint256"
)

// Stake is the settlement record of one depositor.
type Stake struct {
	Principal   *uint256.Int
	Accrued     *uint256.Int
	LastSettled uint64
	DepositedAt uint64
}

func newStake() *Stake {
	return &Stake{
		Principal: new(uint256.Int),
		Accrued:   new(uint256.Int),
	}
}

func (s *Stake) normalize() *Stake {
	if s.Principal == nil {
		s.Principal = new(uint256.Int)
	}
	if s.Accrued == nil {
		s.Accrued = new(uint256.Int)
	}
	return s
}

// IsEmpty reports whether the stake holds no principal.
func (s *Stake) IsEmpty() bool {
	return s.Principal == nil || s.Principal.IsZero()
}

func (s *Stake) Clone() *Stake {
	c := *s
	c.normalize()
	c.Principal = c.Principal.Clone()
	c.Accrued = c.Accrued.Clone()
	return &c
}

// Action is a journaled stake mutation.
type Action uint8

const (
	ActionDeposit Action = iota + 1
	ActionClaim
	ActionExit
)

func (a Action) String() string {
	switch a {
	case ActionDeposit:
		return "deposit"
	case ActionClaim:
		return "claim"
	case ActionExit:
		return "exit"
	}
	return "unknown"
}

// ParseAction is the inverse of Action.String.
func ParseAction(s string) (Action, bool) {
	for _, a := range []Action{ActionDeposit, ActionClaim, ActionExit} {
		if a.String() == s {
			return a, true
		}
	}
	return 0, false
}

// Entry is one journaled action of an owner. Amount is the deposited amount
// for deposits and the paid out reward for claims and exits.
type Entry struct {
	Action Action
	Amount *uint256.Int
	Time   uint64
}
