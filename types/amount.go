// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package types

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// ErrAmountOverflow is returned when an arithmetic result exceeds 256 bits.
var ErrAmountOverflow = errors.New("amount overflow")

// NewAmount returns an amount holding v.
func NewAmount(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

// ParseAmount parses a decimal or 0x-prefixed hex amount.
func ParseAmount(s string) (*uint256.Int, error) {
	if len(s) > 1 && (s[:2] == "0x" || s[:2] == "0X") {
		v, err := uint256.FromHex(s)
		if err != nil {
			return nil, errors.Wrap(err, "parse amount")
		}
		return v, nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, errors.Wrap(err, "parse amount")
	}
	return v, nil
}

// AddAmount returns a+b, or ErrAmountOverflow.
func AddAmount(a, b *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, ErrAmountOverflow
	}
	return sum, nil
}

// MulAmount returns a*n, or ErrAmountOverflow.
func MulAmount(a *uint256.Int, n uint64) (*uint256.Int, error) {
	prod, overflow := new(uint256.Int).MulOverflow(a, uint256.NewInt(n))
	if overflow {
		return nil, ErrAmountOverflow
	}
	return prod, nil
}

// MinAmount returns a copy of the smaller of a and b.
func MinAmount(a, b *uint256.Int) *uint256.Int {
	if a.Lt(b) {
		return a.Clone()
	}
	return b.Clone()
}
