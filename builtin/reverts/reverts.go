// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts defines the domain errors raised by builtin components.
// A revert aborts the whole operation; infrastructure failures are not reverts.
package reverts

import (
	"errors"
	"fmt"
)

// Code classifies a revert.
type Code uint8

const (
	InvalidInput Code = iota + 1
	PermissionDenied
	NotEligible
	NotInAnyLevel
	PeriodRequired
	InvalidPeriod
	InvalidLevelRange
	TooEarly
	InsufficientFunds
	AlreadyRegistered
	CertificateInUse
	NotOwner
)

var codeNames = map[Code]string{
	InvalidInput:      "invalid input",
	PermissionDenied:  "permission denied",
	NotEligible:       "not eligible",
	NotInAnyLevel:     "not in any level",
	PeriodRequired:    "period required",
	InvalidPeriod:     "invalid period",
	InvalidLevelRange: "invalid level range",
	TooEarly:          "too early",
	InsufficientFunds: "insufficient funds",
	AlreadyRegistered: "already registered",
	CertificateInUse:  "certificate in use",
	NotOwner:          "not owner",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("revert(%d)", uint8(c))
}

// Sentinels for errors.Is matching.
var (
	ErrInvalidInput      = &Error{code: InvalidInput}
	ErrPermissionDenied  = &Error{code: PermissionDenied}
	ErrNotEligible       = &Error{code: NotEligible}
	ErrNotInAnyLevel     = &Error{code: NotInAnyLevel}
	ErrPeriodRequired    = &Error{code: PeriodRequired}
	ErrInvalidPeriod     = &Error{code: InvalidPeriod}
	ErrInvalidLevelRange = &Error{code: InvalidLevelRange}
	ErrTooEarly          = &Error{code: TooEarly}
	ErrInsufficientFunds = &Error{code: InsufficientFunds}
	ErrAlreadyRegistered = &Error{code: AlreadyRegistered}
	ErrCertificateInUse  = &Error{code: CertificateInUse}
	ErrNotOwner          = &Error{code: NotOwner}
)

// Error is a revert raised by a builtin component.
type Error struct {
	code    Code
	message string
}

// New creates a revert with the given code and message.
func New(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

func (e *Error) Code() Code {
	return e.code
}

func (e *Error) Error() string {
	if e.message == "" {
		return e.code.String()
	}
	return e.code.String() + ": " + e.message
}

// Is matches any revert carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.code == e.code
}

// CodeOf returns the revert code wrapped in err, or 0 if err is not a revert.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return 0
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *Error
	if errors.As(e, &ve) {
		return ve != nil
	}
	return false
}
