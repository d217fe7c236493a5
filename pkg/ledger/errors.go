// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import "fmt"

// TransferErrorCode enumerates the typed rejections a transfer can return.
// The set mirrors the ICRC-1 ledger variants.
type TransferErrorCode string

const (
	ErrCodeInsufficientFunds      TransferErrorCode = "InsufficientFunds"
	ErrCodeBadFee                 TransferErrorCode = "BadFee"
	ErrCodeDuplicate              TransferErrorCode = "Duplicate"
	ErrCodeTemporarilyUnavailable TransferErrorCode = "TemporarilyUnavailable"
	ErrCodeTooOld                 TransferErrorCode = "TooOld"
	ErrCodeCreatedInFuture        TransferErrorCode = "CreatedInFuture"
	ErrCodeGeneric                TransferErrorCode = "GenericError"
)

// TransferError is a typed ledger rejection. It is never collapsed into a
// boolean: callers surface it verbatim.
type TransferError struct {
	Code TransferErrorCode

	// Balance is set for InsufficientFunds.
	Balance uint64
	// ExpectedFee is set for BadFee.
	ExpectedFee uint64
	// DuplicateOf is set for Duplicate.
	DuplicateOf uint64
	// LedgerTime is set for CreatedInFuture.
	LedgerTime uint64
	// Message is set for GenericError.
	Message string
}

func (e *TransferError) Error() string {
	switch e.Code {
	case ErrCodeInsufficientFunds:
		return fmt.Sprintf("transfer rejected: insufficient funds (balance %d e8s)", e.Balance)
	case ErrCodeBadFee:
		return fmt.Sprintf("transfer rejected: bad fee (expected %d e8s)", e.ExpectedFee)
	case ErrCodeDuplicate:
		return fmt.Sprintf("transfer rejected: duplicate of block %d", e.DuplicateOf)
	case ErrCodeTemporarilyUnavailable:
		return "transfer rejected: ledger temporarily unavailable"
	case ErrCodeTooOld:
		return "transfer rejected: transaction too old"
	case ErrCodeCreatedInFuture:
		return fmt.Sprintf("transfer rejected: created in future (ledger time %d)", e.LedgerTime)
	default:
		return fmt.Sprintf("transfer rejected: %s", e.Message)
	}
}

// InsufficientFunds constructs the corresponding typed rejection.
func InsufficientFunds(balance uint64) *TransferError {
	return &TransferError{Code: ErrCodeInsufficientFunds, Balance: balance}
}

// BadFee constructs the corresponding typed rejection.
func BadFee(expected uint64) *TransferError {
	return &TransferError{Code: ErrCodeBadFee, ExpectedFee: expected}
}

// TemporarilyUnavailable constructs the corresponding typed rejection.
func TemporarilyUnavailable() *TransferError {
	return &TransferError{Code: ErrCodeTemporarilyUnavailable}
}
