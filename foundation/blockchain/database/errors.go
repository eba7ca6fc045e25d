package database

import (
	"errors"
	"fmt"
)

// Set of transaction level errors surfaced to the caller building or
// submitting a transaction.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnknownUTXO       = errors.New("unknown unspent output")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrDoubleSpend       = errors.New("output already spent")
	ErrKeyMismatch       = errors.New("private key does not own the address")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidTxID       = errors.New("transaction id does not match its contents")
	ErrInvalidCoinbase   = errors.New("invalid coinbase transaction")
)

// ErrNonceExhausted is returned when mining runs past the configured nonce
// cap without finding a solution. The caller can retry with a new timestamp.
var ErrNonceExhausted = errors.New("nonce space exhausted")

// =============================================================================

// Reason identifies why a block or chain failed validation.
type Reason string

// Set of reasons a block or chain can be rejected.
const (
	ReasonStructure   Reason = "structure"
	ReasonLinkage     Reason = "linkage"
	ReasonTimestamp   Reason = "timestamp"
	ReasonDifficulty  Reason = "difficulty"
	ReasonTransaction Reason = "transaction"
	ReasonGenesis     Reason = "genesis"
)

// ValidationError is returned by the validation functions so callers can
// branch on the cause of the rejection.
type ValidationError struct {
	Reason Reason
	Err    error
}

// newValidationError constructs a validation error for the reason.
func newValidationError(reason Reason, format string, args ...any) error {
	return &ValidationError{
		Reason: reason,
		Err:    fmt.Errorf(format, args...),
	}
}

// Error implements the error interface.
func (ve *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Reason, ve.Err)
}

// Unwrap provides access to the wrapped error.
func (ve *ValidationError) Unwrap() error {
	return ve.Err
}

// ReasonOf returns the reason behind a validation error.
func ReasonOf(err error) (Reason, bool) {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return "", false
	}

	return ve.Reason, true
}
