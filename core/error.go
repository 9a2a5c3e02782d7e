package core

import "errors"

// List of operation pre-checking errors. An operation failing these checks is
// not applied and produces no receipt.
var (
	// ErrNonceTooLow is returned if the nonce of an operation is lower than the
	// one present in the ledger.
	ErrNonceTooLow = errors.New("nonce too low")

	// ErrNonceTooHigh is returned if the nonce of an operation is higher than the
	// next one expected based on the ledger.
	ErrNonceTooHigh = errors.New("nonce too high")

	// ErrNonceMax is returned if the nonce of an operation sender account has
	// maximum allowed value and would become invalid if incremented.
	ErrNonceMax = errors.New("nonce has max value")

	// ErrLedgerClosed is returned when operating on a closed ledger.
	ErrLedgerClosed = errors.New("ledger closed")
)
