package domain

import "errors"

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	// Identity errors
	ErrMsgUnauthorized = "no valid session"
	ErrMsgForbidden    = "not permitted"

	// Lookup errors
	ErrMsgUserNotFound       = "user not found"
	ErrMsgGameNotFound       = "game not found"
	ErrMsgBetNotFound        = "bet not found"
	ErrMsgOptionNotFound     = "option not found"
	ErrMsgStakeNotFound      = "stake not found"
	ErrMsgLockMomentNotFound = "lock moment not found"

	// Ledger errors
	ErrMsgInsufficientFunds = "insufficient funds"
	ErrMsgVersionConflict   = "version conflict"
	ErrMsgInvalidState      = "operation not allowed in current state"

	// Input errors
	ErrMsgInvalidInput = "invalid input"

	// Database/System errors
	ErrMsgTxClosed = "tx is closed"
)

// Common domain errors
// These errors should be used consistently across all layers of the application.
// Wrap these errors with fmt.Errorf("%w: %s", domain.ErrXxx, details) for additional context.
var (
	// Identity errors
	ErrUnauthorized = errors.New(ErrMsgUnauthorized)
	ErrForbidden    = errors.New(ErrMsgForbidden)

	// Lookup errors
	ErrUserNotFound       = errors.New(ErrMsgUserNotFound)
	ErrGameNotFound       = errors.New(ErrMsgGameNotFound)
	ErrBetNotFound        = errors.New(ErrMsgBetNotFound)
	ErrOptionNotFound     = errors.New(ErrMsgOptionNotFound)
	ErrStakeNotFound      = errors.New(ErrMsgStakeNotFound)
	ErrLockMomentNotFound = errors.New(ErrMsgLockMomentNotFound)

	// Ledger errors
	ErrInsufficientFunds = errors.New(ErrMsgInsufficientFunds)

	// ErrVersionConflict is returned when a compare-and-swap write loses the
	// race: the entity's stored version no longer matches the version the
	// caller read. This is the only error callers are expected to retry,
	// after reloading the entity.
	ErrVersionConflict = errors.New(ErrMsgVersionConflict)

	// ErrInvalidState is returned when an operation is not legal for the
	// entity's current progress (e.g. staking on a Locked bet). Unlike
	// ErrVersionConflict, retrying without a different request is pointless.
	ErrInvalidState = errors.New(ErrMsgInvalidState)

	// Input errors
	ErrInvalidInput = errors.New(ErrMsgInvalidInput)
)
