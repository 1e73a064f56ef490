package entities

import "errors"

// Error taxonomy for the wagering core. Callers classify failures with
// errors.Is; everything else that bubbles up is infrastructure.
var (
	// ErrValidation covers stake/amount bounds, market timing checks and
	// malformed input. Always recoverable at the caller, no partial effect.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientFunds is returned when an atomic balance adjustment
	// would take an account below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNotFound is returned for unknown wagers, parlays, quotes, accounts
	// and treasury requests.
	ErrNotFound = errors.New("not found")

	// ErrInvalidStateTransition guards against double-processing: acting on
	// a non-PENDING request or a non-ACTIVE wager fails with no side effect.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrUnresolvedMarket means a market type has no resolution rule. It must
	// surface to the operator; settlement never guesses an outcome.
	ErrUnresolvedMarket = errors.New("no resolution rule for market type")
)
