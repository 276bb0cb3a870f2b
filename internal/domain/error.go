package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context")

	// ErrTxConflict is returned when the store aborted a transaction because of
	// a serialization failure or deadlock. The whole unit of work may be retried.
	ErrTxConflict = errors.New("transaction conflict")

	// Promo code store guards
	ErrPromoLimitReached = errors.New("promo code usage limit reached")
	ErrPromoAlreadySet   = errors.New("user already has an active promo code")

	// ErrRedemptionUndetermined wraps every infrastructure failure surfaced by
	// redemption. Callers must not present it as a rejection of the code.
	ErrRedemptionUndetermined = errors.New("redemption outcome could not be determined")
)
