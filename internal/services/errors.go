package services

import "errors"

// Error taxonomy surfaced to the HTTP layer. Every rejection leaves
// prior state untouched; none of these are retried.
var (
	// ErrValidation marks malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")

	// ErrStateConflict marks an operation the loan's current state forbids.
	ErrStateConflict = errors.New("operation conflicts with current state")

	// ErrInsufficientCash marks cash received below the required amount.
	ErrInsufficientCash = errors.New("insufficient cash received")
)
