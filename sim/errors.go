package sim

import "errors"

// Error taxonomy for the simulation core. Callers match with errors.Is.
var (
	// ErrValidation marks a missing required risk parameter at construction.
	ErrValidation = errors.New("validation error")

	// ErrConsistency marks a tick/target mismatch beyond tolerance or a
	// non-integer derived tick count.
	ErrConsistency = errors.New("consistency error")

	// ErrInvalidState marks a mutation attempt on a closed trade.
	ErrInvalidState = errors.New("invalid state")

	// ErrRange marks an attempt to widen a date range that may only narrow.
	ErrRange = errors.New("range error")
)
