package state

import "errors"

var (
	// ErrInvalidTransition is returned when a phase or lifecycle transition is not allowed.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrPrecondition is returned by compound operations before any mutation happens.
	ErrPrecondition = errors.New("precondition failed")
)
