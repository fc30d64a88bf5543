package gate

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrPreconditionViolation = errors.New("precondition violation")
)

// ArgumentError provides detailed information about a rejected call.
type ArgumentError struct {
	Op      string // Offending call (e.g., "ForgetGate.SetInputs")
	Index   int    // Offending element, -1 when the whole list is wrong
	Details string // Additional details
	Err     error  // ErrInvalidArgument or ErrPreconditionViolation
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s: %v: element %d: %s", e.Op, e.Err, e.Index, e.Details)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, e.Details)
}

// Unwrap returns the sentinel error so callers can use errors.Is.
func (e *ArgumentError) Unwrap() error {
	return e.Err
}

func notReady(op, details string) error {
	return &ArgumentError{Op: op, Index: -1, Details: details, Err: ErrPreconditionViolation}
}
