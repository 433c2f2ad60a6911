/*
errors.go - Centralized error types for the engine

PURPOSE:
  All error kinds in one place. The calling layer (HTTP handlers) maps these
  to status codes; the engine itself has no transport concern.

ERROR CATEGORIES:
  NotFound        - employee/request/type absent
  InvalidInterval - end before start, or incompatible halves on a single day
  Forbidden       - lifecycle transition not permitted for the actor
  InvalidState    - transition attempted from a status that does not allow it

  "Unlimited entitlement" is deliberately NOT an error: it is a distinguished
  Credit value (see types.go), never coerced to zero or infinity.

USAGE:
  if errors.Is(err, engine.ErrForbidden) { ... }
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when an employee, request, or leave type
	// does not exist. Absence of a contract is NOT an error (see contract.go).
	ErrNotFound = errors.New("not found")

	// ErrInvalidInterval is returned for malformed intervals: end before
	// start, or incompatible half values on a single-day request. Rejected at
	// the boundary, before any calculation runs.
	ErrInvalidInterval = errors.New("invalid interval")

	// ErrForbidden is returned when a lifecycle transition is not permitted
	// for the acting user. State is never mutated on this error.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidState is returned when a transition is attempted from a
	// status that does not allow it (e.g. accepting a Planned request), or
	// when the optimistic status check fails inside the store write.
	ErrInvalidState = errors.New("invalid state")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// TransitionError describes a rejected lifecycle transition.
type TransitionError struct {
	From   Status
	To     Status
	Reason string
	kind   error // ErrForbidden or ErrInvalidState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %s -> %s: %s", e.From, e.To, e.Reason)
}

func (e *TransitionError) Unwrap() error { return e.kind }

func forbidden(from, to Status, reason string) error {
	return &TransitionError{From: from, To: to, Reason: reason, kind: ErrForbidden}
}

func invalidState(from, to Status, reason string) error {
	return &TransitionError{From: from, To: to, Reason: reason, kind: ErrInvalidState}
}

// IntervalError describes why an interval was rejected.
type IntervalError struct {
	Interval Interval
	Reason   string
}

func (e *IntervalError) Error() string {
	return fmt.Sprintf("invalid interval %s: %s", e.Interval, e.Reason)
}

func (e *IntervalError) Unwrap() error { return ErrInvalidInterval }

// IsClientError reports whether the error is due to invalid client input
// rather than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInterval) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrInvalidState)
}
