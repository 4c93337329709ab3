package apperr

import (
	"errors"
	"fmt"
)

// Invalid is returned when the input fails domain validation.
var Invalid = errors.New("invalid input")

// Conflict indicates a uniqueness or state conflict, e.g. a delivery
// that was already claimed by another courier (HTTP 409).
var Conflict = errors.New("conflict")

// NotFound indicates that the requested resource does not exist.
var NotFound = errors.New("not found")

// Forbidden indicates that the actor does not own the resource it is
// trying to mutate, or its role does not permit the operation.
var Forbidden = errors.New("forbidden")

// Unavailable indicates a transient infrastructure failure that
// persisted after boundary-level retries were exhausted.
var Unavailable = errors.New("unavailable")

// InvalidTransition reports an illegal delivery lifecycle transition.
// It identifies both the current and the requested state and never
// degrades to a silent no-op.
type InvalidTransition struct {
	From string
	To   string
}

// Error implements the error interface.
func (e *InvalidTransition) Error() string {
	return fmt.Sprintf("invalid transition: %s -> %s", e.From, e.To)
}

// NewInvalidTransition builds an InvalidTransition error for the given states.
func NewInvalidTransition(from, to string) *InvalidTransition {
	return &InvalidTransition{From: from, To: to}
}

// IsInvalidTransition reports whether err wraps an InvalidTransition.
func IsInvalidTransition(err error) bool {
	var it *InvalidTransition
	return errors.As(err, &it)
}
