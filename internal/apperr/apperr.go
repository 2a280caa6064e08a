// Package apperr defines the error kinds shared by the domain packages and services.
// Callers test kinds with errors.Is; handlers map them to API error codes.
package apperr

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	ErrSequence         = errors.New("answer out of sequence")
	ErrNotFound         = errors.New("not found")
	ErrInvalidType      = errors.New("invalid personality type code")
	ErrConflict         = errors.New("conflicting state transition")
	ErrUnauthorized     = errors.New("actor not permitted")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrValidation       = errors.New("validation failed")
)

// Refinements of ErrConflict that the API reports with their own codes.
var (
	ErrIncomplete = fmt.Errorf("quiz not complete: %w", ErrConflict)
	ErrDuplicate  = fmt.Errorf("open request already exists: %w", ErrConflict)
)

// SequenceError is returned when a submitted answer does not target the question the
// session currently expects. It carries the expected position so the client can resync.
type SequenceError struct {
	SessionID       string
	ExpectedIndex   int
	ExpectedID      string
	SubmittedID     string
	ConcurrentWrite bool
}

func (e *SequenceError) Error() string {
	if e.ConcurrentWrite {
		return fmt.Sprintf("session %s modified concurrently, expected question %s at index %d",
			e.SessionID, e.ExpectedID, e.ExpectedIndex)
	}
	return fmt.Sprintf("session %s expects question %s at index %d, got %s",
		e.SessionID, e.ExpectedID, e.ExpectedIndex, e.SubmittedID)
}

// Is reports SequenceError as ErrSequence.
func (e *SequenceError) Is(target error) bool { return target == ErrSequence }

// NotFound wraps ErrNotFound with the missing resource name.
func NotFound(what string, id any) error {
	return fmt.Errorf("%s %v: %w", what, id, ErrNotFound)
}

// Conflict wraps ErrConflict with a reason.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConflict)
}

// Unauthorized wraps ErrUnauthorized with a reason.
func Unauthorized(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrUnauthorized)
}

// Invalid wraps ErrValidation with a reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}

// Unavailable wraps an infrastructure failure as ErrStoreUnavailable while keeping the
// cause in the chain.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
