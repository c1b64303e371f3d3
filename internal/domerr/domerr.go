// Package domerr defines the typed errors the core services surface to
// callers. Handlers translate them to protocol responses; nothing in the
// core retries or swallows them.
package domerr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound — the referenced record does not exist or is soft deleted.
	ErrNotFound = errors.New("record not found")

	// ErrInsufficientStock — a conditional stock decrement found fewer
	// units than requested. The triggering operation fails atomically.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrCircularReference — a category parent reassignment would create
	// a cycle. Rejected before any mutation is persisted.
	ErrCircularReference = errors.New("circular category reference")

	// ErrReferenceProtected — deletion blocked because a protected
	// foreign reference exists (e.g. a category with products).
	ErrReferenceProtected = errors.New("record is referenced and protected from deletion")
)

// ValidationError reports malformed input, rejected before persistence.
// Non-retryable without fixing the input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validation builds a field-scoped validation error.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
