package domain

import (
	"errors"
	"fmt"
)

// Store and service errors.
var (
	// ErrNotFound is returned when a referenced identifier does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when creating a record whose id is taken.
	ErrAlreadyExists = errors.New("already exists")

	// ErrGroupNotEmpty is returned when deleting a group that still has
	// tasks. Group deletion is rejected rather than cascaded.
	ErrGroupNotEmpty = errors.New("group still has tasks")

	// ErrGroupImmutable is returned when an update tries to move a task to
	// a different group. The group reference is fixed at creation.
	ErrGroupImmutable = errors.New("task group cannot be changed")
)

// ValidationError reports malformed or missing input, rejected before any
// effect is applied.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
