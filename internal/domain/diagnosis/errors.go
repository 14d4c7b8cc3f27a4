package diagnosis

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repositories for a missing record.
var ErrNotFound = errors.New("diagnosis not found")

// ValidationError rejects a malformed request before any computation runs.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError covers both a missing diagnosis and one owned by someone else.
type NotFoundError struct {
	ID uuid.UUID
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("diagnosis %s not found", e.ID) }

// ForbiddenError is returned when a non-admin asks for another user's records.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// ComputationError marks one condition whose catalog data cannot be scored.
// It never reaches the caller; the condition is dropped from the result.
type ComputationError struct {
	ConditionID uuid.UUID
	Reason      string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("condition %s: %s", e.ConditionID, e.Reason)
}

// PersistenceError wraps a failed diagnosis write.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return "persist diagnosis: " + e.Err.Error() }

func (e *PersistenceError) Unwrap() error { return e.Err }
