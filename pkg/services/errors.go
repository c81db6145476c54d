package services

import (
	"errors"
	"fmt"
)

// ValidationError reports a definition the caller must fix. The web layer
// maps it to 422.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func IsValidationError(err error) bool {
	var ve *ValidationError

	return errors.As(err, &ve)
}

// ConflictError reports an operation that is valid in general but not in the
// record's current state: an illegal status transition or deleting a workflow
// that still has execution history. The web layer maps it to 409.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflictError(format string, args ...any) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

func IsConflictError(err error) bool {
	var ce *ConflictError

	return errors.As(err, &ce)
}
