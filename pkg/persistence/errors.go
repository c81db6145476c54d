// Package persistence provides standardized error types for storage
// operations.
package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrWorkflowNotFound indicates a workflow definition was not found by the
	// given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrExecutionLogNotFound indicates an execution log was not found.
	ErrExecutionLogNotFound = errors.New("execution log not found")

	// ErrExecutionLogFinalized indicates an attempt to modify a log that has
	// already reached a terminal state.
	ErrExecutionLogFinalized = errors.New("execution log already finalized")
)

// StorageError wraps storage errors with operation context.
type StorageError struct {
	Op  string // Operation being performed (e.g. "GetByID", "Save")
	ID  string // Record ID if applicable
	Err error
}

func (e *StorageError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s failed for %s: %v", e.Op, e.ID, e.Err)
	}

	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStorageError creates a storage error with context.
func NewStorageError(op, id string, err error) *StorageError {
	return &StorageError{Op: op, ID: id, Err: err}
}

// IsWorkflowNotFound checks whether an error means the workflow is missing.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsExecutionLogNotFound checks whether an error means the log is missing.
func IsExecutionLogNotFound(err error) bool {
	return errors.Is(err, ErrExecutionLogNotFound)
}

// IsExecutionLogFinalized checks whether an error means the log was already
// finalized.
func IsExecutionLogFinalized(err error) bool {
	return errors.Is(err, ErrExecutionLogFinalized)
}
