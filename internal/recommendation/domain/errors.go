package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTask   = errors.New("invalid task")
	ErrMissingTaskID = fmt.Errorf("%w: missing id", ErrInvalidTask)
	ErrInvalidAction = errors.New("invalid recommendation action")
	ErrCorruptEntry  = errors.New("corrupt cache entry")
)

// ComputationError reports a scoring failure for one task.
type ComputationError struct {
	TaskID string
	Err    error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("scoring task %s: %v", e.TaskID, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}
