package domain

import "errors"

// Checkpoint/review error kinds, surfaced to the Review Service and never
// auto-retried.
var (
	ErrCheckpointNotFound     = errors.New("checkpoint not found")
	ErrCheckpointAlreadyResolved = errors.New("checkpoint already resolved")
	ErrWorkflowNotFound       = errors.New("workflow not found")
)

// ErrCancelRejected is returned by Cancel when the workflow is already in a
// terminal state.
var ErrCancelRejected = errors.New("workflow is already in a terminal state")

// StageError wraps a failure inside a stage function. The Graph Runtime
// transitions the owning workflow to FAILED and records the message as
// Workflow.ErrorMessage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return string(e.Stage) + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}
