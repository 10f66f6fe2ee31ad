package actor

import (
	"errors"
	"fmt"
)

var (
	ErrNilActor         = errors.New("actor is nil")
	ErrStartFailed      = errors.New("actor start failed")
	ErrExecutorRejected = errors.New("executor rejected actor task")
	ErrExecutorClosed   = errors.New("executor closed")
	ErrExecutorFull     = errors.New("executor at capacity")
	ErrPanicked         = errors.New("operation panicked")

	// ErrTerminate marks an operation failure as actor-terminating.
	// Build such errors with Terminate.
	ErrTerminate = errors.New("actor terminated")
)

// SpawnError is returned by Spawn when the actor never became live.
// It matches ErrStartFailed or ErrExecutorRejected with errors.Is, as well
// as the underlying cause.
type SpawnError struct {
	ActorType string
	Reason    error
	Cause     error
}

func (e *SpawnError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("spawn %s: %v", e.ActorType, e.Reason)
	}
	return fmt.Sprintf("spawn %s: %v: %v", e.ActorType, e.Reason, e.Cause)
}

func (e *SpawnError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Cause}
}

// Terminate wraps err so that returning it from an operation stops the
// actor regardless of its ErrorPolicy.
func Terminate(err error) error {
	if err == nil {
		return ErrTerminate
	}
	return fmt.Errorf("%w: %w", ErrTerminate, err)
}
