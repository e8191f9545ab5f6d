package TaskEngine

import (
	"errors"
	"fmt"
)

// ErrTaskCompleted is returned when a claim is attempted on a task that has
// already been completed. Completed is terminal; corrections happen through
// new tasks, never by re-opening old ones.
var ErrTaskCompleted = errors.New("task is already completed")

// ErrClaimHeld is returned when another user holds a live claim on the task.
var ErrClaimHeld = errors.New("task is claimed by another user")

// ValidationError reports a malformed schedule detected before expansion.
// One bad schedule aborts expansion for that schedule only; batch callers
// carry on with the rest.
type ValidationError struct {
	ScheduleID uint
	Field      string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("schedule %d: invalid %s: %s", e.ScheduleID, e.Field, e.Reason)
}

// PersistenceError wraps a store failure for a single task write, keeping
// enough context for the caller to log which candidate failed.
type PersistenceError struct {
	Op         string
	ScheduleID uint
	TaskID     uint
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s (schedule %d, task %d): %v", e.Op, e.ScheduleID, e.TaskID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
