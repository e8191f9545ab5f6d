package TaskEngine

import (
	"context"
	"log"
	"time"

	"Firewatch/Models"
)

// ClaimTTL is how long a claim holds a task before every reader treats it
// as abandoned. Fixed policy, not configurable per schedule or org.
const ClaimTTL = 4 * time.Hour

// IsClaimExpired reports whether a claim taken at claimedAt has lapsed by
// now. Expiry is computed at read time: a record whose claim fields are
// still set counts as unclaimed the moment the TTL passes, whether or not
// a sweep has cleared the columns yet. Every consumer goes through this
// one function rather than re-deriving the cutoff.
func IsClaimExpired(claimedAt *time.Time, now time.Time) bool {
	if claimedAt == nil {
		// No timestamp means nothing holds the task
		return true
	}
	return now.Sub(*claimedAt) >= ClaimTTL
}

// HasActiveClaim reports whether somebody currently holds the task.
func HasActiveClaim(task Models.CheckTask, now time.Time) bool {
	return task.ClaimedBy != 0 && !IsClaimExpired(task.ClaimedAt, now)
}

// ClaimManager serializes which user is actively working a task. Claiming
// is first-writer-wins with no distributed lock: two near-simultaneous
// claims may both reach the store and the later write stands.
type ClaimManager struct {
	Store TaskStore
	Clock Clock
}

func NewClaimManager(store TaskStore, clock Clock) *ClaimManager {
	return &ClaimManager{Store: store, Clock: clock}
}

// Claim takes the task for the given user and advances a pending task to
// in_progress. Completed tasks are terminal and reject the claim. The
// passed task is updated in place on success so callers see the new claim
// without re-reading the store.
func (cm *ClaimManager) Claim(ctx context.Context, task *Models.CheckTask, userID uint, userName string) error {
	if task.Status == Models.TaskStatusCompleted {
		return ErrTaskCompleted
	}

	now := cm.Clock.Now()
	fields := map[string]interface{}{
		"claimed_by":      userID,
		"claimed_by_name": userName,
		"claimed_at":      now,
	}
	if task.Status == Models.TaskStatusPending {
		fields["status"] = Models.TaskStatusInProgress
	}

	if err := cm.Store.UpdateTaskFields(ctx, task.ID, fields); err != nil {
		return &PersistenceError{Op: "claim task", ScheduleID: task.ScheduleID, TaskID: task.ID, Err: err}
	}

	task.ClaimedBy = userID
	task.ClaimedByName = userName
	task.ClaimedAt = &now
	if task.Status == Models.TaskStatusPending {
		task.Status = Models.TaskStatusInProgress
	}
	return nil
}

// Release clears the claim when the caller holds it, or when the existing
// claim has expired anyway. Releasing a claim that has already lapsed or
// moved to another user is not an error: expiry made it void before the
// call arrived, so the release is simply a no-op. Status never moves
// backwards on release.
func (cm *ClaimManager) Release(ctx context.Context, task *Models.CheckTask, userID uint) error {
	if task.ClaimedBy == 0 {
		return nil
	}
	now := cm.Clock.Now()
	if task.ClaimedBy != userID && !IsClaimExpired(task.ClaimedAt, now) {
		// Somebody else holds a live claim; leave it alone
		return nil
	}

	if err := cm.Store.UpdateTaskFields(ctx, task.ID, clearedClaimFields()); err != nil {
		return &PersistenceError{Op: "release task", ScheduleID: task.ScheduleID, TaskID: task.ID, Err: err}
	}

	task.ClaimedBy = 0
	task.ClaimedByName = ""
	task.ClaimedAt = nil
	return nil
}

// OpenForCompletion runs when a user opens a task to fill in the check.
// It claims the task when nobody actively holds it (including when the
// previous claim expired or is the caller's own stale claim) and refuses
// when another user's claim is still live.
func (cm *ClaimManager) OpenForCompletion(ctx context.Context, task *Models.CheckTask, userID uint, userName string) error {
	if task.Status == Models.TaskStatusCompleted {
		return ErrTaskCompleted
	}
	now := cm.Clock.Now()
	if HasActiveClaim(*task, now) && task.ClaimedBy != userID {
		return ErrClaimHeld
	}
	return cm.Claim(ctx, task, userID, userName)
}

// SweepExpired clears the claim columns of every open task whose claim has
// lapsed, returning how many were released. The sweep is housekeeping
// only: claimability is always decided by IsClaimExpired at read time, so
// correctness never depends on this having run.
func (cm *ClaimManager) SweepExpired(ctx context.Context, tasks []Models.CheckTask) (int, error) {
	now := cm.Clock.Now()
	released := 0
	var firstErr error
	for _, task := range tasks {
		if task.Status == Models.TaskStatusCompleted || task.ClaimedBy == 0 {
			continue
		}
		if !IsClaimExpired(task.ClaimedAt, now) {
			continue
		}
		if err := cm.Store.UpdateTaskFields(ctx, task.ID, clearedClaimFields()); err != nil {
			log.Printf("Claim sweep: failed to release task %d: %v", task.ID, err)
			if firstErr == nil {
				firstErr = &PersistenceError{Op: "sweep claim", ScheduleID: task.ScheduleID, TaskID: task.ID, Err: err}
			}
			continue
		}
		released++
	}
	return released, firstErr
}

func clearedClaimFields() map[string]interface{} {
	return map[string]interface{}{
		"claimed_by":      0,
		"claimed_by_name": "",
		"claimed_at":      nil,
	}
}
