package TaskEngine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"Firewatch/Models"
	"Firewatch/TaskEngine"
)

func pendingTask(t *testing.T, store *fakeTaskStore, due time.Time) Models.CheckTask {
	t.Helper()
	return store.seed(t, Models.CheckTask{
		OrgID:      1,
		TemplateID: 3,
		ScheduleID: 5,
		DueAt:      due,
		Status:     Models.TaskStatusPending,
	})
}

func TestClaimSetsFieldsAndAdvancesStatus(t *testing.T) {
	store := newFakeTaskStore()
	now := date(2024, time.March, 4)
	cm := TaskEngine.NewClaimManager(store, TaskEngine.FixedClock{Instant: now})

	task := pendingTask(t, store, now)
	if err := cm.Claim(context.Background(), &task, 42, "Dana Reeve"); err != nil {
		t.Fatalf("claim: %v", err)
	}

	if task.ClaimedBy != 42 || task.ClaimedByName != "Dana Reeve" {
		t.Errorf("claim fields not set on local copy: %+v", task)
	}
	if task.ClaimedAt == nil || !task.ClaimedAt.Equal(now) {
		t.Errorf("claimed_at %v, want %v", task.ClaimedAt, now)
	}
	if task.Status != Models.TaskStatusInProgress {
		t.Errorf("status %q, want in_progress", task.Status)
	}

	stored := store.get(t, task.ID)
	if stored.ClaimedBy != 42 || stored.Status != Models.TaskStatusInProgress {
		t.Errorf("store copy not updated: %+v", stored)
	}
}

func TestClaimCompletedTaskRejected(t *testing.T) {
	store := newFakeTaskStore()
	now := date(2024, time.March, 4)
	cm := TaskEngine.NewClaimManager(store, TaskEngine.FixedClock{Instant: now})

	task := store.seed(t, Models.CheckTask{OrgID: 1, Status: Models.TaskStatusCompleted, DueAt: now})
	err := cm.Claim(context.Background(), &task, 42, "Dana Reeve")
	if !errors.Is(err, TaskEngine.ErrTaskCompleted) {
		t.Fatalf("got %v, want ErrTaskCompleted", err)
	}
	if store.updateCalls != 0 {
		t.Errorf("store was written for a completed task")
	}
}

func TestClaimExclusivity(t *testing.T) {
	store := newFakeTaskStore()
	now := date(2024, time.March, 4)
	cm := TaskEngine.NewClaimManager(store, TaskEngine.FixedClock{Instant: now})

	task := pendingTask(t, store, now)
	if err := cm.Claim(context.Background(), &task, 42, "Dana Reeve"); err != nil {
		t.Fatalf("claim: %v", err)
	}

	tasks := []Models.CheckTask{task}
	if got := TaskEngine.ClaimedByMe(tasks, now, 42); len(got) != 1 {
		t.Errorf("ClaimedByMe for claimant: got %d, want 1", len(got))
	}
	if got := TaskEngine.ClaimedByOther(tasks, now, 7); len(got) != 1 {
		t.Errorf("ClaimedByOther for another user: got %d, want 1", len(got))
	}
	if got := TaskEngine.ClaimedByOther(tasks, now, 42); len(got) != 0 {
		t.Errorf("ClaimedByOther for claimant: got %d, want 0", len(got))
	}
}

func TestExpiryIsReadTime(t *testing.T) {
	claimedAt := date(2024, time.March, 4).Add(9 * time.Hour)

	tests := []struct {
		name    string
		now     time.Time
		expired bool
	}{
		{"just claimed", claimedAt, false},
		{"one second short", claimedAt.Add(TaskEngine.ClaimTTL - time.Second), false},
		{"exactly at the TTL", claimedAt.Add(TaskEngine.ClaimTTL), true},
		{"one minute past", claimedAt.Add(TaskEngine.ClaimTTL + time.Minute), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TaskEngine.IsClaimExpired(&claimedAt, tt.now); got != tt.expired {
				t.Errorf("IsClaimExpired = %v, want %v", got, tt.expired)
			}
		})
	}
}

func TestExpiredClaimIsClaimableWithoutAnyWrite(t *testing.T) {
	// A reader 4h01m after the claim must see the task as unclaimed even
	// though no sweep has touched the record.
	store := newFakeTaskStore()
	claimedAt := date(2024, time.March, 4)
	later := claimedAt.Add(TaskEngine.ClaimTTL + time.Minute)

	task := store.seed(t, Models.CheckTask{
		OrgID:         1,
		Status:        Models.TaskStatusInProgress,
		DueAt:         claimedAt,
		ClaimedBy:     42,
		ClaimedByName: "Dana Reeve",
		ClaimedAt:     &claimedAt,
	})

	tasks := []Models.CheckTask{task}
	if got := TaskEngine.ClaimedByMe(tasks, later, 42); len(got) != 0 {
		t.Errorf("expired claim still reported as mine")
	}
	if got := TaskEngine.ClaimedByOther(tasks, later, 7); len(got) != 0 {
		t.Errorf("expired claim still reported as held")
	}

	// Another user can take the task over
	cm := TaskEngine.NewClaimManager(store, TaskEngine.FixedClock{Instant: later})
	if err := cm.OpenForCompletion(context.Background(), &task, 7, "Sam Okafor"); err != nil {
		t.Fatalf("open after expiry: %v", err)
	}
	if task.ClaimedBy != 7 {
		t.Errorf("takeover failed, claimed by %d", task.ClaimedBy)
	}
}

func TestReleaseByClaimant(t *testing.T) {
	store := newFakeTaskStore()
	now := date(2024, time.March, 4)
	cm := TaskEngine.NewClaimManager(store, TaskEngine.FixedClock{Instant: now})

	task := pendingTask(t, store, now)
	if err := cm.Claim(context.Background(), &task, 42, "Dana Reeve"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := cm.Release(context.Background(), &task, 42); err != nil {
		t.Fatalf("release: %v", err)
	}

	if task.ClaimedBy != 0 || task.ClaimedAt != nil || task.ClaimedByName != "" {
		t.Errorf("claim fields not cleared: %+v", task)
	}
	if task.Status != Models.TaskStatusInProgress {
		t.Errorf("status moved backwards to %q on release", task.Status)
	}
	stored := store.get(t, task.ID)
	if stored.ClaimedBy != 0 || stored.ClaimedAt != nil {
		t.Errorf("store copy still claimed: %+v", stored)
	}
}

func TestReleaseForeignLiveClaimIsNoop(t *testing.T) {
	store := newFakeTaskStore()
	now := date(2024, time.March, 4)
	cm := TaskEngine.NewClaimManager(store, TaskEngine.FixedClock{Instant: now})

	task := pendingTask(t, store, now)
	if err := cm.Claim(context.Background(), &task, 42, "Dana Reeve"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	writes := store.updateCalls

	// A stale release from another user is not an error and changes nothing
	if err := cm.Release(context.Background(), &task, 7); err != nil {
		t.Fatalf("foreign release errored: %v", err)
	}
	if task.ClaimedBy != 42 {
		t.Errorf("foreign release stole the claim")
	}
	if store.updateCalls != writes {
		t.Errorf("foreign release wrote to the store")
	}
}

func TestReleaseExpiredForeignClaim(t *testing.T) {
	store := newFakeTaskStore()
	claimedAt := date(2024, time.March, 4)
	later := claimedAt.Add(TaskEngine.ClaimTTL + time.Minute)
	cm := TaskEngine.NewClaimManager(store, TaskEngine.FixedClock{Instant: later})

	task := store.seed(t, Models.CheckTask{
		OrgID:     1,
		Status:    Models.TaskStatusInProgress,
		DueAt:     claimedAt,
		ClaimedBy: 42,
		ClaimedAt: &claimedAt,
	})
	if err := cm.Release(context.Background(), &task, 7); err != nil {
		t.Fatalf("release: %v", err)
	}
	if task.ClaimedBy != 0 {
		t.Errorf("expired claim not cleared")
	}
}

func TestOpenForCompletion(t *testing.T) {
	now := date(2024, time.March, 4)
	stale := now.Add(-TaskEngine.ClaimTTL - time.Minute)
	live := now.Add(-time.Hour)

	tests := []struct {
		name      string
		claimedBy uint
		claimedAt *time.Time
		status    string
		wantErr   error
		wantOwner uint
	}{
		{"unclaimed task is auto-claimed", 0, nil, Models.TaskStatusPending, nil, 7},
		{"own stale claim is refreshed", 7, &stale, Models.TaskStatusInProgress, nil, 7},
		{"foreign stale claim is taken over", 42, &stale, Models.TaskStatusInProgress, nil, 7},
		{"foreign live claim is refused", 42, &live, Models.TaskStatusInProgress, TaskEngine.ErrClaimHeld, 42},
		{"completed task is refused", 0, nil, Models.TaskStatusCompleted, TaskEngine.ErrTaskCompleted, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeTaskStore()
			cm := TaskEngine.NewClaimManager(store, TaskEngine.FixedClock{Instant: now})
			task := store.seed(t, Models.CheckTask{
				OrgID:     1,
				Status:    tt.status,
				DueAt:     now,
				ClaimedBy: tt.claimedBy,
				ClaimedAt: tt.claimedAt,
			})

			err := cm.OpenForCompletion(context.Background(), &task, 7, "Sam Okafor")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got error %v, want %v", err, tt.wantErr)
			}
			if task.ClaimedBy != tt.wantOwner {
				t.Errorf("claimed by %d, want %d", task.ClaimedBy, tt.wantOwner)
			}
			if tt.wantErr == nil && !task.ClaimedAt.Equal(now) {
				t.Errorf("claim timestamp not refreshed: %v", task.ClaimedAt)
			}
		})
	}
}

func TestSweepExpired(t *testing.T) {
	store := newFakeTaskStore()
	claimedAt := date(2024, time.March, 4)
	now := claimedAt.Add(TaskEngine.ClaimTTL + time.Minute)
	recent := now.Add(-time.Hour)

	expired := store.seed(t, Models.CheckTask{OrgID: 1, Status: Models.TaskStatusInProgress, DueAt: claimedAt, ClaimedBy: 42, ClaimedAt: &claimedAt})
	held := store.seed(t, Models.CheckTask{OrgID: 1, Status: Models.TaskStatusInProgress, DueAt: claimedAt, ClaimedBy: 7, ClaimedAt: &recent})
	done := store.seed(t, Models.CheckTask{OrgID: 1, Status: Models.TaskStatusCompleted, DueAt: claimedAt, ClaimedBy: 9, ClaimedAt: &claimedAt})

	cm := TaskEngine.NewClaimManager(store, TaskEngine.FixedClock{Instant: now})
	tasks, _ := store.TasksByOrg(context.Background(), 1)
	released, err := cm.SweepExpired(context.Background(), tasks)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if released != 1 {
		t.Fatalf("released %d claims, want 1", released)
	}

	if got := store.get(t, expired.ID); got.ClaimedBy != 0 || got.ClaimedAt != nil {
		t.Errorf("expired claim not cleared: %+v", got)
	}
	if got := store.get(t, held.ID); got.ClaimedBy != 7 {
		t.Errorf("live claim swept away")
	}
	if got := store.get(t, done.ID); got.ClaimedBy != 9 {
		t.Errorf("completed task touched by the sweep")
	}
}
