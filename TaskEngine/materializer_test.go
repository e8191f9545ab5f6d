package TaskEngine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"Firewatch/Models"
	"Firewatch/TaskEngine"
)

func newMaterializer(store TaskEngine.TaskStore, now time.Time, horizon int) *TaskEngine.Materializer {
	m := TaskEngine.NewMaterializer(store, TaskEngine.FixedClock{Instant: now})
	m.Horizon = horizon
	return m
}

func TestMaterializeCreatesPendingTasks(t *testing.T) {
	store := newFakeTaskStore()
	schedule := makeSchedule(t, 5, Models.FrequencyWeekly, date(2024, time.January, 1))
	m := newMaterializer(store, date(2024, time.January, 1), 14)

	created, err := m.Materialize(context.Background(), schedule, nil)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created %d tasks, want 2", len(created))
	}
	for _, task := range created {
		if task.Status != Models.TaskStatusPending {
			t.Errorf("task %d status %q, want pending", task.ID, task.Status)
		}
		if task.ClaimedBy != 0 || task.ClaimedAt != nil {
			t.Errorf("task %d created with a claim", task.ID)
		}
		if task.ScheduleID != schedule.ID || task.OrgID != schedule.OrgID || task.TemplateID != schedule.TemplateID {
			t.Errorf("task %d not linked to schedule: %+v", task.ID, task)
		}
	}
	if !created[0].DueAt.Equal(date(2024, time.January, 1)) || !created[1].DueAt.Equal(date(2024, time.January, 8)) {
		t.Errorf("due dates %v / %v, want Jan 1 and Jan 8", created[0].DueAt, created[1].DueAt)
	}
}

func TestMaterializeIdempotent(t *testing.T) {
	store := newFakeTaskStore()
	schedule := makeSchedule(t, 5, Models.FrequencyWeekly, date(2024, time.January, 1))
	ctx := context.Background()

	m := newMaterializer(store, date(2024, time.January, 1), 14)
	first, err := m.Materialize(ctx, schedule, nil)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("first run created %d, want 2", len(first))
	}

	// Immediate re-run with the freshly created tasks in the existing set
	existing, _ := store.TasksByOrg(ctx, schedule.OrgID)
	second, err := m.Materialize(ctx, schedule, existing)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("second run created %d, want 0", len(second))
	}

	// Overlapping horizon a week later only fills in the new tail
	later := newMaterializer(store, date(2024, time.January, 8), 14)
	existing, _ = store.TasksByOrg(ctx, schedule.OrgID)
	third, err := later.Materialize(ctx, schedule, existing)
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if len(third) != 1 || !third[0].DueAt.Equal(date(2024, time.January, 15)) {
		t.Fatalf("third run created %v, want only Jan 15", dueDaysOf(third))
	}
}

func TestMaterializeMonthlyTwoAssets(t *testing.T) {
	// Monthly schedule over two assets, 35-day horizon. The window end is
	// exclusive, so from Jan 1 the window covers Jan 1 and Feb 1; the run
	// creates one task per asset per due day and a later overlapping run
	// creates nothing new.
	store := newFakeTaskStore()
	schedule := makeSchedule(t, 8, Models.FrequencyMonthly, date(2024, time.January, 1), 21, 22)
	ctx := context.Background()

	m := newMaterializer(store, date(2024, time.January, 1), 35)
	created, err := m.Materialize(ctx, schedule, nil)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if len(created) != 4 {
		t.Fatalf("created %d tasks, want 4 (2 assets x 2 due days)", len(created))
	}

	rerun := newMaterializer(store, date(2024, time.January, 15), 35)
	existing, _ := store.TasksByOrg(ctx, schedule.OrgID)
	more, err := rerun.Materialize(ctx, schedule, existing)
	if err != nil {
		t.Fatalf("re-run: %v", err)
	}
	if len(more) != 0 {
		t.Fatalf("re-run created %d tasks, want 0", len(more))
	}
}

func TestMaterializePartialFailure(t *testing.T) {
	// One candidate failing to persist must not stop the rest
	store := newFakeTaskStore()
	store.failInsertAsset = 21
	schedule := makeSchedule(t, 8, Models.FrequencyDaily, date(2024, time.January, 1), 21, 22)

	m := newMaterializer(store, date(2024, time.January, 1), 3)
	created, err := m.Materialize(context.Background(), schedule, nil)

	var perr *TaskEngine.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("got %v, want PersistenceError", err)
	}
	if perr.ScheduleID != schedule.ID {
		t.Errorf("error carries schedule %d, want %d", perr.ScheduleID, schedule.ID)
	}
	if len(created) != 3 {
		t.Fatalf("created %d tasks, want 3 (asset 22 across 3 days)", len(created))
	}
	for _, task := range created {
		if task.AssetID != 22 {
			t.Errorf("unexpected created task for asset %d", task.AssetID)
		}
	}
}

func TestMaterializeMalformedSchedule(t *testing.T) {
	store := newFakeTaskStore()
	schedule := makeSchedule(t, 8, "hourly", date(2024, time.January, 1))

	m := newMaterializer(store, date(2024, time.January, 1), 14)
	created, err := m.Materialize(context.Background(), schedule, nil)

	var verr *TaskEngine.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want ValidationError", err)
	}
	if len(created) != 0 || len(store.order) != 0 {
		t.Fatalf("malformed schedule still created tasks")
	}
}

func dueDaysOf(tasks []Models.CheckTask) []time.Time {
	var days []time.Time
	for _, task := range tasks {
		days = append(days, task.DueAt)
	}
	return days
}
