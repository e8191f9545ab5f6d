package TaskEngine_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"Firewatch/Models"
)

// fakeTaskStore is an in-memory TaskStore with controllable failures.
type fakeTaskStore struct {
	tasks  map[uint]*Models.CheckTask
	order  []uint
	nextID uint

	failInsertAsset uint // inserts for this asset id are rejected
	failUpdates     bool
	updateCalls     int
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[uint]*Models.CheckTask)}
}

func (s *fakeTaskStore) TasksByOrg(_ context.Context, orgID uint) ([]Models.CheckTask, error) {
	var out []Models.CheckTask
	for _, id := range s.order {
		if s.tasks[id].OrgID == orgID {
			out = append(out, *s.tasks[id])
		}
	}
	return out, nil
}

func (s *fakeTaskStore) TasksBySchedule(_ context.Context, scheduleID uint) ([]Models.CheckTask, error) {
	var out []Models.CheckTask
	for _, id := range s.order {
		if s.tasks[id].ScheduleID == scheduleID {
			out = append(out, *s.tasks[id])
		}
	}
	return out, nil
}

func (s *fakeTaskStore) InsertTask(_ context.Context, task *Models.CheckTask) error {
	if s.failInsertAsset != 0 && task.AssetID == s.failInsertAsset {
		return fmt.Errorf("store rejected write")
	}
	s.nextID++
	task.ID = s.nextID
	stored := *task
	s.tasks[task.ID] = &stored
	s.order = append(s.order, task.ID)
	return nil
}

func (s *fakeTaskStore) UpdateTaskFields(_ context.Context, taskID uint, fields map[string]interface{}) error {
	s.updateCalls++
	if s.failUpdates {
		return fmt.Errorf("store rejected update")
	}
	task, ok := s.tasks[taskID]
	if !ok {
		return fmt.Errorf("no task %d", taskID)
	}
	if v, ok := fields["claimed_by"]; ok {
		switch id := v.(type) {
		case uint:
			task.ClaimedBy = id
		case int:
			task.ClaimedBy = uint(id)
		}
	}
	if v, ok := fields["claimed_by_name"]; ok {
		task.ClaimedByName = v.(string)
	}
	if v, ok := fields["claimed_at"]; ok {
		if v == nil {
			task.ClaimedAt = nil
		} else {
			at := v.(time.Time)
			task.ClaimedAt = &at
		}
	}
	if v, ok := fields["status"]; ok {
		task.Status = v.(string)
	}
	return nil
}

// seed places a task directly in the store, bypassing failure knobs.
func (s *fakeTaskStore) seed(t *testing.T, task Models.CheckTask) Models.CheckTask {
	t.Helper()
	s.nextID++
	task.ID = s.nextID
	stored := task
	s.tasks[task.ID] = &stored
	s.order = append(s.order, task.ID)
	return task
}

func (s *fakeTaskStore) get(t *testing.T, id uint) Models.CheckTask {
	t.Helper()
	task, ok := s.tasks[id]
	if !ok {
		t.Fatalf("task %d not in store", id)
	}
	return *task
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func makeSchedule(t *testing.T, id uint, frequency string, start time.Time, assetIDs ...uint) Models.CheckSchedule {
	t.Helper()
	schedule := Models.CheckSchedule{
		OrgID:      1,
		SiteID:     2,
		TemplateID: 3,
		Frequency:  frequency,
		StartDate:  start,
		Active:     true,
	}
	schedule.ID = id
	if err := schedule.SetTargetAssets(assetIDs); err != nil {
		t.Fatalf("setting target assets: %v", err)
	}
	return schedule
}
