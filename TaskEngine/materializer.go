package TaskEngine

import (
	"context"
	"log"
	"time"

	"Firewatch/Models"
)

// DefaultHorizonDays is how far ahead the generation run materializes
// occurrences unless a caller overrides it.
const DefaultHorizonDays = 30

// Materializer persists schedule occurrences as pending tasks exactly once
// per (schedule, due day, asset). Re-running with an overlapping horizon
// never produces duplicates; that idempotence is the component's central
// correctness property.
type Materializer struct {
	Store   TaskStore
	Clock   Clock
	Horizon int
}

func NewMaterializer(store TaskStore, clock Clock) *Materializer {
	return &Materializer{Store: store, Clock: clock, Horizon: DefaultHorizonDays}
}

type taskKey struct {
	scheduleID uint
	dueDay     time.Time
	assetID    uint
}

// Materialize expands one schedule and persists every occurrence not already
// present in existing. The existing set should be the org's full task list;
// the dedup key is (schedule, due day, asset). A store failure for one
// candidate does not stop the remaining candidates; partial success shows
// up as a shorter created list, and the first failure is returned alongside
// whatever was created.
func (m *Materializer) Materialize(ctx context.Context, schedule Models.CheckSchedule, existing []Models.CheckTask) ([]Models.CheckTask, error) {
	occurrences, err := Expand(schedule, m.Clock.Now(), m.Horizon)
	if err != nil {
		return nil, err
	}

	seen := make(map[taskKey]bool, len(existing))
	for _, task := range existing {
		if task.ScheduleID != schedule.ID {
			continue
		}
		seen[taskKey{schedule.ID, StartOfDay(task.DueAt), task.AssetID}] = true
	}

	var created []Models.CheckTask
	var firstErr error
	for _, occ := range occurrences {
		key := taskKey{schedule.ID, occ.DueAt, occ.AssetID}
		if seen[key] {
			continue
		}

		task := Models.CheckTask{
			OrgID:      schedule.OrgID,
			SiteID:     schedule.SiteID,
			AssetID:    occ.AssetID,
			TemplateID: schedule.TemplateID,
			ScheduleID: schedule.ID,
			DueAt:      occ.DueAt,
			Status:     Models.TaskStatusPending,
		}
		if err := m.Store.InsertTask(ctx, &task); err != nil {
			perr := &PersistenceError{Op: "insert task", ScheduleID: schedule.ID, Err: err}
			log.Printf("Materializer: %v", perr)
			if firstErr == nil {
				firstErr = perr
			}
			continue
		}
		seen[key] = true
		created = append(created, task)
	}
	return created, firstErr
}
