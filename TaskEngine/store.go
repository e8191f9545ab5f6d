package TaskEngine

import (
	"context"

	"Firewatch/Models"
)

// TaskStore is the engine's port onto the task collection. Both the
// relational store and the Firestore adapter satisfy it. Updates are
// partial by contract: only the named fields are written, so concurrent
// edits to unrelated fields are never clobbered.
type TaskStore interface {
	TasksByOrg(ctx context.Context, orgID uint) ([]Models.CheckTask, error)
	TasksBySchedule(ctx context.Context, scheduleID uint) ([]Models.CheckTask, error)
	InsertTask(ctx context.Context, task *Models.CheckTask) error
	UpdateTaskFields(ctx context.Context, taskID uint, fields map[string]interface{}) error
}

// ScheduleStore is the engine's port onto the schedule collection.
type ScheduleStore interface {
	ActiveSchedulesByOrg(ctx context.Context, orgID uint) ([]Models.CheckSchedule, error)
}
