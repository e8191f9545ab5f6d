package Models

import (
	"context"

	"gorm.io/gorm"
)

// GormTaskStore backs the task engine's store port with the relational
// database. It satisfies TaskEngine.TaskStore without naming it so the
// engine package stays free of a dependency back into Models.
type GormTaskStore struct {
	DB *gorm.DB
}

func NewGormTaskStore(db *gorm.DB) *GormTaskStore {
	return &GormTaskStore{DB: db}
}

// TasksByOrg returns every task belonging to an organization.
func (s *GormTaskStore) TasksByOrg(ctx context.Context, orgID uint) ([]CheckTask, error) {
	var tasks []CheckTask
	if err := s.DB.WithContext(ctx).Where("org_id = ?", orgID).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// TasksBySchedule returns every task materialized from one schedule.
func (s *GormTaskStore) TasksBySchedule(ctx context.Context, scheduleID uint) ([]CheckTask, error) {
	var tasks []CheckTask
	if err := s.DB.WithContext(ctx).Where("schedule_id = ?", scheduleID).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// InsertTask persists a newly materialized task.
func (s *GormTaskStore) InsertTask(ctx context.Context, task *CheckTask) error {
	return s.DB.WithContext(ctx).Create(task).Error
}

// UpdateTaskFields writes only the named columns. Claim and completion
// updates go through here so concurrent edits to unrelated fields are
// never clobbered by a whole-record save.
func (s *GormTaskStore) UpdateTaskFields(ctx context.Context, taskID uint, fields map[string]interface{}) error {
	return s.DB.WithContext(ctx).Model(&CheckTask{}).Where("id = ?", taskID).Updates(fields).Error
}

// GormScheduleStore backs the engine's schedule port.
type GormScheduleStore struct {
	DB *gorm.DB
}

func NewGormScheduleStore(db *gorm.DB) *GormScheduleStore {
	return &GormScheduleStore{DB: db}
}

// ActiveSchedulesByOrg returns the schedules still generating tasks.
func (s *GormScheduleStore) ActiveSchedulesByOrg(ctx context.Context, orgID uint) ([]CheckSchedule, error) {
	var schedules []CheckSchedule
	if err := s.DB.WithContext(ctx).Where("org_id = ? AND active = ?", orgID, true).Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}
