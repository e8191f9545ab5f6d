package Models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Check frequencies supported by recurring schedules
const (
	FrequencyDaily     = "daily"
	FrequencyWeekly    = "weekly"
	FrequencyMonthly   = "monthly"
	FrequencyQuarterly = "quarterly"
	FrequencyAnnual    = "annual"
)

// Task statuses. Overdue is a derived view computed from DueAt, never stored.
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
)

var frequencyRRules = map[string]string{
	FrequencyDaily:     "FREQ=DAILY;INTERVAL=1",
	FrequencyWeekly:    "FREQ=WEEKLY;INTERVAL=1",
	FrequencyMonthly:   "FREQ=MONTHLY;INTERVAL=1",
	FrequencyQuarterly: "FREQ=MONTHLY;INTERVAL=3",
	FrequencyAnnual:    "FREQ=YEARLY;INTERVAL=1",
}

// RRuleForFrequency returns the RFC-5545 rendering of a frequency value.
func RRuleForFrequency(frequency string) (string, bool) {
	rrule, ok := frequencyRRules[frequency]
	return rrule, ok
}

// CheckTemplate is the questionnaire a completed check answers against
type CheckTemplate struct {
	gorm.Model
	OrgID    uint           `json:"org_id"`
	Name     string         `json:"name"`
	Category string         `json:"category"`
	Sections datatypes.JSON `json:"sections"`
}

// CheckSchedule is a recurring inspection definition. RRule is a cached
// rendering of Frequency; the BeforeSave hook keeps the two in lockstep so
// they can never disagree in the database.
type CheckSchedule struct {
	gorm.Model
	OrgID      uint           `json:"org_id"`
	SiteID     uint           `json:"site_id"`     // 0 = applies org-wide
	TemplateID uint           `json:"template_id"`
	Frequency  string         `json:"frequency"`
	RRule      string         `json:"rrule"`
	StartDate  time.Time      `json:"start_date"`
	AssetIDs   datatypes.JSON `json:"asset_ids"` // JSON array of asset ids, empty = org-wide
	Active     bool           `json:"active"`
}

// BeforeSave derives RRule from Frequency on every write. Editing one
// without the other is a data-integrity bug this hook guards against.
func (s *CheckSchedule) BeforeSave(tx *gorm.DB) error {
	rrule, ok := RRuleForFrequency(s.Frequency)
	if !ok {
		return fmt.Errorf("unknown check frequency: %q", s.Frequency)
	}
	s.RRule = rrule
	return nil
}

// TargetAssets decodes the fixed asset list. An empty result means the
// schedule applies to the whole organization.
func (s *CheckSchedule) TargetAssets() ([]uint, error) {
	if len(s.AssetIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	if err := json.Unmarshal(s.AssetIDs, &ids); err != nil {
		return nil, fmt.Errorf("decoding schedule %d asset ids: %v", s.ID, err)
	}
	return ids, nil
}

// SetTargetAssets encodes the fixed asset list.
func (s *CheckSchedule) SetTargetAssets(ids []uint) error {
	if len(ids) == 0 {
		s.AssetIDs = nil
		return nil
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	s.AssetIDs = data
	return nil
}

// CheckTask is one concrete due instance of a schedule, or an ad hoc check.
type CheckTask struct {
	gorm.Model
	OrgID      uint      `json:"org_id"`
	SiteID     uint      `json:"site_id"`
	AssetID    uint      `json:"asset_id"`    // 0 when the schedule is org-wide
	TemplateID uint      `json:"template_id"`
	ScheduleID uint      `json:"schedule_id"` // 0 for ad hoc tasks
	DueAt      time.Time `json:"due_at"`
	Status     string    `json:"status"`

	// Claim fields. At most one non-zero ClaimedBy per task; a claim older
	// than the engine TTL is treated as absent by every reader even before
	// a sweep clears these columns.
	ClaimedBy     uint       `json:"claimed_by"`
	ClaimedByName string     `json:"claimed_by_name"`
	ClaimedAt     *time.Time `json:"claimed_at"`

	// Completion fields, written exactly once by the complete-check workflow.
	CompletedAt *time.Time `json:"completed_at"`
	CompletedBy uint       `json:"completed_by"`
	EntryID     uint       `json:"entry_id"`
}

// CheckEntry is the immutable record of a completed check, referenced by the
// task it closes.
type CheckEntry struct {
	gorm.Model
	Reference   string         `json:"reference" gorm:"uniqueIndex"`
	OrgID       uint           `json:"org_id"`
	SiteID      uint           `json:"site_id"`
	AssetID     uint           `json:"asset_id"`
	TemplateID  uint           `json:"template_id"`
	TaskID      uint           `json:"task_id"`
	CompletedBy uint           `json:"completed_by"`
	Answers     datatypes.JSON `json:"answers"`
	PhotoPaths  datatypes.JSON `json:"photo_paths"`
	Latitude    float64        `json:"latitude"`
	Longitude   float64        `json:"longitude"`
	Signature   string         `json:"signature"`
	Passed      bool           `json:"passed"`
}
