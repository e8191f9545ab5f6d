package Models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FireDrill logs an evacuation drill carried out at a site.
type FireDrill struct {
	gorm.Model
	OrgID          uint           `json:"org_id"`
	SiteID         uint           `json:"site_id"`
	ConductedAt    time.Time      `json:"conducted_at"`
	ConductedBy    uint           `json:"conducted_by"`
	EvacuationSecs int            `json:"evacuation_secs"`
	HeadCount      int            `json:"head_count"`
	Issues         datatypes.JSON `json:"issues"`
	Notes          string         `json:"notes"`
}

// TrainingRecord logs fire-safety training delivered to a member of staff.
type TrainingRecord struct {
	gorm.Model
	OrgID       uint       `json:"org_id"`
	UserID      uint       `json:"user_id"`
	Course      string     `json:"course"`
	Provider    string     `json:"provider"`
	CompletedAt time.Time  `json:"completed_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
	Certificate string     `json:"certificate"`
}
