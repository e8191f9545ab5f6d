package Models

import (
	"time"

	"gorm.io/gorm"
)

// Defect statuses
const (
	DefectOpen       = "open"
	DefectInProgress = "in_progress"
	DefectResolved   = "resolved"
)

// Defect severities
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Defect is a fault raised against an asset, usually from a failed check
// answer, tracked until resolution.
type Defect struct {
	gorm.Model
	OrgID       uint       `json:"org_id"`
	SiteID      uint       `json:"site_id"`
	AssetID     uint       `json:"asset_id"`
	EntryID     uint       `json:"entry_id"` // 0 when raised manually
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Severity    string     `json:"severity"`
	Status      string     `json:"status"`
	RaisedBy    uint       `json:"raised_by"`
	ResolvedBy  uint       `json:"resolved_by"`
	ResolvedAt  *time.Time `json:"resolved_at"`
	Resolution  string     `json:"resolution"`
}
