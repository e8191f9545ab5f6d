package Models

import (
	"time"

	"gorm.io/gorm"
)

// Physical safety asset types tracked per site
const (
	AssetFireDoor       = "fire_door"
	AssetExtinguisher   = "extinguisher"
	AssetAlarmPanel     = "alarm_panel"
	AssetEmergencyLight = "emergency_light"
	AssetSprinkler      = "sprinkler"
)

type Site struct {
	gorm.Model
	OrgID     uint    `json:"org_id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Postcode  string  `json:"postcode"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Asset struct {
	gorm.Model
	OrgID          uint       `json:"org_id"`
	SiteID         uint       `json:"site_id"`
	Type           string     `json:"type"`
	Name           string     `json:"name"`
	Location       string     `json:"location"` // e.g. "Ground floor, east stairwell"
	SerialNo       string     `json:"serial_no"`
	InstalledAt    *time.Time `json:"installed_at"`
	ServiceDue     *time.Time `json:"service_due"`
	Decommissioned bool       `json:"decommissioned"`
}
