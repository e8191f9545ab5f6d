package Models

import "gorm.io/gorm"

// Permission levels. Higher levels include the capabilities of lower ones.
const (
	PermissionViewer    = 1
	PermissionInspector = 2
	PermissionManager   = 3
	PermissionOwner     = 4
)

type Organization struct {
	gorm.Model
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type User struct {
	gorm.Model
	OrgID      uint   `json:"org_id"`
	Name       string `json:"name"`
	Email      string `json:"email" gorm:"uniqueIndex"`
	Password   []byte `json:"-"`
	Permission int    `json:"permission"`
	IsApproved int    `json:"is_approved"`
}
