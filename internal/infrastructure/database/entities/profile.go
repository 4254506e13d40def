package entities

import (
	"time"

	"gorm.io/datatypes"
)

// Profile holds a caller's subscription tier and per-feature usage
// counters. Usage is a JSONB object mapping feature name to count so new
// features never need a schema change.
type Profile struct {
	UserID    string         `gorm:"type:varchar(64);primaryKey"`
	Tier      string         `gorm:"type:varchar(16);not null;default:'free'"`
	Usage     datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (Profile) TableName() string {
	return "profiles"
}
