package models

import (
	"time"

	"gorm.io/datatypes"
)

// UserSettings is the live document for one (owner, settings_type) pair.
// Exactly one row exists per pair; upserts replace SettingsData in place
// and bump Revision so concurrent editors can detect a stale read.
type UserSettings struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	UserID       string            `gorm:"uniqueIndex:idx_user_settings_owner_type;not null" json:"user_id"`
	SettingsType string            `gorm:"uniqueIndex:idx_user_settings_owner_type;not null" json:"settings_type"`
	SettingsData datatypes.JSONMap `json:"settings_data"`
	Revision     int               `gorm:"not null;default:1" json:"revision"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}
