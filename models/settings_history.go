package models

import (
	"time"

	"gorm.io/datatypes"
)

// UserSettingsHistory is an append-only audit row written alongside every
// settings upsert. Rows are never updated; the only delete path is the
// owner-initiated erasure endpoint.
//
// ChangedFields uses the ` (removed)` suffix convention for keys that were
// present in the previous document but absent from the new one. Renderers
// filter numeric-index artifacts themselves (see services.DisplayFields).
type UserSettingsHistory struct {
	ID                   string            `gorm:"type:varchar(64);primaryKey" json:"id"`
	UserID               string            `gorm:"index:idx_settings_history_owner_type;not null" json:"user_id"`
	SettingsType         string            `gorm:"index:idx_settings_history_owner_type;not null" json:"settings_type"`
	SettingsData         datatypes.JSONMap `json:"settings_data"`
	PreviousSettingsData datatypes.JSONMap `json:"previous_settings_data"` // nil on the first ever write
	ChangedFields        datatypes.JSONSlice[string] `json:"changed_fields"`
	CreatedBy            string            `gorm:"not null" json:"created_by"` // actor, normally the owner
	CreatedAt            time.Time         `gorm:"index" json:"created_at"`
}

func (UserSettingsHistory) TableName() string {
	return "user_settings_history"
}
