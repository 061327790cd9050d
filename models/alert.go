package models

import "time"

type Alert struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    string    `gorm:"index"`
	Type      string    `gorm:"size:40"` // "plan.approved" | "plan.rejected" | "settings.updated"
	Message   string    `gorm:"type:text"`
	Read      bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
}
