package models

import (
	"time"
)

// Enterprise is one customer organization. CreatedBy is the owner's
// public user id; the owner always passes the admin gate.
type Enterprise struct {
	ID        string `gorm:"type:varchar(64);primaryKey"`
	Name      string `gorm:"not null"`
	CreatedBy string `gorm:"index;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrganizationUser links a user to an enterprise with a role
// ("admin" | "member"). One membership per (enterprise, user).
type OrganizationUser struct {
	ID           uint   `gorm:"primaryKey"`
	EnterpriseID string `gorm:"uniqueIndex:idx_org_membership;not null"`
	UserID       string `gorm:"uniqueIndex:idx_org_membership;index;not null"`
	Role         string `gorm:"not null;default:member"`
	CreatedAt    time.Time
}
