package services

import (
	"fmt"

	"nutriplan-backend/models"

	"gorm.io/gorm"
)

// EnterpriseService answers membership and role questions. It is the single
// authorization path for enterprise operations: roles are always verified
// against the database, never taken from a client-supplied hint.
type EnterpriseService struct {
	db *gorm.DB
}

func NewEnterpriseService(db *gorm.DB) *EnterpriseService {
	return &EnterpriseService{db: db}
}

// IsOrgAdmin reports whether userID may manage enterpriseID: either the
// enterprise owner (created_by) or a member with the admin role. The reason
// string is for logs only; callers surface a generic message.
func (s *EnterpriseService) IsOrgAdmin(userID, enterpriseID string) (bool, string) {
	if userID == "" || enterpriseID == "" {
		return false, "missing actor or enterprise"
	}

	var ent models.Enterprise
	if err := s.db.Where("id = ?", enterpriseID).First(&ent).Error; err != nil {
		return false, "organization not found"
	}
	if ent.CreatedBy == userID {
		return true, "owner"
	}

	var membership models.OrganizationUser
	err := s.db.Where("enterprise_id = ? AND user_id = ?", enterpriseID, userID).First(&membership).Error
	if err != nil {
		return false, "not a member of this organization"
	}
	if membership.Role == "admin" {
		return true, "admin"
	}
	return false, fmt.Sprintf("role %q does not permit management", membership.Role)
}

func (s *EnterpriseService) IsMember(userID, enterpriseID string) bool {
	var membership models.OrganizationUser
	err := s.db.Where("enterprise_id = ? AND user_id = ?", enterpriseID, userID).First(&membership).Error
	return err == nil
}

// EnterpriseOf resolves the enterprise a user belongs to, nil for
// self-service users. Should a user hold several memberships, the earliest
// one wins deterministically; that enterprise's admins are the ones who may
// author plans for the user.
func (s *EnterpriseService) EnterpriseOf(userID string) *string {
	var membership models.OrganizationUser
	if err := s.db.Where("user_id = ?", userID).Order("id ASC").First(&membership).Error; err != nil {
		return nil
	}
	return &membership.EnterpriseID
}

// MemberIDs lists the user ids belonging to an enterprise.
func (s *EnterpriseService) MemberIDs(enterpriseID string) ([]string, error) {
	var ids []string
	err := s.db.Model(&models.OrganizationUser{}).
		Where("enterprise_id = ?", enterpriseID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return ids, nil
}
