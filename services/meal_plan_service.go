package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"nutriplan-backend/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MealPlanService drives the staging workflow: pending -> approved, or
// pending -> rejected (deleted). Admin-authored plans stay invisible to the
// owner until approved; owner-authored plans are approved at creation.
type MealPlanService struct {
	db   *gorm.DB
	log  *logrus.Logger
	ents *EnterpriseService
}

func NewMealPlanService(db *gorm.DB, log *logrus.Logger, ents *EnterpriseService) *MealPlanService {
	return &MealPlanService{db: db, log: log, ents: ents}
}

type PlanInput struct {
	Name             string          `json:"name"`
	StartDate        time.Time       `json:"start_date"`
	EndDate          time.Time       `json:"end_date"`
	WeekPlan         models.WeekPlan `json:"meal_plan"`
	HasSickness      bool            `json:"has_sickness"`
	SicknessType     string          `json:"sickness_type"`
	HealthAssessment map[string]any  `json:"health_assessment"`
	UserInfo         map[string]any  `json:"user_info"`
}

// Create inserts a plan for ownerID. The approval flag is decided by
// creator identity: self-created plans are live immediately, plans authored
// by anyone else start pending. A creator other than the owner must be an
// admin of the owner's enterprise.
//
// The (owner, start date) uniqueness is enforced by the database index, not
// by a check-then-write, so two concurrent creates for the same week cannot
// both succeed.
func (s *MealPlanService) Create(creatorID, ownerID string, in PlanInput) (*models.MealPlan, error) {
	if creatorID == "" || ownerID == "" {
		return nil, fmt.Errorf("%w: creator and owner are required", ErrValidation)
	}
	if in.StartDate.IsZero() {
		return nil, fmt.Errorf("%w: start_date is required", ErrValidation)
	}

	enterpriseID := s.ents.EnterpriseOf(ownerID)

	if creatorID != ownerID {
		if enterpriseID == nil {
			return nil, ErrNotAuthorized
		}
		if ok, _ := s.ents.IsOrgAdmin(creatorID, *enterpriseID); !ok {
			return nil, ErrNotAuthorized
		}
	}

	plan := models.MealPlan{
		ID:           uuid.New().String(),
		UserID:       ownerID,
		CreatorID:    creatorID,
		EnterpriseID: enterpriseID,
		Name:         in.Name,
		StartDate:    weekStart(in.StartDate),
		EndDate:      in.EndDate,
		IsApproved:   creatorID == ownerID,
		WeekPlan:     in.WeekPlan,
		HasSickness:  in.HasSickness,
		SicknessType: in.SicknessType,
	}
	if in.HealthAssessment != nil {
		plan.HealthAssessment = datatypes.JSONMap(in.HealthAssessment)
	}
	if in.UserInfo != nil {
		plan.UserInfo = datatypes.JSONMap(in.UserInfo)
	}

	if err := s.db.Create(&plan).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateWeek
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.log.WithFields(logrus.Fields{
		"plan_id":  plan.ID,
		"owner":    ownerID,
		"creator":  creatorID,
		"approved": plan.IsApproved,
	}).Info("meal plan created")

	return &plan, nil
}

// Approve makes a plan visible to its owner. Only an admin of the plan's
// enterprise may approve; approving an already-approved plan is a no-op.
func (s *MealPlanService) Approve(planID, actorID string) (*models.MealPlan, error) {
	plan, err := s.load(planID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAdmin(actorID, plan); err != nil {
		return nil, err
	}
	if plan.IsApproved {
		return plan, nil
	}

	if err := s.db.Model(plan).Updates(map[string]any{"is_approved": true}).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	plan.IsApproved = true

	EmitAlert(plan.UserID, "plan.approved", fmt.Sprintf("Your meal plan for the week of %s is ready.", plan.StartDate.Format("2006-01-02")))
	return plan, nil
}

// Reject discards a pending plan permanently. Rejected content must not
// linger, so the row is deleted rather than flagged. Rejecting an approved
// plan is an illegal transition.
func (s *MealPlanService) Reject(planID, actorID string) error {
	plan, err := s.load(planID)
	if err != nil {
		return err
	}
	if err := s.requireAdmin(actorID, plan); err != nil {
		return err
	}
	if plan.IsApproved {
		return ErrPlanNotPending
	}

	if err := s.db.Delete(plan).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	s.log.WithFields(logrus.Fields{"plan_id": planID, "actor": actorID}).Info("meal plan rejected and deleted")

	EmitAlert(plan.UserID, "plan.rejected", fmt.Sprintf("The proposed meal plan for the week of %s was not approved.", plan.StartDate.Format("2006-01-02")))
	return nil
}

// Delete removes a plan at any approval state. Legal for the owner or an
// admin of the plan's enterprise. The removed plan is returned so callers
// can invalidate per-owner caches.
func (s *MealPlanService) Delete(planID, actorID string) (*models.MealPlan, error) {
	plan, err := s.load(planID)
	if err != nil {
		return nil, err
	}
	if actorID != plan.UserID {
		if err := s.requireAdmin(actorID, plan); err != nil {
			return nil, err
		}
	}
	if err := s.db.Delete(plan).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return plan, nil
}

// ListForOwner returns only approved plans; pending admin-authored content
// never leaks to the end user.
func (s *MealPlanService) ListForOwner(ownerID string) ([]models.MealPlan, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrValidation)
	}
	var plans []models.MealPlan
	err := s.db.
		Where("user_id = ? AND is_approved = ?", ownerID, true).
		Order("start_date DESC").
		Find(&plans).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return plans, nil
}

// ListForAdmin returns every plan of one member, approved or pending, so the
// admin UI can render pending-review affordances off the is_approved flag.
func (s *MealPlanService) ListForAdmin(actorID, enterpriseID, ownerID string) ([]models.MealPlan, error) {
	if ok, reason := s.ents.IsOrgAdmin(actorID, enterpriseID); !ok {
		s.log.WithFields(logrus.Fields{"actor": actorID, "enterprise": enterpriseID, "reason": reason}).
			Warn("admin plan listing denied")
		return nil, ErrNotAuthorized
	}
	if !s.ents.IsMember(ownerID, enterpriseID) {
		return nil, ErrNotFound
	}

	var plans []models.MealPlan
	err := s.db.
		Where("user_id = ?", ownerID).
		Order("updated_at DESC").
		Find(&plans).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return plans, nil
}

func (s *MealPlanService) load(planID string) (*models.MealPlan, error) {
	if planID == "" {
		return nil, fmt.Errorf("%w: plan id is required", ErrValidation)
	}
	var plan models.MealPlan
	if err := s.db.Where("id = ?", planID).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &plan, nil
}

func (s *MealPlanService) requireAdmin(actorID string, plan *models.MealPlan) error {
	if plan.EnterpriseID == nil {
		return ErrNotAuthorized
	}
	ok, reason := s.ents.IsOrgAdmin(actorID, *plan.EnterpriseID)
	if !ok {
		s.log.WithFields(logrus.Fields{"actor": actorID, "plan_id": plan.ID, "reason": reason}).
			Warn("plan transition denied")
		return ErrNotAuthorized
	}
	return nil
}

// weekStart truncates to the calendar date; plans are keyed by day, not
// instant.
func weekStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
