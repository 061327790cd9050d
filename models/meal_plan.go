package models

import (
	"time"

	"gorm.io/datatypes"
)

// MealPlan is one (owner, week) schedule. The (user_id, start_date) pair is
// unique at the DB level so two concurrent creates for the same week cannot
// both land.
//
// IsApproved gates owner visibility: plans authored by an enterprise admin
// start unapproved and stay invisible to the owner until an explicit
// approve. Rejection deletes the row outright.
type MealPlan struct {
	ID               string            `gorm:"type:varchar(64);primaryKey" json:"id"`
	UserID           string            `gorm:"uniqueIndex:idx_meal_plans_owner_week;index;not null" json:"user_id"`
	CreatorID        string            `gorm:"not null" json:"creator_id"`
	EnterpriseID     *string           `gorm:"index" json:"enterprise_id,omitempty"` // nil for self-service users
	Name             string            `json:"name"`
	StartDate        time.Time         `gorm:"uniqueIndex:idx_meal_plans_owner_week;not null" json:"start_date"`
	EndDate          time.Time         `json:"end_date"`
	IsApproved       bool              `gorm:"not null;default:false" json:"is_approved"`
	WeekPlan         WeekPlan          `gorm:"serializer:json" json:"meal_plan"`
	HasSickness      bool              `json:"has_sickness"`
	SicknessType     string            `json:"sickness_type"`
	HealthAssessment datatypes.JSONMap `json:"health_assessment,omitempty"` // snapshot captured at generation time
	UserInfo         datatypes.JSONMap `json:"user_info,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

func (MealPlan) TableName() string {
	return "meal_plan_management"
}

// WeekPlan is the structured day-by-day content: an ordered sequence of
// seven day records keyed by day-of-week name, not index.
type WeekPlan struct {
	Days []DayPlan `json:"days"`
}

type DayPlan struct {
	Day   string     `json:"day"` // "Monday" ... "Sunday"
	Meals []PlanMeal `json:"meals"`
}

type PlanMeal struct {
	Name        string     `json:"name"` // "Breakfast" | "Lunch" | ...
	Dish        string     `json:"dish"`
	Ingredients []string   `json:"ingredients"`
	Nutrition   *Nutrition `json:"nutrition,omitempty"`
	Benefit     string     `json:"benefit,omitempty"` // free text, set when generated for a health condition
}

type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}
