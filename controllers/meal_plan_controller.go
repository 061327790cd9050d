package controllers

import (
	"context"
	"net/http"

	"nutriplan-backend/models"
	"nutriplan-backend/services"

	"github.com/gin-gonic/gin"
)

type MealPlanController struct {
	svc   *services.MealPlanService
	ents  *services.EnterpriseService
	cache *services.SessionCache
}

func NewMealPlanController(svc *services.MealPlanService, ents *services.EnterpriseService, cache *services.SessionCache) *MealPlanController {
	return &MealPlanController{svc: svc, ents: ents, cache: cache}
}

func plansCacheKey(ownerID string) services.CacheKey {
	return services.CacheKey{OwnerID: ownerID, Kind: "meal_plans"}
}

// ListMyPlans handles GET /user/meal-plans. Only approved plans are visible
// to the owner; reads go through the session cache with background refresh.
func (mc *MealPlanController) ListMyPlans(c *gin.Context) {
	ownerID := c.GetString("userID")

	cached, err := mc.cache.GetOrRefresh(c.Request.Context(), plansCacheKey(ownerID),
		func(ctx context.Context) (any, error) {
			return mc.svc.ListForOwner(ownerID)
		})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"success": false, "error": err.Error()})
		return
	}

	plans := cached.Value.([]models.MealPlan)
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"meal_plans":  plans,
		"total_count": len(plans),
		"stale":       cached.Stale,
	})
}

// CreateMyPlan handles POST /user/meal-plans. Self-created plans are
// approved immediately.
func (mc *MealPlanController) CreateMyPlan(c *gin.Context) {
	ownerID := c.GetString("userID")

	var input services.PlanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	plan, err := mc.svc.Create(ownerID, ownerID, input)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"success": false, "error": err.Error()})
		return
	}
	mc.cache.Invalidate(plansCacheKey(ownerID))

	c.JSON(http.StatusCreated, gin.H{"success": true, "meal_plan": plan})
}

// DeleteMyPlan handles DELETE /user/meal-plans/:id.
func (mc *MealPlanController) DeleteMyPlan(c *gin.Context) {
	ownerID := c.GetString("userID")

	if _, err := mc.svc.Delete(c.Param("id"), ownerID); err != nil {
		c.JSON(statusFor(err), gin.H{"success": false, "error": err.Error()})
		return
	}
	mc.cache.Invalidate(plansCacheKey(ownerID))
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Meal plan deleted"})
}

// CreateForUser handles POST /enterprise/:enterpriseID/user/:userID/meal-plans.
// Admin-created plans start unapproved; the member sees nothing until an
// explicit approve.
func (mc *MealPlanController) CreateForUser(c *gin.Context) {
	actorID := c.GetString("userID")
	enterpriseID := c.Param("enterpriseID")
	targetID := c.Param("userID")

	if ok, _ := mc.ents.IsOrgAdmin(actorID, enterpriseID); !ok {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Access denied"})
		return
	}
	if !mc.ents.IsMember(targetID, enterpriseID) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "User is not a member of this organization"})
		return
	}

	var input services.PlanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	plan, err := mc.svc.Create(actorID, targetID, input)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"success": false, "error": err.Error()})
		return
	}
	mc.cache.Invalidate(plansCacheKey(targetID))

	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"message":   "Meal plan created. Click Approve to send it to the user.",
		"meal_plan": plan,
	})
}

// ListForUser handles GET /enterprise/:enterpriseID/user/:userID/meal-plans.
// Admins see pending and approved plans alike.
func (mc *MealPlanController) ListForUser(c *gin.Context) {
	actorID := c.GetString("userID")

	plans, err := mc.svc.ListForAdmin(actorID, c.Param("enterpriseID"), c.Param("userID"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "meal_plans": plans, "total_count": len(plans)})
}

// ApprovePlan handles POST /enterprise/:enterpriseID/meal-plan/:planID/approve.
func (mc *MealPlanController) ApprovePlan(c *gin.Context) {
	actorID := c.GetString("userID")

	plan, err := mc.svc.Approve(c.Param("planID"), actorID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"success": false, "error": err.Error()})
		return
	}
	mc.cache.Invalidate(plansCacheKey(plan.UserID))

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Meal plan approved! User can now see this plan.",
		"meal_plan": plan,
	})
}

// RejectPlan handles POST /enterprise/:enterpriseID/meal-plan/:planID/reject.
// Rejection removes the plan entirely.
func (mc *MealPlanController) RejectPlan(c *gin.Context) {
	actorID := c.GetString("userID")

	if err := mc.svc.Reject(c.Param("planID"), actorID); err != nil {
		c.JSON(statusFor(err), gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Meal plan rejected and deleted. User will not see this plan."})
}

// DeletePlan handles DELETE /enterprise/:enterpriseID/meal-plan/:planID.
func (mc *MealPlanController) DeletePlan(c *gin.Context) {
	actorID := c.GetString("userID")

	plan, err := mc.svc.Delete(c.Param("planID"), actorID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"success": false, "error": err.Error()})
		return
	}
	mc.cache.Invalidate(plansCacheKey(plan.UserID))
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Meal plan deleted"})
}
