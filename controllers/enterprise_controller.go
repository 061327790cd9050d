package controllers

import (
	"net/http"
	"strconv"

	"nutriplan-backend/services"

	"github.com/gin-gonic/gin"
)

type EnterpriseController struct {
	ents     *services.EnterpriseService
	settings *services.SettingsService
}

func NewEnterpriseController(ents *services.EnterpriseService, settings *services.SettingsService) *EnterpriseController {
	return &EnterpriseController{ents: ents, settings: settings}
}

// SettingsHistory handles GET /enterprise/:enterpriseID/settings-history,
// the audit feed over every member's health-profile changes. Numeric-index
// diff artifacts are already filtered by the service for display.
func (ec *EnterpriseController) SettingsHistory(c *gin.Context) {
	actorID := c.GetString("userID")
	enterpriseID := c.Param("enterpriseID")

	if ok, _ := ec.ents.IsOrgAdmin(actorID, enterpriseID); !ok {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Access denied"})
		return
	}

	memberIDs, err := ec.ents.MemberIDs(enterpriseID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"success": false, "error": err.Error()})
		return
	}

	settingsType := c.DefaultQuery("settings_type", "health_profile")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	history, err := ec.settings.HistoryForUsers(memberIDs, settingsType, limit)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "history": history, "count": len(history)})
}
