package controllers

import (
	"net/http"

	"nutriplan-backend/config"
	"nutriplan-backend/models"

	"github.com/gin-gonic/gin"
)

// ListAlerts handles GET /user/alerts, newest first.
func ListAlerts(c *gin.Context) {
	uid := c.GetString("userID")

	var alerts []models.Alert
	if err := config.DB.
		Where("user_id = ?", uid).
		Order("created_at DESC").
		Limit(50).
		Find(&alerts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// MarkAlertRead handles POST /user/alerts/:id/read.
func MarkAlertRead(c *gin.Context) {
	uid := c.GetString("userID")

	res := config.DB.Model(&models.Alert{}).
		Where("id = ? AND user_id = ?", c.Param("id"), uid).
		Update("read", true)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
