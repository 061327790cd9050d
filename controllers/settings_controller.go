package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"nutriplan-backend/models"
	"nutriplan-backend/services"

	"github.com/gin-gonic/gin"
)

type SettingsController struct {
	svc   *services.SettingsService
	cache *services.SessionCache
}

func NewSettingsController(svc *services.SettingsService, cache *services.SessionCache) *SettingsController {
	return &SettingsController{svc: svc, cache: cache}
}

type SaveSettingsInput struct {
	SettingsType string         `json:"settings_type"`
	SettingsData map[string]any `json:"settings_data" binding:"required"`
	// Revision, when set, is the revision the client read; a stale value is
	// rejected with 409 so the client can re-read and retry.
	Revision *int `json:"revision"`
}

func settingsCacheKey(ownerID, settingsType string) services.CacheKey {
	return services.CacheKey{OwnerID: ownerID, Kind: "settings:" + settingsType}
}

// SaveSettings handles POST /user/settings.
func (sc *SettingsController) SaveSettings(c *gin.Context) {
	ownerID := c.GetString("userID")

	var input SaveSettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Settings data is required"})
		return
	}
	if input.SettingsType == "" {
		input.SettingsType = "health_profile"
	}

	result, err := sc.svc.Upsert(ownerID, input.SettingsType, input.SettingsData, input.Revision)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"status": "error", "message": err.Error()})
		return
	}

	// the write replaces the cached copy so a read right after cannot race
	// ahead of a stale entry
	sc.cache.Set(settingsCacheKey(ownerID, input.SettingsType), result.Settings)

	payload := gin.H{
		"status":        "success",
		"message":       "Settings saved successfully",
		"settings":      result.Settings.SettingsData,
		"settings_type": result.Settings.SettingsType,
		"revision":      result.Settings.Revision,
		"updated_at":    result.Settings.UpdatedAt,
	}
	if !result.HistorySaved {
		payload["warning"] = "Settings saved but the change history could not be recorded"
	}
	c.JSON(http.StatusOK, payload)
}

// GetSettings handles GET /user/settings. Reads go through the session
// cache: a cached copy is returned immediately (even stale) while a refresh
// runs in the background.
func (sc *SettingsController) GetSettings(c *gin.Context) {
	ownerID := c.GetString("userID")
	settingsType := c.DefaultQuery("settings_type", "health_profile")

	cached, err := sc.cache.GetOrRefresh(c.Request.Context(), settingsCacheKey(ownerID, settingsType),
		func(ctx context.Context) (any, error) {
			return sc.svc.GetCurrent(ownerID, settingsType)
		})
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"status": "success", "settings": gin.H{}, "message": "No settings found"})
			return
		}
		c.JSON(statusFor(err), gin.H{"status": "error", "message": err.Error()})
		return
	}

	settings := cached.Value.(*models.UserSettings)
	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"settings":      settings.SettingsData,
		"settings_type": settings.SettingsType,
		"revision":      settings.Revision,
		"updated_at":    settings.UpdatedAt,
		"stale":         cached.Stale,
	})
}

// DeleteSettings handles DELETE /user/settings.
func (sc *SettingsController) DeleteSettings(c *gin.Context) {
	ownerID := c.GetString("userID")
	settingsType := c.DefaultQuery("settings_type", "health_profile")

	if err := sc.svc.Delete(ownerID, settingsType); err != nil {
		c.JSON(statusFor(err), gin.H{"status": "error", "message": err.Error()})
		return
	}
	sc.cache.Invalidate(settingsCacheKey(ownerID, settingsType))
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Settings deleted successfully"})
}

// GetSettingsHistory handles GET /user/settings/history.
func (sc *SettingsController) GetSettingsHistory(c *gin.Context) {
	ownerID := c.GetString("userID")
	settingsType := c.DefaultQuery("settings_type", "health_profile")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	history, err := sc.svc.GetHistory(ownerID, settingsType, limit)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"status": "error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "history": history, "count": len(history)})
}

// DeleteSettingsHistory handles DELETE /user/settings/history/:id.
func (sc *SettingsController) DeleteSettingsHistory(c *gin.Context) {
	ownerID := c.GetString("userID")
	recordID := c.Param("id")

	if err := sc.svc.DeleteHistoryEntry(ownerID, recordID); err != nil {
		c.JSON(statusFor(err), gin.H{"status": "error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Settings history record deleted successfully."})
}
