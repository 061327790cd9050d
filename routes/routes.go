package routes

import (
	"nutriplan-backend/config"
	"nutriplan-backend/controllers"
	"nutriplan-backend/middlewares"
	"nutriplan-backend/services"
	"nutriplan-backend/utils"

	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	r := gin.Default()

	logger := utils.Logger
	if logger == nil {
		logger = utils.InitLogger()
	}

	hub := services.NewRealtimeHub()
	services.InitAlertDeps(config.DB, hub)

	ents := services.NewEnterpriseService(config.DB)
	settingsSvc := services.NewSettingsService(config.DB, logger, hub)
	planSvc := services.NewMealPlanService(config.DB, logger, ents)
	cache := services.NewSessionCache(services.DefaultCacheTTL, logger)

	authCtl := controllers.NewAuthController(cache)
	settingsCtl := controllers.NewSettingsController(settingsSvc, cache)
	planCtl := controllers.NewMealPlanController(planSvc, ents, cache)
	entCtl := controllers.NewEnterpriseController(ents, settingsSvc)
	rtCtl := controllers.NewRealtimeController(hub)

	// Public auth routes
	auth := r.Group("/auth")
	{
		auth.POST("/register", authCtl.Register)
		auth.POST("/login", authCtl.Login)
	}

	// Protected user routes
	user := r.Group("/user")
	user.Use(middlewares.AuthMiddleware())
	{
		user.GET("/settings", settingsCtl.GetSettings)
		user.POST("/settings", settingsCtl.SaveSettings)
		user.DELETE("/settings", settingsCtl.DeleteSettings)
		user.GET("/settings/history", settingsCtl.GetSettingsHistory)
		user.DELETE("/settings/history/:id", settingsCtl.DeleteSettingsHistory)

		user.GET("/meal-plans", planCtl.ListMyPlans)
		user.POST("/meal-plans", planCtl.CreateMyPlan)
		user.DELETE("/meal-plans/:id", planCtl.DeleteMyPlan)

		user.GET("/alerts", controllers.ListAlerts)
		user.POST("/alerts/:id/read", controllers.MarkAlertRead)
	}

	// Enterprise admin routes; role is re-verified against the DB per call
	ent := r.Group("/enterprise")
	ent.Use(middlewares.AuthMiddleware())
	{
		ent.POST("/:enterpriseID/user/:userID/meal-plans", planCtl.CreateForUser)
		ent.GET("/:enterpriseID/user/:userID/meal-plans", planCtl.ListForUser)
		ent.POST("/:enterpriseID/meal-plan/:planID/approve", planCtl.ApprovePlan)
		ent.POST("/:enterpriseID/meal-plan/:planID/reject", planCtl.RejectPlan)
		ent.DELETE("/:enterpriseID/meal-plan/:planID", planCtl.DeletePlan)
		ent.GET("/:enterpriseID/settings-history", entCtl.SettingsHistory)
	}

	// Realtime event stream
	ws := r.Group("/ws")
	ws.Use(middlewares.AuthMiddleware())
	{
		ws.GET("/events", rtCtl.EventsWS)
	}

	return r
}
