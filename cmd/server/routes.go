package main

import (
	"github.com/gin-gonic/gin"
	"github.com/mirelo/perfhub/backend/internal/handlers"
	"github.com/mirelo/perfhub/backend/internal/middleware"
	"github.com/mirelo/perfhub/backend/internal/models"
	"github.com/mirelo/perfhub/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Health check
	healthHandler := handlers.NewHealthHandler()
	r.GET("/health", healthHandler.CheckHealth)

	// Rate limiter for the public auth surface
	authLimiter := middleware.NewRateLimiter(5, 10)

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth", authLimiter.Middleware())
		{
			auth.POST("/login", svc.authHandler.Login)
		}

		// Invitation acceptance is public; the token is the credential
		invitationHandler := handlers.NewInvitationHandler(models.DB)
		api.POST("/invitations/accept", authLimiter.Middleware(), invitationHandler.Accept)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.GetCurrentEmployee)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			// Employees
			employeeHandler := handlers.NewEmployeeHandler(models.DB)
			protected.GET("/employees", employeeHandler.List)
			protected.GET("/employees/:id", employeeHandler.GetByID)
			protected.GET("/employees/:id/permissions", employeeHandler.GetPermissions)
			protected.GET("/employees/:id/summary", svc.reportHandler.Summarize)
			protected.POST("/employees", employeeHandler.Create)
			protected.PUT("/employees/:id", employeeHandler.Update)
			protected.DELETE("/employees/:id", employeeHandler.Delete)

			// Projects
			projectHandler := handlers.NewProjectHandler(models.DB)
			protected.GET("/projects", projectHandler.List)
			protected.GET("/projects/:id", projectHandler.GetByID)
			protected.POST("/projects", projectHandler.Create)
			protected.PUT("/projects/:id", projectHandler.Update)
			protected.DELETE("/projects/:id", projectHandler.Delete)

			// Goals
			goalHandler := handlers.NewGoalHandler(models.DB)
			protected.GET("/goals", goalHandler.List)
			protected.GET("/goals/:id", goalHandler.GetByID)
			protected.POST("/goals", goalHandler.Create)
			protected.PUT("/goals/:id", goalHandler.Update)
			protected.DELETE("/goals/:id", goalHandler.Delete)

			// Reports and evaluation
			protected.POST("/reports", svc.reportHandler.Submit)
			protected.GET("/reports", svc.reportHandler.List)
			protected.GET("/reports/:id", svc.reportHandler.GetByID)
			protected.GET("/reports/:id/can-override", svc.reportHandler.CanOverride)
			protected.PUT("/reports/:id/override", svc.reportHandler.ApplyOverride)
			protected.DELETE("/reports/:id/override", svc.reportHandler.ClearOverride)
			protected.GET("/scope", svc.reportHandler.ResolveScope)

			// Settings and frequency
			settingsHandler := handlers.NewSettingsHandler(models.DB)
			protected.GET("/settings", settingsHandler.Get)
			protected.PUT("/settings", settingsHandler.Update)
			protected.GET("/settings/holiday-countries", settingsHandler.GetHolidayCountries)
			protected.GET("/frequency", settingsHandler.ResolveFrequency)
			protected.PUT("/frequency/global", settingsHandler.UpdateGlobalFrequency)
			protected.PUT("/frequency/employees", settingsHandler.SyncEmployeeSelection)
			protected.PUT("/frequency/employees/:id", settingsHandler.SetEmployeeDays)
			protected.PUT("/frequency/projects", settingsHandler.SyncProjectSelection)
			protected.PUT("/frequency/projects/:id", settingsHandler.SetProjectDays)

			// Metrics
			metricHandler := handlers.NewMetricHandler(models.DB)
			protected.GET("/metrics", metricHandler.List)
			protected.POST("/metrics", metricHandler.Create)
			protected.PUT("/metrics/selection", metricHandler.SetSelection)
			protected.DELETE("/metrics/:id", metricHandler.Delete)

			// Invitations
			protected.POST("/invitations", invitationHandler.Create)
			protected.GET("/invitations", invitationHandler.List)
			protected.DELETE("/invitations/:id", invitationHandler.Revoke)

			// LLM Configs (manager only)
			llmConfigHandler := handlers.NewLLMConfigHandler(models.DB)
			llmConfigs := protected.Group("/llm-configs", middleware.ManagerRequired())
			{
				llmConfigs.GET("", llmConfigHandler.List)
				llmConfigs.GET("/:id", llmConfigHandler.GetByID)
				llmConfigs.POST("", llmConfigHandler.Create)
				llmConfigs.PUT("/:id", llmConfigHandler.Update)
				llmConfigs.DELETE("/:id", llmConfigHandler.Delete)
			}

			// Activity Logs (manager only)
			activityLogHandler := handlers.NewActivityLogHandler(models.DB)
			activityLogs := protected.Group("/activity-logs", middleware.ManagerRequired())
			{
				activityLogs.GET("", activityLogHandler.List)
				activityLogs.GET("/modules", activityLogHandler.GetModules)
			}
		}
	}
}
