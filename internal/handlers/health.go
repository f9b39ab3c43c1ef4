package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/mirelo/perfhub/backend/internal/models"
	"github.com/mirelo/perfhub/backend/internal/services"
)

// HealthHandler provides the health check endpoint.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	dbStatus := "ok"
	sqlDB, err := models.DB.DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	taskQueue := services.GetTaskQueue()
	queueMode := "sync"
	if taskQueue != nil && taskQueue.IsAsync() {
		queueMode = "async (Redis)"
	}

	var reportCount int64
	models.DB.Model(&models.Report{}).Count(&reportCount)

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "perfhub",
		"components": gin.H{
			"database":   dbStatus,
			"queue_mode": queueMode,
			"reports":    reportCount,
		},
	})
}
