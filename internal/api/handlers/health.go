package handlers

import (
	"net/http"
	"time"

	"renditr/internal/models"
	"renditr/internal/service"
	"renditr/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	healthService service.HealthService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(healthService service.HealthService) *HealthHandler {
	return &HealthHandler{
		healthService: healthService,
	}
}

// Health handles the main health check endpoint
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	healthStatus, err := h.healthService.CheckHealth(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, models.HealthResponse{
			Status:    "unhealthy",
			Services:  map[string]string{"error": err.Error()},
			Timestamp: time.Now(),
		})
		return
	}

	overallStatus := "healthy"
	statusCode := http.StatusOK

	for name, status := range healthStatus.Services {
		if status != "healthy" {
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
			logger.WarnWithContext(ctx, "Service unhealthy",
				zap.String("service", name),
				zap.String("status", status))
		}
	}

	c.JSON(statusCode, models.HealthResponse{
		Status:    overallStatus,
		Services:  healthStatus.Services,
		Timestamp: time.Now(),
	})
}
