package handlers

import (
	"io"
	"net/http"

	"renditr/internal/models"
	"renditr/internal/service"
	"renditr/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler handles compare, purge and metrics requests
type AdminHandler struct {
	compareService service.CompareService
	purgeService   service.PurgeService
	metricsService service.MetricsService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	compareService service.CompareService,
	purgeService service.PurgeService,
	metricsService service.MetricsService,
) *AdminHandler {
	return &AdminHandler{
		compareService: compareService,
		purgeService:   purgeService,
		metricsService: metricsService,
	}
}

// Compare evaluates an image against every configured preset without
// persisting anything
// POST /v1/compare
func (h *AdminHandler) Compare(c *gin.Context) {
	ctx := c.Request.Context()

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Missing image file",
			Message: "Request must contain an 'image' file field",
			Code:    http.StatusBadRequest,
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to read upload",
			zap.Error(err),
			zap.String("filename", header.Filename))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "File read error",
			Message: "Failed to read uploaded file",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	result, err := h.compareService.Compare(ctx, data)
	if err != nil {
		writeServiceError(c, err, "compare")
		return
	}

	c.JSON(http.StatusOK, result)
}

// Purge removes unused assets, or lists them when dry_run is set
// POST /v1/purge
func (h *AdminHandler) Purge(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.PurgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request body",
			Message: "Body must be JSON with dry_run and confirm_token fields",
			Code:    http.StatusBadRequest,
		})
		return
	}

	result, err := h.purgeService.Purge(ctx, req)
	if err != nil {
		writeServiceError(c, err, "purge")
		return
	}

	c.JSON(http.StatusOK, result)
}

// Metrics reports usage rollups over the asset catalog
// GET /v1/metrics
func (h *AdminHandler) Metrics(c *gin.Context) {
	ctx := c.Request.Context()

	metrics, err := h.metricsService.Collect(ctx)
	if err != nil {
		writeServiceError(c, err, "metrics")
		return
	}

	c.JSON(http.StatusOK, metrics)
}
