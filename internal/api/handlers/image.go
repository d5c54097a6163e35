package handlers

import (
	"io"
	"net/http"

	"renditr/internal/config"
	"renditr/internal/models"
	"renditr/internal/service"
	"renditr/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImageHandler handles image ingestion and retrieval requests
type ImageHandler struct {
	ingestService service.IngestService
	config        *config.Config
}

// NewImageHandler creates a new image handler
func NewImageHandler(ingestService service.IngestService, config *config.Config) *ImageHandler {
	return &ImageHandler{
		ingestService: ingestService,
		config:        config,
	}
}

// Ingest handles image upload requests
// POST /v1/images
func (h *ImageHandler) Ingest(c *gin.Context) {
	ctx := c.Request.Context()

	tenant := c.PostForm("tenant")
	if tenant == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Missing tenant",
			Message: "Request must contain a 'tenant' form field",
			Code:    http.StatusBadRequest,
		})
		return
	}

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

	// Reject oversized uploads before buffering the body
	if header.Size > h.config.Image.MaxUploadBytes {
		writeServiceError(c, models.PayloadTooLargeError{
			Size:    header.Size,
			MaxSize: h.config.Image.MaxUploadBytes,
		}, "ingest")
		return
	}

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

	result, err := h.ingestService.Ingest(ctx, service.IngestInput{
		Tenant:   tenant,
		Filename: header.Filename,
		Data:     data,
	})
	if err != nil {
		writeServiceError(c, err, "ingest")
		return
	}

	logger.InfoWithContext(ctx, "Image ingested",
		zap.String("asset_id", result.Asset.ID),
		zap.String("tenant", tenant),
		zap.String("filename", header.Filename),
		zap.Int("renditions", len(result.Renditions)))

	c.JSON(http.StatusCreated, result.ToResponse())
}

// Get handles asset metadata requests
// GET /v1/images/:id
func (h *ImageHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	assetID := c.Param("id")

	if !isValidUUID(assetID) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid asset ID",
			Message: "Asset ID must be a valid UUID",
			Code:    http.StatusBadRequest,
		})
		return
	}

	result, err := h.ingestService.GetAsset(ctx, assetID)
	if err != nil {
		writeServiceError(c, err, "get asset")
		return
	}

	c.JSON(http.StatusOK, result.ToResponse())
}

// MarkInUse handles reference counter increments
// POST /v1/images/:id/use
func (h *ImageHandler) MarkInUse(c *gin.Context) {
	ctx := c.Request.Context()
	assetID := c.Param("id")

	if !isValidUUID(assetID) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid asset ID",
			Message: "Asset ID must be a valid UUID",
			Code:    http.StatusBadRequest,
		})
		return
	}

	count, err := h.ingestService.MarkInUse(ctx, assetID)
	if err != nil {
		writeServiceError(c, err, "mark in use")
		return
	}

	c.JSON(http.StatusOK, models.MarkInUseResponse{
		ID:         assetID,
		InUseCount: count,
	})
}

func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
