package handlers

import (
	"net/http"

	"renditr/internal/models"
	"renditr/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// writeServiceError translates service-layer errors into HTTP responses
func writeServiceError(c *gin.Context, err error, operation string) {
	ctx := c.Request.Context()

	switch e := err.(type) {
	case models.InvalidImageError:
		logger.WarnWithContext(ctx, "Invalid input",
			zap.String("reason", e.Reason),
			zap.String("operation", operation))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid input",
			Message: e.Error(),
			Code:    http.StatusBadRequest,
		})

	case models.PayloadTooLargeError:
		logger.WarnWithContext(ctx, "Payload too large",
			zap.Int64("size", e.Size),
			zap.Int64("max_size", e.MaxSize),
			zap.String("operation", operation))
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
			Error:   "Payload too large",
			Message: e.Error(),
			Code:    http.StatusRequestEntityTooLarge,
		})

	case models.NotFoundError:
		logger.WarnWithContext(ctx, "Resource not found",
			zap.String("resource", e.Resource),
			zap.String("id", e.ID),
			zap.String("operation", operation))
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Not found",
			Message: e.Error(),
			Code:    http.StatusNotFound,
		})

	case models.UnauthorizedError:
		logger.WarnWithContext(ctx, "Unauthorized",
			zap.String("operation", operation))
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "Unauthorized",
			Message: e.Error(),
			Code:    http.StatusUnauthorized,
		})

	case models.EncodeError:
		logger.ErrorWithContext(ctx, "Encoding failed",
			zap.String("preset", e.Preset),
			zap.String("reason", e.Reason),
			zap.String("operation", operation))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Processing failed",
			Message: e.Error(),
			Code:    http.StatusInternalServerError,
		})

	case models.StorageError:
		logger.ErrorWithContext(ctx, "Storage error",
			zap.String("storage_operation", e.Operation),
			zap.String("backend", e.Backend),
			zap.String("reason", e.Reason),
			zap.String("operation", operation))
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "Storage unavailable",
			Message: "Temporary service unavailability",
			Code:    http.StatusServiceUnavailable,
		})

	default:
		logger.ErrorWithContext(ctx, "Unknown error",
			zap.Error(err),
			zap.String("operation", operation))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Internal server error",
			Message: "An unexpected error occurred",
			Code:    http.StatusInternalServerError,
		})
	}
}
