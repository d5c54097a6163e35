package middleware

import (
	"renditr/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader is the header name for request ID
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey is the context key for request ID
	RequestIDKey = "request_id"
)

// RequestID middleware generates or extracts request ID for tracing
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		var requestID string

		// Honor an ID supplied by an upstream proxy
		if existingID := c.GetHeader(RequestIDHeader); existingID != "" {
			requestID = existingID
		} else {
			requestID = uuid.New().String()
		}

		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		ctx := logger.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
