package middleware

import (
	"net/http"
	"strings"

	"renditr/internal/config"

	"github.com/gin-gonic/gin"
)

// CORS middleware handles Cross-Origin Resource Sharing
func CORS(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.CORS.Enabled {
			c.Next()
			return
		}

		origin := c.Request.Header.Get("Origin")

		if origin != "" {
			if isAllowedOrigin(origin, cfg) {
				c.Header("Access-Control-Allow-Origin", origin)
			}
		} else if cfg.IsDevelopment() || cfg.CORS.AllowAllOrigins {
			// Requests without an Origin header (same-origin, curl)
			c.Header("Access-Control-Allow-Origin", "*")
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-Request-ID, X-Requested-With")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID, Content-Length, Content-Type")

		if cfg.CORS.AllowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		} else {
			c.Header("Access-Control-Allow-Credentials", "false")
		}

		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// isAllowedOrigin checks if the origin is allowed
func isAllowedOrigin(origin string, cfg *config.Config) bool {
	if cfg.IsDevelopment() || cfg.CORS.AllowAllOrigins {
		return true
	}

	for _, allowed := range cfg.CORS.AllowedOrigins {
		if allowed == "*" {
			return true
		}
		if strings.EqualFold(allowed, origin) {
			return true
		}
	}

	return false
}
