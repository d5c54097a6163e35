package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"renditr/internal/config"
	"renditr/internal/models"
	"renditr/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiter holds per-client token buckets keyed by IP and endpoint
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	config   *config.Config
}

var (
	globalRateLimiter *RateLimiter
	once              sync.Once
)

// RateLimit middleware applies rate limiting per IP address and endpoint
// class: uploads, reads, and admin operations (purge, compare, metrics)
// each carry their own per-minute budget.
func RateLimit(cfg *config.Config) gin.HandlerFunc {
	once.Do(func() {
		globalRateLimiter = &RateLimiter{
			limiters: make(map[string]*rate.Limiter),
			config:   cfg,
		}
	})

	return globalRateLimiter.middleware
}

func (rl *RateLimiter) middleware(c *gin.Context) {
	clientIP := c.ClientIP()
	endpoint := c.Request.Method + " " + c.FullPath()
	key := fmt.Sprintf("%s:%s", clientIP, endpoint)

	limit := rl.getRateLimit(c.Request.Method, c.FullPath())
	if limit <= 0 {
		c.Next()
		return
	}

	limiter := rl.getLimiter(key, limit)

	if !limiter.Allow() {
		rl.handleRateLimitExceeded(c, clientIP, endpoint, limit)
		return
	}

	c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
	c.Header("X-RateLimit-Burst", fmt.Sprintf("%d", limiter.Burst()))

	c.Next()
}

// getRateLimit returns the per-minute limit for an endpoint class
func (rl *RateLimiter) getRateLimit(method, path string) int {
	// Ingestion is the expensive path
	if method == "POST" && strings.HasSuffix(path, "/images") {
		return rl.config.RateLimit.Upload
	}

	// Admin operations
	if method == "POST" && (strings.HasSuffix(path, "/purge") || strings.HasSuffix(path, "/compare")) {
		return rl.config.RateLimit.Admin
	}
	if method == "GET" && strings.HasSuffix(path, "/metrics") {
		return rl.config.RateLimit.Admin
	}

	// Asset reads and in-use marking
	if strings.Contains(path, "/images/") {
		return rl.config.RateLimit.Read
	}

	// Health checks are unmetered
	return 0
}

// getLimiter gets or creates a rate limiter for a client+endpoint
func (rl *RateLimiter) getLimiter(key string, limit int) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[key]
	if !exists {
		// Per-minute budget expressed as a per-second refill, burst = 2x
		limiter = rate.NewLimiter(rate.Limit(float64(limit)/60.0), limit*2)
		rl.limiters[key] = limiter
	}

	return limiter
}

func (rl *RateLimiter) handleRateLimitExceeded(c *gin.Context, clientIP, endpoint string, limit int) {
	logger.WarnWithContext(c.Request.Context(), "Rate limit exceeded",
		zap.String("client_ip", clientIP),
		zap.String("endpoint", endpoint),
		zap.Int("limit", limit))

	c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
	c.Header("X-RateLimit-Remaining", "0")
	c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(time.Minute).Unix()))
	c.Header("Retry-After", "60")

	c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
		Error:   "Rate limit exceeded",
		Message: fmt.Sprintf("Too many requests. Limit: %d requests per minute", limit),
		Code:    http.StatusTooManyRequests,
	})

	c.Abort()
}
