package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"renditr/internal/models"
	"renditr/internal/service"
	"renditr/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHealthRouter(mock *mockHealthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewHealthHandler(mock)

	router := gin.New()
	router.GET("/health", handler.Health)
	return router
}

func TestHealthHandler_Health(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		mock := &mockHealthService{
			CheckHealthFunc: func(ctx context.Context) (*service.HealthStatus, error) {
				return &service.HealthStatus{
					Services: map[string]string{"catalog": "healthy", "storage": "healthy"},
					Uptime:   12,
					Version:  "test",
				}, nil
			},
		}
		router := setupHealthRouter(mock)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.HealthResponse
		require.NoError(t, testutil.ParseJSONResponse(w, &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "healthy", resp.Services["catalog"])
	})

	t.Run("degraded", func(t *testing.T) {
		mock := &mockHealthService{
			CheckHealthFunc: func(ctx context.Context) (*service.HealthStatus, error) {
				return &service.HealthStatus{
					Services: map[string]string{"catalog": "healthy", "storage": "unhealthy: timeout"},
				}, nil
			},
		}
		router := setupHealthRouter(mock)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var resp models.HealthResponse
		require.NoError(t, testutil.ParseJSONResponse(w, &resp))
		assert.Equal(t, "degraded", resp.Status)
	})

	t.Run("check_failure", func(t *testing.T) {
		mock := &mockHealthService{
			CheckHealthFunc: func(ctx context.Context) (*service.HealthStatus, error) {
				return nil, errors.New("health check blew up")
			},
		}
		router := setupHealthRouter(mock)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
