package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"renditr/internal/models"
	"renditr/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAdminRouter(compare *mockCompareService, purge *mockPurgeService, metrics *mockMetricsService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewAdminHandler(compare, purge, metrics)

	router := gin.New()
	router.POST("/v1/compare", handler.Compare)
	router.POST("/v1/purge", handler.Purge)
	router.GET("/v1/metrics", handler.Metrics)
	return router
}

func TestAdminHandler_Compare(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mock := &mockCompareService{
			CompareFunc: func(ctx context.Context, data []byte) (*models.CompareResult, error) {
				return &models.CompareResult{
					Results: []models.PresetMetric{
						{Preset: "thumb", SizeBytes: 4000, Width: 200, Height: 150, BytesPerPixel: 0.133},
					},
					Recommended: "thumb",
				}, nil
			},
		}
		router := setupAdminRouter(mock, &mockPurgeService{}, &mockMetricsService{})

		req := testutil.CreateMultipartRequest("POST", "/v1/compare",
			nil, "image", "probe.png", []byte("image bytes"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.CompareResult
		require.NoError(t, testutil.ParseJSONResponse(w, &resp))
		assert.Equal(t, "thumb", resp.Recommended)
		assert.Len(t, resp.Results, 1)
	})

	t.Run("missing_file", func(t *testing.T) {
		router := setupAdminRouter(&mockCompareService{}, &mockPurgeService{}, &mockMetricsService{})

		req := testutil.CreateMultipartRequest("POST", "/v1/compare", nil, "", "", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid_image", func(t *testing.T) {
		mock := &mockCompareService{
			CompareFunc: func(ctx context.Context, data []byte) (*models.CompareResult, error) {
				return nil, models.InvalidImageError{Reason: "undecodable"}
			},
		}
		router := setupAdminRouter(mock, &mockPurgeService{}, &mockMetricsService{})

		req := testutil.CreateMultipartRequest("POST", "/v1/compare",
			nil, "image", "junk.bin", []byte("junk"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAdminHandler_Purge(t *testing.T) {
	purgeJSON := func(t *testing.T, body interface{}) *http.Request {
		t.Helper()
		data, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest("POST", "/v1/purge", bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	t.Run("dry_run", func(t *testing.T) {
		mock := &mockPurgeService{
			PurgeFunc: func(ctx context.Context, req models.PurgeRequest) (*models.PurgeResult, error) {
				assert.True(t, req.DryRun)
				return &models.PurgeResult{DryRun: true, Candidates: []string{"hash1"}}, nil
			},
		}
		router := setupAdminRouter(&mockCompareService{}, mock, &mockMetricsService{})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, purgeJSON(t, models.PurgeRequest{DryRun: true}))

		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.PurgeResult
		require.NoError(t, testutil.ParseJSONResponse(w, &resp))
		assert.True(t, resp.DryRun)
		assert.Equal(t, []string{"hash1"}, resp.Candidates)
	})

	t.Run("unauthorized_maps_to_401", func(t *testing.T) {
		mock := &mockPurgeService{
			PurgeFunc: func(ctx context.Context, req models.PurgeRequest) (*models.PurgeResult, error) {
				return nil, models.UnauthorizedError{Reason: "token mismatch"}
			},
		}
		router := setupAdminRouter(&mockCompareService{}, mock, &mockMetricsService{})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, purgeJSON(t, models.PurgeRequest{ConfirmToken: "wrong"}))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed_body", func(t *testing.T) {
		router := setupAdminRouter(&mockCompareService{}, &mockPurgeService{}, &mockMetricsService{})

		req := httptest.NewRequest("POST", "/v1/purge", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAdminHandler_Metrics(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mock := &mockMetricsService{
			CollectFunc: func(ctx context.Context) (*models.UsageMetrics, error) {
				return &models.UsageMetrics{
					AssetCountByTenant: map[string]int64{"acme": 2},
					BytesByPreset:      map[string]int64{"thumb": 1024},
				}, nil
			},
		}
		router := setupAdminRouter(&mockCompareService{}, &mockPurgeService{}, mock)

		req := httptest.NewRequest("GET", "/v1/metrics", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.UsageMetrics
		require.NoError(t, testutil.ParseJSONResponse(w, &resp))
		assert.Equal(t, int64(2), resp.AssetCountByTenant["acme"])
		assert.Equal(t, int64(1024), resp.BytesByPreset["thumb"])
	})

	t.Run("catalog_failure_maps_to_503", func(t *testing.T) {
		mock := &mockMetricsService{
			CollectFunc: func(ctx context.Context) (*models.UsageMetrics, error) {
				return nil, models.StorageError{Operation: "count", Backend: "catalog", Reason: "down"}
			},
		}
		router := setupAdminRouter(&mockCompareService{}, &mockPurgeService{}, mock)

		req := httptest.NewRequest("GET", "/v1/metrics", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
