package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func sizeLimitRouter(maxSize int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestSizeLimit(maxSize))
	router.POST("/upload", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/read", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestRequestSizeLimit(t *testing.T) {
	t.Run("allows_within_limit", func(t *testing.T) {
		router := sizeLimitRouter(100)

		body := bytes.NewReader(make([]byte, 50))
		req := httptest.NewRequest("POST", "/upload", body)
		req.Header.Set("Content-Length", "50")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects_over_limit", func(t *testing.T) {
		router := sizeLimitRouter(100)

		body := bytes.NewReader(make([]byte, 200))
		req := httptest.NewRequest("POST", "/upload", body)
		req.Header.Set("Content-Length", strconv.Itoa(200))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("skips_get_requests", func(t *testing.T) {
		router := sizeLimitRouter(10)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/read", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects_invalid_content_length", func(t *testing.T) {
		router := sizeLimitRouter(100)

		req := httptest.NewRequest("POST", "/upload", bytes.NewReader([]byte("x")))
		req.Header.Set("Content-Length", "not-a-number")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
