package testutil

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"renditr/internal/config"
	"renditr/internal/models"

	"github.com/disintegration/imaging"
)

// TestConfig returns a configuration suitable for tests
func TestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:    "8080",
			GinMode: "test",
		},
		Catalog: config.CatalogConfig{
			Type:          "badger",
			Directory:     "/tmp/renditr-test-catalog",
			RedisURL:      "redis://localhost:6379",
			RedisPoolSize: 10,
			RedisTimeout:  5 * time.Second,
		},
		Storage: config.StorageConfig{
			Type:           "local",
			LocalDirectory: "/tmp/renditr-test-blobs",
			S3: config.S3Config{
				Endpoint:  "http://localhost:9000",
				AccessKey: "test",
				SecretKey: "test",
				Bucket:    "test-bucket",
				Region:    "us-east-1",
				UseSSL:    false,
			},
		},
		Image: config.ImageConfig{
			MaxUploadBytes:   10485760,
			Presets:          models.DefaultPresets(),
			HammingThreshold: 5,
			BackgroundColor:  "#FFFFFF",
		},
		Purge: config.PurgeConfig{
			ConfirmToken: "DELETE_CONFIRMED",
		},
		RateLimit: config.RateLimitConfig{
			Upload: 1000,
			Read:   1000,
			Admin:  1000,
		},
		Logger: config.LoggerConfig{
			Level:  "debug",
			Format: "console",
		},
		CORS: config.CORSConfig{
			Enabled:          true,
			AllowAllOrigins:  true,
			AllowedOrigins:   []string{"*"},
			AllowCredentials: false,
		},
	}
}

// SolidImage returns a single-color image
func SolidImage(width, height int, c color.Color) image.Image {
	return imaging.New(width, height, c)
}

// LeftRightImage returns an image whose left half is black and right
// half is white. Its average hash is stable across proportional resizes.
func LeftRightImage(width, height int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x < width/2 {
				img.Set(x, y, color.NRGBA{0, 0, 0, 255})
			} else {
				img.Set(x, y, color.NRGBA{255, 255, 255, 255})
			}
		}
	}
	return img
}

// TopBottomImage returns an image whose top half is black and bottom
// half is white
func TopBottomImage(width, height int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if y < height/2 {
				img.Set(x, y, color.NRGBA{0, 0, 0, 255})
			} else {
				img.Set(x, y, color.NRGBA{255, 255, 255, 255})
			}
		}
	}
	return img
}

// EncodePNG encodes an image as PNG bytes
func EncodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

// EncodeJPEG encodes an image as JPEG bytes at the given quality
func EncodeJPEG(t *testing.T, img image.Image, quality int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

// CreateMultipartRequest creates a multipart form request with optional
// form fields and one file part
func CreateMultipartRequest(method, path string, formData map[string]string, fileField, filename string, fileContent []byte) *http.Request {
	var body bytes.Buffer
	boundary := "test-boundary"

	for key, value := range formData {
		body.WriteString("--" + boundary + "\r\n")
		body.WriteString("Content-Disposition: form-data; name=\"" + key + "\"\r\n\r\n")
		body.WriteString(value + "\r\n")
	}

	if fileField != "" && filename != "" {
		body.WriteString("--" + boundary + "\r\n")
		body.WriteString("Content-Disposition: form-data; name=\"" + fileField + "\"; filename=\"" + filename + "\"\r\n")
		body.WriteString("Content-Type: application/octet-stream\r\n\r\n")
		body.Write(fileContent)
		body.WriteString("\r\n")
	}

	body.WriteString("--" + boundary + "--\r\n")

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)
	return req
}

// ParseJSONResponse parses a recorded JSON response into target
func ParseJSONResponse(resp *httptest.ResponseRecorder, target interface{}) error {
	return json.Unmarshal(resp.Body.Bytes(), target)
}
