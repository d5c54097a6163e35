package config

import (
	"os"
	"testing"

	"renditr/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "badger", cfg.Catalog.Type)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, int64(10485760), cfg.Image.MaxUploadBytes)
	assert.Equal(t, 5, cfg.Image.HammingThreshold)
	assert.Equal(t, "#FFFFFF", cfg.Image.BackgroundColor)
	assert.Equal(t, "DELETE_CONFIRMED", cfg.Purge.ConfirmToken)
	assert.Len(t, cfg.Image.Presets, 3)
}

func TestLoad_PresetOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("PRESETS", "small:100x100:70,large:2000x2000")
	defer os.Unsetenv("PRESETS")

	cfg, err := Load()
	require.NoError(t, err)

	require.Len(t, cfg.Image.Presets, 2)
	assert.Equal(t, "large", cfg.Image.Presets[0].Name)
	assert.Equal(t, "small", cfg.Image.Presets[1].Name)
	assert.Equal(t, 70, cfg.Image.Presets[1].Quality)
	assert.Equal(t, 85, cfg.Image.Presets[0].Quality)
}

func TestLoad_InvalidPresets(t *testing.T) {
	os.Clearenv()
	os.Setenv("PRESETS", "bad spec")
	defer os.Unsetenv("PRESETS")

	_, err := Load()
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:  ServerConfig{Port: "8080", GinMode: "release"},
			Catalog: CatalogConfig{Type: "badger", Directory: "/tmp/catalog"},
			Storage: StorageConfig{Type: "local", LocalDirectory: "/tmp/blobs"},
			Image: ImageConfig{
				MaxUploadBytes:   1024,
				Presets:          models.DefaultPresets(),
				HammingThreshold: 5,
				BackgroundColor:  "#FFFFFF",
			},
			Purge:     PurgeConfig{ConfirmToken: "DELETE_CONFIRMED"},
			RateLimit: RateLimitConfig{Upload: 10, Read: 100, Admin: 10},
			Logger:    LoggerConfig{Level: "info", Format: "json"},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("unknown_catalog_type", func(t *testing.T) {
		cfg := valid()
		cfg.Catalog.Type = "postgres"
		assert.Error(t, cfg.Validate())
	})

	t.Run("s3_requires_credentials", func(t *testing.T) {
		cfg := valid()
		cfg.Storage.Type = "s3"
		cfg.Storage.S3.Bucket = "bucket"
		assert.Error(t, cfg.Validate())

		cfg.Storage.S3.AccessKey = "key"
		cfg.Storage.S3.SecretKey = "secret"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("threshold_bounds", func(t *testing.T) {
		cfg := valid()
		cfg.Image.HammingThreshold = -1
		assert.Error(t, cfg.Validate())

		cfg.Image.HammingThreshold = models.PerceptualHashBits + 1
		assert.Error(t, cfg.Validate())

		cfg.Image.HammingThreshold = 0
		assert.NoError(t, cfg.Validate())
	})

	t.Run("empty_confirm_token", func(t *testing.T) {
		cfg := valid()
		cfg.Purge.ConfirmToken = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("no_presets", func(t *testing.T) {
		cfg := valid()
		cfg.Image.Presets = nil
		assert.Error(t, cfg.Validate())
	})

	t.Run("invalid_log_level", func(t *testing.T) {
		cfg := valid()
		cfg.Logger.Level = "verbose"
		assert.Error(t, cfg.Validate())
	})
}

func TestConfig_SortedPresets(t *testing.T) {
	cfg := &Config{
		Image: ImageConfig{
			Presets: []models.Preset{
				{Name: "zoom", MaxWidth: 1600, MaxHeight: 1600, Quality: 85, Format: "jpeg"},
				{Name: "card", MaxWidth: 600, MaxHeight: 400, Quality: 85, Format: "jpeg"},
				{Name: "thumb", MaxWidth: 200, MaxHeight: 200, Quality: 85, Format: "jpeg"},
			},
		},
	}

	sorted := cfg.SortedPresets()
	assert.Equal(t, "card", sorted[0].Name)
	assert.Equal(t, "thumb", sorted[1].Name)
	assert.Equal(t, "zoom", sorted[2].Name)

	// Source slice is untouched
	assert.Equal(t, "zoom", cfg.Image.Presets[0].Name)
}
