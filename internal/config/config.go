package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"renditr/internal/models"

	"github.com/joho/godotenv"
)

// Config holds all application configuration. It is loaded once at
// startup and passed as an immutable value into each component; no
// algorithmic code reads the process environment directly.
type Config struct {
	Server    ServerConfig
	Catalog   CatalogConfig
	Storage   StorageConfig
	Image     ImageConfig
	Purge     PurgeConfig
	RateLimit RateLimitConfig
	Logger    LoggerConfig
	CORS      CORSConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port    string
	GinMode string
}

// CatalogConfig selects and configures the asset catalog backend.
// Supports two backend types:
// - "badger": embedded BadgerDB catalog, no external dependencies
// - "redis": Redis-backed catalog (requires a Redis server)
type CatalogConfig struct {
	Type          string // "badger" or "redis"
	Directory     string // BadgerDB directory (type=badger)
	RedisURL      string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int
	RedisTimeout  time.Duration
}

// StorageConfig selects and configures the blob storage backend.
type StorageConfig struct {
	Type           string // "s3" or "local"
	LocalDirectory string // base directory for local storage
	S3             S3Config
}

// S3Config holds S3 storage configuration
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// ImageConfig holds the ingestion pipeline configuration
type ImageConfig struct {
	MaxUploadBytes   int64
	Presets          []models.Preset
	HammingThreshold int    // near-duplicate match threshold (inclusive)
	BackgroundColor  string // hex color used to flatten transparency before JPEG encode
}

// PurgeConfig holds the purge safety gate configuration
type PurgeConfig struct {
	ConfirmToken string
}

// RateLimitConfig holds per-endpoint-class rate limits (requests per minute)
type RateLimitConfig struct {
	Upload int
	Read   int
	Admin  int
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "json", "console"
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	Enabled          bool
	AllowAllOrigins  bool
	AllowedOrigins   []string
	AllowCredentials bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	presets, err := loadPresets()
	if err != nil {
		return nil, fmt.Errorf("failed to load presets: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "release"),
		},
		Catalog: CatalogConfig{
			Type:          getEnv("CATALOG_TYPE", "badger"),
			Directory:     getEnv("CATALOG_DIRECTORY", "./data/catalog"),
			RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
			RedisPoolSize: getEnvInt("REDIS_POOL_SIZE", 10),
			RedisTimeout:  time.Duration(getEnvInt("REDIS_TIMEOUT", 5)) * time.Second,
		},
		Storage: StorageConfig{
			Type:           getEnv("STORAGE_TYPE", "local"),
			LocalDirectory: getEnv("STORAGE_DIRECTORY", "./data/blobs"),
			S3: S3Config{
				Endpoint:  getEnv("S3_ENDPOINT", "https://s3.amazonaws.com"),
				AccessKey: getEnv("S3_ACCESS_KEY", ""),
				SecretKey: getEnv("S3_SECRET_KEY", ""),
				Bucket:    getEnv("S3_BUCKET", ""),
				Region:    getEnv("S3_REGION", "us-east-1"),
				UseSSL:    getEnvBool("S3_USE_SSL", true),
			},
		},
		Image: ImageConfig{
			MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_BYTES", 10485760)), // 10MB default
			Presets:          presets,
			HammingThreshold: getEnvInt("PHASH_HAMMING_THRESHOLD", 5),
			BackgroundColor:  getEnv("BACKGROUND_COLOR", "#FFFFFF"),
		},
		Purge: PurgeConfig{
			ConfirmToken: getEnv("PURGE_CONFIRM_TOKEN", "DELETE_CONFIRMED"),
		},
		RateLimit: RateLimitConfig{
			Upload: getEnvInt("RATE_LIMIT_UPLOAD", 10),
			Read:   getEnvInt("RATE_LIMIT_READ", 100),
			Admin:  getEnvInt("RATE_LIMIT_ADMIN", 10),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		CORS: CORSConfig{
			Enabled:          getEnvBool("CORS_ENABLED", true),
			AllowAllOrigins:  getEnvBool("CORS_ALLOW_ALL_ORIGINS", false),
			AllowedOrigins:   getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", false),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadPresets parses the PRESETS env var or falls back to the defaults.
func loadPresets() ([]models.Preset, error) {
	spec := getEnv("PRESETS", "")
	if spec == "" {
		return models.DefaultPresets(), nil
	}
	return models.ParsePresetSpec(spec)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	validCatalogTypes := []string{"badger", "redis"}
	if !contains(validCatalogTypes, c.Catalog.Type) {
		return fmt.Errorf("CATALOG_TYPE must be one of: %s", strings.Join(validCatalogTypes, ", "))
	}
	if c.Catalog.Type == "badger" && c.Catalog.Directory == "" {
		return fmt.Errorf("CATALOG_DIRECTORY is required when CATALOG_TYPE=badger")
	}
	if c.Catalog.Type == "redis" && c.Catalog.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required when CATALOG_TYPE=redis")
	}

	validStorageTypes := []string{"s3", "local"}
	if !contains(validStorageTypes, c.Storage.Type) {
		return fmt.Errorf("STORAGE_TYPE must be one of: %s", strings.Join(validStorageTypes, ", "))
	}
	if c.Storage.Type == "local" && c.Storage.LocalDirectory == "" {
		return fmt.Errorf("STORAGE_DIRECTORY is required when STORAGE_TYPE=local")
	}
	if c.Storage.Type == "s3" {
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_TYPE=s3")
		}
		if c.Storage.S3.AccessKey == "" {
			return fmt.Errorf("S3_ACCESS_KEY is required when STORAGE_TYPE=s3")
		}
		if c.Storage.S3.SecretKey == "" {
			return fmt.Errorf("S3_SECRET_KEY is required when STORAGE_TYPE=s3")
		}
	}

	if c.Image.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if len(c.Image.Presets) == 0 {
		return fmt.Errorf("at least one preset is required")
	}
	for _, preset := range c.Image.Presets {
		if err := preset.Validate(); err != nil {
			return err
		}
	}
	if c.Image.HammingThreshold < 0 || c.Image.HammingThreshold > models.PerceptualHashBits {
		return fmt.Errorf("PHASH_HAMMING_THRESHOLD must be between 0 and %d", models.PerceptualHashBits)
	}

	if c.Purge.ConfirmToken == "" {
		return fmt.Errorf("PURGE_CONFIRM_TOKEN cannot be empty")
	}

	if c.RateLimit.Upload <= 0 || c.RateLimit.Read <= 0 || c.RateLimit.Admin <= 0 {
		return fmt.Errorf("rate limits must be positive integers")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: %s", strings.Join(validLogLevels, ", "))
	}

	return nil
}

// SortedPresets returns the preset list sorted by name. Iteration order
// must be deterministic so repeated ingestions behave identically.
func (c *Config) SortedPresets() []models.Preset {
	presets := make([]models.Preset, len(c.Image.Presets))
	copy(presets, c.Image.Presets)
	sort.Slice(presets, func(i, j int) bool { return presets[i].Name < presets[j].Name })
	return presets
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.GinMode == "debug"
}

// Environment variable helpers

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
