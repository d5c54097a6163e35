package service

import (
	"context"
	"image"

	"renditr/internal/models"
)

// HasherService computes content and perceptual fingerprints.
type HasherService interface {
	// ContentFingerprint returns the hex-encoded SHA-256 digest of the
	// raw byte stream
	ContentFingerprint(data []byte) string

	// PerceptualFingerprint computes the 64-bit average hash of a
	// decoded image. Deterministic for a given pixel buffer; the same
	// resampling method is used at ingestion and during comparison.
	PerceptualFingerprint(img image.Image) models.PerceptualHash
}

// RendererService turns decoded images into encoded rendition variants.
type RendererService interface {
	// Decode decodes raw bytes into an image, with WebP fallback
	Decode(data []byte) (image.Image, error)

	// Generate resizes and re-encodes an image for a preset. Pure
	// transform: persistence is the caller's responsibility.
	Generate(img image.Image, preset models.Preset) (*RenditionData, error)
}

// IngestService coordinates the upload pipeline.
type IngestService interface {
	// Ingest runs the full ingestion algorithm for one upload
	Ingest(ctx context.Context, input IngestInput) (*models.AssetWithRenditions, error)

	// GetAsset retrieves an asset with its renditions by ID
	GetAsset(ctx context.Context, assetID string) (*models.AssetWithRenditions, error)

	// MarkInUse increments an asset's reference counter and returns the
	// new value. The purge coordinator treats the counter as authoritative.
	MarkInUse(ctx context.Context, assetID string) (int64, error)
}

// CompareService evaluates an image against every preset without
// persisting anything.
type CompareService interface {
	Compare(ctx context.Context, data []byte) (*models.CompareResult, error)
}

// PurgeService deletes unreferenced assets behind a safety gate.
type PurgeService interface {
	Purge(ctx context.Context, req models.PurgeRequest) (*models.PurgeResult, error)
}

// MetricsService produces read-only rollups over the asset catalog.
type MetricsService interface {
	Collect(ctx context.Context) (*models.UsageMetrics, error)
}

// HealthService checks the health of the catalog and blob storage.
type HealthService interface {
	CheckHealth(ctx context.Context) (*HealthStatus, error)
}

// IngestInput represents one upload handed to the orchestrator. The
// upload boundary has already bounded the request body; the orchestrator
// still enforces the configured maximum itself.
type IngestInput struct {
	Tenant   string `json:"tenant"`
	Filename string `json:"filename"`
	Data     []byte `json:"-"`
}

// RenditionData is the in-memory result of one rendition generation.
type RenditionData struct {
	Data   []byte
	Width  int
	Height int
	Image  image.Image
}

// HealthStatus represents system health status
type HealthStatus struct {
	Services map[string]string `json:"services"`
	Uptime   int64             `json:"uptime_seconds"`
	Version  string            `json:"version"`
}
