package models

import (
	"fmt"
	"regexp"
	"time"
)

// tenantNameRegex restricts tenant names so they are safe to embed in
// catalog index keys.
var tenantNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,63}$`)

// Tenant owns zero or more assets. Created implicitly on the first
// upload referencing an unseen tenant name.
type Tenant struct {
	ID        string    `json:"id" redis:"id"`
	Name      string    `json:"name" redis:"name"`
	CreatedAt time.Time `json:"created_at" redis:"created_at"`
}

// Asset represents one distinct original image for a tenant. The content
// hash is unique within the tenant. An asset is immutable once created
// except for InUseCount, which external consumers increment and the
// purge coordinator treats as authoritative.
type Asset struct {
	ID             string         `json:"id" redis:"id"`
	TenantID       string         `json:"tenant_id" redis:"tenant_id"`
	ContentHash    string         `json:"content_hash" redis:"content_hash"`
	PerceptualHash PerceptualHash `json:"-" redis:"-"`
	Filename       string         `json:"filename" redis:"filename"`
	SizeBytes      int64          `json:"size_bytes" redis:"size_bytes"`
	Width          int            `json:"width" redis:"width"`
	Height         int            `json:"height" redis:"height"`
	InUseCount     int64          `json:"in_use_count" redis:"in_use_count"`
	CreatedAt      time.Time      `json:"created_at" redis:"created_at"`

	// PerceptualHashHex is the persisted form of PerceptualHash
	PerceptualHashHex string `json:"perceptual_hash" redis:"perceptual_hash"`
}

// Rendition is one generated variant of an asset for a named preset.
// At most one rendition exists per (asset, preset) pair. Renditions
// created on the near-duplicate path reference another asset's storage
// key instead of freshly encoded bytes.
type Rendition struct {
	ID             string         `json:"id" redis:"id"`
	AssetID        string         `json:"asset_id" redis:"asset_id"`
	Preset         string         `json:"preset" redis:"preset"`
	StorageKey     string         `json:"storage_key" redis:"storage_key"`
	SizeBytes      int64          `json:"size_bytes" redis:"size_bytes"`
	Width          int            `json:"width" redis:"width"`
	Height         int            `json:"height" redis:"height"`
	Quality        int            `json:"quality" redis:"quality"`
	PerceptualHash PerceptualHash `json:"-" redis:"-"`

	PerceptualHashHex string `json:"perceptual_hash" redis:"perceptual_hash"`
}

// AssetWithRenditions composes an asset with its owned renditions and
// the tenant it belongs to. This is the unit the ingestion orchestrator
// returns and the API serves.
type AssetWithRenditions struct {
	Asset      Asset       `json:"asset"`
	Tenant     Tenant      `json:"tenant"`
	Renditions []Rendition `json:"renditions"`
}

// NewAsset creates an asset record with the current timestamp.
func NewAsset(id, tenantID, contentHash string, phash PerceptualHash, filename string, sizeBytes int64, width, height int) *Asset {
	return &Asset{
		ID:                id,
		TenantID:          tenantID,
		ContentHash:       contentHash,
		PerceptualHash:    phash,
		PerceptualHashHex: phash.String(),
		Filename:          filename,
		SizeBytes:         sizeBytes,
		Width:             width,
		Height:            height,
		InUseCount:        0,
		CreatedAt:         time.Now().UTC(),
	}
}

// RenditionStorageKey derives the blob storage key for a rendition from
// the asset's content hash and the preset. The key is stable for
// identical content, which makes blob writes idempotent across retries.
func RenditionStorageKey(contentHash string, preset Preset) string {
	prefix := contentHash
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("renditions/%s/%s.%s", prefix, preset.Name, preset.Extension())
}

// ValidateTenantName checks that a tenant name is present and safe to
// use as a catalog key component.
func ValidateTenantName(name string) error {
	if name == "" {
		return fmt.Errorf("tenant name is required")
	}
	if !tenantNameRegex.MatchString(name) {
		return fmt.Errorf("tenant name %q is invalid (allowed: alphanumerics, '.', '_', '-', max 64 chars)", name)
	}
	return nil
}

// Validate validates the asset record before persistence.
func (a *Asset) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("asset ID is required")
	}
	if a.TenantID == "" {
		return fmt.Errorf("asset tenant ID is required")
	}
	if len(a.ContentHash) != 64 {
		return fmt.Errorf("content hash must be a 64-char SHA-256 hex digest, got %d chars", len(a.ContentHash))
	}
	if a.SizeBytes <= 0 {
		return fmt.Errorf("asset size must be positive")
	}
	if a.Width <= 0 || a.Height <= 0 {
		return fmt.Errorf("asset dimensions must be positive, got %dx%d", a.Width, a.Height)
	}
	if a.InUseCount < 0 {
		return fmt.Errorf("in_use_count cannot be negative")
	}
	return nil
}
