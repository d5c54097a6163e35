package repository

import (
	"context"

	"renditr/internal/models"
)

// Catalog is the durable record store for Tenant, Asset and Rendition
// entities. It enforces the uniqueness constraint on (tenant, content
// hash): CreateAssetWithRenditions returns DuplicateContentHashError
// when another asset with the same content hash already exists for the
// tenant, which the ingestion orchestrator treats as "someone else
// already created this asset" and resolves by re-fetching.
type Catalog interface {
	// GetOrCreateTenant returns the tenant with the given name, creating
	// it on first reference
	GetOrCreateTenant(ctx context.Context, name string) (*models.Tenant, error)

	// GetTenant retrieves a tenant by ID
	GetTenant(ctx context.Context, id string) (*models.Tenant, error)

	// FindAssetByContentHash looks up the asset with the given content
	// hash within a tenant. Returns NotFoundError on miss.
	FindAssetByContentHash(ctx context.Context, tenantID, contentHash string) (*models.Asset, error)

	// ListAssetsByTenant returns all assets owned by a tenant
	ListAssetsByTenant(ctx context.Context, tenantID string) ([]*models.Asset, error)

	// CreateAssetWithRenditions persists an asset and its renditions as
	// one unit. Readers never observe the asset without its renditions.
	CreateAssetWithRenditions(ctx context.Context, asset *models.Asset, renditions []models.Rendition) error

	// GetAsset retrieves an asset by ID
	GetAsset(ctx context.Context, id string) (*models.Asset, error)

	// ListRenditions returns the renditions owned by an asset
	ListRenditions(ctx context.Context, assetID string) ([]models.Rendition, error)

	// FindRenditionsByStorageKey returns every rendition row referencing
	// the given blob key, across all assets. Used by the purge
	// coordinator to avoid deleting blobs shared via near-duplicate reuse.
	FindRenditionsByStorageKey(ctx context.Context, storageKey string) ([]models.Rendition, error)

	// IncrementInUse atomically increments an asset's reference counter
	// and returns the new value
	IncrementInUse(ctx context.Context, assetID string) (int64, error)

	// GetInUseCount returns the current reference counter for an asset.
	// The purge coordinator re-checks this immediately before deletion.
	GetInUseCount(ctx context.Context, assetID string) (int64, error)

	// ListPurgeCandidates returns all assets with in_use_count == 0
	ListPurgeCandidates(ctx context.Context) ([]*models.Asset, error)

	// DeleteAsset removes an asset and cascades to its rendition rows
	DeleteAsset(ctx context.Context, id string) error

	// CountAssetsByTenant returns the number of assets per tenant name
	CountAssetsByTenant(ctx context.Context) (map[string]int64, error)

	// SumRenditionBytesByPreset returns total rendition bytes grouped by
	// preset name across all tenants
	SumRenditionBytesByPreset(ctx context.Context) (map[string]int64, error)

	// Health checks catalog backend health
	Health(ctx context.Context) error

	// Close closes the catalog connection
	Close() error
}
