package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"renditr/internal/config"
	"renditr/internal/models"
	"renditr/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Redis key layout mirrors the BadgerDB catalog, with sets standing in
// for prefix scans:
//
//	tenant:<tenantID>              -> Tenant JSON
//	asset:<assetID>                -> Asset JSON
//	asset:inuse:<assetID>          -> reference counter (INCR)
//	rendition:<assetID>:<preset>   -> Rendition JSON
//	idx:tenantname:<name>          -> tenantID (SETNX)
//	idx:contenthash:<tid>:<hash>   -> assetID (SETNX, uniqueness constraint)
//	idx:tenantassets:<tenantID>    -> SET of assetIDs
//	idx:blobkey:<storageKey>       -> SET of "<assetID>|<preset>"
//	tenants / assets / renditions  -> global membership sets
const (
	setTenants    = "tenants"
	setAssets     = "assets"
	setRenditions = "renditions"
)

// RedisCatalog implements the Catalog interface on a Redis server.
type RedisCatalog struct {
	client *redis.Client
}

var _ Catalog = (*RedisCatalog)(nil)

// NewRedisCatalog creates a Redis-backed catalog and verifies connectivity.
func NewRedisCatalog(cfg *config.CatalogConfig) (*RedisCatalog, error) {
	logger.Info("Initializing Redis catalog",
		zap.String("url", cfg.RedisURL),
		zap.Int("db", cfg.RedisDB),
		zap.Int("pool_size", cfg.RedisPoolSize))

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	if cfg.RedisPassword != "" {
		opt.Password = cfg.RedisPassword
	}
	opt.DB = cfg.RedisDB
	opt.PoolSize = cfg.RedisPoolSize
	opt.DialTimeout = cfg.RedisTimeout
	opt.ReadTimeout = cfg.RedisTimeout
	opt.WriteTimeout = cfg.RedisTimeout

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RedisTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis connection failed: %w", err)
	}

	logger.Info("Redis catalog initialized successfully")
	return &RedisCatalog{client: client}, nil
}

// GetOrCreateTenant returns the named tenant, creating it on first reference.
func (r *RedisCatalog) GetOrCreateTenant(ctx context.Context, name string) (*models.Tenant, error) {
	nameKey := "idx:tenantname:" + name

	if tenantID, err := r.client.Get(ctx, nameKey).Result(); err == nil {
		return r.GetTenant(ctx, tenantID)
	} else if err != redis.Nil {
		return nil, fmt.Errorf("failed to resolve tenant name %q: %w", name, err)
	}

	tenant := &models.Tenant{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: nowUTC(),
	}

	// The record must exist before the name index points at it, so a
	// racing reader that resolves the name never sees a missing tenant
	data, err := json.Marshal(tenant)
	if err != nil {
		return nil, err
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, "tenant:"+tenant.ID, data, 0)
	pipe.SAdd(ctx, setTenants, tenant.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to persist tenant %q: %w", name, err)
	}

	created, err := r.client.SetNX(ctx, nameKey, tenant.ID, 0).Result()
	if err != nil {
		r.discardTenant(ctx, tenant.ID)
		return nil, fmt.Errorf("failed to reserve tenant name %q: %w", name, err)
	}

	if !created {
		// Lost the race: discard the provisional record and load the winner
		r.discardTenant(ctx, tenant.ID)
		tenantID, err := r.client.Get(ctx, nameKey).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve tenant name %q: %w", name, err)
		}
		return r.GetTenant(ctx, tenantID)
	}

	return tenant, nil
}

// discardTenant best-effort removes a tenant record that lost the name
// reservation race and was never published.
func (r *RedisCatalog) discardTenant(ctx context.Context, id string) {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, "tenant:"+id)
	pipe.SRem(ctx, setTenants, id)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn("Failed to discard provisional tenant record",
			zap.String("tenant_id", id),
			zap.Error(err))
	}
}

// GetTenant retrieves a tenant by ID.
func (r *RedisCatalog) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	data, err := r.client.Get(ctx, "tenant:"+id).Result()
	if err == redis.Nil {
		return nil, models.NotFoundError{Resource: "tenant", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant %s: %w", id, err)
	}

	var tenant models.Tenant
	if err := json.Unmarshal([]byte(data), &tenant); err != nil {
		return nil, fmt.Errorf("failed to decode tenant %s: %w", id, err)
	}
	return &tenant, nil
}

// FindAssetByContentHash looks up an asset by its exact-duplicate key.
func (r *RedisCatalog) FindAssetByContentHash(ctx context.Context, tenantID, contentHash string) (*models.Asset, error) {
	assetID, err := r.client.Get(ctx, "idx:contenthash:"+tenantID+":"+contentHash).Result()
	if err == redis.Nil {
		return nil, models.NotFoundError{Resource: "asset", ID: contentHash}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up content hash: %w", err)
	}
	return r.GetAsset(ctx, assetID)
}

// ListAssetsByTenant returns all assets owned by a tenant.
func (r *RedisCatalog) ListAssetsByTenant(ctx context.Context, tenantID string) ([]*models.Asset, error) {
	assetIDs, err := r.client.SMembers(ctx, "idx:tenantassets:"+tenantID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list assets for tenant %s: %w", tenantID, err)
	}

	assets := make([]*models.Asset, 0, len(assetIDs))
	for _, id := range assetIDs {
		asset, err := r.GetAsset(ctx, id)
		if err != nil {
			if _, ok := err.(models.NotFoundError); ok {
				continue
			}
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

// CreateAssetWithRenditions persists an asset and its renditions,
// enforcing (tenant, content hash) uniqueness via SETNX.
func (r *RedisCatalog) CreateAssetWithRenditions(ctx context.Context, asset *models.Asset, renditions []models.Rendition) error {
	asset.PerceptualHashHex = asset.PerceptualHash.String()
	hashKey := "idx:contenthash:" + asset.TenantID + ":" + asset.ContentHash

	created, err := r.client.SetNX(ctx, hashKey, asset.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to reserve content hash: %w", err)
	}
	if !created {
		return models.DuplicateContentHashError{
			TenantID:    asset.TenantID,
			ContentHash: asset.ContentHash,
		}
	}

	assetData, err := json.Marshal(asset)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, "asset:"+asset.ID, assetData, 0)
	pipe.SAdd(ctx, "idx:tenantassets:"+asset.TenantID, asset.ID)
	pipe.SAdd(ctx, setAssets, asset.ID)

	for i := range renditions {
		rend := &renditions[i]
		rend.PerceptualHashHex = rend.PerceptualHash.String()
		rendData, err := json.Marshal(rend)
		if err != nil {
			return err
		}
		member := asset.ID + "|" + rend.Preset
		pipe.Set(ctx, "rendition:"+asset.ID+":"+rend.Preset, rendData, 0)
		pipe.SAdd(ctx, "idx:blobkey:"+rend.StorageKey, member)
		pipe.SAdd(ctx, setRenditions, member)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		// Roll back the uniqueness reservation so a retry can succeed
		r.client.Del(ctx, hashKey)
		return fmt.Errorf("failed to persist asset %s: %w", asset.ID, err)
	}

	logger.DebugWithContext(ctx, "Asset persisted to catalog",
		zap.String("asset_id", asset.ID),
		zap.String("tenant_id", asset.TenantID),
		zap.Int("renditions", len(renditions)))

	return nil
}

// GetAsset retrieves an asset by ID, with the live reference counter.
func (r *RedisCatalog) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	data, err := r.client.Get(ctx, "asset:"+id).Result()
	if err == redis.Nil {
		return nil, models.NotFoundError{Resource: "asset", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset %s: %w", id, err)
	}

	var asset models.Asset
	if err := json.Unmarshal([]byte(data), &asset); err != nil {
		return nil, fmt.Errorf("failed to decode asset %s: %w", id, err)
	}
	restorePerceptualHash(&asset)

	count, err := r.client.Get(ctx, "asset:inuse:"+id).Int64()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to get in_use_count for %s: %w", id, err)
	}
	asset.InUseCount = count

	return &asset, nil
}

// ListRenditions returns the renditions owned by an asset.
func (r *RedisCatalog) ListRenditions(ctx context.Context, assetID string) ([]models.Rendition, error) {
	members, err := r.client.SMembers(ctx, setRenditions).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list renditions: %w", err)
	}

	var renditions []models.Rendition
	for _, member := range members {
		parts := strings.SplitN(member, "|", 2)
		if len(parts) != 2 || parts[0] != assetID {
			continue
		}
		rend, err := r.getRendition(ctx, parts[0], parts[1])
		if err != nil {
			if _, ok := err.(models.NotFoundError); ok {
				continue
			}
			return nil, err
		}
		renditions = append(renditions, *rend)
	}
	return renditions, nil
}

// FindRenditionsByStorageKey returns every rendition referencing a blob key.
func (r *RedisCatalog) FindRenditionsByStorageKey(ctx context.Context, storageKey string) ([]models.Rendition, error) {
	members, err := r.client.SMembers(ctx, "idx:blobkey:"+storageKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to look up blob key: %w", err)
	}

	var renditions []models.Rendition
	for _, member := range members {
		parts := strings.SplitN(member, "|", 2)
		if len(parts) != 2 {
			continue
		}
		rend, err := r.getRendition(ctx, parts[0], parts[1])
		if err != nil {
			if _, ok := err.(models.NotFoundError); ok {
				continue
			}
			return nil, err
		}
		renditions = append(renditions, *rend)
	}
	return renditions, nil
}

// IncrementInUse atomically increments an asset's reference counter.
func (r *RedisCatalog) IncrementInUse(ctx context.Context, assetID string) (int64, error) {
	exists, err := r.client.Exists(ctx, "asset:"+assetID).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to check asset %s: %w", assetID, err)
	}
	if exists == 0 {
		return 0, models.NotFoundError{Resource: "asset", ID: assetID}
	}

	count, err := r.client.Incr(ctx, "asset:inuse:"+assetID).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment in_use_count for %s: %w", assetID, err)
	}
	return count, nil
}

// GetInUseCount returns the current reference counter for an asset.
func (r *RedisCatalog) GetInUseCount(ctx context.Context, assetID string) (int64, error) {
	asset, err := r.GetAsset(ctx, assetID)
	if err != nil {
		return 0, err
	}
	return asset.InUseCount, nil
}

// ListPurgeCandidates returns all assets with in_use_count == 0.
func (r *RedisCatalog) ListPurgeCandidates(ctx context.Context) ([]*models.Asset, error) {
	assetIDs, err := r.client.SMembers(ctx, setAssets).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	var candidates []*models.Asset
	for _, id := range assetIDs {
		asset, err := r.GetAsset(ctx, id)
		if err != nil {
			if _, ok := err.(models.NotFoundError); ok {
				continue
			}
			return nil, err
		}
		if asset.InUseCount == 0 {
			candidates = append(candidates, asset)
		}
	}
	return candidates, nil
}

// DeleteAsset removes an asset, its renditions and all index entries.
func (r *RedisCatalog) DeleteAsset(ctx context.Context, id string) error {
	asset, err := r.GetAsset(ctx, id)
	if err != nil {
		return err
	}
	renditions, err := r.ListRenditions(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	for _, rend := range renditions {
		member := id + "|" + rend.Preset
		pipe.Del(ctx, "rendition:"+id+":"+rend.Preset)
		pipe.SRem(ctx, "idx:blobkey:"+rend.StorageKey, member)
		pipe.SRem(ctx, setRenditions, member)
	}
	pipe.Del(ctx, "idx:contenthash:"+asset.TenantID+":"+asset.ContentHash)
	pipe.SRem(ctx, "idx:tenantassets:"+asset.TenantID, id)
	pipe.SRem(ctx, setAssets, id)
	pipe.Del(ctx, "asset:inuse:"+id)
	pipe.Del(ctx, "asset:"+id)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete asset %s: %w", id, err)
	}
	return nil
}

// CountAssetsByTenant returns the number of assets per tenant name.
func (r *RedisCatalog) CountAssetsByTenant(ctx context.Context) (map[string]int64, error) {
	tenantIDs, err := r.client.SMembers(ctx, setTenants).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}

	counts := make(map[string]int64, len(tenantIDs))
	for _, id := range tenantIDs {
		tenant, err := r.GetTenant(ctx, id)
		if err != nil {
			if _, ok := err.(models.NotFoundError); ok {
				continue
			}
			return nil, err
		}
		count, err := r.client.SCard(ctx, "idx:tenantassets:"+id).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to count assets for tenant %s: %w", id, err)
		}
		counts[tenant.Name] = count
	}
	return counts, nil
}

// SumRenditionBytesByPreset returns total rendition bytes per preset name.
func (r *RedisCatalog) SumRenditionBytesByPreset(ctx context.Context) (map[string]int64, error) {
	members, err := r.client.SMembers(ctx, setRenditions).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list renditions: %w", err)
	}

	sums := make(map[string]int64)
	for _, member := range members {
		parts := strings.SplitN(member, "|", 2)
		if len(parts) != 2 {
			continue
		}
		rend, err := r.getRendition(ctx, parts[0], parts[1])
		if err != nil {
			if _, ok := err.(models.NotFoundError); ok {
				continue
			}
			return nil, err
		}
		sums[rend.Preset] += rend.SizeBytes
	}
	return sums, nil
}

// Health checks Redis connectivity
func (r *RedisCatalog) Health(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (r *RedisCatalog) Close() error {
	return r.client.Close()
}

func (r *RedisCatalog) getRendition(ctx context.Context, assetID, preset string) (*models.Rendition, error) {
	data, err := r.client.Get(ctx, "rendition:"+assetID+":"+preset).Result()
	if err == redis.Nil {
		return nil, models.NotFoundError{Resource: "rendition", ID: assetID + "/" + preset}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rendition %s/%s: %w", assetID, preset, err)
	}

	var rend models.Rendition
	if err := json.Unmarshal([]byte(data), &rend); err != nil {
		return nil, fmt.Errorf("failed to decode rendition %s/%s: %w", assetID, preset, err)
	}
	rend.PerceptualHash, _ = models.ParsePerceptualHash(rend.PerceptualHashHex)
	return &rend, nil
}
