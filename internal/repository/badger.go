package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"renditr/internal/config"
	"renditr/internal/models"
	"renditr/pkg/logger"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Key layout:
//
//	tenant:<tenantID>                         -> Tenant JSON
//	asset:<assetID>                           -> Asset JSON
//	rendition:<assetID>:<preset>              -> Rendition JSON
//	idx:tenantname:<name>                     -> tenantID
//	idx:contenthash:<tenantID>:<contentHash>  -> assetID  (uniqueness constraint)
//	idx:tenantasset:<tenantID>:<assetID>      -> nil
//	idx:blobkey:<storageKey>|<assetID>|<preset> -> nil
//
// Tenant names and preset names cannot contain ':' or '|', and storage
// keys cannot contain '|', so the separators are unambiguous.
const (
	prefixTenant      = "tenant:"
	prefixAsset       = "asset:"
	prefixRendition   = "rendition:"
	prefixTenantName  = "idx:tenantname:"
	prefixContentHash = "idx:contenthash:"
	prefixTenantAsset = "idx:tenantasset:"
	prefixBlobKey     = "idx:blobkey:"
)

const maxTxnRetries = 3

// BadgerCatalog implements the Catalog interface on an embedded BadgerDB.
type BadgerCatalog struct {
	db *badger.DB
}

var _ Catalog = (*BadgerCatalog)(nil)

// badgerLogger suppresses BadgerDB's own log output in favor of zap
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logger.Error(fmt.Sprintf("badger: "+format, args...))
}
func (badgerLogger) Warningf(format string, args ...interface{}) {
	logger.Warn(fmt.Sprintf("badger: "+format, args...))
}
func (badgerLogger) Infof(string, ...interface{})  {}
func (badgerLogger) Debugf(string, ...interface{}) {}

// NewBadgerCatalog opens (or creates) a BadgerDB-backed catalog.
func NewBadgerCatalog(cfg *config.CatalogConfig) (*BadgerCatalog, error) {
	logger.Info("Initializing BadgerDB catalog", zap.String("directory", cfg.Directory))

	if err := os.MkdirAll(cfg.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}

	opts := badger.DefaultOptions(cfg.Directory)
	opts.Logger = badgerLogger{}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	logger.Info("BadgerDB catalog initialized successfully")
	return &BadgerCatalog{db: db}, nil
}

// update runs a read-write transaction, retrying on optimistic
// concurrency conflicts.
func (b *BadgerCatalog) update(fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < maxTxnRetries; i++ {
		err = b.db.Update(fn)
		if err != badger.ErrConflict {
			return err
		}
	}
	return err
}

// GetOrCreateTenant returns the named tenant, creating it on first reference.
func (b *BadgerCatalog) GetOrCreateTenant(ctx context.Context, name string) (*models.Tenant, error) {
	var tenant *models.Tenant

	err := b.update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixTenantName + name))
		if err == nil {
			var tenantID string
			if err := item.Value(func(val []byte) error {
				tenantID = string(val)
				return nil
			}); err != nil {
				return err
			}
			tenant, err = getJSON[models.Tenant](txn, prefixTenant+tenantID)
			return err
		}
		if err != badger.ErrKeyNotFound {
			return err
		}

		tenant = &models.Tenant{
			ID:        uuid.New().String(),
			Name:      name,
			CreatedAt: nowUTC(),
		}
		if err := setJSON(txn, prefixTenant+tenant.ID, tenant); err != nil {
			return err
		}
		return txn.Set([]byte(prefixTenantName+name), []byte(tenant.ID))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get or create tenant %q: %w", name, err)
	}

	return tenant, nil
}

// GetTenant retrieves a tenant by ID.
func (b *BadgerCatalog) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	var tenant *models.Tenant
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		tenant, err = getJSON[models.Tenant](txn, prefixTenant+id)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, models.NotFoundError{Resource: "tenant", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant %s: %w", id, err)
	}
	return tenant, nil
}

// FindAssetByContentHash looks up an asset by its exact-duplicate key.
func (b *BadgerCatalog) FindAssetByContentHash(ctx context.Context, tenantID, contentHash string) (*models.Asset, error) {
	var asset *models.Asset

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixContentHash + tenantID + ":" + contentHash))
		if err != nil {
			return err
		}
		var assetID string
		if err := item.Value(func(val []byte) error {
			assetID = string(val)
			return nil
		}); err != nil {
			return err
		}
		asset, err = getJSON[models.Asset](txn, prefixAsset+assetID)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, models.NotFoundError{Resource: "asset", ID: contentHash}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find asset by content hash: %w", err)
	}

	restorePerceptualHash(asset)
	return asset, nil
}

// ListAssetsByTenant returns all assets owned by a tenant.
func (b *BadgerCatalog) ListAssetsByTenant(ctx context.Context, tenantID string) ([]*models.Asset, error) {
	var assets []*models.Asset

	err := b.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixTenantAsset + tenantID + ":")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			assetID := strings.TrimPrefix(string(it.Item().Key()), string(prefix))
			asset, err := getJSON[models.Asset](txn, prefixAsset+assetID)
			if err != nil {
				return err
			}
			restorePerceptualHash(asset)
			assets = append(assets, asset)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list assets for tenant %s: %w", tenantID, err)
	}

	return assets, nil
}

// CreateAssetWithRenditions persists an asset and its renditions in a
// single transaction, enforcing (tenant, content hash) uniqueness.
func (b *BadgerCatalog) CreateAssetWithRenditions(ctx context.Context, asset *models.Asset, renditions []models.Rendition) error {
	asset.PerceptualHashHex = asset.PerceptualHash.String()
	hashKey := prefixContentHash + asset.TenantID + ":" + asset.ContentHash

	err := b.update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(hashKey)); err == nil {
			return models.DuplicateContentHashError{
				TenantID:    asset.TenantID,
				ContentHash: asset.ContentHash,
			}
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		if err := setJSON(txn, prefixAsset+asset.ID, asset); err != nil {
			return err
		}
		if err := txn.Set([]byte(hashKey), []byte(asset.ID)); err != nil {
			return err
		}
		if err := txn.Set([]byte(prefixTenantAsset+asset.TenantID+":"+asset.ID), nil); err != nil {
			return err
		}

		for i := range renditions {
			r := &renditions[i]
			r.PerceptualHashHex = r.PerceptualHash.String()
			if err := setJSON(txn, prefixRendition+asset.ID+":"+r.Preset, r); err != nil {
				return err
			}
			blobIdx := prefixBlobKey + r.StorageKey + "|" + asset.ID + "|" + r.Preset
			if err := txn.Set([]byte(blobIdx), nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var dup models.DuplicateContentHashError
		if asDuplicate(err, &dup) {
			return dup
		}
		return fmt.Errorf("failed to create asset %s: %w", asset.ID, err)
	}

	logger.DebugWithContext(ctx, "Asset persisted to catalog",
		zap.String("asset_id", asset.ID),
		zap.String("tenant_id", asset.TenantID),
		zap.Int("renditions", len(renditions)))

	return nil
}

// GetAsset retrieves an asset by ID.
func (b *BadgerCatalog) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	var asset *models.Asset
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		asset, err = getJSON[models.Asset](txn, prefixAsset+id)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, models.NotFoundError{Resource: "asset", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset %s: %w", id, err)
	}

	restorePerceptualHash(asset)
	return asset, nil
}

// ListRenditions returns the renditions owned by an asset.
func (b *BadgerCatalog) ListRenditions(ctx context.Context, assetID string) ([]models.Rendition, error) {
	var renditions []models.Rendition

	err := b.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixRendition + assetID + ":")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var r models.Rendition
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return err
			}
			r.PerceptualHash, _ = models.ParsePerceptualHash(r.PerceptualHashHex)
			renditions = append(renditions, r)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list renditions for asset %s: %w", assetID, err)
	}

	return renditions, nil
}

// FindRenditionsByStorageKey returns every rendition referencing a blob key.
func (b *BadgerCatalog) FindRenditionsByStorageKey(ctx context.Context, storageKey string) ([]models.Rendition, error) {
	var renditions []models.Rendition

	err := b.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixBlobKey + storageKey + "|")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			suffix := strings.TrimPrefix(string(it.Item().Key()), string(prefix))
			parts := strings.SplitN(suffix, "|", 2)
			if len(parts) != 2 {
				continue
			}
			r, err := getJSON[models.Rendition](txn, prefixRendition+parts[0]+":"+parts[1])
			if err != nil {
				if err == badger.ErrKeyNotFound {
					continue
				}
				return err
			}
			renditions = append(renditions, *r)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find renditions by storage key: %w", err)
	}

	return renditions, nil
}

// IncrementInUse atomically increments an asset's reference counter.
func (b *BadgerCatalog) IncrementInUse(ctx context.Context, assetID string) (int64, error) {
	var count int64

	err := b.update(func(txn *badger.Txn) error {
		asset, err := getJSON[models.Asset](txn, prefixAsset+assetID)
		if err != nil {
			return err
		}
		asset.InUseCount++
		count = asset.InUseCount
		return setJSON(txn, prefixAsset+assetID, asset)
	})
	if err == badger.ErrKeyNotFound {
		return 0, models.NotFoundError{Resource: "asset", ID: assetID}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment in_use_count for %s: %w", assetID, err)
	}

	return count, nil
}

// GetInUseCount returns the current reference counter for an asset.
func (b *BadgerCatalog) GetInUseCount(ctx context.Context, assetID string) (int64, error) {
	asset, err := b.GetAsset(ctx, assetID)
	if err != nil {
		return 0, err
	}
	return asset.InUseCount, nil
}

// ListPurgeCandidates returns all assets with in_use_count == 0.
func (b *BadgerCatalog) ListPurgeCandidates(ctx context.Context) ([]*models.Asset, error) {
	var candidates []*models.Asset

	err := b.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixAsset)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var asset models.Asset
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &asset)
			}); err != nil {
				return err
			}
			if asset.InUseCount == 0 {
				restorePerceptualHash(&asset)
				candidates = append(candidates, &asset)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list purge candidates: %w", err)
	}

	return candidates, nil
}

// DeleteAsset removes an asset, its renditions and all index entries in
// one transaction.
func (b *BadgerCatalog) DeleteAsset(ctx context.Context, id string) error {
	err := b.update(func(txn *badger.Txn) error {
		asset, err := getJSON[models.Asset](txn, prefixAsset+id)
		if err != nil {
			return err
		}

		// Rendition rows first, then the asset row
		prefix := []byte(prefixRendition + id + ":")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		var rendKeys [][]byte
		var blobIdxKeys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var r models.Rendition
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				it.Close()
				return err
			}
			rendKeys = append(rendKeys, it.Item().KeyCopy(nil))
			blobIdxKeys = append(blobIdxKeys, []byte(prefixBlobKey+r.StorageKey+"|"+id+"|"+r.Preset))
		}
		it.Close()

		for _, k := range rendKeys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		for _, k := range blobIdxKeys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		if err := txn.Delete([]byte(prefixContentHash + asset.TenantID + ":" + asset.ContentHash)); err != nil {
			return err
		}
		if err := txn.Delete([]byte(prefixTenantAsset + asset.TenantID + ":" + id)); err != nil {
			return err
		}
		return txn.Delete([]byte(prefixAsset + id))
	})
	if err == badger.ErrKeyNotFound {
		return models.NotFoundError{Resource: "asset", ID: id}
	}
	if err != nil {
		return fmt.Errorf("failed to delete asset %s: %w", id, err)
	}

	return nil
}

// CountAssetsByTenant returns the number of assets per tenant name.
func (b *BadgerCatalog) CountAssetsByTenant(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)

	err := b.db.View(func(txn *badger.Txn) error {
		names := make(map[string]string)

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		tenantPrefix := []byte(prefixTenant)
		for it.Seek(tenantPrefix); it.ValidForPrefix(tenantPrefix); it.Next() {
			var tenant models.Tenant
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &tenant)
			}); err != nil {
				return err
			}
			names[tenant.ID] = tenant.Name
			counts[tenant.Name] = 0
		}

		assetPrefix := []byte(prefixAsset)
		for it.Seek(assetPrefix); it.ValidForPrefix(assetPrefix); it.Next() {
			var asset models.Asset
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &asset)
			}); err != nil {
				return err
			}
			if name, ok := names[asset.TenantID]; ok {
				counts[name]++
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count assets by tenant: %w", err)
	}

	return counts, nil
}

// SumRenditionBytesByPreset returns total rendition bytes per preset name.
func (b *BadgerCatalog) SumRenditionBytesByPreset(ctx context.Context) (map[string]int64, error) {
	sums := make(map[string]int64)

	err := b.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixRendition)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var r models.Rendition
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return err
			}
			sums[r.Preset] += r.SizeBytes
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sum rendition bytes: %w", err)
	}

	return sums, nil
}

// Health checks catalog health
func (b *BadgerCatalog) Health(ctx context.Context) error {
	if b.db.IsClosed() {
		return fmt.Errorf("BadgerDB is closed")
	}
	return nil
}

// Close closes the underlying database
func (b *BadgerCatalog) Close() error {
	return b.db.Close()
}

// Helpers

func getJSON[T any](txn *badger.Txn, key string) (*T, error) {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return nil, err
	}
	var out T
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &out)
	}); err != nil {
		return nil, err
	}
	return &out, nil
}

func setJSON(txn *badger.Txn, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), data)
}

func restorePerceptualHash(asset *models.Asset) {
	if asset == nil {
		return
	}
	asset.PerceptualHash, _ = models.ParsePerceptualHash(asset.PerceptualHashHex)
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func asDuplicate(err error, target *models.DuplicateContentHashError) bool {
	dup, ok := err.(models.DuplicateContentHashError)
	if ok {
		*target = dup
	}
	return ok
}
