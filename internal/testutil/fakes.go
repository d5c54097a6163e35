package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"renditr/internal/models"

	"github.com/google/uuid"
)

// MemoryCatalog is an in-memory Catalog implementation for service tests
type MemoryCatalog struct {
	mu         sync.Mutex
	tenants    map[string]*models.Tenant     // by ID
	tenantByNm map[string]string             // name -> ID
	assets     map[string]*models.Asset      // by ID
	renditions map[string][]models.Rendition // by asset ID
	counters   map[string]int64              // asset ID -> in_use_count

	// FailCreate forces CreateAssetWithRenditions to fail once with the
	// given error, simulating backend failures
	FailCreate error

	// PreCreateHook runs before CreateAssetWithRenditions takes effect,
	// letting tests interleave a concurrent writer
	PreCreateHook func()
}

// NewMemoryCatalog creates an empty in-memory catalog
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		tenants:    make(map[string]*models.Tenant),
		tenantByNm: make(map[string]string),
		assets:     make(map[string]*models.Asset),
		renditions: make(map[string][]models.Rendition),
		counters:   make(map[string]int64),
	}
}

func (m *MemoryCatalog) GetOrCreateTenant(ctx context.Context, name string) (*models.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.tenantByNm[name]; ok {
		t := *m.tenants[id]
		return &t, nil
	}

	tenant := &models.Tenant{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	m.tenants[tenant.ID] = tenant
	m.tenantByNm[name] = tenant.ID
	t := *tenant
	return &t, nil
}

func (m *MemoryCatalog) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tenant, ok := m.tenants[id]
	if !ok {
		return nil, models.NotFoundError{Resource: "tenant", ID: id}
	}
	t := *tenant
	return &t, nil
}

func (m *MemoryCatalog) FindAssetByContentHash(ctx context.Context, tenantID, contentHash string) (*models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, asset := range m.assets {
		if asset.TenantID == tenantID && asset.ContentHash == contentHash {
			a := *asset
			a.InUseCount = m.counters[asset.ID]
			return &a, nil
		}
	}
	return nil, models.NotFoundError{Resource: "asset", ID: contentHash}
}

func (m *MemoryCatalog) ListAssetsByTenant(ctx context.Context, tenantID string) ([]*models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*models.Asset
	for _, asset := range m.assets {
		if asset.TenantID == tenantID {
			a := *asset
			a.InUseCount = m.counters[asset.ID]
			result = append(result, &a)
		}
	}
	return result, nil
}

func (m *MemoryCatalog) CreateAssetWithRenditions(ctx context.Context, asset *models.Asset, renditions []models.Rendition) error {
	if m.PreCreateHook != nil {
		hook := m.PreCreateHook
		m.PreCreateHook = nil
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailCreate != nil {
		err := m.FailCreate
		m.FailCreate = nil
		return err
	}

	if err := asset.Validate(); err != nil {
		return err
	}

	for _, existing := range m.assets {
		if existing.TenantID == asset.TenantID && existing.ContentHash == asset.ContentHash {
			return models.DuplicateContentHashError{
				TenantID:    asset.TenantID,
				ContentHash: asset.ContentHash,
			}
		}
	}

	a := *asset
	m.assets[asset.ID] = &a
	m.renditions[asset.ID] = append([]models.Rendition(nil), renditions...)
	m.counters[asset.ID] = 0
	return nil
}

func (m *MemoryCatalog) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	asset, ok := m.assets[id]
	if !ok {
		return nil, models.NotFoundError{Resource: "asset", ID: id}
	}
	a := *asset
	a.InUseCount = m.counters[id]
	return &a, nil
}

func (m *MemoryCatalog) ListRenditions(ctx context.Context, assetID string) ([]models.Rendition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]models.Rendition(nil), m.renditions[assetID]...), nil
}

func (m *MemoryCatalog) FindRenditionsByStorageKey(ctx context.Context, storageKey string) ([]models.Rendition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []models.Rendition
	for _, rs := range m.renditions {
		for _, r := range rs {
			if r.StorageKey == storageKey {
				result = append(result, r)
			}
		}
	}
	return result, nil
}

func (m *MemoryCatalog) IncrementInUse(ctx context.Context, assetID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.assets[assetID]; !ok {
		return 0, models.NotFoundError{Resource: "asset", ID: assetID}
	}
	m.counters[assetID]++
	return m.counters[assetID], nil
}

func (m *MemoryCatalog) GetInUseCount(ctx context.Context, assetID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.assets[assetID]; !ok {
		return 0, models.NotFoundError{Resource: "asset", ID: assetID}
	}
	return m.counters[assetID], nil
}

func (m *MemoryCatalog) ListPurgeCandidates(ctx context.Context) ([]*models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*models.Asset
	for id, asset := range m.assets {
		if m.counters[id] == 0 {
			a := *asset
			result = append(result, &a)
		}
	}
	return result, nil
}

func (m *MemoryCatalog) DeleteAsset(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.assets[id]; !ok {
		return models.NotFoundError{Resource: "asset", ID: id}
	}
	delete(m.assets, id)
	delete(m.renditions, id)
	delete(m.counters, id)
	return nil
}

func (m *MemoryCatalog) CountAssetsByTenant(ctx context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make(map[string]int64)
	for _, tenant := range m.tenants {
		result[tenant.Name] = 0
	}
	for _, asset := range m.assets {
		if tenant, ok := m.tenants[asset.TenantID]; ok {
			result[tenant.Name]++
		}
	}
	return result, nil
}

func (m *MemoryCatalog) SumRenditionBytesByPreset(ctx context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make(map[string]int64)
	for _, rs := range m.renditions {
		for _, r := range rs {
			result[r.Preset] += r.SizeBytes
		}
	}
	return result, nil
}

func (m *MemoryCatalog) Health(ctx context.Context) error { return nil }

func (m *MemoryCatalog) Close() error { return nil }

// MemoryBlobStorage is an in-memory BlobStorage implementation
type MemoryBlobStorage struct {
	mu    sync.Mutex
	blobs map[string][]byte

	// FailPutKey makes Put fail for keys containing this substring
	FailPutKey string
}

// NewMemoryBlobStorage creates an empty in-memory blob store
func NewMemoryBlobStorage() *MemoryBlobStorage {
	return &MemoryBlobStorage{blobs: make(map[string][]byte)}
}

func (m *MemoryBlobStorage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailPutKey != "" && strings.Contains(key, m.FailPutKey) {
		return fmt.Errorf("simulated write failure for %s", key)
	}
	m.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryBlobStorage) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.blobs[key]
	if !ok {
		return nil, models.NotFoundError{Resource: "blob", ID: key}
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryBlobStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, key)
	return nil
}

func (m *MemoryBlobStorage) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.blobs[key]
	return ok, nil
}

func (m *MemoryBlobStorage) Health(ctx context.Context) error { return nil }

// Len returns the number of stored blobs
func (m *MemoryBlobStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}

// Keys returns the stored blob keys
func (m *MemoryBlobStorage) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.blobs))
	for k := range m.blobs {
		keys = append(keys, k)
	}
	return keys
}
