package service

import (
	"context"

	"renditr/internal/models"
	"renditr/internal/repository"
)

// MetricsServiceImpl implements the MetricsService interface
type MetricsServiceImpl struct {
	catalog repository.Catalog
}

// NewMetricsService creates a new metrics aggregator
func NewMetricsService(catalog repository.Catalog) MetricsService {
	return &MetricsServiceImpl{catalog: catalog}
}

// Collect produces read-only rollups over the asset catalog: asset
// counts per tenant and total rendition bytes per preset. No side
// effects.
func (s *MetricsServiceImpl) Collect(ctx context.Context) (*models.UsageMetrics, error) {
	countByTenant, err := s.catalog.CountAssetsByTenant(ctx)
	if err != nil {
		return nil, models.StorageError{Operation: "count_by_tenant", Backend: "catalog", Reason: err.Error()}
	}

	bytesByPreset, err := s.catalog.SumRenditionBytesByPreset(ctx)
	if err != nil {
		return nil, models.StorageError{Operation: "bytes_by_preset", Backend: "catalog", Reason: err.Error()}
	}

	return &models.UsageMetrics{
		AssetCountByTenant: countByTenant,
		BytesByPreset:      bytesByPreset,
	}, nil
}
