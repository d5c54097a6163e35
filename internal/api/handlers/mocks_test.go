package handlers

import (
	"context"

	"renditr/internal/models"
	"renditr/internal/service"
)

// mockIngestService implements service.IngestService with func fields
type mockIngestService struct {
	IngestFunc    func(ctx context.Context, input service.IngestInput) (*models.AssetWithRenditions, error)
	GetAssetFunc  func(ctx context.Context, assetID string) (*models.AssetWithRenditions, error)
	MarkInUseFunc func(ctx context.Context, assetID string) (int64, error)
}

func (m *mockIngestService) Ingest(ctx context.Context, input service.IngestInput) (*models.AssetWithRenditions, error) {
	if m.IngestFunc != nil {
		return m.IngestFunc(ctx, input)
	}
	return nil, nil
}

func (m *mockIngestService) GetAsset(ctx context.Context, assetID string) (*models.AssetWithRenditions, error) {
	if m.GetAssetFunc != nil {
		return m.GetAssetFunc(ctx, assetID)
	}
	return nil, nil
}

func (m *mockIngestService) MarkInUse(ctx context.Context, assetID string) (int64, error) {
	if m.MarkInUseFunc != nil {
		return m.MarkInUseFunc(ctx, assetID)
	}
	return 0, nil
}

// mockCompareService implements service.CompareService
type mockCompareService struct {
	CompareFunc func(ctx context.Context, data []byte) (*models.CompareResult, error)
}

func (m *mockCompareService) Compare(ctx context.Context, data []byte) (*models.CompareResult, error) {
	if m.CompareFunc != nil {
		return m.CompareFunc(ctx, data)
	}
	return nil, nil
}

// mockPurgeService implements service.PurgeService
type mockPurgeService struct {
	PurgeFunc func(ctx context.Context, req models.PurgeRequest) (*models.PurgeResult, error)
}

func (m *mockPurgeService) Purge(ctx context.Context, req models.PurgeRequest) (*models.PurgeResult, error) {
	if m.PurgeFunc != nil {
		return m.PurgeFunc(ctx, req)
	}
	return nil, nil
}

// mockMetricsService implements service.MetricsService
type mockMetricsService struct {
	CollectFunc func(ctx context.Context) (*models.UsageMetrics, error)
}

func (m *mockMetricsService) Collect(ctx context.Context) (*models.UsageMetrics, error) {
	if m.CollectFunc != nil {
		return m.CollectFunc(ctx)
	}
	return nil, nil
}

// mockHealthService implements service.HealthService
type mockHealthService struct {
	CheckHealthFunc func(ctx context.Context) (*service.HealthStatus, error)
}

func (m *mockHealthService) CheckHealth(ctx context.Context) (*service.HealthStatus, error) {
	if m.CheckHealthFunc != nil {
		return m.CheckHealthFunc(ctx)
	}
	return &service.HealthStatus{Services: map[string]string{}}, nil
}
