package service

import (
	"context"
	"time"

	"renditr/internal/repository"
	"renditr/internal/storage"
)

// HealthServiceImpl implements the HealthService interface
type HealthServiceImpl struct {
	catalog   repository.Catalog
	storage   storage.BlobStorage
	version   string
	startTime time.Time
}

// NewHealthService creates a new health checker
func NewHealthService(catalog repository.Catalog, blobStorage storage.BlobStorage, version string) HealthService {
	return &HealthServiceImpl{
		catalog:   catalog,
		storage:   blobStorage,
		version:   version,
		startTime: time.Now(),
	}
}

// CheckHealth reports the health of the catalog and blob storage
func (s *HealthServiceImpl) CheckHealth(ctx context.Context) (*HealthStatus, error) {
	services := make(map[string]string)

	if err := s.catalog.Health(ctx); err != nil {
		services["catalog"] = "unhealthy: " + err.Error()
	} else {
		services["catalog"] = "healthy"
	}

	if err := s.storage.Health(ctx); err != nil {
		services["storage"] = "unhealthy: " + err.Error()
	} else {
		services["storage"] = "healthy"
	}

	return &HealthStatus{
		Services: services,
		Uptime:   int64(time.Since(s.startTime).Seconds()),
		Version:  s.version,
	}, nil
}
