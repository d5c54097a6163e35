package storage

import (
	"fmt"

	"renditr/internal/config"
	"renditr/pkg/logger"

	"go.uber.org/zap"
)

// NewBlobStorage creates the blob storage backend selected by configuration.
// The choice is made exactly once at startup; the pipeline only sees the
// BlobStorage interface.
func NewBlobStorage(cfg *config.Config) (BlobStorage, error) {
	logger.Info("Initializing blob storage", zap.String("type", cfg.Storage.Type))

	switch cfg.Storage.Type {
	case "s3":
		return NewS3Storage(&cfg.Storage.S3)
	case "local":
		return NewLocalStorage(cfg.Storage.LocalDirectory)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
}
