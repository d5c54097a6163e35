package repository

import (
	"fmt"

	"renditr/internal/config"
	"renditr/pkg/logger"

	"go.uber.org/zap"
)

// NewCatalog creates the asset catalog backend selected by configuration.
// Supports an embedded BadgerDB catalog (no external dependencies) and a
// Redis-backed catalog for deployments that already run Redis.
func NewCatalog(cfg *config.Config) (Catalog, error) {
	logger.Info("Initializing asset catalog", zap.String("type", cfg.Catalog.Type))

	switch cfg.Catalog.Type {
	case "badger":
		return NewBadgerCatalog(&cfg.Catalog)
	case "redis":
		return NewRedisCatalog(&cfg.Catalog)
	default:
		return nil, fmt.Errorf("unsupported catalog type: %s", cfg.Catalog.Type)
	}
}
