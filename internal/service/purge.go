package service

import (
	"context"
	"crypto/subtle"

	"renditr/internal/config"
	"renditr/internal/models"
	"renditr/internal/repository"
	"renditr/internal/storage"
	"renditr/pkg/logger"

	"go.uber.org/zap"
)

// PurgeServiceImpl implements the PurgeService interface
type PurgeServiceImpl struct {
	catalog repository.Catalog
	storage storage.BlobStorage
	config  *config.Config
}

// NewPurgeService creates a new purge coordinator
func NewPurgeService(catalog repository.Catalog, blobStorage storage.BlobStorage, cfg *config.Config) PurgeService {
	return &PurgeServiceImpl{
		catalog: catalog,
		storage: blobStorage,
		config:  cfg,
	}
}

// Purge identifies assets with in_use_count == 0 and, unless dry_run is
// set, deletes them. A destructive run requires the configured confirm
// token; a mismatch deletes nothing.
//
// Deletion order per asset: rendition blobs first, then rendition rows,
// then the asset row, so a crash mid-purge never leaves a surviving
// catalog row pointing at a deleted blob. The in_use_count guard is
// re-checked immediately before each deletion to shrink the window
// against concurrent increments. Blobs still referenced by another
// asset's rendition (near-duplicate reuse) are left in place.
func (s *PurgeServiceImpl) Purge(ctx context.Context, req models.PurgeRequest) (*models.PurgeResult, error) {
	candidates, err := s.catalog.ListPurgeCandidates(ctx)
	if err != nil {
		return nil, models.StorageError{Operation: "list_candidates", Backend: "catalog", Reason: err.Error()}
	}

	candidateHashes := make([]string, 0, len(candidates))
	for _, asset := range candidates {
		candidateHashes = append(candidateHashes, asset.ContentHash)
	}

	if req.DryRun {
		logger.InfoWithContext(ctx, "Purge dry run",
			zap.Int("candidates", len(candidateHashes)))
		return &models.PurgeResult{
			DryRun:       true,
			Candidates:   candidateHashes,
			DeletedCount: 0,
		}, nil
	}

	if subtle.ConstantTimeCompare([]byte(req.ConfirmToken), []byte(s.config.Purge.ConfirmToken)) != 1 {
		return nil, models.UnauthorizedError{
			Reason: "confirm_token required and must match the configured token for destructive operations",
		}
	}

	deleted := 0
	for _, asset := range candidates {
		if s.purgeAsset(ctx, asset) {
			deleted++
		}
	}

	logger.InfoWithContext(ctx, "Purge completed",
		zap.Int("candidates", len(candidateHashes)),
		zap.Int("deleted", deleted))

	return &models.PurgeResult{
		DryRun:       false,
		Candidates:   candidateHashes,
		DeletedCount: deleted,
	}, nil
}

// purgeAsset deletes one asset and reports whether it was removed.
func (s *PurgeServiceImpl) purgeAsset(ctx context.Context, asset *models.Asset) bool {
	// Authoritative re-check: the asset may have been claimed since
	// candidate selection
	count, err := s.catalog.GetInUseCount(ctx, asset.ID)
	if err != nil {
		logger.WarnWithContext(ctx, "Skipping purge candidate, counter check failed",
			zap.String("asset_id", asset.ID),
			zap.Error(err))
		return false
	}
	if count > 0 {
		logger.InfoWithContext(ctx, "Skipping purge candidate, asset now in use",
			zap.String("asset_id", asset.ID),
			zap.Int64("in_use_count", count))
		return false
	}

	renditions, err := s.catalog.ListRenditions(ctx, asset.ID)
	if err != nil {
		logger.WarnWithContext(ctx, "Skipping purge candidate, rendition listing failed",
			zap.String("asset_id", asset.ID),
			zap.Error(err))
		return false
	}

	for _, rendition := range renditions {
		if s.blobShared(ctx, asset.ID, rendition.StorageKey) {
			logger.DebugWithContext(ctx, "Blob shared with another asset, keeping",
				zap.String("storage_key", rendition.StorageKey))
			continue
		}
		// Best-effort: a failed blob delete leaves an orphan blob, never
		// a dangling catalog row
		if err := s.storage.Delete(ctx, rendition.StorageKey); err != nil {
			logger.WarnWithContext(ctx, "Failed to delete rendition blob",
				zap.String("storage_key", rendition.StorageKey),
				zap.Error(err))
		}
	}

	if err := s.catalog.DeleteAsset(ctx, asset.ID); err != nil {
		logger.ErrorWithContext(ctx, "Failed to delete asset rows",
			zap.String("asset_id", asset.ID),
			zap.Error(err))
		return false
	}

	logger.InfoWithContext(ctx, "Asset purged",
		zap.String("asset_id", asset.ID),
		zap.String("content_hash", asset.ContentHash),
		zap.Int("renditions", len(renditions)))

	return true
}

// blobShared reports whether any rendition outside the asset being
// purged references the storage key.
func (s *PurgeServiceImpl) blobShared(ctx context.Context, assetID, storageKey string) bool {
	refs, err := s.catalog.FindRenditionsByStorageKey(ctx, storageKey)
	if err != nil {
		logger.WarnWithContext(ctx, "Shared-blob check failed, keeping blob",
			zap.String("storage_key", storageKey),
			zap.Error(err))
		return true
	}
	for _, ref := range refs {
		if ref.AssetID != assetID {
			return true
		}
	}
	return false
}
