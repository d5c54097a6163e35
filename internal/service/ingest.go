package service

import (
	"context"
	"errors"
	"image"

	"renditr/internal/config"
	"renditr/internal/models"
	"renditr/internal/repository"
	"renditr/internal/storage"
	"renditr/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IngestServiceImpl implements the IngestService interface
type IngestServiceImpl struct {
	catalog  repository.Catalog
	storage  storage.BlobStorage
	hasher   HasherService
	renderer RendererService
	config   *config.Config
}

// NewIngestService creates a new ingestion orchestrator
func NewIngestService(
	catalog repository.Catalog,
	blobStorage storage.BlobStorage,
	hasher HasherService,
	renderer RendererService,
	cfg *config.Config,
) IngestService {
	return &IngestServiceImpl{
		catalog:  catalog,
		storage:  blobStorage,
		hasher:   hasher,
		renderer: renderer,
		config:   cfg,
	}
}

// Ingest runs the full ingestion algorithm for one upload:
//
//  1. Reject payloads over the configured maximum.
//  2. Reject undecodable input.
//  3. Exact-duplicate check on (tenant, content hash): byte-identical
//     re-uploads return the existing asset unchanged.
//  4. Near-duplicate check on perceptual fingerprints: a match within
//     the Hamming threshold creates a new asset row but reuses the
//     matched asset's rendition blobs instead of re-encoding.
//  5. Otherwise generate and store a rendition per configured preset.
//  6. Persist the asset and its renditions as one unit.
//
// A uniqueness-constraint race on step 6 means a concurrent upload of
// the same content won; the winner's asset is re-fetched and returned.
func (s *IngestServiceImpl) Ingest(ctx context.Context, input IngestInput) (*models.AssetWithRenditions, error) {
	ctx = logger.WithTenant(ctx, input.Tenant)

	if err := models.ValidateTenantName(input.Tenant); err != nil {
		return nil, models.InvalidImageError{Reason: err.Error()}
	}

	size := int64(len(input.Data))
	if size > s.config.Image.MaxUploadBytes {
		return nil, models.PayloadTooLargeError{Size: size, MaxSize: s.config.Image.MaxUploadBytes}
	}
	if size == 0 {
		return nil, models.InvalidImageError{Reason: "empty payload"}
	}

	img, err := s.renderer.Decode(input.Data)
	if err != nil {
		return nil, models.InvalidImageError{Reason: err.Error()}
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	contentHash := s.hasher.ContentFingerprint(input.Data)

	tenant, err := s.catalog.GetOrCreateTenant(ctx, input.Tenant)
	if err != nil {
		return nil, models.StorageError{Operation: "get_or_create_tenant", Backend: "catalog", Reason: err.Error()}
	}

	// Exact-duplicate fast path: idempotent, no new rows or blobs
	if existing, err := s.catalog.FindAssetByContentHash(ctx, tenant.ID, contentHash); err == nil {
		logger.InfoWithContext(ctx, "Exact duplicate upload, returning existing asset",
			zap.String("asset_id", existing.ID),
			zap.String("content_hash", contentHash))
		return s.compose(ctx, tenant, existing)
	} else if !isNotFound(err) {
		return nil, models.StorageError{Operation: "find_by_content_hash", Backend: "catalog", Reason: err.Error()}
	}

	phash := s.hasher.PerceptualFingerprint(img)

	asset := models.NewAsset(uuid.New().String(), tenant.ID, contentHash, phash,
		input.Filename, size, width, height)

	var renditions []models.Rendition
	var writtenKeys []string

	if match := s.findNearDuplicate(ctx, tenant.ID, phash); match != nil {
		// Near-duplicate fast path: new asset row, shared rendition blobs
		sourceRenditions, err := s.catalog.ListRenditions(ctx, match.ID)
		if err != nil {
			return nil, models.StorageError{Operation: "list_renditions", Backend: "catalog", Reason: err.Error()}
		}
		for _, src := range sourceRenditions {
			renditions = append(renditions, models.Rendition{
				ID:             uuid.New().String(),
				AssetID:        asset.ID,
				Preset:         src.Preset,
				StorageKey:     src.StorageKey,
				SizeBytes:      src.SizeBytes,
				Width:          src.Width,
				Height:         src.Height,
				Quality:        src.Quality,
				PerceptualHash: src.PerceptualHash,
			})
		}
		logger.InfoWithContext(ctx, "Near-duplicate match, reusing renditions",
			zap.String("matched_asset_id", match.ID),
			zap.Int("distance", phash.Distance(match.PerceptualHash)),
			zap.Int("renditions", len(renditions)))
	} else {
		renditions, writtenKeys, err = s.generateRenditions(ctx, asset, img)
		if err != nil {
			return nil, err
		}
	}

	if err := s.catalog.CreateAssetWithRenditions(ctx, asset, renditions); err != nil {
		var dup models.DuplicateContentHashError
		if errors.As(err, &dup) {
			// Lost the insert race: someone else created this asset.
			// Blob keys are content-addressed, so anything we wrote is
			// byte-identical to the winner's; no cleanup needed.
			logger.InfoWithContext(ctx, "Content hash race resolved by re-fetch",
				zap.String("content_hash", contentHash))
			winner, err := s.catalog.FindAssetByContentHash(ctx, tenant.ID, contentHash)
			if err != nil {
				return nil, models.StorageError{Operation: "refetch_after_race", Backend: "catalog", Reason: err.Error()}
			}
			return s.compose(ctx, tenant, winner)
		}

		s.cleanupBlobs(ctx, writtenKeys)
		return nil, models.StorageError{Operation: "persist_asset", Backend: "catalog", Reason: err.Error()}
	}

	logger.InfoWithContext(ctx, "Asset ingested",
		zap.String("asset_id", asset.ID),
		zap.String("content_hash", contentHash),
		zap.Int("renditions", len(renditions)),
		zap.Int64("size", size))

	return &models.AssetWithRenditions{
		Asset:      *asset,
		Tenant:     *tenant,
		Renditions: renditions,
	}, nil
}

// GetAsset retrieves an asset with its renditions by ID
func (s *IngestServiceImpl) GetAsset(ctx context.Context, assetID string) (*models.AssetWithRenditions, error) {
	asset, err := s.catalog.GetAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	tenant, err := s.catalog.GetTenant(ctx, asset.TenantID)
	if err != nil {
		return nil, err
	}
	return s.compose(ctx, tenant, asset)
}

// MarkInUse increments an asset's reference counter
func (s *IngestServiceImpl) MarkInUse(ctx context.Context, assetID string) (int64, error) {
	count, err := s.catalog.IncrementInUse(ctx, assetID)
	if err != nil {
		return 0, err
	}

	logger.InfoWithContext(ctx, "Asset marked in use",
		zap.String("asset_id", assetID),
		zap.Int64("in_use_count", count))

	return count, nil
}

// findNearDuplicate searches the tenant's assets for the closest
// perceptual match within the configured Hamming threshold. The
// smallest distance wins; ties break to the most recently created
// asset. Matching is scoped per tenant.
func (s *IngestServiceImpl) findNearDuplicate(ctx context.Context, tenantID string, phash models.PerceptualHash) *models.Asset {
	candidates, err := s.catalog.ListAssetsByTenant(ctx, tenantID)
	if err != nil {
		logger.WarnWithContext(ctx, "Near-duplicate search failed, generating fresh renditions",
			zap.Error(err))
		return nil
	}

	threshold := s.config.Image.HammingThreshold
	var best *models.Asset
	bestDistance := threshold + 1

	for _, candidate := range candidates {
		if !phash.IsNearDuplicate(candidate.PerceptualHash, threshold) {
			continue
		}
		distance := phash.Distance(candidate.PerceptualHash)
		if distance < bestDistance {
			best = candidate
			bestDistance = distance
		} else if distance == bestDistance && best != nil && candidate.CreatedAt.After(best.CreatedAt) {
			best = candidate
		}
	}

	return best
}

// generateRenditions runs the renderer for every configured preset and
// writes the results to blob storage. Any failure removes the blobs
// already written in this attempt so a failed ingestion leaves nothing
// behind.
func (s *IngestServiceImpl) generateRenditions(ctx context.Context, asset *models.Asset, img image.Image) ([]models.Rendition, []string, error) {
	var renditions []models.Rendition
	var writtenKeys []string

	for _, preset := range s.config.SortedPresets() {
		data, err := s.renderer.Generate(img, preset)
		if err != nil {
			s.cleanupBlobs(ctx, writtenKeys)
			return nil, nil, err
		}

		key := models.RenditionStorageKey(asset.ContentHash, preset)
		contentType := "image/jpeg"
		if preset.Format == "png" {
			contentType = "image/png"
		}
		if err := s.storage.Put(ctx, key, data.Data, contentType); err != nil {
			s.cleanupBlobs(ctx, writtenKeys)
			return nil, nil, models.StorageError{
				Operation: "put_rendition",
				Backend:   "blob",
				Reason:    err.Error(),
			}
		}
		writtenKeys = append(writtenKeys, key)

		renditions = append(renditions, models.Rendition{
			ID:             uuid.New().String(),
			AssetID:        asset.ID,
			Preset:         preset.Name,
			StorageKey:     key,
			SizeBytes:      int64(len(data.Data)),
			Width:          data.Width,
			Height:         data.Height,
			Quality:        preset.Quality,
			PerceptualHash: s.hasher.PerceptualFingerprint(data.Image),
		})
	}

	return renditions, writtenKeys, nil
}

// compose loads an asset's renditions and returns the composed result
func (s *IngestServiceImpl) compose(ctx context.Context, tenant *models.Tenant, asset *models.Asset) (*models.AssetWithRenditions, error) {
	renditions, err := s.catalog.ListRenditions(ctx, asset.ID)
	if err != nil {
		return nil, models.StorageError{Operation: "list_renditions", Backend: "catalog", Reason: err.Error()}
	}
	return &models.AssetWithRenditions{
		Asset:      *asset,
		Tenant:     *tenant,
		Renditions: renditions,
	}, nil
}

// cleanupBlobs best-effort deletes blobs written during a failed attempt.
// Keys are content-addressed, so byte-identical content uploaded by
// another tenant lands on the same keys; a key still referenced by any
// catalog rendition is kept. The failed attempt persisted no rows of its
// own, so every surviving reference belongs to a live asset. If the
// reference check itself fails the blob is kept, trading a possible
// orphan for a dangling row.
func (s *IngestServiceImpl) cleanupBlobs(ctx context.Context, keys []string) {
	for _, key := range keys {
		refs, err := s.catalog.FindRenditionsByStorageKey(ctx, key)
		if err != nil {
			logger.WarnWithContext(ctx, "Blob reference check failed, keeping blob",
				zap.String("key", key),
				zap.Error(err))
			continue
		}
		if len(refs) > 0 {
			continue
		}
		if err := s.storage.Delete(ctx, key); err != nil {
			logger.WarnWithContext(ctx, "Failed to clean up blob after aborted ingestion",
				zap.String("key", key),
				zap.Error(err))
		}
	}
}

func isNotFound(err error) bool {
	var notFound models.NotFoundError
	return errors.As(err, &notFound)
}
