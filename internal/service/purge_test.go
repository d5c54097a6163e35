package service

import (
	"context"
	"testing"

	"renditr/internal/models"
	"renditr/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type purgeFixture struct {
	catalog *testutil.MemoryCatalog
	storage *testutil.MemoryBlobStorage
	ingest  IngestService
	purge   PurgeService
}

func newPurgeFixture(t *testing.T) *purgeFixture {
	t.Helper()

	catalog := testutil.NewMemoryCatalog()
	blobStorage := testutil.NewMemoryBlobStorage()
	renderer, err := NewRendererService("#FFFFFF")
	require.NoError(t, err)
	cfg := testutil.TestConfig()

	return &purgeFixture{
		catalog: catalog,
		storage: blobStorage,
		ingest:  NewIngestService(catalog, blobStorage, NewHasherService(), renderer, cfg),
		purge:   NewPurgeService(catalog, blobStorage, cfg),
	}
}

func TestPurgeService_DryRun(t *testing.T) {
	f := newPurgeFixture(t)
	ctx := context.Background()

	data := testutil.EncodePNG(t, testutil.LeftRightImage(300, 200))
	created, err := f.ingest.Ingest(ctx, IngestInput{Tenant: "acme", Filename: "a.png", Data: data})
	require.NoError(t, err)

	result, err := f.purge.Purge(ctx, models.PurgeRequest{DryRun: true})
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Equal(t, []string{created.Asset.ContentHash}, result.Candidates)
	assert.Equal(t, 0, result.DeletedCount)

	// Nothing was touched
	_, err = f.catalog.GetAsset(ctx, created.Asset.ID)
	assert.NoError(t, err)
	assert.Equal(t, 3, f.storage.Len())
}

func TestPurgeService_RequiresConfirmToken(t *testing.T) {
	f := newPurgeFixture(t)
	ctx := context.Background()

	data := testutil.EncodePNG(t, testutil.LeftRightImage(300, 200))
	created, err := f.ingest.Ingest(ctx, IngestInput{Tenant: "acme", Filename: "a.png", Data: data})
	require.NoError(t, err)

	t.Run("missing_token", func(t *testing.T) {
		_, err := f.purge.Purge(ctx, models.PurgeRequest{})
		assert.IsType(t, models.UnauthorizedError{}, err)
	})

	t.Run("wrong_token", func(t *testing.T) {
		_, err := f.purge.Purge(ctx, models.PurgeRequest{ConfirmToken: "PLEASE"})
		assert.IsType(t, models.UnauthorizedError{}, err)
	})

	// A rejected purge deletes nothing
	_, err = f.catalog.GetAsset(ctx, created.Asset.ID)
	assert.NoError(t, err)
	assert.Equal(t, 3, f.storage.Len())
}

func TestPurgeService_DeletesUnusedAssets(t *testing.T) {
	f := newPurgeFixture(t)
	ctx := context.Background()

	unused, err := f.ingest.Ingest(ctx, IngestInput{Tenant: "acme", Filename: "unused.png",
		Data: testutil.EncodePNG(t, testutil.LeftRightImage(300, 200))})
	require.NoError(t, err)

	used, err := f.ingest.Ingest(ctx, IngestInput{Tenant: "acme", Filename: "used.png",
		Data: testutil.EncodePNG(t, testutil.TopBottomImage(300, 200))})
	require.NoError(t, err)

	_, err = f.ingest.MarkInUse(ctx, used.Asset.ID)
	require.NoError(t, err)

	result, err := f.purge.Purge(ctx, models.PurgeRequest{ConfirmToken: "DELETE_CONFIRMED"})
	require.NoError(t, err)

	assert.False(t, result.DryRun)
	assert.Equal(t, 1, result.DeletedCount)
	assert.Equal(t, []string{unused.Asset.ContentHash}, result.Candidates)

	// Unused asset is gone, rows and blobs both
	_, err = f.catalog.GetAsset(ctx, unused.Asset.ID)
	assert.IsType(t, models.NotFoundError{}, err)
	assert.Equal(t, 3, f.storage.Len())

	// In-use asset untouched
	got, err := f.catalog.GetAsset(ctx, used.Asset.ID)
	require.NoError(t, err)
	assert.Equal(t, used.Asset.ID, got.ID)
}

func TestPurgeService_KeepsBlobsSharedWithLiveAssets(t *testing.T) {
	f := newPurgeFixture(t)
	ctx := context.Background()

	// Near-duplicate pair sharing rendition blobs
	first, err := f.ingest.Ingest(ctx, IngestInput{Tenant: "acme", Filename: "big.png",
		Data: testutil.EncodePNG(t, testutil.LeftRightImage(800, 600))})
	require.NoError(t, err)

	second, err := f.ingest.Ingest(ctx, IngestInput{Tenant: "acme", Filename: "small.png",
		Data: testutil.EncodePNG(t, testutil.LeftRightImage(400, 300))})
	require.NoError(t, err)
	require.Equal(t, 3, f.storage.Len())

	// The sharing asset stays alive
	_, err = f.ingest.MarkInUse(ctx, second.Asset.ID)
	require.NoError(t, err)

	result, err := f.purge.Purge(ctx, models.PurgeRequest{ConfirmToken: "DELETE_CONFIRMED"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.DeletedCount)

	// First asset's rows are gone but the shared blobs survive
	_, err = f.catalog.GetAsset(ctx, first.Asset.ID)
	assert.IsType(t, models.NotFoundError{}, err)
	assert.Equal(t, 3, f.storage.Len())

	renditions, err := f.catalog.ListRenditions(ctx, second.Asset.ID)
	require.NoError(t, err)
	for _, r := range renditions {
		exists, err := f.storage.Exists(ctx, r.StorageKey)
		require.NoError(t, err)
		assert.True(t, exists, "shared blob %s must survive", r.StorageKey)
	}
}

func TestPurgeService_EmptyCatalog(t *testing.T) {
	f := newPurgeFixture(t)

	result, err := f.purge.Purge(context.Background(), models.PurgeRequest{ConfirmToken: "DELETE_CONFIRMED"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.DeletedCount)
	assert.Empty(t, result.Candidates)
}
