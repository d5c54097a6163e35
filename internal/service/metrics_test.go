package service

import (
	"context"
	"testing"

	"renditr/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsService_Collect(t *testing.T) {
	catalog := testutil.NewMemoryCatalog()
	blobStorage := testutil.NewMemoryBlobStorage()
	renderer, err := NewRendererService("#FFFFFF")
	require.NoError(t, err)
	cfg := testutil.TestConfig()

	ingest := NewIngestService(catalog, blobStorage, NewHasherService(), renderer, cfg)
	metrics := NewMetricsService(catalog)
	ctx := context.Background()

	t.Run("empty_catalog", func(t *testing.T) {
		result, err := metrics.Collect(ctx)
		require.NoError(t, err)
		assert.Empty(t, result.AssetCountByTenant)
		assert.Empty(t, result.BytesByPreset)
	})

	_, err = ingest.Ingest(ctx, IngestInput{Tenant: "acme", Filename: "a.png",
		Data: testutil.EncodePNG(t, testutil.LeftRightImage(300, 200))})
	require.NoError(t, err)

	_, err = ingest.Ingest(ctx, IngestInput{Tenant: "acme", Filename: "b.png",
		Data: testutil.EncodePNG(t, testutil.TopBottomImage(300, 200))})
	require.NoError(t, err)

	_, err = ingest.Ingest(ctx, IngestInput{Tenant: "globex", Filename: "c.png",
		Data: testutil.EncodePNG(t, testutil.LeftRightImage(500, 500))})
	require.NoError(t, err)

	result, err := metrics.Collect(ctx)
	require.NoError(t, err)

	t.Run("asset_counts_per_tenant", func(t *testing.T) {
		assert.Equal(t, int64(2), result.AssetCountByTenant["acme"])
		assert.Equal(t, int64(1), result.AssetCountByTenant["globex"])
	})

	t.Run("bytes_per_preset", func(t *testing.T) {
		renditions, err := catalog.SumRenditionBytesByPreset(ctx)
		require.NoError(t, err)
		assert.Equal(t, renditions, result.BytesByPreset)

		for _, preset := range []string{"card", "thumb", "zoom"} {
			assert.Positive(t, result.BytesByPreset[preset], preset)
		}
	})
}
