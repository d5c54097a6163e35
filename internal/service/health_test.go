package service

import (
	"context"
	"testing"

	"renditr/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthService_CheckHealth(t *testing.T) {
	catalog := testutil.NewMemoryCatalog()
	blobStorage := testutil.NewMemoryBlobStorage()

	health := NewHealthService(catalog, blobStorage, "test-version")

	status, err := health.CheckHealth(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "healthy", status.Services["catalog"])
	assert.Equal(t, "healthy", status.Services["storage"])
	assert.Equal(t, "test-version", status.Version)
	assert.GreaterOrEqual(t, status.Uptime, int64(0))
}
