package storage

import "context"

// BlobStorage is the capability interface the ingestion pipeline uses to
// durably store rendition blobs. Keys are opaque to the backend but are
// derived from (content hash, preset) by the caller so writes are
// idempotent. The concrete implementation is selected once at startup
// and injected; the core never branches on backend type.
type BlobStorage interface {
	// Put stores a blob under the given key, overwriting any existing blob
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get retrieves a blob by key
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks whether a blob exists
	Exists(ctx context.Context, key string) (bool, error)

	// Health checks storage backend health
	Health(ctx context.Context) error
}
