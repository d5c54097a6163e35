package models

import "fmt"

// Custom error types for the ingestion pipeline error taxonomy
type (
	// InvalidImageError indicates the uploaded bytes are not a decodable image
	InvalidImageError struct {
		Reason string `json:"reason"`
	}

	// PayloadTooLargeError indicates the upload exceeds the configured limit
	PayloadTooLargeError struct {
		Size    int64 `json:"size"`
		MaxSize int64 `json:"max_size"`
	}

	// DecodeError indicates a codec failure while decoding mid-pipeline
	DecodeError struct {
		Reason string `json:"reason"`
	}

	// EncodeError indicates a codec failure while re-encoding a rendition
	EncodeError struct {
		Preset string `json:"preset"`
		Reason string `json:"reason"`
	}

	// StorageError represents a blob storage operation failure
	StorageError struct {
		Operation string `json:"operation"`
		Backend   string `json:"backend"`
		Reason    string `json:"reason"`
	}

	// UnauthorizedError indicates a purge confirm-token mismatch
	UnauthorizedError struct {
		Reason string `json:"reason"`
	}

	// NotFoundError represents a resource not found error
	NotFoundError struct {
		Resource string `json:"resource"`
		ID       string `json:"id"`
	}

	// DuplicateContentHashError signals a uniqueness-constraint violation on
	// (tenant, content hash). It is an internal retry signal: the ingestion
	// orchestrator resolves it by re-fetching the winning asset and it is
	// never surfaced to API callers.
	DuplicateContentHashError struct {
		TenantID    string `json:"tenant_id"`
		ContentHash string `json:"content_hash"`
	}
)

func (e InvalidImageError) Error() string {
	return fmt.Sprintf("invalid image: %s", e.Reason)
}

func (e PayloadTooLargeError) Error() string {
	return fmt.Sprintf("payload size %d bytes exceeds maximum of %d bytes", e.Size, e.MaxSize)
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("decode error: %s", e.Reason)
}

func (e EncodeError) Error() string {
	return fmt.Sprintf("encode error for preset '%s': %s", e.Preset, e.Reason)
}

func (e StorageError) Error() string {
	return fmt.Sprintf("storage error during %s on %s: %s", e.Operation, e.Backend, e.Reason)
}

func (e UnauthorizedError) Error() string {
	return fmt.Sprintf("unauthorized: %s", e.Reason)
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
}

func (e DuplicateContentHashError) Error() string {
	return fmt.Sprintf("asset with content hash '%s' already exists for tenant '%s'",
		e.ContentHash, e.TenantID)
}
