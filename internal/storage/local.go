package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"renditr/pkg/logger"

	"go.uber.org/zap"
)

// LocalStorage implements BlobStorage on the local filesystem. Intended
// for development and single-node deployments.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage creates a filesystem-backed blob storage rooted at baseDir.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	logger.Info("Initializing local blob storage", zap.String("directory", baseDir))

	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{baseDir: baseDir}, nil
}

// fullPath resolves a key inside the base directory, rejecting traversal.
func (l *LocalStorage) fullPath(key string) (string, error) {
	cleaned := filepath.Clean(strings.TrimPrefix(key, "/"))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(l.baseDir, cleaned), nil
}

// Put stores a blob under the given key
func (l *LocalStorage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	path, err := l.fullPath(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	// Write to a temp file then rename so readers never see partial blobs
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", key, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write blob %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close blob %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to finalize blob %s: %w", key, err)
	}

	logger.DebugWithContext(ctx, "Blob written to local storage",
		zap.String("key", key),
		zap.Int("size", len(data)))

	return nil
}

// Get retrieves a blob by key
func (l *LocalStorage) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := l.fullPath(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("object %s not found", key)
		}
		return nil, fmt.Errorf("failed to read blob %s: %w", key, err)
	}

	return data, nil
}

// Delete removes a blob. Deleting a missing key is not an error.
func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	path, err := l.fullPath(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}

	return nil
}

// Exists checks whether a blob exists
func (l *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	path, err := l.fullPath(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat blob %s: %w", key, err)
	}

	return true, nil
}

// Health checks that the base directory is accessible
func (l *LocalStorage) Health(ctx context.Context) error {
	info, err := os.Stat(l.baseDir)
	if err != nil {
		return fmt.Errorf("storage directory %s is not accessible: %w", l.baseDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage path %s is not a directory", l.baseDir)
	}
	return nil
}
