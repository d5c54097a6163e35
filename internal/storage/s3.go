package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"renditr/internal/config"
	"renditr/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// S3Storage implements BlobStorage for AWS S3 and S3-compatible backends
// such as MinIO.
type S3Storage struct {
	client     *s3.Client
	downloader *manager.Downloader
	bucket     string
}

// NewS3Storage creates a new S3 storage instance and verifies connectivity.
func NewS3Storage(cfg *config.S3Config) (*S3Storage, error) {
	logger.Info("Initializing S3 storage",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("region", cfg.Region),
		zap.String("bucket", cfg.Bucket))

	awsConfig, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "https://s3.amazonaws.com" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO and custom endpoints
		}
	})

	downloader := manager.NewDownloader(client, func(d *manager.Downloader) {
		d.PartSize = 10 * 1024 * 1024
		d.Concurrency = 3
	})

	storage := &S3Storage{
		client:     client,
		downloader: downloader,
		bucket:     cfg.Bucket,
	}

	if err := storage.Health(context.Background()); err != nil {
		return nil, fmt.Errorf("S3 health check failed: %w", err)
	}

	logger.Info("S3 storage initialized successfully")
	return storage, nil
}

// Put stores a blob under the given key
func (s *S3Storage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	logger.DebugWithContext(ctx, "Putting blob to S3",
		zap.String("key", key),
		zap.Int("size", len(data)))

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	}

	// Renditions are content-addressed and immutable once written
	input.CacheControl = aws.String("public, max-age=31536000, immutable")

	if _, err := s.client.PutObject(ctx, input); err != nil {
		logger.ErrorWithContext(ctx, "Failed to put blob to S3",
			zap.String("key", key),
			zap.Error(err))
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}

	return nil
}

// Get retrieves a blob by key
func (s *S3Storage) Get(ctx context.Context, key string) ([]byte, error) {
	buf := manager.NewWriteAtBuffer([]byte{})

	_, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("object %s not found", key)
		}
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}

	return buf.Bytes(), nil
}

// Delete removes a blob. Deleting a missing key is not an error on S3.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	logger.DebugWithContext(ctx, "Deleting blob from S3", zap.String("key", key))

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}

	return nil
}

// Exists checks whether a blob exists
func (s *S3Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object %s: %w", key, err)
	}

	return true, nil
}

// Health checks bucket reachability
func (s *S3Storage) Health(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("S3 bucket %s is not accessible: %w", s.bucket, err)
	}
	return nil
}
