// Package storage provides object storage for service completion attachments.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/chronoshop/backend/internal/application/consistency"
	infraconfig "github.com/chronoshop/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

var _ consistency.AttachmentStore = (*S3AttachmentStore)(nil)

// ErrEmptyKey is returned when an attachment key is blank
var ErrEmptyKey = errors.New("attachment key is required")

// S3AttachmentStore stores attachments in any S3-compatible bucket
// (AWS S3, MinIO, RustFS).
type S3AttachmentStore struct {
	client *s3.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// S3Option configures an S3AttachmentStore
type S3Option func(*S3AttachmentStore)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) S3Option {
	return func(s *S3AttachmentStore) {
		s.logger = logger
	}
}

// NewS3AttachmentStore builds a store from the storage configuration
func NewS3AttachmentStore(ctx context.Context, cfg *infraconfig.StorageConfig, opts ...S3Option) (*S3AttachmentStore, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("storage credentials are required")
	}

	endpoint, err := normalizeEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})

	store := &S3AttachmentStore{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

func normalizeEndpoint(endpoint string) (string, error) {
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	if _, err := url.Parse(endpoint); err != nil {
		return "", fmt.Errorf("invalid storage endpoint: %w", err)
	}
	return endpoint, nil
}

// EnsureBucket creates the bucket when it does not exist yet
func (s *S3AttachmentStore) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating attachment bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Put uploads the attachment and returns its full object key
func (s *S3AttachmentStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	objectKey := s.objectKey(key)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(objectKey),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload attachment: %w", err)
	}

	s.logger.Debug("Attachment uploaded",
		zap.String("key", objectKey),
		zap.Int64("size", size),
	)
	return objectKey, nil
}

// Delete removes a previously stored attachment. Keys returned by Put are
// already prefixed.
func (s *S3AttachmentStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	return nil
}

// Bucket returns the bucket name
func (s *S3AttachmentStore) Bucket() string {
	return s.bucket
}

func (s *S3AttachmentStore) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}
