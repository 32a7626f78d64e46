package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/chronoshop/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewS3AttachmentStore_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3AttachmentStore(ctx, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		_, err := NewS3AttachmentStore(ctx, &config.StorageConfig{AccessKey: "k", SecretKey: "s"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing credentials returns error", func(t *testing.T) {
		_, err := NewS3AttachmentStore(ctx, &config.StorageConfig{Bucket: "b", AccessKey: "k"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "credentials are required")
	})

	t.Run("valid config creates store", func(t *testing.T) {
		store, err := NewS3AttachmentStore(ctx, &config.StorageConfig{
			Bucket:       "attachments",
			AccessKey:    "k",
			SecretKey:    "s",
			Endpoint:     "localhost:9000",
			UsePathStyle: true,
			Prefix:       "/shop/",
		}, WithLogger(zap.NewNop()))
		require.NoError(t, err)
		assert.Equal(t, "attachments", store.Bucket())
		assert.Equal(t, "shop/services/1/a.png", store.objectKey("services/1/a.png"))
	})
}

func TestNormalizeEndpoint(t *testing.T) {
	got, err := normalizeEndpoint("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", got)

	got, err = normalizeEndpoint("s3.example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://s3.example.com", got)

	got, err = normalizeEndpoint("http://minio:9000")
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000", got)
}

func TestS3AttachmentStore_EmptyKey(t *testing.T) {
	store, err := NewS3AttachmentStore(context.Background(), &config.StorageConfig{
		Bucket: "b", AccessKey: "k", SecretKey: "s",
	})
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "", "image/png", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, ErrEmptyKey)
	assert.ErrorIs(t, store.Delete(context.Background(), ""), ErrEmptyKey)
}

func TestMemoryAttachmentStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAttachmentStore()

	key, err := store.Put(ctx, "services/7/photo.jpg", "image/jpeg", strings.NewReader("jpeg-bytes"), 10)
	require.NoError(t, err)
	assert.Equal(t, "services/7/photo.jpg", key)
	assert.Equal(t, 1, store.Len())

	data, contentType, ok := store.Get(key)
	require.True(t, ok)
	assert.Equal(t, "jpeg-bytes", string(data))
	assert.Equal(t, "image/jpeg", contentType)

	require.NoError(t, store.Delete(ctx, key))
	_, _, ok = store.Get(key)
	assert.False(t, ok)
	require.NoError(t, store.Delete(ctx, key))
}

func TestMemoryAttachmentStore_SizeMismatch(t *testing.T) {
	store := NewMemoryAttachmentStore()
	_, err := store.Put(context.Background(), "k", "text/plain", strings.NewReader("abc"), 5)
	require.Error(t, err)
	assert.Zero(t, store.Len())
}

func TestMemoryAttachmentStore_CancelledContext(t *testing.T) {
	store := NewMemoryAttachmentStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.Put(ctx, "k", "text/plain", strings.NewReader("abc"), 3)
	assert.ErrorIs(t, err, context.Canceled)
}
