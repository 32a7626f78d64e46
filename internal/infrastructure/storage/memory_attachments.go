package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/chronoshop/backend/internal/application/consistency"
)

var _ consistency.AttachmentStore = (*MemoryAttachmentStore)(nil)

// MemoryAttachmentStore keeps attachments in process memory. Used when
// object storage is disabled and in tests.
type MemoryAttachmentStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	contentType string
	data        []byte
}

// NewMemoryAttachmentStore creates an empty store
func NewMemoryAttachmentStore() *MemoryAttachmentStore {
	return &MemoryAttachmentStore{objects: make(map[string]memoryObject)}
}

// Put stores a copy of body under key
func (m *MemoryAttachmentStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, body)
	if err != nil {
		return "", fmt.Errorf("failed to read attachment: %w", err)
	}
	if size >= 0 && n != size {
		return "", fmt.Errorf("attachment size mismatch: got %d bytes, want %d", n, size)
	}

	m.mu.Lock()
	m.objects[key] = memoryObject{contentType: contentType, data: buf.Bytes()}
	m.mu.Unlock()
	return key, nil
}

// Delete removes key. Missing keys are ignored.
func (m *MemoryAttachmentStore) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Get returns the stored bytes and content type
func (m *MemoryAttachmentStore) Get(key string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, "", false
	}
	return bytes.Clone(obj.data), obj.contentType, true
}

// Len returns the number of stored attachments
func (m *MemoryAttachmentStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
