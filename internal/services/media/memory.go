package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"
)

// MemoryStore is an in-process ObjectStore for local runs and tests.
type MemoryStore struct {
	mu         sync.RWMutex
	objects    map[string]memoryObject
	publicBase string
	now        func() time.Time

	// Limit rejects objects larger than this many bytes when positive.
	Limit int64
}

type memoryObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

func NewMemoryStore(publicBase string) *MemoryStore {
	return &MemoryStore{
		objects:    make(map[string]memoryObject),
		publicBase: publicBase,
		now:        time.Now,
	}
}

func (s *MemoryStore) EnsureBucket(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if s.Limit > 0 && size > s.Limit {
		return fmt.Errorf("%w: %d bytes over limit of %d", ErrQuotaExceeded, size, s.Limit)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memoryObject{data: data, contentType: contentType, modified: s.now()}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *MemoryStore) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return ObjectInfo{}, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	return ObjectInfo{
		Key:          key,
		Size:         int64(len(obj.data)),
		ContentType:  obj.contentType,
		LastModified: obj.modified,
	}, nil
}

// Remove is idempotent, like S3 DeleteObject.
func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *MemoryStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if _, err := s.Stat(ctx, key); err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("expires", s.now().Add(expiry).UTC().Format(time.RFC3339))
	return s.PublicURL(key) + "?" + q.Encode(), nil
}

func (s *MemoryStore) PublicURL(key string) string {
	return publicURL(s.publicBase, key)
}

// Keys lists the stored object keys.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	return keys
}
