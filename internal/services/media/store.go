package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/princekumarofficial/screencast-service/internal/config"
)

var (
	// ErrStorageUnavailable covers transport and credential failures.
	ErrStorageUnavailable = errors.New("object storage unavailable")
	// ErrQuotaExceeded is returned when the clip is too large for the bucket.
	ErrQuotaExceeded      = errors.New("object storage quota exceeded")
	ErrObjectNotFound     = errors.New("object not found")
)

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// ObjectStore is the blob backend behind the upload client. Implementations
// classify failures as ErrStorageUnavailable, ErrQuotaExceeded or ErrObjectNotFound.
type ObjectStore interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	Remove(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	PublicURL(key string) string
}

// NewObjectStore builds the backend selected by cfg.ObjectStorage.Driver and
// makes sure its bucket exists.
func NewObjectStore(ctx context.Context, cfg *config.Config) (ObjectStore, error) {
	var (
		store ObjectStore
		err   error
	)

	switch strings.ToLower(cfg.ObjectStorage.Driver) {
	case "", "minio":
		store, err = NewMinioStore(cfg.ObjectStorage)
	case "s3":
		store, err = NewS3Store(ctx, cfg.ObjectStorage)
	case "memory":
		store = NewMemoryStore("http://localhost/" + cfg.ObjectStorage.BucketName)
	default:
		return nil, fmt.Errorf("unknown object storage driver %q", cfg.ObjectStorage.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := store.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}
	return store, nil
}

func publicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
