package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/princekumarofficial/screencast-service/internal/config"
)

type MinioStore struct {
	client     *minio.Client
	bucketName string
	publicBase string
}

// NewMinioStore creates a MinIO backed object store.
func NewMinioStore(cfg config.ObjectStorage) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	publicBase := cfg.PublicBaseURL
	if publicBase == "" {
		// path-style URL straight to the bucket
		publicBase = client.EndpointURL().String() + "/" + cfg.BucketName
	}

	return &MinioStore{
		client:     client,
		bucketName: cfg.BucketName,
		publicBase: publicBase,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return classifyMinio(fmt.Errorf("failed to check if bucket exists: %w", err))
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return classifyMinio(fmt.Errorf("failed to create bucket: %w", err))
		}
	}

	return nil
}

func (s *MinioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucketName, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return classifyMinio(err)
}

func (s *MinioStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	// GetObject is lazy, stat first so a missing key fails here
	if _, err := s.Stat(ctx, key); err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classifyMinio(err)
	}
	return obj, nil
}

func (s *MinioStore) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, s.bucketName, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, classifyMinio(err)
	}
	return ObjectInfo{
		Key:          info.Key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}, nil
}

// Remove removes an object from storage
func (s *MinioStore) Remove(ctx context.Context, key string) error {
	return classifyMinio(s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{}))
}

// PresignGet creates a presigned URL for downloading
func (s *MinioStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucketName, key, expiry, nil)
	if err != nil {
		return "", classifyMinio(err)
	}
	return u.String(), nil
}

// PublicURL returns the direct URL of key; it only resolves for public buckets or a CDN.
func (s *MinioStore) PublicURL(key string) string {
	return publicURL(s.publicBase, key)
}

func classifyMinio(err error) error {
	if err == nil {
		return nil
	}

	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey" || (resp.StatusCode == http.StatusNotFound && resp.Code != "NoSuchBucket"):
		return fmt.Errorf("%w: %v", ErrObjectNotFound, err)
	case resp.Code == "EntityTooLarge" || resp.Code == "QuotaExceeded" || resp.Code == "XMinioStorageFull" ||
		resp.Code == "XMinioAdminBucketQuotaExceeded" || resp.StatusCode == http.StatusRequestEntityTooLarge:
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}

	if errors.Is(err, ErrQuotaExceeded) || errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
