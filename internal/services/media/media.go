package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/princekumarofficial/screencast-service/internal/apperr"
	"github.com/princekumarofficial/screencast-service/internal/config"
)

var (
	ErrEmptyBlob          = errors.New("clip is empty")
	ErrContentTypeInvalid = errors.New("content type not allowed")
	ErrOwnerMissing       = errors.New("owner id is required")
)

// Blob is a finalized recording handed to the upload client.
type Blob struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

// Reference locates an uploaded clip. Key is relative to the bucket and is
// what gets stored on the record.
type Reference struct {
	Key         string
	ContentType string
	Size        int64
}

type Service struct {
	store  ObjectStore
	config config.Media
	now    func() time.Time
}

func NewService(store ObjectStore, cfg config.Media) *Service {
	return &Service{
		store:  store,
		config: cfg,
		now:    time.Now,
	}
}

// Store exposes the underlying object store.
func (s *Service) Store() ObjectStore {
	return s.store
}

// ValidateContentType checks the base media type against the allow list.
func (s *Service) ValidateContentType(contentType string) bool {
	base := BaseType(contentType)
	if base == "" {
		return false
	}
	for _, allowedType := range s.config.AllowedMimeTypes {
		if strings.EqualFold(strings.TrimSpace(allowedType), base) {
			return true
		}
	}
	return false
}

// Upload writes blob under the owner's namespace and returns its reference.
// Nothing is retried here.
func (s *Service) Upload(ctx context.Context, ownerID string, blob Blob, suggestedName string) (Reference, error) {
	const op = "media.Upload"

	if strings.TrimSpace(ownerID) == "" {
		return Reference{}, apperr.E(apperr.KindUnauthorized, op, ErrOwnerMissing)
	}
	if blob.Reader == nil || blob.Size == 0 {
		return Reference{}, apperr.Validation(op, ErrEmptyBlob)
	}
	if !s.ValidateContentType(blob.ContentType) {
		return Reference{}, apperr.Validation(op, fmt.Errorf("%w: %s", ErrContentTypeInvalid, blob.ContentType))
	}
	if s.config.MaxFileSize > 0 && blob.Size > s.config.MaxFileSize {
		return Reference{}, apperr.E(apperr.KindTooLarge, op,
			fmt.Errorf("%w: %d bytes exceeds %d", ErrQuotaExceeded, blob.Size, s.config.MaxFileSize))
	}

	key := s.GenerateObjectKey(ownerID, blob.ContentType, suggestedName)
	if err := s.store.Put(ctx, key, blob.Reader, blob.Size, blob.ContentType); err != nil {
		return Reference{}, apperr.Storage(op, err)
	}

	return Reference{Key: key, ContentType: blob.ContentType, Size: blob.Size}, nil
}

// Download opens the object behind key.
func (s *Service) Download(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	info, err := s.store.Stat(ctx, key)
	if err != nil {
		return nil, ObjectInfo{}, apperr.Storage("media.Download", err)
	}
	rc, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, ObjectInfo{}, apperr.Storage("media.Download", err)
	}
	return rc, info, nil
}

// Remove deletes the object behind key.
func (s *Service) Remove(ctx context.Context, key string) error {
	return apperr.Storage("media.Remove", s.store.Remove(ctx, key))
}

// PublicURL returns the durable link for key. Callers check visibility first.
func (s *Service) PublicURL(key string) string {
	return s.store.PublicURL(key)
}

// SignedURL returns a link to key that expires after the configured TTL.
func (s *Service) SignedURL(ctx context.Context, key string) (string, time.Time, error) {
	ttl := s.PresignTTL()
	u, err := s.store.PresignGet(ctx, key, ttl)
	if err != nil {
		return "", time.Time{}, apperr.Storage("media.SignedURL", err)
	}
	return u, s.now().Add(ttl), nil
}

func (s *Service) PresignTTL() time.Duration {
	if s.config.PresignedURLTTL <= 0 {
		return time.Hour
	}
	return time.Duration(s.config.PresignedURLTTL) * time.Second
}

// GenerateObjectKey builds users/<owner>/clips/<millis>-<token>-<name><ext>.
func (s *Service) GenerateObjectKey(ownerID, contentType, suggestedName string) string {
	stamp := strconv.FormatInt(s.now().UnixMilli(), 10)
	token := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]

	name := slug(strings.TrimSuffix(suggestedName, path.Ext(suggestedName)))
	filename := stamp + "-" + token
	if name != "" {
		filename += "-" + name
	}

	return fmt.Sprintf("%s%s%s", OwnerPrefix(ownerID), filename, extensionFor(contentType))
}

// CompressedKey is where the transcoded variant of a clip is written.
func CompressedKey(ownerID, clipID string) string {
	return OwnerPrefix(ownerID) + "compressed-" + clipID + ".mp4"
}

// OwnerPrefix is the namespace holding every clip object of one owner.
func OwnerPrefix(ownerID string) string {
	return fmt.Sprintf("users/%s/clips/", ownerID)
}

// OwnsKey reports whether key lives in ownerID's namespace.
func OwnsKey(ownerID, key string) bool {
	return ownerID != "" && strings.HasPrefix(key, OwnerPrefix(ownerID))
}

// BaseType strips parameters from a content type. Recorders send values like
// video/webm;codecs=vp9,opus that mime.ParseMediaType rejects.
func BaseType(contentType string) string {
	base, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

func extensionFor(contentType string) string {
	base := BaseType(contentType)

	switch base {
	case "video/webm":
		return ".webm"
	case "video/mp4":
		return ".mp4"
	case "video/x-matroska":
		return ".mkv"
	}

	extensions, err := mime.ExtensionsByType(base)
	if err == nil && len(extensions) > 0 {
		return extensions[0]
	}
	return ""
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(name string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if len(s) > 48 {
		s = strings.TrimRight(s[:48], "-")
	}
	return s
}
