// Package memory keeps users and clips in process memory. It backs local runs
// without a database and the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/princekumarofficial/screencast-service/internal/storage"
	"github.com/princekumarofficial/screencast-service/internal/types"
	"github.com/princekumarofficial/screencast-service/internal/types/users"
)

type Store struct {
	mu      sync.Mutex
	users   map[string]users.User
	clips   map[string]types.Clip
	orphans map[string]types.Orphan
	now     func() time.Time
}

var _ storage.Storage = (*Store)(nil)

func New() *Store {
	return &Store{
		users:   make(map[string]users.User),
		clips:   make(map[string]types.Clip),
		orphans: make(map[string]types.Orphan),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) CreateUser(ctx context.Context, email, password string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(email)
	if _, ok := s.users[key]; ok {
		return "", storage.ErrDuplicateEmail
	}
	u := users.User{ID: uuid.NewString(), Email: email, Password: password, CreatedAt: s.now().Format(time.RFC3339)}
	s.users[key] = u
	return u.ID, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return users.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (s *Store) CreateClip(ctx context.Context, clip types.NewClip) (types.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.clips {
		if c.ShortID == clip.ShortID {
			return types.Clip{}, storage.ErrDuplicateShortID
		}
	}

	now := s.now()
	c := types.Clip{
		ID:               uuid.NewString(),
		ShortID:          clip.ShortID,
		OwnerID:          clip.OwnerID,
		Title:            clip.Title,
		StorageReference: clip.StorageReference,
		ContentType:      clip.ContentType,
		Size:             clip.Size,
		Visibility:       clip.Visibility,
		ProcessingStatus: clip.ProcessingStatus,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.clips[c.ID] = c
	return c, nil
}

func (s *Store) GetClip(ctx context.Context, id string) (types.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clips[id]
	if !ok {
		return types.Clip{}, storage.ErrNotFound
	}
	return c, nil
}

func (s *Store) GetClipByShortID(ctx context.Context, shortID string) (types.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.clips {
		if c.ShortID == shortID {
			return c, nil
		}
	}
	return types.Clip{}, storage.ErrNotFound
}

func (s *Store) ListClipsByOwner(ctx context.Context, ownerID string) ([]types.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []types.Clip
	for _, c := range s.clips {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateClip applies patch under the store lock, so the status check and the
// write are one step.
func (s *Store) UpdateClip(ctx context.Context, id string, patch types.ClipPatch) (types.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clips[id]
	if !ok {
		return types.Clip{}, storage.ErrNotFound
	}
	if patch.ProcessingStatus != nil && !c.ProcessingStatus.CanAdvanceTo(*patch.ProcessingStatus) {
		return types.Clip{}, storage.ErrInvalidTransition
	}

	if patch.Title != nil {
		c.Title = *patch.Title
	}
	if patch.Visibility != nil {
		c.Visibility = *patch.Visibility
	}
	if patch.StorageReference != nil {
		c.StorageReference = *patch.StorageReference
	}
	if patch.ProcessingStatus != nil {
		c.ProcessingStatus = *patch.ProcessingStatus
	}
	c.UpdatedAt = s.now()

	s.clips[id] = c
	return c, nil
}

func (s *Store) DeleteClip(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clips[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.clips, id)
	return nil
}

func (s *Store) TrackOrphan(ctx context.Context, objectKey, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orphans[objectKey]; ok {
		return nil
	}
	s.orphans[objectKey] = types.Orphan{ObjectKey: objectKey, Reason: reason, CreatedAt: s.now()}
	return nil
}

func (s *Store) ListOrphans(ctx context.Context, limit int) ([]types.Orphan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.Orphan, 0, len(s.orphans))
	for _, o := range s.orphans {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkOrphanAttempt(ctx context.Context, objectKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orphans[objectKey]
	if !ok {
		return storage.ErrNotFound
	}
	o.Attempts++
	s.orphans[objectKey] = o
	return nil
}

func (s *Store) ResolveOrphan(ctx context.Context, objectKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.orphans, objectKey)
	return nil
}
