// Package supabase implements storage.Storage on top of a Supabase project's
// PostgREST API using the service-role key. The schema is the one created by
// the postgres migrations.
package supabase

import (
	"context"
	"fmt"
	"strings"
	"time"

	postgrest "github.com/supabase-community/postgrest-go"
	"github.com/princekumarofficial/screencast-service/internal/config"
	"github.com/princekumarofficial/screencast-service/internal/storage"
	"github.com/princekumarofficial/screencast-service/internal/types"
	"github.com/princekumarofficial/screencast-service/internal/types/users"
)

const (
	usersTable   = "users"
	videosTable  = "videos"
	orphansTable = "orphaned_objects"
)

type Store struct {
	client *postgrest.Client
}

// NewStore builds a PostgREST client for cfg.Supabase.
func NewStore(cfg *config.Config) (*Store, error) {
	if err := cfg.Supabase.Validate(); err != nil {
		return nil, err
	}
	return NewStoreWithURL(strings.TrimRight(cfg.Supabase.URL, "/")+"/rest/v1", cfg.Supabase.Schema, cfg.Supabase.ServiceRoleKey)
}

// NewStoreWithURL talks to the PostgREST endpoint at restURL directly.
func NewStoreWithURL(restURL, schema, serviceKey string) (*Store, error) {
	client := postgrest.NewClient(restURL, schema, map[string]string{
		"apikey":        serviceKey,
		"Authorization": fmt.Sprintf("Bearer %s", serviceKey),
	})
	if client.ClientError != nil {
		return nil, fmt.Errorf("failed to initialize Supabase client: %w", client.ClientError)
	}
	return &Store{client: client}, nil
}

type userRow struct {
	ID        string `json:"id,omitempty"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	CreatedAt string `json:"created_at,omitempty"`
}

type orphanRow struct {
	ObjectKey     string     `json:"object_key"`
	Reason        string     `json:"reason"`
	Attempts      int        `json:"attempts"`
	CreatedAt     time.Time  `json:"created_at"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
}

func (s *Store) CreateUser(ctx context.Context, email, password string) (string, error) {
	var rows []userRow
	_, err := s.client.From(usersTable).
		Insert(userRow{Email: email, Password: password}, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		if isUniqueViolation(err) {
			return "", storage.ErrDuplicateEmail
		}
		return "", fmt.Errorf("failed to insert user: %w", err)
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("no user returned after insert")
	}
	return rows[0].ID, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (users.User, error) {
	var rows []userRow
	_, err := s.client.From(usersTable).
		Select("id,email,password,created_at", "", false).
		Eq("email", email).
		ExecuteTo(&rows)
	if err != nil {
		return users.User{}, fmt.Errorf("failed to fetch user: %w", err)
	}
	if len(rows) == 0 {
		return users.User{}, storage.ErrNotFound
	}
	r := rows[0]
	return users.User{ID: r.ID, Email: r.Email, Password: r.Password, CreatedAt: r.CreatedAt}, nil
}

func (s *Store) CreateClip(ctx context.Context, clip types.NewClip) (types.Clip, error) {
	record := map[string]interface{}{
		"short_id":          clip.ShortID,
		"user_id":           clip.OwnerID,
		"title":             clip.Title,
		"file_path":         clip.StorageReference,
		"content_type":      clip.ContentType,
		"size":              clip.Size,
		"visibility":        clip.Visibility,
		"processing_status": clip.ProcessingStatus,
	}

	var rows []types.Clip
	_, err := s.client.From(videosTable).
		Insert(record, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Clip{}, storage.ErrDuplicateShortID
		}
		return types.Clip{}, fmt.Errorf("failed to insert video: %w", err)
	}
	if len(rows) == 0 {
		return types.Clip{}, fmt.Errorf("no video returned after insert")
	}
	return rows[0], nil
}

func (s *Store) GetClip(ctx context.Context, id string) (types.Clip, error) {
	return s.getClipBy("id", id)
}

func (s *Store) GetClipByShortID(ctx context.Context, shortID string) (types.Clip, error) {
	return s.getClipBy("short_id", shortID)
}

func (s *Store) getClipBy(column, value string) (types.Clip, error) {
	var rows []types.Clip
	_, err := s.client.From(videosTable).
		Select("*", "", false).
		Eq(column, value).
		ExecuteTo(&rows)
	if err != nil {
		if isInvalidInput(err) {
			return types.Clip{}, storage.ErrNotFound
		}
		return types.Clip{}, fmt.Errorf("failed to fetch video: %w", err)
	}
	if len(rows) == 0 {
		return types.Clip{}, storage.ErrNotFound
	}
	return rows[0], nil
}

func (s *Store) ListClipsByOwner(ctx context.Context, ownerID string) ([]types.Clip, error) {
	rows := []types.Clip{}
	_, err := s.client.From(videosTable).
		Select("*", "", false).
		Eq("user_id", ownerID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	return rows, nil
}

func (s *Store) UpdateClip(ctx context.Context, id string, patch types.ClipPatch) (types.Clip, error) {
	if patch.Empty() {
		return s.GetClip(ctx, id)
	}

	updateData := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if patch.Title != nil {
		updateData["title"] = *patch.Title
	}
	if patch.Visibility != nil {
		updateData["visibility"] = *patch.Visibility
	}
	if patch.StorageReference != nil {
		updateData["file_path"] = *patch.StorageReference
	}
	if patch.ProcessingStatus != nil {
		updateData["processing_status"] = *patch.ProcessingStatus
	}

	// the body is marshalled by Update, so every field must be set before
	query := s.client.From(videosTable).
		Update(updateData, "representation", "").
		Eq("id", id)

	if patch.ProcessingStatus != nil {
		query = query.In("processing_status", statusStrings(patch.ProcessingStatus.Predecessors()))
	}

	var rows []types.Clip
	if _, err := query.ExecuteTo(&rows); err != nil {
		if isInvalidInput(err) {
			return types.Clip{}, storage.ErrNotFound
		}
		return types.Clip{}, fmt.Errorf("failed to update video %s: %w", id, err)
	}
	if len(rows) > 0 {
		return rows[0], nil
	}

	if _, err := s.GetClip(ctx, id); err != nil {
		return types.Clip{}, err
	}
	return types.Clip{}, storage.ErrInvalidTransition
}

func (s *Store) DeleteClip(ctx context.Context, id string) error {
	var rows []types.Clip
	_, err := s.client.From(videosTable).
		Delete("representation", "").
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		if isInvalidInput(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("failed to delete video %s: %w", id, err)
	}
	if len(rows) == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) TrackOrphan(ctx context.Context, objectKey, reason string) error {
	_, _, err := s.client.From(orphansTable).
		Insert(map[string]interface{}{"object_key": objectKey, "reason": reason}, true, "object_key", "minimal", "").
		Execute()
	return err
}

func (s *Store) ListOrphans(ctx context.Context, limit int) ([]types.Orphan, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []orphanRow
	_, err := s.client.From(orphansTable).
		Select("object_key,reason,attempts,created_at", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		Limit(limit, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list orphaned objects: %w", err)
	}

	orphans := make([]types.Orphan, 0, len(rows))
	for _, r := range rows {
		orphans = append(orphans, types.Orphan{ObjectKey: r.ObjectKey, Reason: r.Reason, Attempts: r.Attempts, CreatedAt: r.CreatedAt})
	}
	return orphans, nil
}

// MarkOrphanAttempt bumps the attempt counter. PostgREST cannot increment in
// place, so this reads the row first; lost increments only affect reporting.
func (s *Store) MarkOrphanAttempt(ctx context.Context, objectKey string) error {
	var rows []orphanRow
	_, err := s.client.From(orphansTable).
		Select("object_key,attempts", "", false).
		Eq("object_key", objectKey).
		ExecuteTo(&rows)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return storage.ErrNotFound
	}

	_, _, err = s.client.From(orphansTable).
		Update(map[string]interface{}{"attempts": rows[0].Attempts + 1, "last_attempt_at": time.Now().UTC()}, "minimal", "").
		Eq("object_key", objectKey).
		Execute()
	return err
}

func (s *Store) ResolveOrphan(ctx context.Context, objectKey string) error {
	_, _, err := s.client.From(orphansTable).
		Delete("minimal", "").
		Eq("object_key", objectKey).
		Execute()
	return err
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "23505") || strings.Contains(err.Error(), "duplicate key")
}

func isInvalidInput(err error) bool {
	return strings.Contains(err.Error(), "22P02")
}

func statusStrings(statuses []types.ProcessingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

var _ storage.Storage = (*Store)(nil)
