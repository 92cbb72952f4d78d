package storage

import (
	"context"
	"errors"

	"github.com/princekumarofficial/screencast-service/internal/types"
	"github.com/princekumarofficial/screencast-service/internal/types/users"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateShortID  = errors.New("short id already taken")
	ErrInvalidTransition = errors.New("processing status cannot move backwards")
)

// Storage persists users, clip records and orphaned storage objects.
// Implementations must apply ClipPatch.ProcessingStatus atomically with the
// forward-only check so concurrent updates cannot regress a record.
type Storage interface {
	CreateUser(ctx context.Context, email, password string) (string, error)
	GetUserByEmail(ctx context.Context, email string) (users.User, error)

	CreateClip(ctx context.Context, clip types.NewClip) (types.Clip, error)
	GetClip(ctx context.Context, id string) (types.Clip, error)
	GetClipByShortID(ctx context.Context, shortID string) (types.Clip, error)
	ListClipsByOwner(ctx context.Context, ownerID string) ([]types.Clip, error)
	UpdateClip(ctx context.Context, id string, patch types.ClipPatch) (types.Clip, error)
	DeleteClip(ctx context.Context, id string) error

	TrackOrphan(ctx context.Context, objectKey, reason string) error
	ListOrphans(ctx context.Context, limit int) ([]types.Orphan, error)
	MarkOrphanAttempt(ctx context.Context, objectKey string) error
	ResolveOrphan(ctx context.Context, objectKey string) error
}
