// Package clips is the metadata accessor for clip records. It enforces
// ownership and the forward-only processing status on top of storage.Storage.
package clips

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/princekumarofficial/screencast-service/internal/apperr"
	"github.com/princekumarofficial/screencast-service/internal/services/media"
	"github.com/princekumarofficial/screencast-service/internal/storage"
	"github.com/princekumarofficial/screencast-service/internal/types"
)

const (
	shortIDLength   = 8
	shortIDAttempts = 5
	maxTitleLength  = 200
)

var (
	ErrOwnerMissing      = errors.New("you must be logged in")
	ErrTitleMissing      = errors.New("title is required")
	ErrTitleTooLong      = errors.New("title is too long")
	ErrVisibilityInvalid = errors.New("visibility must be private, unlisted or public")
	ErrStatusInvalid     = errors.New("unknown processing status")
	ErrNotOwner          = errors.New("you do not own this video")
	ErrClipNotFound      = errors.New("video not found")
	ErrReferenceMissing  = errors.New("storage reference is required")
	ErrNothingToUpdate   = errors.New("nothing to update")
)

type Service struct {
	store  storage.Storage
	media  *media.Service
	logger *slog.Logger
}

func NewService(store storage.Storage, mediaService *media.Service, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		media:  mediaService,
		logger: logger,
	}
}

// CreateInput describes a clip whose bytes are already in object storage.
type CreateInput struct {
	OwnerID    string
	Title      string
	Reference  media.Reference
	Visibility types.Visibility
}

// Create inserts a record for an uploaded object. The record starts pending
// and private unless a visibility is given.
func (s *Service) Create(ctx context.Context, in CreateInput) (types.Clip, error) {
	const op = "clips.Create"

	if strings.TrimSpace(in.OwnerID) == "" {
		return types.Clip{}, apperr.E(apperr.KindUnauthorized, op, ErrOwnerMissing)
	}
	title, err := normalizeTitle(in.Title)
	if err != nil {
		return types.Clip{}, apperr.Validation(op, err)
	}
	if in.Reference.Key == "" {
		return types.Clip{}, apperr.Validation(op, ErrReferenceMissing)
	}
	visibility := in.Visibility
	if visibility == "" {
		visibility = types.VisibilityPrivate
	}
	if !visibility.Valid() {
		return types.Clip{}, apperr.Validation(op, ErrVisibilityInvalid)
	}

	record := types.NewClip{
		OwnerID:          in.OwnerID,
		Title:            title,
		StorageReference: in.Reference.Key,
		ContentType:      in.Reference.ContentType,
		Size:             in.Reference.Size,
		Visibility:       visibility,
		ProcessingStatus: types.StatusPending,
	}

	for attempt := 0; attempt < shortIDAttempts; attempt++ {
		record.ShortID = newShortID()
		clip, err := s.store.CreateClip(ctx, record)
		if errors.Is(err, storage.ErrDuplicateShortID) {
			s.logger.Warn("short id collision", slog.String("short_id", record.ShortID))
			continue
		}
		if err != nil {
			return types.Clip{}, apperr.Database(op, err)
		}

		s.logger.Info("clip created",
			slog.String("clip_id", clip.ID),
			slog.String("owner_id", clip.OwnerID),
			slog.String("file_path", clip.StorageReference),
		)
		return clip, nil
	}
	return types.Clip{}, apperr.Database(op, fmt.Errorf("could not allocate a short id after %d attempts", shortIDAttempts))
}

// ValidateDetails checks the owner supplied fields of a new clip, so they can
// be rejected before anything is uploaded.
func ValidateDetails(title string, visibility types.Visibility) error {
	const op = "clips.ValidateDetails"

	if _, err := normalizeTitle(title); err != nil {
		return apperr.Validation(op, err)
	}
	if visibility != "" && !visibility.Valid() {
		return apperr.Validation(op, ErrVisibilityInvalid)
	}
	return nil
}

// Get returns the clip when callerID owns it.
func (s *Service) Get(ctx context.Context, callerID, id string) (types.Clip, error) {
	const op = "clips.Get"

	if callerID == "" {
		return types.Clip{}, apperr.E(apperr.KindUnauthorized, op, ErrOwnerMissing)
	}
	clip, err := s.lookup(ctx, op, id)
	if err != nil {
		return types.Clip{}, err
	}
	if clip.OwnerID != callerID {
		return types.Clip{}, apperr.E(apperr.KindForbidden, op, ErrNotOwner)
	}
	return clip, nil
}

// Lookup fetches a clip without an ownership check, for viewers and system callers.
func (s *Service) Lookup(ctx context.Context, id string) (types.Clip, error) {
	return s.lookup(ctx, "clips.Lookup", id)
}

// LookupShort resolves a short link.
func (s *Service) LookupShort(ctx context.Context, shortID string) (types.Clip, error) {
	const op = "clips.LookupShort"

	clip, err := s.store.GetClipByShortID(ctx, shortID)
	if errors.Is(err, storage.ErrNotFound) {
		return types.Clip{}, apperr.E(apperr.KindNotFound, op, ErrClipNotFound)
	}
	if err != nil {
		return types.Clip{}, apperr.Database(op, err)
	}
	return clip, nil
}

// List returns the caller's clips, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]types.Clip, error) {
	const op = "clips.List"

	if ownerID == "" {
		return nil, apperr.E(apperr.KindUnauthorized, op, ErrOwnerMissing)
	}
	list, err := s.store.ListClipsByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Database(op, err)
	}
	if list == nil {
		list = []types.Clip{}
	}
	return list, nil
}

// Update applies an owner's patch.
func (s *Service) Update(ctx context.Context, callerID, id string, patch types.ClipPatch) (types.Clip, error) {
	const op = "clips.Update"

	if _, err := s.Get(ctx, callerID, id); err != nil {
		return types.Clip{}, err
	}
	return s.apply(ctx, op, id, patch)
}

// Advance moves a clip's processing status forward and optionally swaps its
// storage reference. It is used by the processing step, not by owners.
func (s *Service) Advance(ctx context.Context, id string, status types.ProcessingStatus, reference *string) (types.Clip, error) {
	return s.apply(ctx, "clips.Advance", id, types.ClipPatch{ProcessingStatus: &status, StorageReference: reference})
}

func (s *Service) apply(ctx context.Context, op, id string, patch types.ClipPatch) (types.Clip, error) {
	if err := validatePatch(&patch); err != nil {
		return types.Clip{}, apperr.Validation(op, err)
	}

	clip, err := s.store.UpdateClip(ctx, id, patch)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return types.Clip{}, apperr.E(apperr.KindNotFound, op, ErrClipNotFound)
	case errors.Is(err, storage.ErrInvalidTransition):
		return types.Clip{}, apperr.Validation(op, err)
	case err != nil:
		return types.Clip{}, apperr.Database(op, err)
	}
	return clip, nil
}

// Delete removes the object and then the record. An object that cannot be
// removed is tracked as orphaned so the sweeper retries it.
func (s *Service) Delete(ctx context.Context, callerID, id string) error {
	const op = "clips.Delete"

	clip, err := s.Get(ctx, callerID, id)
	if err != nil {
		return err
	}

	if err := s.media.Remove(ctx, clip.StorageReference); err != nil {
		s.logger.Error("failed to remove clip object",
			slog.String("clip_id", clip.ID),
			slog.String("file_path", clip.StorageReference),
			slog.String("error", err.Error()),
		)
		s.TrackOrphan(ctx, clip.StorageReference, "object delete failed: "+err.Error())
	}

	if err := s.store.DeleteClip(ctx, clip.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.E(apperr.KindNotFound, op, ErrClipNotFound)
		}
		return apperr.Database(op, err)
	}
	return nil
}

// TrackOrphan records an object that no clip references. Failures are logged only.
func (s *Service) TrackOrphan(ctx context.Context, key, reason string) {
	if key == "" {
		return
	}
	if err := s.store.TrackOrphan(ctx, key, reason); err != nil {
		s.logger.Error("failed to track orphaned object",
			slog.String("object_key", key),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Service) lookup(ctx context.Context, op, id string) (types.Clip, error) {
	clip, err := s.store.GetClip(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return types.Clip{}, apperr.E(apperr.KindNotFound, op, ErrClipNotFound)
	}
	if err != nil {
		return types.Clip{}, apperr.Database(op, err)
	}
	return clip, nil
}

func validatePatch(patch *types.ClipPatch) error {
	if patch.Empty() {
		return ErrNothingToUpdate
	}
	if patch.Title != nil {
		title, err := normalizeTitle(*patch.Title)
		if err != nil {
			return err
		}
		patch.Title = &title
	}
	if patch.Visibility != nil && !patch.Visibility.Valid() {
		return ErrVisibilityInvalid
	}
	if patch.ProcessingStatus != nil && !patch.ProcessingStatus.Valid() {
		return ErrStatusInvalid
	}
	if patch.StorageReference != nil && strings.TrimSpace(*patch.StorageReference) == "" {
		return ErrReferenceMissing
	}
	return nil
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrTitleMissing
	}
	if len([]rune(title)) > maxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}

func newShortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:shortIDLength]
}
