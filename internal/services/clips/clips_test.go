package clips

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/princekumarofficial/screencast-service/internal/apperr"
	"github.com/princekumarofficial/screencast-service/internal/config"
	"github.com/princekumarofficial/screencast-service/internal/services/media"
	"github.com/princekumarofficial/screencast-service/internal/storage"
	"github.com/princekumarofficial/screencast-service/internal/storage/memory"
	"github.com/princekumarofficial/screencast-service/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRemoveStore struct {
	*media.MemoryStore
}

func (f failingRemoveStore) Remove(ctx context.Context, key string) error {
	return media.ErrStorageUnavailable
}

// collidingStore reports a short id collision on the first insert.
type collidingStore struct {
	*memory.Store
	collisions int
}

func (c *collidingStore) CreateClip(ctx context.Context, clip types.NewClip) (types.Clip, error) {
	if c.collisions > 0 {
		c.collisions--
		return types.Clip{}, storage.ErrDuplicateShortID
	}
	return c.Store.CreateClip(ctx, clip)
}

type fixture struct {
	svc     *Service
	store   storage.Storage
	objects *media.MemoryStore
	media   *media.Service
}

func newFixture(t *testing.T, objectStore media.ObjectStore, store storage.Storage) fixture {
	t.Helper()
	objects := media.NewMemoryStore("http://cdn.test/videos")
	if objectStore == nil {
		objectStore = objects
	}
	if store == nil {
		store = memory.New()
	}
	mediaService := media.NewService(objectStore, config.Media{
		AllowedMimeTypes: []string{"video/webm"},
		PresignedURLTTL:  3600,
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return fixture{
		svc:     NewService(store, mediaService, logger),
		store:   store,
		objects: objects,
		media:   mediaService,
	}
}

func (f fixture) upload(t *testing.T, owner string) media.Reference {
	t.Helper()
	data := []byte("webm bytes")
	ref, err := f.media.Upload(context.Background(), owner, media.Blob{
		Reader: bytes.NewReader(data), Size: int64(len(data)), ContentType: "video/webm",
	}, "demo")
	require.NoError(t, err)
	return ref
}

func (f fixture) create(t *testing.T, owner string, visibility types.Visibility) types.Clip {
	t.Helper()
	clip, err := f.svc.Create(context.Background(), CreateInput{
		OwnerID: owner, Title: "  Demo  ", Reference: f.upload(t, owner), Visibility: visibility,
	})
	require.NoError(t, err)
	return clip
}

func TestCreateDefaults(t *testing.T) {
	f := newFixture(t, nil, nil)
	clip := f.create(t, "owner", "")

	assert.Equal(t, "Demo", clip.Title)
	assert.Equal(t, types.VisibilityPrivate, clip.Visibility)
	assert.Equal(t, types.StatusPending, clip.ProcessingStatus)
	assert.Len(t, clip.ShortID, shortIDLength)
	assert.NotEmpty(t, clip.ID)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t, nil, nil)
	ref := media.Reference{Key: "users/o/clips/x.webm"}

	_, err := f.svc.Create(context.Background(), CreateInput{Title: "t", Reference: ref})
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = f.svc.Create(context.Background(), CreateInput{OwnerID: "o", Title: "   ", Reference: ref})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.ErrorIs(t, err, ErrTitleMissing)

	_, err = f.svc.Create(context.Background(), CreateInput{OwnerID: "o", Title: "t", Reference: ref, Visibility: "friends"})
	assert.ErrorIs(t, err, ErrVisibilityInvalid)
}

func TestValidateDetails(t *testing.T) {
	assert.NoError(t, ValidateDetails(" Demo ", ""))
	assert.NoError(t, ValidateDetails("Demo", types.VisibilityUnlisted))

	err := ValidateDetails("", types.VisibilityPublic)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.ErrorIs(t, err, ErrTitleMissing)
	assert.ErrorIs(t, ValidateDetails(strings.Repeat("x", maxTitleLength+1), ""), ErrTitleTooLong)
	assert.ErrorIs(t, ValidateDetails("Demo", "friends"), ErrVisibilityInvalid)
}

func TestCreateRetriesShortIDCollision(t *testing.T) {
	store := &collidingStore{Store: memory.New(), collisions: 2}
	f := newFixture(t, nil, store)

	clip := f.create(t, "owner", types.VisibilityPublic)
	assert.NotEmpty(t, clip.ID)
	assert.Equal(t, 0, store.collisions)
}

func TestUpdateOwnership(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	clip := f.create(t, "owner", types.VisibilityPrivate)

	title := "Renamed"
	_, err := f.svc.Update(ctx, "intruder", clip.ID, types.ClipPatch{Title: &title})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = f.svc.Update(ctx, "owner", "missing", types.ClipPatch{Title: &title})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = f.svc.Update(ctx, "owner", clip.ID, types.ClipPatch{})
	assert.ErrorIs(t, err, ErrNothingToUpdate)

	updated, err := f.svc.Update(ctx, "owner", clip.ID, types.ClipPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
}

func TestAdvanceIsForwardOnly(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	clip := f.create(t, "owner", types.VisibilityPrivate)

	newRef := "users/owner/clips/compressed-" + clip.ID + ".mp4"
	done, err := f.svc.Advance(ctx, clip.ID, types.StatusCompleted, &newRef)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, done.ProcessingStatus)
	assert.Equal(t, newRef, done.StorageReference)

	_, err = f.svc.Advance(ctx, clip.ID, types.StatusPending, nil)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.ErrorIs(t, err, storage.ErrInvalidTransition)

	got, err := f.svc.Lookup(ctx, clip.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, got.ProcessingStatus)
}

func TestDeleteRemovesObjectAndRecord(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	clip := f.create(t, "owner", types.VisibilityPrivate)

	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(f.svc.Delete(ctx, "intruder", clip.ID)))
	require.NoError(t, f.svc.Delete(ctx, "owner", clip.ID))

	assert.Empty(t, f.objects.Keys())
	_, err := f.svc.Lookup(ctx, clip.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteTracksOrphanWhenObjectRemovalFails(t *testing.T) {
	objects := failingRemoveStore{media.NewMemoryStore("http://cdn.test/videos")}
	f := newFixture(t, objects, nil)
	ctx := context.Background()
	clip := f.create(t, "owner", types.VisibilityPrivate)

	require.NoError(t, f.svc.Delete(ctx, "owner", clip.ID))

	orphans, err := f.store.ListOrphans(ctx, 10)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, clip.StorageReference, orphans[0].ObjectKey)
}

func TestSharePolicy(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	private := f.create(t, "owner", types.VisibilityPrivate)
	_, err := f.svc.Share(ctx, "owner", private.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.Equal(t, "This video is private. Make it public or unlisted to share.", errors.Unwrap(err).Error())

	public := f.create(t, "owner", types.VisibilityPublic)
	link, err := f.svc.Share(ctx, "owner", public.ID)
	require.NoError(t, err)
	assert.Equal(t, "http://cdn.test/videos/"+public.StorageReference, link.URL)
	assert.True(t, link.ExpiresAt.IsZero())

	unlisted := f.create(t, "owner", types.VisibilityUnlisted)
	link, err = f.svc.Share(ctx, "owner", unlisted.ID)
	require.NoError(t, err)
	assert.True(t, strings.Contains(link.URL, "expires="))
	assert.False(t, link.ExpiresAt.IsZero())
}

func TestEmbedCode(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	private := f.create(t, "owner", types.VisibilityPrivate)
	_, err := f.svc.EmbedCode(ctx, "owner", private.ID, "https://site.test")
	assert.ErrorIs(t, err, ErrPrivate)

	public := f.create(t, "owner", types.VisibilityPublic)
	code, err := f.svc.EmbedCode(ctx, "owner", public.ID, "https://site.test")
	require.NoError(t, err)
	assert.Contains(t, code, `src="https://site.test/embed/`+public.ID+`"`)
}
