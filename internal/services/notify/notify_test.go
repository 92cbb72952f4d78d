package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/princekumarofficial/screencast-service/internal/apperr"
	"github.com/princekumarofficial/screencast-service/internal/config"
	"github.com/princekumarofficial/screencast-service/internal/mailer"
	"github.com/princekumarofficial/screencast-service/internal/services/clips"
	"github.com/princekumarofficial/screencast-service/internal/services/media"
	"github.com/princekumarofficial/screencast-service/internal/storage/memory"
	"github.com/princekumarofficial/screencast-service/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []mailer.Message
	err  error
}

func (f *fakeSender) Send(ctx context.Context, msg mailer.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeTranscoder struct {
	err   error
	calls int
}

func (f *fakeTranscoder) Enabled() bool { return true }

func (f *fakeTranscoder) Transcode(ctx context.Context, clip types.Clip) (media.Reference, error) {
	f.calls++
	if f.err != nil {
		return media.Reference{}, f.err
	}
	return media.Reference{Key: media.CompressedKey(clip.OwnerID, clip.ID), ContentType: "video/mp4"}, nil
}

type fakePublisher struct {
	processed []string
	failed    []string
}

func (f *fakePublisher) PublishClipProcessed(ownerID, clipID, title, viewURL string) error {
	f.processed = append(f.processed, clipID)
	return nil
}

func (f *fakePublisher) PublishClipFailed(ownerID, clipID, reason string) error {
	f.failed = append(f.failed, clipID)
	return nil
}

type fixture struct {
	svc       *Service
	clips     *clips.Service
	store     *memory.Store
	sender    *fakeSender
	publisher *fakePublisher
	cfg       *config.Config
	clip      types.Clip
}

func newFixture(t *testing.T, transcoder Transcoder) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mediaService := media.NewService(media.NewMemoryStore("http://cdn.test/videos"), config.Media{})
	store := memory.New()
	clipService := clips.NewService(store, mediaService, logger)

	clip, err := clipService.Create(context.Background(), clips.CreateInput{
		OwnerID:   "owner-1",
		Title:     "Demo",
		Reference: media.Reference{Key: "users/owner-1/clips/1-a.webm", ContentType: "video/webm", Size: 3},
	})
	require.NoError(t, err)

	f := &fixture{
		clips:     clipService,
		store:     store,
		sender:    &fakeSender{},
		publisher: &fakePublisher{},
		clip:      clip,
		cfg: &config.Config{
			SiteURL: "https://site.test/",
			Email: config.Email{
				Provider:       "sendgrid",
				SendGridAPIKey: "key",
				FromAddress:    "noreply@site.test",
			},
		},
	}
	f.svc = NewService(Deps{
		Clips:      clipService,
		Transcoder: transcoder,
		Publisher:  f.publisher,
		Config:     f.cfg,
		Logger:     logger,
		NewSender: func(cfg config.Email) (mailer.Sender, error) {
			if err := cfg.Validate(); err != nil {
				return nil, err
			}
			return f.sender, nil
		},
	})
	return f
}

func (f *fixture) status(t *testing.T) types.ProcessingStatus {
	t.Helper()
	clip, err := f.clips.Lookup(context.Background(), f.clip.ID)
	require.NoError(t, err)
	return clip.ProcessingStatus
}

func TestTriggerSuccess(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.svc.Trigger(context.Background(), Request{
		VideoID: f.clip.ID, OwnerEmail: "a@example.com", FileURL: "https://store/x.webm",
	})
	require.NoError(t, err)

	assert.Equal(t, types.StatusCompleted, f.status(t))
	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "a@example.com", f.sender.sent[0].To)
	assert.Contains(t, f.sender.sent[0].HTML, "https://store/x.webm")
	assert.Equal(t, "https://store/x.webm", res.Link)
	assert.Equal(t, []string{f.clip.ID}, f.publisher.processed)
}

func (f *fixture) setVisibility(t *testing.T, v types.Visibility) {
	t.Helper()
	_, err := f.clips.Update(context.Background(), f.clip.OwnerID, f.clip.ID, types.ClipPatch{Visibility: &v})
	require.NoError(t, err)
}

func (f *fixture) orphanKeys(t *testing.T) []string {
	t.Helper()
	orphans, err := f.store.ListOrphans(context.Background(), 10)
	require.NoError(t, err)
	keys := make([]string, 0, len(orphans))
	for _, o := range orphans {
		keys = append(keys, o.ObjectKey)
	}
	return keys
}

func TestTriggerMissingFields(t *testing.T) {
	f := newFixture(t, nil)

	for _, req := range []Request{
		{OwnerEmail: "a@example.com", FileURL: "https://store/x.webm"},
		{VideoID: f.clip.ID, FileURL: "https://store/x.webm"},
		{VideoID: f.clip.ID, OwnerEmail: "a@example.com"},
		{VideoID: "  ", OwnerEmail: "a@example.com", FilePath: "p"},
	} {
		_, err := f.svc.Trigger(context.Background(), req)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		assert.ErrorIs(t, err, ErrMissingFields)
	}

	assert.Equal(t, types.StatusPending, f.status(t))
	assert.Empty(t, f.sender.sent)
}

func TestTriggerUnknownVideo(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Trigger(context.Background(), Request{
		VideoID: "missing", OwnerEmail: "a@example.com", FileURL: "https://store/x.webm",
	})
	assert.Equal(t, apperr.KindDatabase, apperr.KindOf(err))
	assert.ErrorIs(t, err, ErrStoreUpdateFailed)
	assert.True(t, strings.HasPrefix(err.Error(), "Failed to update video status: "))
	assert.Empty(t, f.sender.sent)
}

func TestTriggerEmailFailureKeepsCompleted(t *testing.T) {
	f := newFixture(t, nil)
	f.sender.err = errors.New("provider down")

	_, err := f.svc.Trigger(context.Background(), Request{
		VideoID: f.clip.ID, OwnerEmail: "a@example.com", FileURL: "https://store/x.webm",
	})
	assert.Equal(t, apperr.KindEmail, apperr.KindOf(err))
	assert.ErrorIs(t, err, ErrEmailDispatchFailed)
	assert.Equal(t, types.StatusCompleted, f.status(t))
	assert.Empty(t, f.publisher.processed)
}

func TestTriggerConfigurationMissing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *config.Config)
		want   error
	}{
		{"api key", func(cfg *config.Config) { cfg.Email.SendGridAPIKey = "" }, config.ErrEmailAPIKeyMissing},
		{"sender", func(cfg *config.Config) { cfg.Email.FromAddress = "" }, config.ErrEmailSenderMissing},
		{"site", func(cfg *config.Config) { cfg.SiteURL = "" }, config.ErrSiteURLMissing},
		{"supabase", func(cfg *config.Config) { cfg.Metadata.Backend = "supabase" }, config.ErrSupabaseMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			tt.mutate(f.cfg)

			_, err := f.svc.Trigger(context.Background(), Request{
				VideoID: f.clip.ID, OwnerEmail: "a@example.com", FilePath: f.clip.StorageReference,
			})
			assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, types.StatusPending, f.status(t))
			assert.Empty(t, f.sender.sent)
		})
	}
}

func TestTriggerPathUsesShortLink(t *testing.T) {
	f := newFixture(t, nil)
	f.setVisibility(t, types.VisibilityUnlisted)

	res, err := f.svc.Trigger(context.Background(), Request{
		VideoID: f.clip.ID, OwnerEmail: "a@example.com", FilePath: f.clip.StorageReference,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://site.test/v/"+f.clip.ShortID, res.Link)
	assert.Contains(t, f.sender.sent[0].HTML, res.Link)
}

func TestTriggerPathPrivateClipLinksDashboard(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.svc.Trigger(context.Background(), Request{
		VideoID: f.clip.ID, OwnerEmail: "a@example.com", FilePath: f.clip.StorageReference,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://site.test/dashboard", res.Link)
	assert.Contains(t, f.sender.sent[0].HTML, res.Link)
}

func TestTriggerIsIdempotentOnStatus(t *testing.T) {
	f := newFixture(t, nil)
	req := Request{VideoID: f.clip.ID, OwnerEmail: "a@example.com", FileURL: "https://store/x.webm"}

	_, err := f.svc.Trigger(context.Background(), req)
	require.NoError(t, err)
	_, err = f.svc.Trigger(context.Background(), req)
	require.NoError(t, err)

	// no dedup: the caller retried, so two emails went out
	assert.Len(t, f.sender.sent, 2)
	assert.Equal(t, types.StatusCompleted, f.status(t))
}

func TestTriggerTranscodeIsBestEffort(t *testing.T) {
	transcoder := &fakeTranscoder{err: errors.New("ffmpeg missing")}
	f := newFixture(t, transcoder)

	res, err := f.svc.Trigger(context.Background(), Request{
		VideoID: f.clip.ID, OwnerEmail: "a@example.com", FileURL: "https://store/x.webm",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, transcoder.calls)
	assert.Equal(t, f.clip.StorageReference, res.Clip.StorageReference)
	assert.Empty(t, f.publisher.failed)
}

func TestProcessSwapsReference(t *testing.T) {
	f := newFixture(t, &fakeTranscoder{})
	f.setVisibility(t, types.VisibilityPublic)

	res, err := f.svc.Process(context.Background(), Request{
		VideoID: f.clip.ID, OwnerEmail: "a@example.com", FileURL: "https://store/x.webm",
	})
	require.NoError(t, err)
	assert.Equal(t, media.CompressedKey("owner-1", f.clip.ID), res.Clip.StorageReference)
	assert.Equal(t, "https://site.test/v/"+f.clip.ShortID, res.Link)
	assert.Equal(t, "Your video is ready!", f.sender.sent[0].Subject)

	// the replaced upload is left for the sweeper
	assert.Equal(t, []string{f.clip.StorageReference}, f.orphanKeys(t))
}

func TestProcessTwiceKeepsCompressedCopy(t *testing.T) {
	f := newFixture(t, &fakeTranscoder{})
	req := Request{VideoID: f.clip.ID, OwnerEmail: "a@example.com", FileURL: "https://store/x.webm"}

	_, err := f.svc.Process(context.Background(), req)
	require.NoError(t, err)
	res, err := f.svc.Process(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "https://site.test/dashboard", res.Link)
	assert.Equal(t, []string{f.clip.StorageReference}, f.orphanKeys(t))
}

func TestProcessTracksTranscodedCopyWhenUpdateFails(t *testing.T) {
	f := newFixture(t, &fakeTranscoder{})
	_, err := f.clips.Advance(context.Background(), f.clip.ID, types.StatusFailed, nil)
	require.NoError(t, err)

	_, err = f.svc.Process(context.Background(), Request{
		VideoID: f.clip.ID, OwnerEmail: "a@example.com", FileURL: "https://store/x.webm",
	})
	assert.ErrorIs(t, err, ErrStoreUpdateFailed)
	assert.Equal(t, types.StatusFailed, f.status(t))
	assert.Equal(t, []string{media.CompressedKey("owner-1", f.clip.ID)}, f.orphanKeys(t))
	assert.Empty(t, f.sender.sent)
}

func TestProcessTranscodeFailureLeavesStatus(t *testing.T) {
	f := newFixture(t, &fakeTranscoder{err: errors.New("Invalid data found when processing input")})

	_, err := f.svc.Process(context.Background(), Request{
		VideoID: f.clip.ID, OwnerEmail: "a@example.com", FileURL: "https://store/x.webm",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTranscodeFailed)
	assert.Equal(t, types.StatusPending, f.status(t))
	assert.Empty(t, f.sender.sent)
	assert.Equal(t, []string{f.clip.ID}, f.publisher.failed)
}

func TestProcessWithoutTranscoderUsesFileURL(t *testing.T) {
	f := newFixture(t, nil)
	f.cfg.SiteURL = ""

	res, err := f.svc.Process(context.Background(), Request{
		VideoID: f.clip.ID, OwnerEmail: "a@example.com", FileURL: "https://store/x.webm",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://store/x.webm", res.Link)
}
