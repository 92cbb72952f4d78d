package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/princekumarofficial/screencast-service/internal/config"
	"github.com/princekumarofficial/screencast-service/internal/mailer"
	"github.com/princekumarofficial/screencast-service/internal/services/clips"
	"github.com/princekumarofficial/screencast-service/internal/services/media"
	notifyService "github.com/princekumarofficial/screencast-service/internal/services/notify"
	"github.com/princekumarofficial/screencast-service/internal/storage/memory"
	"github.com/princekumarofficial/screencast-service/internal/types"
	"github.com/princekumarofficial/screencast-service/internal/utils/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent []mailer.Message
	err  error
}

func (s *recordingSender) Send(ctx context.Context, msg mailer.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type harness struct {
	handler http.Handler
	clips   *clips.Service
	sender  *recordingSender
	cfg     *config.Config
	clip    types.Clip
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mediaService := media.NewService(media.NewMemoryStore("http://cdn.test/videos"), config.Media{})
	clipService := clips.NewService(memory.New(), mediaService, logger)

	clip, err := clipService.Create(context.Background(), clips.CreateInput{
		OwnerID:   "owner-1",
		Title:     "Demo",
		Reference: media.Reference{Key: "users/owner-1/clips/1-a.webm", ContentType: "video/webm", Size: 3},
	})
	require.NoError(t, err)

	h := &harness{
		clips:  clipService,
		sender: &recordingSender{},
		clip:   clip,
		cfg: &config.Config{
			SiteURL: "https://site.test",
			Email:   config.Email{Provider: "sendgrid", SendGridAPIKey: "key", FromAddress: "noreply@site.test"},
		},
	}
	svc := notifyService.NewService(notifyService.Deps{
		Clips:  clipService,
		Config: h.cfg,
		Logger: logger,
		NewSender: func(cfg config.Email) (mailer.Sender, error) {
			if err := cfg.Validate(); err != nil {
				return nil, err
			}
			return h.sender, nil
		},
	})

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/send-upload-email", SendUploadEmail(svc))
	mux.HandleFunc("POST /functions/process-video", ProcessVideo(svc))
	h.handler = mux
	return h
}

func (h *harness) post(t *testing.T, path, body string) (int, response.Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))

	var resp response.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

func (h *harness) status(t *testing.T) types.ProcessingStatus {
	t.Helper()
	clip, err := h.clips.Lookup(context.Background(), h.clip.ID)
	require.NoError(t, err)
	return clip.ProcessingStatus
}

func TestSendUploadEmailSuccess(t *testing.T) {
	h := newHarness(t)

	code, resp := h.post(t, "/api/send-upload-email",
		`{"video_id":"`+h.clip.ID+`","user_email":"a@b.c","file_url":"https://x/y.webm"}`)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Email sent successfully", resp.Message)
	assert.Equal(t, types.StatusCompleted, h.status(t))
	require.Len(t, h.sender.sent, 1)
	assert.Equal(t, "a@b.c", h.sender.sent[0].To)
	assert.Contains(t, h.sender.sent[0].HTML, "https://x/y.webm")
}

func TestSendUploadEmailMissingEmail(t *testing.T) {
	h := newHarness(t)

	code, resp := h.post(t, "/api/send-upload-email",
		`{"video_id":"`+h.clip.ID+`","file_url":"https://x/y.webm"}`)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Missing video_id, user_email, or file_url/file_path", resp.Error)
	assert.Equal(t, types.StatusPending, h.status(t))
	assert.Empty(t, h.sender.sent)
}

func TestSendUploadEmailInvalidBody(t *testing.T) {
	h := newHarness(t)

	code, resp := h.post(t, "/api/send-upload-email", `{"video_id":`)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "error", resp.Status)
	assert.Empty(t, h.sender.sent)
}

func TestSendUploadEmailUnknownVideo(t *testing.T) {
	h := newHarness(t)

	code, resp := h.post(t, "/api/send-upload-email",
		`{"video_id":"missing","user_email":"a@b.c","file_url":"https://x/y.webm"}`)

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.True(t, strings.HasPrefix(resp.Error, "Failed to update video status"), resp.Error)
	assert.Empty(t, h.sender.sent)
}

func TestSendUploadEmailProviderFailureKeepsStatus(t *testing.T) {
	h := newHarness(t)
	h.sender.err = errors.New("provider down")

	code, resp := h.post(t, "/api/send-upload-email",
		`{"video_id":"`+h.clip.ID+`","user_email":"a@b.c","file_url":"https://x/y.webm"}`)

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Internal server error during email send", resp.Error)
	assert.Equal(t, types.StatusCompleted, h.status(t))
}

func TestSendUploadEmailConfigurationMissing(t *testing.T) {
	h := newHarness(t)
	h.cfg.Email.SendGridAPIKey = ""

	code, resp := h.post(t, "/api/send-upload-email",
		`{"video_id":"`+h.clip.ID+`","user_email":"a@b.c","file_path":"`+h.clip.StorageReference+`"}`)

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Email service configuration missing", resp.Error)
	assert.Equal(t, types.StatusPending, h.status(t))
}

func TestSendUploadEmailFilePathUsesShortLink(t *testing.T) {
	h := newHarness(t)
	public := types.VisibilityPublic
	_, err := h.clips.Update(context.Background(), h.clip.OwnerID, h.clip.ID, types.ClipPatch{Visibility: &public})
	require.NoError(t, err)

	code, _ := h.post(t, "/api/send-upload-email",
		`{"video_id":"`+h.clip.ID+`","user_email":"a@b.c","file_path":"`+h.clip.StorageReference+`"}`)

	require.Equal(t, http.StatusOK, code)
	require.Len(t, h.sender.sent, 1)
	assert.Contains(t, h.sender.sent[0].HTML, "https://site.test/v/"+h.clip.ShortID)
}

func TestSendUploadEmailPrivateClipLinksDashboard(t *testing.T) {
	h := newHarness(t)

	code, _ := h.post(t, "/api/send-upload-email",
		`{"video_id":"`+h.clip.ID+`","user_email":"a@b.c","file_path":"`+h.clip.StorageReference+`"}`)

	require.Equal(t, http.StatusOK, code)
	require.Len(t, h.sender.sent, 1)
	assert.Contains(t, h.sender.sent[0].HTML, "https://site.test/dashboard")
	assert.NotContains(t, h.sender.sent[0].HTML, "/v/"+h.clip.ShortID)
}

func TestProcessVideo(t *testing.T) {
	h := newHarness(t)

	code, resp := h.post(t, "/functions/process-video",
		`{"video_id":"`+h.clip.ID+`","user_email":"a@b.c","file_url":"https://x/y.webm"}`)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Video processed and email sent.", resp.Message)
	require.Len(t, h.sender.sent, 1)
	assert.Equal(t, "Your video is ready!", h.sender.sent[0].Subject)
}

func TestProcessVideoMissingFileURL(t *testing.T) {
	h := newHarness(t)

	code, _ := h.post(t, "/functions/process-video",
		`{"video_id":"`+h.clip.ID+`","user_email":"a@b.c"}`)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, types.StatusPending, h.status(t))
}
