// Package notify marks a clip completed and emails its owner a link.
//
// The status update and the email are two independent remote calls. When the
// update succeeds and the email fails the record stays completed and no email
// is ever sent; nothing here retries or rolls back.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/princekumarofficial/screencast-service/internal/apperr"
	"github.com/princekumarofficial/screencast-service/internal/config"
	"github.com/princekumarofficial/screencast-service/internal/events"
	"github.com/princekumarofficial/screencast-service/internal/mailer"
	"github.com/princekumarofficial/screencast-service/internal/services/clips"
	"github.com/princekumarofficial/screencast-service/internal/services/media"
	"github.com/princekumarofficial/screencast-service/internal/types"
)

var (
	ErrMissingFields       = errors.New("Missing video_id, user_email, or file_url/file_path")
	ErrStoreUpdateFailed   = errors.New("Failed to update video status")
	ErrEmailDispatchFailed = errors.New("Internal server error during email send")
	ErrTranscodeFailed     = errors.New("Failed to process video")
	ErrShortURLMissing     = errors.New("Short URL not available for this video")
)

// Request identifies the clip to complete and where the email goes. Either
// FileURL or FilePath must be set; FileURL is used as the link verbatim.
type Request struct {
	VideoID    string
	OwnerEmail string
	FileURL    string
	FilePath   string
}

// Result is what a successful trigger committed and sent.
type Result struct {
	Clip types.Clip
	Link string
}

// Transcoder produces a normalized copy of a stored clip.
type Transcoder interface {
	Enabled() bool
	Transcode(ctx context.Context, clip types.Clip) (media.Reference, error)
}

// SenderFactory builds a mail sender from configuration at call time.
type SenderFactory func(cfg config.Email) (mailer.Sender, error)

type Service struct {
	clips      *clips.Service
	transcoder Transcoder
	publisher  events.Publisher
	newSender  SenderFactory
	config     *config.Config
	logger     *slog.Logger
}

type Deps struct {
	Clips      *clips.Service
	Transcoder Transcoder
	Publisher  events.Publisher
	NewSender  SenderFactory
	Config     *config.Config
	Logger     *slog.Logger
}

func NewService(deps Deps) *Service {
	s := &Service{
		clips:      deps.Clips,
		transcoder: deps.Transcoder,
		publisher:  deps.Publisher,
		newSender:  deps.NewSender,
		config:     deps.Config,
		logger:     deps.Logger,
	}
	if s.publisher == nil {
		s.publisher = events.Noop{}
	}
	if s.newSender == nil {
		s.newSender = mailer.New
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Trigger validates req, marks the clip completed and sends one
// "upload complete" email. Transcoding, when enabled, is best effort: a
// failure is logged and the original upload stays the stored reference.
func (s *Service) Trigger(ctx context.Context, req Request) (Result, error) {
	return s.run(ctx, req, false)
}

// Process is the out-of-band processing function. Transcoding, when enabled,
// is mandatory: on failure the call fails and the clip keeps its prior status.
func (s *Service) Process(ctx context.Context, req Request) (Result, error) {
	return s.run(ctx, req, true)
}

func (s *Service) run(ctx context.Context, req Request, strict bool) (Result, error) {
	log := s.logger.With(slog.String("video_id", req.VideoID), slog.Bool("strict", strict))

	req = normalize(req)
	if req.VideoID == "" || req.OwnerEmail == "" || (req.FileURL == "" && req.FilePath == "") {
		log.Warn("missing required fields",
			slog.Bool("video_id", req.VideoID != ""),
			slog.Bool("user_email", req.OwnerEmail != ""),
			slog.Bool("file_reference", req.FileURL != "" || req.FilePath != ""),
		)
		return Result{}, apperr.Validation("", ErrMissingFields)
	}

	site, err := s.checkConfig(!strict || s.transcodeEnabled())
	if err != nil {
		log.Error("configuration missing", slog.String("error", err.Error()))
		return Result{}, apperr.Configuration("", err)
	}
	sender, err := s.newSender(s.config.Email)
	if err != nil {
		log.Error("email sender unavailable", slog.String("error", err.Error()))
		return Result{}, apperr.Configuration("", err)
	}

	var (
		newRef   *string
		original string
	)
	if s.transcodeEnabled() {
		ref, prior, err := s.transcode(ctx, req.VideoID)
		switch {
		case err != nil && strict:
			log.Error("transcode failed", slog.String("error", err.Error()))
			_ = s.publisher.PublishClipFailed(prior.OwnerID, req.VideoID, err.Error())
			return Result{}, apperr.Storage("", fmt.Errorf("%w: %v", ErrTranscodeFailed, err))
		case err != nil:
			log.Warn("transcode failed, keeping original upload", slog.String("error", err.Error()))
		default:
			newRef = &ref
			original = prior.StorageReference
		}
	}

	clip, err := s.clips.Advance(ctx, req.VideoID, types.StatusCompleted, newRef)
	if err != nil {
		log.Error("store update failed", slog.String("error", err.Error()))
		if newRef != nil && *newRef != original {
			s.clips.TrackOrphan(ctx, *newRef, "transcoded copy not recorded: "+err.Error())
		}
		return Result{}, apperr.Database("", fmt.Errorf("%w: %v", ErrStoreUpdateFailed, errors.Unwrap(err)))
	}
	if newRef != nil && original != "" && original != *newRef {
		// the record now points at the transcoded copy
		s.clips.TrackOrphan(ctx, original, "replaced by transcoded copy")
	}

	link, err := resolveLink(req, clip, site, newRef != nil)
	if err != nil {
		log.Error("no link for email", slog.String("error", err.Error()))
		return Result{}, apperr.Database("", err)
	}

	msg := mailer.UploadComplete(req.OwnerEmail, link)
	if strict {
		msg = mailer.VideoReady(req.OwnerEmail, link)
	}
	if err := sender.Send(ctx, msg); err != nil {
		// the completed status stays committed
		log.Error("email send failed", slog.String("error", err.Error()))
		return Result{}, apperr.Email("", ErrEmailDispatchFailed)
	}

	log.Info("email sent", slog.String("to", req.OwnerEmail), slog.String("link", link))
	_ = s.publisher.PublishClipProcessed(clip.OwnerID, clip.ID, clip.Title, link)

	return Result{Clip: clip, Link: link}, nil
}

func (s *Service) transcodeEnabled() bool {
	return s.transcoder != nil && s.transcoder.Enabled()
}

// transcode returns the key of the compressed variant and the clip as it was
// before the swap.
func (s *Service) transcode(ctx context.Context, videoID string) (string, types.Clip, error) {
	clip, err := s.clips.Lookup(ctx, videoID)
	if err != nil {
		return "", types.Clip{}, err
	}

	ref, err := s.transcoder.Transcode(ctx, clip)
	if err != nil {
		return "", clip, err
	}
	return ref.Key, clip, nil
}

// checkConfig reports the first missing request-time setting.
func (s *Service) checkConfig(needSite bool) (string, error) {
	if strings.EqualFold(s.config.Metadata.Backend, "supabase") {
		if err := s.config.Supabase.Validate(); err != nil {
			return "", err
		}
	}
	if err := s.config.Email.Validate(); err != nil {
		return "", err
	}
	if !needSite {
		site, _ := s.config.PublicSiteURL()
		return site, nil
	}
	return s.config.PublicSiteURL()
}

// resolveLink picks the URL placed in the email. A caller supplied URL wins
// unless a transcoded replacement was stored. Otherwise shareable clips get
// the short link, resolved to the object when visited, and private clips the
// owner's dashboard.
func resolveLink(req Request, clip types.Clip, site string, replaced bool) (string, error) {
	if req.FileURL != "" && !replaced {
		return req.FileURL, nil
	}
	shareable := clip.Visibility.Shareable()
	if shareable && clip.ShortID == "" {
		return "", ErrShortURLMissing
	}
	if site == "" {
		return "", config.ErrSiteURLMissing
	}
	if !shareable {
		return clips.DashboardLink(site), nil
	}
	return clips.ShortLink(site, clip), nil
}

func normalize(req Request) Request {
	req.VideoID = strings.TrimSpace(req.VideoID)
	req.OwnerEmail = strings.TrimSpace(req.OwnerEmail)
	req.FileURL = strings.TrimSpace(req.FileURL)
	req.FilePath = strings.TrimSpace(req.FilePath)
	return req
}
