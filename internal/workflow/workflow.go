// Package workflow runs one upload end to end: finalized capture, upload,
// record creation, then the notification trigger. Steps run strictly in
// order and nothing is retried; a failed step means the caller starts over.
package workflow

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/princekumarofficial/screencast-service/internal/capture"
	"github.com/princekumarofficial/screencast-service/internal/services/clips"
	"github.com/princekumarofficial/screencast-service/internal/services/media"
	"github.com/princekumarofficial/screencast-service/internal/services/notify"
	"github.com/princekumarofficial/screencast-service/internal/types"
)

type Uploader interface {
	Upload(ctx context.Context, ownerID string, blob media.Blob, suggestedName string) (media.Reference, error)
}

type Recorder interface {
	Create(ctx context.Context, in clips.CreateInput) (types.Clip, error)
	TrackOrphan(ctx context.Context, key, reason string)
}

type Notifier interface {
	Trigger(ctx context.Context, req notify.Request) (notify.Result, error)
}

type Coordinator struct {
	uploader Uploader
	records  Recorder
	notifier Notifier
	logger   *slog.Logger
}

func NewCoordinator(uploader Uploader, records Recorder, notifier Notifier, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		uploader: uploader,
		records:  records,
		notifier: notifier,
		logger:   logger,
	}
}

type Input struct {
	OwnerID       string
	OwnerEmail    string
	Title         string
	Visibility    types.Visibility
	SuggestedName string
	Blob          media.Blob
}

// Outcome reports how far the sequence got. Clip is set once a record
// exists, even when the notification step then fails.
type Outcome struct {
	Reference media.Reference
	Clip      types.Clip
	Link      string
	Notified  bool
}

// Run uploads, creates the record and triggers the notification. Invalid
// details and upload failures leave nothing behind. A create failure leaves the object, which is
// tracked as orphaned. A trigger failure leaves a pending record.
func (c *Coordinator) Run(ctx context.Context, in Input) (Outcome, error) {
	var out Outcome
	log := c.logger.With(slog.String("owner_id", in.OwnerID))

	if err := clips.ValidateDetails(in.Title, in.Visibility); err != nil {
		log.Warn("invalid clip details", slog.String("error", err.Error()))
		return out, err
	}

	ref, err := c.uploader.Upload(ctx, in.OwnerID, in.Blob, in.SuggestedName)
	if err != nil {
		log.Error("upload failed", slog.String("error", err.Error()))
		return out, err
	}
	out.Reference = ref

	clip, err := c.records.Create(ctx, clips.CreateInput{
		OwnerID:    in.OwnerID,
		Title:      in.Title,
		Reference:  ref,
		Visibility: in.Visibility,
	})
	if err != nil {
		log.Error("record creation failed", slog.String("file_path", ref.Key), slog.String("error", err.Error()))
		c.records.TrackOrphan(ctx, ref.Key, "record creation failed: "+err.Error())
		return out, err
	}
	out.Clip = clip

	res, err := c.notifier.Trigger(ctx, notify.Request{
		VideoID:    clip.ID,
		OwnerEmail: in.OwnerEmail,
		FilePath:   clip.StorageReference,
	})
	if err != nil {
		log.Error("notification failed", slog.String("clip_id", clip.ID), slog.String("error", err.Error()))
		return out, err
	}

	out.Clip = res.Clip
	out.Link = res.Link
	out.Notified = true
	return out, nil
}

// Record finalizes session and runs the rest of the sequence with its blob.
func (c *Coordinator) Record(ctx context.Context, session *capture.Session, in Input) (Outcome, error) {
	blob, err := session.Stop(ctx)
	if err != nil {
		return Outcome{}, err
	}

	in.Blob = media.Blob{
		Reader:      bytes.NewReader(blob.Data),
		Size:        blob.Size(),
		ContentType: blob.ContentType,
	}
	if in.SuggestedName == "" {
		in.SuggestedName = "recording" + capture.Extension(blob.ContentType)
	}
	return c.Run(ctx, in)
}
