// Command recorder captures the screen with ffmpeg and uploads the result.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/princekumarofficial/screencast-service/internal/capture"
)

func main() {
	var (
		server     = flag.String("server", envOr("RECORDER_SERVER", "http://localhost:8080"), "service base URL")
		token      = flag.String("token", os.Getenv("RECORDER_TOKEN"), "bearer token from /login")
		title      = flag.String("title", "Screen recording "+time.Now().Format("2006-01-02 15:04"), "clip title")
		visibility = flag.String("visibility", "private", "private, unlisted or public")
		duration   = flag.Duration("duration", 0, "stop after this long; 0 records until interrupted")
		display    = flag.String("display", "", "screen input, e.g. :0.0 or 1")
		audio      = flag.String("audio", "", "audio input; empty records video only")
		ffmpeg     = flag.String("ffmpeg", "ffmpeg", "ffmpeg binary")
		save       = flag.String("save", "", "also write the recording to this file")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *token == "" {
		log.Fatal("a token is required (-token or RECORDER_TOKEN)")
	}

	session := capture.NewSession(capture.NewFFmpegDevice(*ffmpeg, *display, *audio), capture.WithLogger(logger))
	defer session.Close()

	if err := session.Start(context.Background()); err != nil {
		log.Fatal("failed to start capture: ", err)
	}
	logger.Info("recording", "mime_type", session.MimeType())

	interrupted, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		interrupted, cancel = context.WithTimeout(interrupted, *duration)
		defer cancel()
	}
	<-interrupted.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	blob, err := session.Stop(stopCtx)
	if err != nil {
		log.Fatal("recording failed: ", err)
	}
	logger.Info("recording finalized", "bytes", blob.Size(), "content_type", blob.ContentType)

	if *save != "" {
		if err := os.WriteFile(*save, blob.Data, 0o644); err != nil {
			logger.Error("failed to save recording", "path", *save, "error", err.Error())
		}
	}

	uploadCtx, cancelUpload := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancelUpload()
	res, err := NewUploadClient(*server, *token).Upload(uploadCtx, blob, *title, *visibility)
	if err != nil {
		if res.Clip.ID != "" {
			logger.Error("clip saved but notification failed", "clip_id", res.Clip.ID, "error", err.Error())
			os.Exit(1)
		}
		log.Fatal("upload failed: ", err)
	}

	logger.Info("uploaded", "clip_id", res.Clip.ID, "link", res.Link, "notified", res.Notified)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
