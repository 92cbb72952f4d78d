// Package transcode re-encodes uploaded clips to H.264/AAC MP4 with ffmpeg and
// stores the result next to the original as compressed-<clip id>.mp4.
package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/princekumarofficial/screencast-service/internal/config"
	"github.com/princekumarofficial/screencast-service/internal/services/media"
	"github.com/princekumarofficial/screencast-service/internal/types"
)

const outputContentType = "video/mp4"

var ErrDisabled = errors.New("transcoding is disabled")

// runFunc executes ffmpeg and returns its stderr.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

type Service struct {
	media  *media.Service
	config config.Transcode
	run    runFunc
	logger *slog.Logger
}

func NewService(mediaService *media.Service, cfg config.Transcode, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		media:  mediaService,
		config: cfg,
		run:    runCommand,
		logger: logger,
	}
}

// Enabled reports whether clips should be transcoded before completion.
func (s *Service) Enabled() bool {
	return s != nil && s.config.Enabled
}

// Args returns the ffmpeg arguments used to normalize input into output.
func Args(input, output string) []string {
	return []string{
		"-y",
		"-i", input,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "28",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		output,
	}
}

// Transcode downloads clip, re-encodes it and uploads the compressed variant.
// The stored record is not touched.
func (s *Service) Transcode(ctx context.Context, clip types.Clip) (media.Reference, error) {
	if !s.Enabled() {
		return media.Reference{}, ErrDisabled
	}
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	workDir, err := os.MkdirTemp("", "transcode-*")
	if err != nil {
		return media.Reference{}, fmt.Errorf("failed to create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	input := filepath.Join(workDir, "input"+filepath.Ext(clip.StorageReference))
	output := filepath.Join(workDir, "output.mp4")

	if err := s.download(ctx, clip.StorageReference, input); err != nil {
		return media.Reference{}, err
	}

	stderr, err := s.run(ctx, s.config.FFmpegPath, Args(input, output)...)
	if err != nil {
		return media.Reference{}, fmt.Errorf("ffmpeg failed: %v\nStderr: %s", err, stderr)
	}

	ref, err := s.upload(ctx, output, media.CompressedKey(clip.OwnerID, clip.ID))
	if err != nil {
		return media.Reference{}, err
	}

	s.logger.Info("clip transcoded",
		slog.String("clip_id", clip.ID),
		slog.String("source", clip.StorageReference),
		slog.String("output", ref.Key),
		slog.Int64("size", ref.Size),
	)
	return ref, nil
}

func (s *Service) download(ctx context.Context, key, path string) error {
	rc, _, err := s.media.Download(ctx, key)
	if err != nil {
		return err
	}
	defer rc.Close()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create input file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, rc); err != nil {
		return fmt.Errorf("failed to download clip: %w", err)
	}
	return f.Close()
}

func (s *Service) upload(ctx context.Context, path, key string) (media.Reference, error) {
	f, err := os.Open(path)
	if err != nil {
		return media.Reference{}, fmt.Errorf("ffmpeg produced no output: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return media.Reference{}, err
	}
	if info.Size() == 0 {
		return media.Reference{}, errors.New("ffmpeg produced an empty file")
	}

	if err := s.media.Store().Put(ctx, key, f, info.Size(), outputContentType); err != nil {
		return media.Reference{}, fmt.Errorf("failed to upload transcoded clip: %w", err)
	}
	return media.Reference{Key: key, ContentType: outputContentType, Size: info.Size()}, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stderr.Bytes(), err
}
