package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
)

const (
	releaseGrace = 5 * time.Second

	// DefaultStartGrace bounds how long Open waits for ffmpeg to either
	// produce output or exit.
	DefaultStartGrace = 750 * time.Millisecond
)

var errExitedEarly = errors.New("ffmpeg exited before recording")

// FFmpegDevice captures the desktop with ffmpeg and streams the encoded
// container from its stdout.
type FFmpegDevice struct {
	Path string
	// Display is the screen input, e.g. ":0.0" for x11grab or "1" for avfoundation.
	Display string
	// Audio is the audio input; empty records video only.
	Audio     string
	Framerate int
	// StartGrace is how long Open waits for the first output before it
	// reports the recording as started.
	StartGrace time.Duration

	lookPath func(string) (string, error)
	goos     string
}

func NewFFmpegDevice(path, display, audio string) *FFmpegDevice {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpegDevice{
		Path:       path,
		Display:    display,
		Audio:      audio,
		Framerate:  30,
		StartGrace: DefaultStartGrace,
		lookPath:   exec.LookPath,
		goos:       runtime.GOOS,
	}
}

func (d *FFmpegDevice) Available() bool {
	if d.screenInput() == "" {
		return false
	}
	_, err := d.lookPath(d.Path)
	return err == nil
}

func (d *FFmpegDevice) Supports(mimeType string) bool {
	switch baseType(mimeType) {
	case "video/webm":
		for _, c := range codecs(mimeType) {
			if c != "vp8" && c != "vp9" && c != "opus" && c != "vorbis" {
				return false
			}
		}
		return true
	case "video/mp4":
		return len(codecs(mimeType)) == 0
	}
	return false
}

func (d *FFmpegDevice) screenInput() string {
	switch d.goos {
	case "linux":
		return "x11grab"
	case "darwin":
		return "avfoundation"
	case "windows":
		return "gdigrab"
	}
	return ""
}

// Args builds the ffmpeg command line for opts.
func (d *FFmpegDevice) Args(opts Options) []string {
	display := d.Display
	if display == "" {
		switch d.goos {
		case "darwin":
			display = "1"
		case "windows":
			display = "desktop"
		default:
			display = ":0.0"
		}
	}

	args := []string{"-hide_banner", "-loglevel", "error",
		"-f", d.screenInput(), "-framerate", fmt.Sprint(d.Framerate), "-i", display}
	if d.Audio != "" {
		args = append(args, "-f", audioInput(d.goos), "-i", d.Audio)
	}

	switch {
	case baseType(opts.MimeType) == "video/mp4":
		args = append(args, "-c:v", "libx264", "-preset", "ultrafast", "-pix_fmt", "yuv420p")
		if d.Audio != "" {
			args = append(args, "-c:a", "aac")
		}
		args = append(args, "-movflags", "frag_keyframe+empty_moov", "-f", "mp4")
	default:
		video := "libvpx-vp9"
		if containsCodec(opts.MimeType, "vp8") {
			video = "libvpx"
		}
		args = append(args, "-c:v", video, "-deadline", "realtime", "-cpu-used", "8")
		if d.Audio != "" {
			args = append(args, "-c:a", "libopus")
		}
		args = append(args, "-f", "webm")
	}

	return append(args, "pipe:1")
}

func audioInput(goos string) string {
	switch goos {
	case "darwin":
		return "avfoundation"
	case "windows":
		return "dshow"
	}
	return "pulse"
}

func containsCodec(mimeType, codec string) bool {
	for _, c := range codecs(mimeType) {
		if c == codec {
			return true
		}
	}
	return false
}

// Open starts ffmpeg and waits up to StartGrace for the first output, so a
// denied display or a missing encoder fails here instead of at stop. ctx only
// bounds acquisition; the recording runs until RequestStop or Release.
func (d *FFmpegDevice) Open(ctx context.Context, opts Options) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cmd := exec.Command(d.Path, d.Args(opts)...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureUnsupported, err)
	}

	timeslice := opts.Timeslice
	if timeslice <= 0 {
		timeslice = DefaultTimeslice
	}

	s := &ffmpegStream{
		cmd:     cmd,
		stdin:   stdin,
		stderr:  stderr,
		events:  make(chan Event, 16),
		started: make(chan struct{}),
		exited:  make(chan struct{}),
	}
	go s.run(stdout, timeslice)

	grace := d.StartGrace
	if grace <= 0 {
		grace = DefaultStartGrace
	}
	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-s.started:
	case <-timer.C:
	case <-s.exited:
		s.discard()
		return nil, s.exitErr
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		s.discard()
		return nil, ctx.Err()
	}
	return s, nil
}

type ffmpegStream struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *bytes.Buffer
	events chan Event

	stopOnce    sync.Once
	releaseOnce sync.Once
	startOnce   sync.Once
	mu          sync.Mutex
	stopping    bool
	started     chan struct{}
	exited      chan struct{}
	// exitErr is set before exited is closed.
	exitErr error
}

func (s *ffmpegStream) Events() <-chan Event {
	return s.events
}

// RequestStop sends "q", which makes ffmpeg finish the container and exit.
func (s *ffmpegStream) RequestStop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopping = true
		s.mu.Unlock()
		_, _ = io.WriteString(s.stdin, "q")
		_ = s.stdin.Close()
	})
}

// Release kills ffmpeg if it is still holding the display.
func (s *ffmpegStream) Release() error {
	var err error
	s.releaseOnce.Do(func() {
		select {
		case <-s.exited:
		case <-time.After(releaseGrace):
			err = s.cmd.Process.Kill()
		}
	})
	return err
}

// discard drains a stream nobody will consume so run can finish.
func (s *ffmpegStream) discard() {
	go func() {
		for range s.events {
		}
	}()
}

// run reads stdout and emits one chunk per timeslice, then the terminal event.
func (s *ffmpegStream) run(stdout io.Reader, timeslice time.Duration) {
	defer close(s.events)

	var (
		mu      sync.Mutex
		pending []byte
		readErr error
	)
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		buf := make([]byte, 64*1024)
		for {
			n, err := stdout.Read(buf)
			if n > 0 {
				mu.Lock()
				pending = append(pending, buf[:n]...)
				mu.Unlock()
				s.startOnce.Do(func() { close(s.started) })
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					readErr = err
				}
				return
			}
		}
	}()

	flush := func() {
		mu.Lock()
		chunk := pending
		pending = nil
		mu.Unlock()
		if len(chunk) > 0 {
			s.events <- Event{Kind: EventChunk, Data: chunk}
		}
	}

	ticker := time.NewTicker(timeslice)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ticker.C:
			flush()
		case <-readDone:
			break loop
		}
	}
	flush()

	waitErr := s.cmd.Wait()
	switch {
	case waitErr != nil:
		s.exitErr = classifyFFmpeg(waitErr, s.stderr.String())
	case readErr != nil:
		s.exitErr = readErr
	default:
		s.exitErr = errExitedEarly
	}
	close(s.exited)

	s.mu.Lock()
	stopping := s.stopping
	s.mu.Unlock()

	switch {
	case readErr != nil:
		s.events <- Event{Kind: EventErrored, Err: readErr}
	case waitErr != nil && !stopping:
		s.events <- Event{Kind: EventErrored, Err: s.exitErr}
	default:
		s.events <- Event{Kind: EventStopped}
	}
}

func classifyFFmpeg(err error, stderr string) error {
	lower := strings.ToLower(stderr)
	if strings.Contains(lower, "permission denied") || strings.Contains(lower, "not authorized") ||
		strings.Contains(lower, "cannot open display") {
		return fmt.Errorf("%w: %s", ErrPermissionDenied, strings.TrimSpace(stderr))
	}
	return fmt.Errorf("ffmpeg exited: %v: %s", err, strings.TrimSpace(stderr))
}
