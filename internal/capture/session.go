// Package capture records the screen into a single finalized clip.
//
// A Session is a small state machine:
//
//	idle -> recording -> stopping -> finalized
//	idle -> error (while starting)
//	recording, stopping -> error (when the device fails)
//
// Device events arrive on one ordered queue and are consumed by a single
// goroutine, so chunks are buffered in the order the encoder produced them.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/princekumarofficial/screencast-service/internal/apperr"
)

type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StateStopping  State = "stopping"
	StateFinalized State = "finalized"
	StateError     State = "error"
)

const DefaultTimeslice = time.Second

var (
	ErrCaptureUnsupported = errors.New("screen capture is not supported on this platform")
	ErrPermissionDenied   = errors.New("screen capture permission denied")
	ErrEmptyRecording     = errors.New("recording is empty")
	ErrNoSupportedFormat  = errors.New("no supported recording format")
	ErrInvalidState       = errors.New("invalid capture state")
	ErrNoTerminalEvent    = errors.New("capture stream closed without a terminal event")
)

// Blob is a finalized recording.
type Blob struct {
	Data        []byte
	ContentType string
}

// Size returns the blob length in bytes.
func (b Blob) Size() int64 {
	return int64(len(b.Data))
}

type Session struct {
	device    Device
	formats   []string
	timeslice time.Duration
	logger    *slog.Logger

	mu       sync.Mutex
	state    State
	mimeType string
	stream   Stream
	chunks   [][]byte
	drained  int
	failure  error
	done     chan struct{}

	releaseOnce sync.Once
	releaseErr  error
}

type Option func(*Session)

// WithFormats overrides the format preference list.
func WithFormats(formats ...string) Option {
	return func(s *Session) { s.formats = formats }
}

// WithTimeslice sets how often the encoder emits a chunk.
func WithTimeslice(d time.Duration) Option {
	return func(s *Session) { s.timeslice = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

func NewSession(device Device, opts ...Option) *Session {
	s := &Session{
		device:    device,
		formats:   DefaultFormats,
		timeslice: DefaultTimeslice,
		logger:    slog.Default(),
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// MimeType returns the negotiated format, or "" before Start.
func (s *Session) MimeType() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mimeType
}

// Start negotiates a format, acquires the capture stream and begins buffering.
func (s *Session) Start(ctx context.Context) error {
	const op = "capture.Start"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return apperr.Capture(op, fmt.Errorf("%w: start in %s", ErrInvalidState, s.state))
	}
	if s.device == nil || !s.device.Available() {
		s.state = StateError
		return apperr.Capture(op, ErrCaptureUnsupported)
	}

	mimeType, err := Negotiate(s.device, s.formats)
	if err != nil {
		s.state = StateError
		return apperr.Capture(op, err)
	}

	stream, err := s.device.Open(ctx, Options{MimeType: mimeType, Timeslice: s.timeslice})
	if err != nil {
		s.state = StateError
		return apperr.Capture(op, err)
	}

	s.mimeType = mimeType
	s.stream = stream
	s.done = make(chan struct{})
	s.state = StateRecording
	go s.consume(stream)

	s.logger.Info("capture started", slog.String("mime_type", mimeType), slog.Duration("timeslice", s.timeslice))
	return nil
}

// consume is the only reader of the stream's event queue.
func (s *Session) consume(stream Stream) {
	defer close(s.done)

	for ev := range stream.Events() {
		switch ev.Kind {
		case EventChunk:
			if len(ev.Data) == 0 {
				continue
			}
			s.mu.Lock()
			s.chunks = append(s.chunks, ev.Data)
			s.mu.Unlock()
		case EventStopped:
			return
		case EventErrored:
			s.fail(ev.Err)
			return
		}
	}
	s.fail(ErrNoTerminalEvent)
}

func (s *Session) fail(err error) {
	if err == nil {
		err = errors.New("capture device error")
	}
	s.mu.Lock()
	s.failure = err
	if s.state == StateRecording || s.state == StateStopping {
		s.state = StateError
	}
	s.mu.Unlock()

	// tracks are released as soon as the device gives up
	s.release()
	s.logger.Error("capture stream failed", slog.String("error", err.Error()))
}

// Drain returns the chunks buffered since the previous Drain. Drained chunks
// are still part of the blob returned by Stop.
func (s *Session) Drain() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([][]byte, len(s.chunks)-s.drained)
	copy(out, s.chunks[s.drained:])
	s.drained = len(s.chunks)
	return out
}

// Stop flushes the encoder, releases every track and returns the recording.
// After a device failure it returns that failure.
func (s *Session) Stop(ctx context.Context) (Blob, error) {
	const op = "capture.Stop"

	s.mu.Lock()
	if s.state == StateError && s.failure != nil {
		failure := s.failure
		s.mu.Unlock()
		s.release()
		return Blob{}, apperr.Capture(op, failure)
	}
	if s.state != StateRecording {
		state := s.state
		s.mu.Unlock()
		return Blob{}, apperr.Capture(op, fmt.Errorf("%w: stop in %s", ErrInvalidState, state))
	}
	s.state = StateStopping
	stream, done := s.stream, s.done
	s.mu.Unlock()

	defer s.release()
	stream.RequestStop()

	select {
	case <-done:
	case <-ctx.Done():
		s.setState(StateFinalized)
		return Blob{}, apperr.Capture(op, ctx.Err())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failure != nil {
		s.state = StateError
		return Blob{}, apperr.Capture(op, s.failure)
	}
	s.state = StateFinalized

	data := bytes.Join(s.chunks, nil)
	if len(data) == 0 {
		return Blob{}, apperr.Capture(op, ErrEmptyRecording)
	}

	s.logger.Info("capture finalized", slog.Int("chunks", len(s.chunks)), slog.Int("bytes", len(data)))
	return Blob{Data: data, ContentType: s.mimeType}, nil
}

// Close releases the device on teardown. It is safe in any state.
func (s *Session) Close() error {
	s.mu.Lock()
	stream := s.stream
	if s.state == StateRecording {
		s.state = StateFinalized
	}
	s.mu.Unlock()

	if stream == nil {
		return nil
	}
	stream.RequestStop()
	return s.release()
}

func (s *Session) release() error {
	s.releaseOnce.Do(func() {
		s.mu.Lock()
		stream := s.stream
		s.mu.Unlock()
		if stream != nil {
			s.releaseErr = stream.Release()
		}
	})
	return s.releaseErr
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
