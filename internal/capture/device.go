package capture

import (
	"context"
	"time"
)

// EventKind classifies what a capture stream reported.
type EventKind int

const (
	EventChunk EventKind = iota
	EventStopped
	EventErrored
)

// Event is one entry of a stream's event queue.
type Event struct {
	Kind EventKind
	Data []byte
	Err  error
}

// Options are the encoder settings a session asks a device for.
type Options struct {
	MimeType  string
	Timeslice time.Duration
}

// Device is a platform screen+audio capture capability.
type Device interface {
	// Available reports whether the platform can capture at all.
	Available() bool
	// Supports reports whether the encoder can produce mimeType.
	Supports(mimeType string) bool
	// Open asks for a capture grant and starts encoding. It returns
	// ErrPermissionDenied when the grant is refused.
	Open(ctx context.Context, opts Options) (Stream, error)
}

// Stream is an open capture. Events carries zero or more EventChunk values
// followed by exactly one EventStopped or EventErrored, and is then closed.
// All device callbacks are delivered through this one channel, in order.
type Stream interface {
	Events() <-chan Event
	// RequestStop asks the encoder to flush and end with EventStopped.
	// Calling it again, or after the stream ended, does nothing.
	RequestStop()
	// Release stops every acquired track. It must be safe to call more than once.
	Release() error
}
