package types

import "time"

// EventType represents the type of real-time event
type EventType string

const (
	EventClipProcessed EventType = "clip.processed"
	EventClipFailed    EventType = "clip.failed"
)

// Event represents a real-time event that can be sent over WebSocket
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// ClipProcessedEvent is sent to the owner once a clip is ready to view
type ClipProcessedEvent struct {
	ClipID      string `json:"clip_id"`
	Title       string `json:"title"`
	ViewURL     string `json:"view_url"`
	ProcessedAt string `json:"processed_at"`
}

// ClipFailedEvent is sent to the owner when processing of a clip fails
type ClipFailedEvent struct {
	ClipID   string `json:"clip_id"`
	Reason   string `json:"reason"`
	FailedAt string `json:"failed_at"`
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
