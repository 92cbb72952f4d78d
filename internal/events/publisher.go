package events

import (
	"time"

	"github.com/princekumarofficial/screencast-service/internal/types"
)

// Publisher pushes clip lifecycle events to the owner's open dashboards
type Publisher interface {
	PublishClipProcessed(ownerID, clipID, title, viewURL string) error
	PublishClipFailed(ownerID, clipID, reason string) error
}

// EventPublisher implements the Publisher interface
type EventPublisher struct {
	hub WebSocketHub
	now func() time.Time
}

// WebSocketHub interface for the WebSocket hub
type WebSocketHub interface {
	BroadcastToUser(userID string, event *types.Event)
	IsUserConnected(userID string) bool
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(hub WebSocketHub) *EventPublisher {
	return &EventPublisher{
		hub: hub,
		now: time.Now,
	}
}

// PublishClipProcessed tells the owner a clip is ready to view
func (p *EventPublisher) PublishClipProcessed(ownerID, clipID, title, viewURL string) error {
	// Only send if the owner is connected
	if ownerID == "" || !p.hub.IsUserConnected(ownerID) {
		return nil
	}

	eventData := &types.ClipProcessedEvent{
		ClipID:      clipID,
		Title:       title,
		ViewURL:     viewURL,
		ProcessedAt: p.now().UTC().Format(time.RFC3339),
	}

	p.hub.BroadcastToUser(ownerID, types.NewEvent(types.EventClipProcessed, eventData))
	return nil
}

// PublishClipFailed tells the owner processing of a clip failed
func (p *EventPublisher) PublishClipFailed(ownerID, clipID, reason string) error {
	if ownerID == "" || !p.hub.IsUserConnected(ownerID) {
		return nil
	}

	eventData := &types.ClipFailedEvent{
		ClipID:   clipID,
		Reason:   reason,
		FailedAt: p.now().UTC().Format(time.RFC3339),
	}

	p.hub.BroadcastToUser(ownerID, types.NewEvent(types.EventClipFailed, eventData))
	return nil
}

// Noop drops every event; used when no hub is running.
type Noop struct{}

func (Noop) PublishClipProcessed(ownerID, clipID, title, viewURL string) error { return nil }
func (Noop) PublishClipFailed(ownerID, clipID, reason string) error            { return nil }
