package types

import "time"

type Visibility string

const (
	VisibilityPrivate  Visibility = "private"
	VisibilityUnlisted Visibility = "unlisted"
	VisibilityPublic   Visibility = "public"
)

// Valid reports whether v is one of the known visibility levels.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPrivate, VisibilityUnlisted, VisibilityPublic:
		return true
	}
	return false
}

// Shareable reports whether a clip with this visibility may produce a link.
func (v Visibility) Shareable() bool {
	return v == VisibilityPublic || v == VisibilityUnlisted
}

type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// Valid reports whether s is one of the known processing statuses.
func (s ProcessingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// CanAdvanceTo reports whether a record in status s may be moved to next.
// Statuses only move forward; completed -> completed is an idempotent no-op
// and failed is terminal.
func (s ProcessingStatus) CanAdvanceTo(next ProcessingStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusCompleted || next == StatusFailed
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	case StatusCompleted:
		return next == StatusCompleted
	}
	return false
}

// Predecessors returns every status from which s can be reached.
func (s ProcessingStatus) Predecessors() []ProcessingStatus {
	var out []ProcessingStatus
	for _, from := range []ProcessingStatus{StatusPending, StatusProcessing, StatusCompleted, StatusFailed} {
		if from.CanAdvanceTo(s) {
			out = append(out, from)
		}
	}
	return out
}

// Clip is the persisted description of one screen recording.
type Clip struct {
	ID               string           `json:"id"`
	ShortID          string           `json:"short_id"`
	OwnerID          string           `json:"user_id"`
	Title            string           `json:"title"`
	StorageReference string           `json:"file_path"`
	ContentType      string           `json:"content_type"`
	Size             int64            `json:"size"`
	Visibility       Visibility       `json:"visibility"`
	ProcessingStatus ProcessingStatus `json:"processing_status"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// NewClip carries the fields supplied when a record is inserted.
type NewClip struct {
	ShortID          string
	OwnerID          string
	Title            string
	StorageReference string
	ContentType      string
	Size             int64
	Visibility       Visibility
	ProcessingStatus ProcessingStatus
}

// ClipPatch is a partial update; nil fields are left untouched.
type ClipPatch struct {
	Title            *string           `json:"title,omitempty"`
	Visibility       *Visibility       `json:"visibility,omitempty"`
	ProcessingStatus *ProcessingStatus `json:"processing_status,omitempty"`
	StorageReference *string           `json:"file_path,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ClipPatch) Empty() bool {
	return p.Title == nil && p.Visibility == nil && p.ProcessingStatus == nil && p.StorageReference == nil
}

// Orphan is a storage object that no record references any more.
type Orphan struct {
	ObjectKey string    `json:"object_key"`
	Reason    string    `json:"reason"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
}
