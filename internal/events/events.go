// Package events fans out file lifecycle notifications to subscribers.
// Publishing is best-effort: failures are logged and never surface to callers.
package events

import (
	"context"
	"time"
)

const (
	FileIngested    = "files.ingested"
	FileDeleted     = "files.deleted"
	FileInvalidated = "files.invalidated"
	FileValidated   = "files.validated"
	FolderMoved     = "folders.moved"
)

type Event struct {
	Type       string    `json:"type"`
	FileID     int64     `json:"file_id,omitempty"`
	FolderID   *int64    `json:"folder_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Multi publishes to every non-nil publisher in order.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(ctx, e)
		}
	}
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) {}
