// Package store persists stream metadata. Events themselves are never
// stored; the record tracks identity, liveness, and the last event ID so
// operators can inspect and expire streams.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a stream record does not exist.
var ErrNotFound = errors.New("stream not found")

// ErrAlreadyExists is returned when creating a stream whose ID is taken.
var ErrAlreadyExists = errors.New("stream already exists")

// StatusActive is the status of a stream that has not emitted its terminal
// event yet. Terminal statuses come from the projected final/error event.
const StatusActive = "active"

// StreamRecord is one row of stream metadata.
type StreamRecord struct {
	StreamID       string     `json:"stream_id"`
	ConversationID string     `json:"conversation_id"`
	Status         string     `json:"status"`
	LastEventID    int64      `json:"last_event_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	TerminalAt     *time.Time `json:"terminal_at,omitempty"`
}

// Store is the stream metadata persistence interface. Implemented by
// SQLStore (PostgreSQL) and MemoryStore (no database configured).
type Store interface {
	// CreateStream inserts a new active stream record.
	CreateStream(ctx context.Context, streamID, conversationID string) error

	// GetStream fetches one stream record.
	GetStream(ctx context.Context, streamID string) (*StreamRecord, error)

	// UpdateProgress advances the stream's last event ID.
	UpdateProgress(ctx context.Context, streamID string, lastEventID int64) error

	// MarkTerminal records the terminal status and timestamp.
	MarkTerminal(ctx context.Context, streamID, status string) error

	// DeleteExpired removes terminal streams older than the cutoff and
	// returns their IDs so callers can release broker state.
	DeleteExpired(ctx context.Context, cutoff time.Time) ([]string, error)
}
