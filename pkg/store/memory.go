package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is the in-process fallback used when no database is
// configured. State is lost on restart, which matches the lifetime of the
// streams it tracks.
type MemoryStore struct {
	mu      sync.RWMutex
	streams map[string]*StreamRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{streams: make(map[string]*StreamRecord)}
}

func (s *MemoryStore) CreateStream(_ context.Context, streamID, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.streams[streamID]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, streamID)
	}
	now := time.Now().UTC()
	s.streams[streamID] = &StreamRecord{
		StreamID:       streamID,
		ConversationID: conversationID,
		Status:         StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return nil
}

func (s *MemoryStore) GetStream(_ context.Context, streamID string) (*StreamRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.streams[streamID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, streamID)
	}
	out := *rec
	return &out, nil
}

func (s *MemoryStore) UpdateProgress(_ context.Context, streamID string, lastEventID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.streams[streamID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, streamID)
	}
	if lastEventID > rec.LastEventID {
		rec.LastEventID = lastEventID
		rec.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (s *MemoryStore) MarkTerminal(_ context.Context, streamID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.streams[streamID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, streamID)
	}
	now := time.Now().UTC()
	rec.Status = status
	rec.TerminalAt = &now
	rec.UpdatedAt = now
	return nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, cutoff time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id, rec := range s.streams {
		if rec.TerminalAt != nil && rec.TerminalAt.Before(cutoff) {
			delete(s.streams, id)
			ids = append(ids, id)
		}
	}
	return ids, nil
}
