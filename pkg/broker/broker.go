// Package broker fans projected events out to SSE subscribers. Each stream
// has its own subscriber set; publishing never blocks the projecting request.
package broker

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/agentwire/relay/pkg/stream"
)

// DefaultSubscriberBuffer is the per-subscriber channel capacity. A consumer
// that falls this far behind the live stream is disconnected rather than
// allowed to stall the publisher.
const DefaultSubscriberBuffer = 256

// ErrStreamClosed is returned when subscribing to a stream that has already
// delivered its terminal event.
var ErrStreamClosed = errors.New("stream closed")

// Broker routes published events to the subscribers of their stream.
// Safe for concurrent use.
type Broker struct {
	mu         sync.RWMutex
	streams    map[string]*streamHub
	bufferSize int
}

type streamHub struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscription
	closed      bool
}

// Subscription is one consumer of a stream. Events arrive on C; the channel
// is closed when the stream ends or the subscriber is dropped.
type Subscription struct {
	ID       string
	C        <-chan stream.Event
	streamID string
	broker   *Broker

	// mu serializes sends against channel close. Sends are non-blocking so
	// the critical section is short.
	mu     sync.Mutex
	ch     chan stream.Event
	closed bool
}

// Option configures a Broker.
type Option func(*Broker)

// WithSubscriberBuffer overrides the per-subscriber channel capacity.
func WithSubscriberBuffer(n int) Option {
	return func(b *Broker) {
		if n > 0 {
			b.bufferSize = n
		}
	}
}

// New creates a Broker.
func New(opts ...Option) *Broker {
	b := &Broker{
		streams:    make(map[string]*streamHub),
		bufferSize: DefaultSubscriberBuffer,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a new consumer for a stream, creating the stream hub on
// first use so subscribers may attach before the first event is published.
func (b *Broker) Subscribe(streamID string) (*Subscription, error) {
	hub := b.hub(streamID, true)

	hub.mu.Lock()
	defer hub.mu.Unlock()
	if hub.closed {
		return nil, ErrStreamClosed
	}

	ch := make(chan stream.Event, b.bufferSize)
	sub := &Subscription{
		ID:       uuid.New().String(),
		C:        ch,
		ch:       ch,
		streamID: streamID,
		broker:   b,
	}
	hub.subscribers[sub.ID] = sub
	return sub, nil
}

// Publish delivers events to every subscriber of the stream. Subscribers are
// snapshotted under the lock and sent to without it, so a slow consumer never
// blocks registration. A subscriber whose buffer is full is dropped.
func (b *Broker) Publish(streamID string, events ...stream.Event) {
	if len(events) == 0 {
		return
	}
	hub := b.hub(streamID, false)
	if hub == nil {
		return
	}

	hub.mu.RLock()
	subs := make([]*Subscription, 0, len(hub.subscribers))
	for _, sub := range hub.subscribers {
		subs = append(subs, sub)
	}
	hub.mu.RUnlock()

subscribers:
	for _, sub := range subs {
		for _, ev := range events {
			if !sub.send(ev) {
				slog.Warn("Dropping slow subscriber",
					"stream_id", streamID, "subscription_id", sub.ID)
				sub.Close()
				continue subscribers
			}
		}
	}
}

// CloseStream marks a stream finished and closes every subscriber channel.
// Subsequent Subscribe calls for the stream fail with ErrStreamClosed. The
// hub is created when absent so the closed marker outlives a stream that
// terminated before anyone subscribed.
func (b *Broker) CloseStream(streamID string) {
	hub := b.hub(streamID, true)

	hub.mu.Lock()
	if hub.closed {
		hub.mu.Unlock()
		return
	}
	hub.closed = true
	subs := make([]*Subscription, 0, len(hub.subscribers))
	for _, sub := range hub.subscribers {
		subs = append(subs, sub)
	}
	hub.subscribers = make(map[string]*Subscription)
	hub.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
}

// Forget drops all broker state for a stream, closed or not. Used by
// retention cleanup after the stream record itself is deleted.
func (b *Broker) Forget(streamID string) {
	b.CloseStream(streamID)
	b.mu.Lock()
	delete(b.streams, streamID)
	b.mu.Unlock()
}

// SubscriberCount returns the number of active subscribers for a stream.
func (b *Broker) SubscriberCount(streamID string) int {
	hub := b.hub(streamID, false)
	if hub == nil {
		return 0
	}
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.subscribers)
}

// send delivers one event without blocking. Reports false when the buffer is
// full; a closed subscription swallows the event and reports success.
func (s *Subscription) send(ev stream.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	select {
	case s.ch <- ev:
		return true
	default:
		return false
	}
}

// Close unsubscribes the consumer and closes its channel. Idempotent.
func (s *Subscription) Close() {
	hub := s.broker.hub(s.streamID, false)
	if hub != nil {
		hub.mu.Lock()
		delete(hub.subscribers, s.ID)
		hub.mu.Unlock()
	}
	s.close()
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// hub returns the hub for a stream, creating it when create is set.
func (b *Broker) hub(streamID string, create bool) *streamHub {
	b.mu.RLock()
	hub, ok := b.streams[streamID]
	b.mu.RUnlock()
	if ok || !create {
		return hub
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if hub, ok = b.streams[streamID]; ok {
		return hub
	}
	hub = &streamHub{subscribers: make(map[string]*Subscription)}
	b.streams[streamID] = hub
	return hub
}
