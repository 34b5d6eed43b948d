// Package cleanup provides stream retention enforcement.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/agentwire/relay/pkg/broker"
	"github.com/agentwire/relay/pkg/store"
)

// Service periodically deletes finished stream records past their retention
// TTL and releases the matching broker state. Operations are idempotent and
// safe to run from multiple pods sharing one database.
type Service struct {
	ttl      time.Duration
	interval time.Duration
	store    store.Store
	broker   *broker.Broker

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a cleanup service. interval controls how often the
// retention sweep runs.
func NewService(ttl, interval time.Duration, st store.Store, b *broker.Broker) *Service {
	return &Service{
		ttl:      ttl,
		interval: interval,
		store:    st,
		broker:   b,
	}
}

// Start launches the background cleanup loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("Cleanup service started", "retention_ttl", s.ttl, "interval", s.interval)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("Cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep deletes expired stream records and forgets their broker hubs.
func (s *Service) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.ttl)
	ids, err := s.store.DeleteExpired(ctx, cutoff)
	if err != nil {
		slog.Error("Retention: delete expired streams failed", "error", err)
		return
	}
	for _, id := range ids {
		s.broker.Forget(id)
	}
	if len(ids) > 0 {
		slog.Info("Retention: deleted expired streams", "count", len(ids))
	}
}
