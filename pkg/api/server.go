// Package api exposes the HTTP surface: stream creation, event ingest, and
// SSE fan-out.
package api

import (
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/agentwire/relay/pkg/broker"
	"github.com/agentwire/relay/pkg/config"
	"github.com/agentwire/relay/pkg/database"
	"github.com/agentwire/relay/pkg/models"
	"github.com/agentwire/relay/pkg/projector"
	"github.com/agentwire/relay/pkg/store"
)

// Server wires the projection pipeline to HTTP. One projector instance lives
// per active stream; ingest requests for a stream are serialized on the
// session lock so the projector's single-threaded contract holds.
type Server struct {
	cfg    *config.Config
	store  store.Store
	broker *broker.Broker
	db     *database.Client // nil when the database is disabled

	mu       sync.RWMutex
	sessions map[string]*streamSession
}

// streamSession is the per-stream projection state held between ingest calls.
type streamSession struct {
	mu             sync.Mutex
	projector      *projector.Projector
	conversationID string
	workflow       *models.WorkflowMeta
}

// NewServer creates an API server.
func NewServer(cfg *config.Config, st store.Store, b *broker.Broker, db *database.Client) *Server {
	return &Server{
		cfg:      cfg,
		store:    st,
		broker:   b,
		db:       db,
		sessions: make(map[string]*streamSession),
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), securityHeaders())

	v1 := r.Group("/api/v1")
	v1.GET("/health", s.healthHandler)

	streams := v1.Group("/streams")
	streams.POST("", s.ingestAuth(), s.createStreamHandler)
	streams.POST("/:stream_id/events", s.ingestAuth(), s.ingestEventsHandler)
	streams.POST("/:stream_id/error", s.ingestAuth(), s.ingestErrorHandler)
	streams.GET("/:stream_id/sse", s.originCheck(), s.sseHandler)

	return r
}

func (s *Server) session(streamID string) (*streamSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[streamID]
	return sess, ok
}

func (s *Server) addSession(streamID string, sess *streamSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[streamID] = sess
}
