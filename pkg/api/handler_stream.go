package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agentwire/relay/pkg/projector"
	"github.com/agentwire/relay/pkg/store"
	"github.com/agentwire/relay/pkg/stream"
)

// createStreamHandler handles POST /api/v1/streams.
func (s *Server) createStreamHandler(c *gin.Context) {
	var req CreateStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	streamID, err := stream.NewStreamID(s.cfg.Stream.IDPrefix)
	if err != nil {
		slog.Error("Failed to generate stream ID", "error", err)
		abortError(c, http.StatusInternalServerError, "failed to create stream")
		return
	}
	if err := s.store.CreateStream(c.Request.Context(), streamID, req.ConversationID); err != nil {
		slog.Error("Failed to create stream record", "stream_id", streamID, "error", err)
		abortError(c, http.StatusInternalServerError, "failed to create stream")
		return
	}

	s.addSession(streamID, &streamSession{
		projector:      projector.New(streamID, projector.WithMaxChunkChars(s.cfg.Stream.MaxChunkChars)),
		conversationID: req.ConversationID,
		workflow:       req.Workflow,
	})

	slog.Info("Stream created", "stream_id", streamID, "conversation_id", req.ConversationID)
	c.JSON(http.StatusCreated, CreateStreamResponse{StreamID: streamID})
}

// ingestEventsHandler handles POST /api/v1/streams/:stream_id/events. Events
// are projected in order; the resulting public events fan out to SSE
// subscribers. Post-terminal batches are accepted and produce nothing.
func (s *Server) ingestEventsHandler(c *gin.Context) {
	streamID := c.Param("stream_id")
	sess, ok := s.session(streamID)
	if !ok {
		abortError(c, http.StatusNotFound, "unknown stream")
		return
	}

	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ctx := projector.Context{
		ConversationID: sess.conversationID,
		ResponseID:     req.ResponseID,
		Agent:          req.Agent,
		Workflow:       sess.workflow,
	}

	sess.mu.Lock()
	var out []stream.Event
	for _, evt := range req.Events {
		out = append(out, sess.projector.Project(evt, ctx)...)
	}
	terminal := sess.projector.Terminal()
	sess.mu.Unlock()

	s.publish(c, streamID, out, terminal)

	resp := IngestResponse{
		Accepted: len(req.Events),
		Emitted:  len(out),
		Terminal: terminal,
	}
	if len(out) > 0 {
		resp.LastEventID = out[len(out)-1].Env().EventID
	}
	c.JSON(http.StatusOK, resp)
}

// ingestErrorHandler handles POST /api/v1/streams/:stream_id/error.
func (s *Server) ingestErrorHandler(c *gin.Context) {
	streamID := c.Param("stream_id")
	sess, ok := s.session(streamID)
	if !ok {
		abortError(c, http.StatusNotFound, "unknown stream")
		return
	}

	var req IngestErrorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	source := req.Source
	if source == "" {
		source = stream.ErrorSourceServer
	}
	if source != stream.ErrorSourceServer && source != stream.ErrorSourceProvider {
		abortError(c, http.StatusBadRequest, "source must be server or provider")
		return
	}

	ctx := projector.Context{ConversationID: sess.conversationID, Workflow: sess.workflow}

	sess.mu.Lock()
	ev := sess.projector.ProjectError(ctx, req.Code, req.Message, source, req.IsRetryable)
	sess.mu.Unlock()

	resp := IngestResponse{Terminal: true}
	if ev != nil {
		s.publish(c, streamID, []stream.Event{ev}, true)
		resp.Emitted = 1
		resp.LastEventID = ev.EventID
	}
	c.JSON(http.StatusOK, resp)
}

// publish fans events out, advances the stored progress marker, and closes
// the stream on a terminal event.
func (s *Server) publish(c *gin.Context, streamID string, events []stream.Event, terminal bool) {
	if len(events) > 0 {
		s.broker.Publish(streamID, events...)

		lastID := int64(events[len(events)-1].Env().EventID)
		if err := s.store.UpdateProgress(c.Request.Context(), streamID, lastID); err != nil &&
			!errors.Is(err, store.ErrNotFound) {
			slog.Error("Failed to update stream progress", "stream_id", streamID, "error", err)
		}
	}

	if terminal {
		status := terminalStatus(events)
		if err := s.store.MarkTerminal(c.Request.Context(), streamID, status); err != nil &&
			!errors.Is(err, store.ErrNotFound) {
			slog.Error("Failed to mark stream terminal", "stream_id", streamID, "error", err)
		}
		s.broker.CloseStream(streamID)
		slog.Info("Stream finished", "stream_id", streamID, "status", status)
	}
}

// terminalStatus derives the stored status from the terminal event.
func terminalStatus(events []stream.Event) string {
	for i := len(events) - 1; i >= 0; i-- {
		switch ev := events[i].(type) {
		case *stream.Final:
			return ev.Status
		case *stream.Error:
			return "error"
		}
	}
	return "error"
}
