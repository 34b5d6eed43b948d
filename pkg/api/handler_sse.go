package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agentwire/relay/pkg/broker"
	"github.com/agentwire/relay/pkg/store"
	"github.com/agentwire/relay/pkg/stream"
)

// sseHandler handles GET /api/v1/streams/:stream_id/sse. Events are framed
// as `event:` / `id:` / `data:` blocks; heartbeat comments keep intermediate
// proxies from timing the connection out. Blocks until the stream ends or
// the client disconnects.
func (s *Server) sseHandler(c *gin.Context) {
	streamID := c.Param("stream_id")

	if _, err := s.store.GetStream(c.Request.Context(), streamID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			abortError(c, http.StatusNotFound, "unknown stream")
		} else {
			abortError(c, http.StatusInternalServerError, "failed to look up stream")
		}
		return
	}

	sub, err := s.broker.Subscribe(streamID)
	if err != nil {
		// Terminal streams have nothing left to deliver; events are not
		// replayed.
		if errors.Is(err, broker.ErrStreamClosed) {
			abortError(c, http.StatusGone, "stream already finished")
			return
		}
		abortError(c, http.StatusInternalServerError, "failed to subscribe")
		return
	}
	defer sub.Close()

	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	heartbeat := time.NewTicker(s.cfg.HeartbeatInterval())
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return

		case <-heartbeat.C:
			if _, err := fmt.Fprint(c.Writer, ": heartbeat\n\n"); err != nil {
				return
			}
			c.Writer.Flush()

		case ev, open := <-sub.C:
			if !open {
				return
			}
			if err := writeSSE(c.Writer, ev); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}

// writeSSE frames one event. The event name is the public kind; the id field
// carries the monotonic event ID so clients can track their position.
func writeSSE(w io.Writer, ev stream.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = fmt.Fprintf(w, "event: %s\nid: %d\ndata: %s\n\n",
		ev.Env().Kind, ev.Env().EventID, data)
	return err
}
