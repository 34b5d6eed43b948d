package api

import "github.com/gin-gonic/gin"

// CreateStreamResponse returns the identifier clients use for SSE and the
// runtime uses for ingest.
type CreateStreamResponse struct {
	StreamID string `json:"stream_id"`
}

// IngestResponse reports the outcome of one ingest batch.
type IngestResponse struct {
	Accepted    int    `json:"accepted"`
	Emitted     int    `json:"emitted"`
	LastEventID uint64 `json:"last_event_id"`
	Terminal    bool   `json:"terminal"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

func abortError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message})
}
