package api

import "github.com/agentwire/relay/pkg/models"

// CreateStreamRequest opens a new public stream for one logical response.
type CreateStreamRequest struct {
	ConversationID string `json:"conversation_id" binding:"required"`

	// Workflow metadata applies to every event of the stream. Optional.
	Workflow *models.WorkflowMeta `json:"workflow,omitempty"`
}

// IngestRequest carries a batch of internal runtime events for projection.
// The per-batch identity fields are stamped onto every projected envelope.
type IngestRequest struct {
	ResponseID *string                 `json:"response_id,omitempty"`
	Agent      *string                 `json:"agent,omitempty"`
	Events     []*models.InternalEvent `json:"events" binding:"required"`
}

// IngestErrorRequest reports a caller-initiated terminal error.
type IngestErrorRequest struct {
	Code        *string `json:"code,omitempty"`
	Message     string  `json:"message" binding:"required"`
	Source      string  `json:"source,omitempty"`
	IsRetryable bool    `json:"is_retryable,omitempty"`
}
