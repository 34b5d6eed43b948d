// Package stream defines the public_sse_v1 event schema emitted to SSE
// clients, plus the common envelope shared by every variant.
//
// The wire object is the event itself (not a wrapper). Every variant carries
// the envelope fields; item-scoped variants additionally carry item_id and
// output_index. Serialization is plain encoding/json: compact, UTF-8, no
// NaN/Inf (payloads originate from decoded JSON, which cannot contain them).
package stream

// SchemaVersion is the constant stamped into the envelope "schema" field.
const SchemaVersion = "public_sse_v1"

// Kind discriminates public event variants.
type Kind string

// Public event kinds (exhaustive).
const (
	KindLifecycle                 Kind = "lifecycle"
	KindMemoryCheckpoint          Kind = "memory.checkpoint"
	KindAgentUpdated              Kind = "agent.updated"
	KindOutputItemAdded           Kind = "output_item.added"
	KindOutputItemDone            Kind = "output_item.done"
	KindMessageDelta              Kind = "message.delta"
	KindMessageCitation           Kind = "message.citation"
	KindReasoningSummaryDelta     Kind = "reasoning_summary.delta"
	KindReasoningSummaryPartAdded Kind = "reasoning_summary.part.added"
	KindReasoningSummaryPartDone  Kind = "reasoning_summary.part.done"
	KindRefusalDelta              Kind = "refusal.delta"
	KindRefusalDone               Kind = "refusal.done"
	KindToolStatus                Kind = "tool.status"
	KindToolArgumentsDelta        Kind = "tool.arguments.delta"
	KindToolArgumentsDone         Kind = "tool.arguments.done"
	KindToolCodeDelta             Kind = "tool.code.delta"
	KindToolCodeDone              Kind = "tool.code.done"
	KindToolOutput                Kind = "tool.output"
	KindToolApproval              Kind = "tool.approval"
	KindChunkDelta                Kind = "chunk.delta"
	KindChunkDone                 Kind = "chunk.done"
	KindError                     Kind = "error"
	KindFinal                     Kind = "final"
)

// Lifecycle status values for the top-level response.
const (
	StatusQueued     = "queued"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusIncomplete = "incomplete"
	StatusCancelled  = "cancelled"
)

// Final status values (lifecycle statuses plus "refused").
const FinalStatusRefused = "refused"

// ToolType classifies a tool call.
type ToolType string

// Tool types.
const (
	ToolTypeWebSearch       ToolType = "web_search"
	ToolTypeFileSearch      ToolType = "file_search"
	ToolTypeCodeInterpreter ToolType = "code_interpreter"
	ToolTypeImageGeneration ToolType = "image_generation"
	ToolTypeFunction        ToolType = "function"
	ToolTypeMCP             ToolType = "mcp"
	ToolTypeAgent           ToolType = "agent"
)

// Tool status values. Search/interpreter/image statuses are coerced into
// these sets by the projector; anything unrecognized becomes in_progress.
const (
	ToolStatusInProgress       = "in_progress"
	ToolStatusSearching        = "searching"
	ToolStatusInterpreting     = "interpreting"
	ToolStatusGenerating       = "generating"
	ToolStatusPartialImage     = "partial_image"
	ToolStatusCompleted        = "completed"
	ToolStatusFailed           = "failed"
	ToolStatusAwaitingApproval = "awaiting_approval"
)

// Error source values.
const (
	ErrorSourceProvider = "provider"
	ErrorSourceServer   = "server"
)

// Notice types.
const (
	NoticeRedacted  = "redacted"
	NoticeTruncated = "truncated"
)

// Notice marks content that was redacted or truncated for safety. Path is a
// dotted JSON path into the event payload (list elements as path[i]).
type Notice struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

// Envelope holds the fields present on every public event. Nullable fields
// serialize as null when absent (no omitempty) so the wire shape is stable.
type Envelope struct {
	Schema                 string         `json:"schema"`
	Kind                   Kind           `json:"kind"`
	EventID                uint64         `json:"event_id"`
	StreamID               string         `json:"stream_id"`
	ServerTimestamp        string         `json:"server_timestamp"`
	ConversationID         string         `json:"conversation_id"`
	ResponseID             *string        `json:"response_id"`
	Agent                  *string        `json:"agent"`
	Workflow               map[string]any `json:"workflow"`
	Scope                  map[string]any `json:"scope"`
	ProviderSequenceNumber *int64         `json:"provider_sequence_number"`
	Notices                []Notice       `json:"notices"`
}

// Env exposes the envelope for generic stamping and inspection.
func (e *Envelope) Env() *Envelope { return e }

// ItemEnvelope extends Envelope for item-scoped variants. The projector never
// emits an item-scoped event without both fields resolved.
type ItemEnvelope struct {
	Envelope
	ItemID      string `json:"item_id"`
	OutputIndex int    `json:"output_index"`
}

// Event is implemented by every public event variant via the embedded
// Envelope. Transports marshal the concrete value directly.
type Event interface {
	Env() *Envelope
}
