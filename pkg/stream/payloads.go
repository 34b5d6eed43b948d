package stream

// Lifecycle reports a response status transition (queued, in_progress,
// completed, failed, incomplete, cancelled). Reason is set on cancellations
// when the runtime supplied one.
type Lifecycle struct {
	Envelope
	Status string  `json:"status"`
	Reason *string `json:"reason,omitempty"`
}

// MemoryCheckpointPayload describes a memory compaction checkpoint. All
// fields are coerced defensively from the runtime payload.
type MemoryCheckpointPayload struct {
	Strategy        string   `json:"strategy"` // compact, summarize, trim
	TokensBefore    *int     `json:"tokens_before"`
	TokensAfter     *int     `json:"tokens_after"`
	MessagesRemoved *int     `json:"messages_removed"`
	Forced          bool     `json:"forced"`
	RemovedItemIDs  []string `json:"removed_item_ids,omitempty"`
}

// MemoryCheckpoint surfaces a runtime memory compaction event.
type MemoryCheckpoint struct {
	Envelope
	Checkpoint MemoryCheckpointPayload `json:"checkpoint"`
}

// AgentUpdated reports an agent handoff. FromAgent is null for the first
// agent observed on the stream. HandoffIndex starts at 1 and increments per
// handoff.
type AgentUpdated struct {
	Envelope
	FromAgent    *string `json:"from_agent"`
	ToAgent      string  `json:"to_agent"`
	HandoffIndex uint32  `json:"handoff_index"`
}

// OutputItemAdded announces a new element of the provider output array.
type OutputItemAdded struct {
	ItemEnvelope
	ItemType string  `json:"item_type"`
	Role     *string `json:"role,omitempty"`
	Status   *string `json:"status,omitempty"`
}

// OutputItemDone announces completion of an output array element.
type OutputItemDone struct {
	ItemEnvelope
	ItemType string  `json:"item_type"`
	Role     *string `json:"role,omitempty"`
	Status   *string `json:"status,omitempty"`
}

// MessageDelta carries an incremental assistant text fragment. Deltas are
// forwarded in provider order and never merged or split.
type MessageDelta struct {
	ItemEnvelope
	ContentIndex int    `json:"content_index"`
	Delta        string `json:"delta"`
}

// Citation is an annotation attached to assistant text. Type selects which
// optional fields are populated: url_citation (URL, Title, StartIndex,
// EndIndex), container_file_citation (ContainerID, FileID, Filename, URL),
// file_citation (FileID, Filename).
type Citation struct {
	Type        string  `json:"type"`
	URL         *string `json:"url,omitempty"`
	Title       *string `json:"title,omitempty"`
	StartIndex  *int    `json:"start_index,omitempty"`
	EndIndex    *int    `json:"end_index,omitempty"`
	ContainerID *string `json:"container_id,omitempty"`
	FileID      *string `json:"file_id,omitempty"`
	Filename    *string `json:"filename,omitempty"`
}

// MessageCitation attaches a citation to a message content part.
type MessageCitation struct {
	ItemEnvelope
	ContentIndex int      `json:"content_index"`
	Citation     Citation `json:"citation"`
}

// ReasoningSummaryDelta carries an incremental reasoning summary fragment.
type ReasoningSummaryDelta struct {
	ItemEnvelope
	SummaryIndex int    `json:"summary_index"`
	Delta        string `json:"delta"`
}

// ReasoningSummaryPartAdded announces a new reasoning summary part.
type ReasoningSummaryPartAdded struct {
	ItemEnvelope
	SummaryIndex int     `json:"summary_index"`
	Text         *string `json:"text,omitempty"`
}

// ReasoningSummaryPartDone announces completion of a reasoning summary part.
type ReasoningSummaryPartDone struct {
	ItemEnvelope
	SummaryIndex int     `json:"summary_index"`
	Text         *string `json:"text,omitempty"`
}

// RefusalDelta carries an incremental refusal text fragment.
type RefusalDelta struct {
	ItemEnvelope
	ContentIndex int    `json:"content_index"`
	Delta        string `json:"delta"`
}

// RefusalDone carries the final refusal text.
type RefusalDone struct {
	ItemEnvelope
	ContentIndex int    `json:"content_index"`
	Refusal      string `json:"refusal"`
}

// WebSearchToolPayload describes a web search tool call.
type WebSearchToolPayload struct {
	Query   *string  `json:"query,omitempty"`
	Sources []string `json:"sources,omitempty"`
}

// FileSearchResult is a single coerced file search hit. Text is truncated to
// the file-search result cap by the projector.
type FileSearchResult struct {
	FileID   *string  `json:"file_id,omitempty"`
	Filename *string  `json:"filename,omitempty"`
	Score    *float64 `json:"score,omitempty"`
	Text     *string  `json:"text,omitempty"`
}

// FileSearchToolPayload describes a file search tool call.
type FileSearchToolPayload struct {
	Queries []string           `json:"queries,omitempty"`
	Results []FileSearchResult `json:"results,omitempty"`
}

// CodeInterpreterToolPayload describes a code interpreter tool call.
type CodeInterpreterToolPayload struct {
	ContainerID   *string `json:"container_id,omitempty"`
	ContainerMode *string `json:"container_mode,omitempty"`
}

// ImageGenerationToolPayload describes an image generation tool call.
type ImageGenerationToolPayload struct {
	Format            *string `json:"format,omitempty"`
	Size              *string `json:"size,omitempty"`
	Quality           *string `json:"quality,omitempty"`
	Background        *string `json:"background,omitempty"`
	RevisedPrompt     *string `json:"revised_prompt,omitempty"`
	PartialImageIndex *int    `json:"partial_image_index,omitempty"`
}

// FunctionToolPayload describes a user-defined function tool call.
type FunctionToolPayload struct {
	Name string `json:"name"`
}

// MCPToolPayload describes an MCP tool call.
type MCPToolPayload struct {
	Name        *string `json:"name,omitempty"`
	ServerLabel *string `json:"server_label,omitempty"`
}

// AgentToolPayload describes a function tool backed by a nested agent.
type AgentToolPayload struct {
	Name      string `json:"name"`
	AgentName string `json:"agent_name"`
}

// ToolStatus reports a tool call status transition. Tool holds the typed
// per-tool payload matching ToolType (WebSearchToolPayload, ...).
type ToolStatus struct {
	ItemEnvelope
	ToolCallID string   `json:"tool_call_id"`
	ToolType   ToolType `json:"tool_type"`
	Status     string   `json:"status"`
	Tool       any      `json:"tool"`
}

// ToolArgumentsDelta carries a slice of sanitized tool argument text.
type ToolArgumentsDelta struct {
	ItemEnvelope
	ToolCallID string `json:"tool_call_id"`
	ToolName   string `json:"tool_name"`
	Delta      string `json:"delta"`
}

// ToolArgumentsDone carries the full sanitized argument text and, when the
// arguments parsed as a JSON object, the sanitized object.
type ToolArgumentsDone struct {
	ItemEnvelope
	ToolCallID    string         `json:"tool_call_id"`
	ToolName      string         `json:"tool_name"`
	ArgumentsText string         `json:"arguments_text"`
	ArgumentsJSON map[string]any `json:"arguments_json"`
}

// ToolCodeDelta carries an incremental code interpreter source fragment.
type ToolCodeDelta struct {
	ItemEnvelope
	ToolCallID string `json:"tool_call_id"`
	Delta      string `json:"delta"`
}

// ToolCodeDone carries the full code interpreter source.
type ToolCodeDone struct {
	ItemEnvelope
	ToolCallID string `json:"tool_call_id"`
	Code       string `json:"code"`
}

// ToolOutput carries a sanitized tool result for function/MCP tools.
type ToolOutput struct {
	ItemEnvelope
	ToolCallID string   `json:"tool_call_id"`
	ToolType   ToolType `json:"tool_type"`
	Output     any      `json:"output"`
}

// ToolApproval requests operator approval for a pending MCP tool call.
type ToolApproval struct {
	ItemEnvelope
	ToolCallID  string  `json:"tool_call_id"`
	ToolName    *string `json:"tool_name,omitempty"`
	ServerLabel *string `json:"server_label,omitempty"`
}

// ChunkTarget identifies the entity field a chunk sequence reassembles into.
type ChunkTarget struct {
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id"`
	Field      string `json:"field"`
	PartIndex  *int   `json:"part_index,omitempty"`
}

// ChunkDelta carries one ordered slice of an oversized base64 payload.
// Concatenating Data in ChunkIndex order reproduces the original bytes.
type ChunkDelta struct {
	Envelope
	Target     ChunkTarget `json:"target"`
	ChunkIndex int         `json:"chunk_index"`
	Encoding   string      `json:"encoding"`
	Data       string      `json:"data"`
}

// ChunkDone terminates a chunk sequence for a target.
type ChunkDone struct {
	Envelope
	Target     ChunkTarget `json:"target"`
	ChunkCount int         `json:"chunk_count"`
}

// Error is the single terminal error surface. At most one Error or Final is
// emitted per stream.
type Error struct {
	Envelope
	Code        *string `json:"code"`
	Message     string  `json:"message"`
	Source      string  `json:"source"`
	IsRetryable bool    `json:"is_retryable"`
}

// MessageAttachment is a deduplicated message attachment carried on Final.
type MessageAttachment struct {
	ObjectID string  `json:"object_id"`
	Type     *string `json:"type,omitempty"`
	Name     *string `json:"name,omitempty"`
	URL      *string `json:"url,omitempty"`
	MimeType *string `json:"mime_type,omitempty"`
}

// Final is the single terminal success surface for a stream.
type Final struct {
	Envelope
	Status           string              `json:"status"`
	ResponseText     *string             `json:"response_text"`
	StructuredOutput any                 `json:"structured_output"`
	Usage            map[string]any      `json:"usage"`
	Attachments      []MessageAttachment `json:"attachments"`
}
