// Package models defines the internal event record consumed from the agent
// runtime and the per-call workflow metadata.
package models

// InternalEvent kinds.
const (
	KindRawResponseEvent        = "raw_response_event"
	KindRunItemStreamEvent      = "run_item_stream_event"
	KindAgentUpdatedStreamEvent = "agent_updated_stream_event"
	KindLifecycle               = "lifecycle"
	KindError                   = "error"
)

// Run item names handled by the projector.
const (
	RunItemToolCalled           = "tool_called"
	RunItemToolOutput           = "tool_output"
	RunItemMCPApprovalRequested = "mcp_approval_requested"
)

// InternalEvent is the single input record of the projector. Every field is
// optional at the transport level; wrong-typed fields are treated as absent.
// RawEvent stays an opaque map on purpose: provider payloads are read with
// tolerant extraction helpers, never decoded into structs.
type InternalEvent struct {
	Kind           string           `json:"kind,omitempty"`
	RawType        string           `json:"raw_type,omitempty"`
	RawEvent       map[string]any   `json:"raw_event,omitempty"`
	SequenceNumber *int64           `json:"sequence_number,omitempty"`
	Scope          map[string]any   `json:"scope,omitempty"`
	TextDelta      *string          `json:"text_delta,omitempty"`
	ReasoningDelta *string          `json:"reasoning_delta,omitempty"`
	Annotations    []map[string]any `json:"annotations,omitempty"`
	ToolCall       map[string]any   `json:"tool_call,omitempty"`
	Payload        map[string]any   `json:"payload,omitempty"`
	Metadata       map[string]any   `json:"metadata,omitempty"`
	Event          string           `json:"event,omitempty"`
	RunItemName    string           `json:"run_item_name,omitempty"`
	RunItemType    string           `json:"run_item_type,omitempty"`
	ToolCallID     string           `json:"tool_call_id,omitempty"`
	ToolName       string           `json:"tool_name,omitempty"`
	Attachments    []map[string]any `json:"attachments,omitempty"`
	ResponseText   *string          `json:"response_text,omitempty"`

	StructuredOutput any            `json:"structured_output,omitempty"`
	Usage            map[string]any `json:"usage,omitempty"`
	IsTerminal       bool           `json:"is_terminal,omitempty"`
	NewAgent         string         `json:"new_agent,omitempty"`
}

// WorkflowMeta carries workflow identity and agent-tool metadata supplied by
// the runtime on each projection call.
type WorkflowMeta struct {
	// Workflow is stamped verbatim into the public envelope "workflow" field.
	Workflow map[string]any `json:"workflow,omitempty"`
	// AgentToolNames is the set of function tool names backed by agents.
	AgentToolNames map[string]bool `json:"agent_tool_names,omitempty"`
	// AgentToolNameMap maps an agent tool name to the agent it runs.
	AgentToolNameMap map[string]string `json:"agent_tool_name_map,omitempty"`
}
