// Package projector translates the internal provider-oriented event stream of
// an agent runtime into the public_sse_v1 event stream.
//
// A Projector instance lives for exactly one logical response. It is a
// synchronous, single-threaded state machine: Project and ProjectError mutate
// the instance and must not be called concurrently. Malformed or unknown
// input never fails; it yields no output.
//
// Terminality contract: at most one final OR one error event is ever emitted.
// Once either is produced, Project returns an empty slice for all subsequent
// inputs and ProjectError is suppressed.
package projector

import (
	"time"

	"github.com/agentwire/relay/pkg/models"
	"github.com/agentwire/relay/pkg/stream"
)

// DefaultMaxChunkChars is the default slice size for oversized base64
// payloads (~128 KiB per chunk.delta).
const DefaultMaxChunkChars = 131072

// agentToolScopeType is the scope type that routes events to a nested
// per-tool-call sub-stream.
const agentToolScopeType = "agent_tool"

// Projector projects internal runtime events onto the public stream.
type Projector struct {
	streamID      string
	maxChunkChars int

	// nextEventID is global to the instance: scoped events draw from the
	// same counter so consumers can dedupe and resume across sub-streams.
	nextEventID uint64
	terminal    bool

	top    *projectionState
	scoped map[string]*projectionState

	attachments       []stream.MessageAttachment
	seenAttachmentIDs map[string]bool
}

// Option configures a Projector.
type Option func(*Projector)

// WithMaxChunkChars lowers (or raises) the chunk slice size for constrained
// transports. Non-positive values keep the default.
func WithMaxChunkChars(n int) Option {
	return func(p *Projector) {
		if n > 0 {
			p.maxChunkChars = n
		}
	}
}

// New creates a projector for one logical response stream.
func New(streamID string, opts ...Option) *Projector {
	p := &Projector{
		streamID:          streamID,
		maxChunkChars:     DefaultMaxChunkChars,
		top:               newProjectionState(),
		scoped:            make(map[string]*projectionState),
		seenAttachmentIDs: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Context carries the per-call identity supplied by the transport and
// tenancy layers. ServerTimestamp overrides the envelope timestamp when
// non-nil (used by tests and replay tooling).
type Context struct {
	ConversationID  string
	ResponseID      *string
	Agent           *string
	Workflow        *models.WorkflowMeta
	ServerTimestamp *time.Time
}

// Terminal reports whether a final or error event has been emitted.
func (p *Projector) Terminal() bool { return p.terminal }

// StreamID returns the stream identifier the projector stamps on envelopes.
func (p *Projector) StreamID() string { return p.streamID }

// Project folds one internal event into the projection state and returns the
// resulting public events in deterministic order. Returns an empty slice
// after the terminal event.
func (p *Projector) Project(evt *models.InternalEvent, ctx Context) []stream.Event {
	if p.terminal || evt == nil {
		return nil
	}

	st, scopeObj, topLevel := p.resolveEventScope(evt)
	c := newCall(p, ctx, evt, scopeObj)

	// 1. Attachments accumulate on the top-level state only.
	if topLevel {
		p.updateAttachments(evt)
	}

	// 2. Agent handoffs.
	p.handleAgentUpdate(c, st, evt)

	// 3. Raw provider event chain. A true return means a terminal error was
	// emitted and the rest of the pipeline must not run.
	if p.handleRaw(c, st, evt) {
		return c.events
	}

	// 4. Higher-level run items.
	p.handleRunItem(c, st, evt)

	// 5. Top-level terminal marker.
	if topLevel && evt.IsTerminal {
		p.emitFinal(c, st, evt)
		p.terminal = true
	}

	return c.events
}

// ProjectError emits the caller-initiated terminal error event and marks the
// stream terminal. Suppressed (returns nil) when a terminal event was already
// emitted, keeping the at-most-one-terminal contract.
func (p *Projector) ProjectError(ctx Context, code *string, message, source string, isRetryable bool) *stream.Error {
	if p.terminal {
		return nil
	}
	p.terminal = true

	c := newCall(p, ctx, nil, nil)
	ev := &stream.Error{
		Envelope:    c.envelope(stream.KindError, nil),
		Code:        code,
		Message:     message,
		Source:      source,
		IsRetryable: isRetryable,
	}
	return ev
}

// resolveEventScope picks the projection state for this event. Scoped
// (agent_tool) events get their own sub-state keyed by scope signature; the
// event ID counter, attachments, and terminal flag stay on the projector.
func (p *Projector) resolveEventScope(evt *models.InternalEvent) (*projectionState, map[string]any, bool) {
	scopeType, _ := getString(evt.Scope, "type")
	toolCallID, _ := getString(evt.Scope, "tool_call_id")
	if scopeType != agentToolScopeType || toolCallID == "" {
		return p.top, nil, true
	}

	key := scopeType + ":" + toolCallID
	st, ok := p.scoped[key]
	if !ok {
		st = newProjectionState()
		p.scoped[key] = st
	}
	scopeObj := map[string]any{"type": scopeType, "tool_call_id": toolCallID}
	return st, scopeObj, false
}

// call collects the events of a single Project invocation and stamps
// envelopes with the shared per-call identity.
type call struct {
	p        *Projector
	ctx      Context
	scopeObj map[string]any
	seq      *int64
	ts       string
	events   []stream.Event
}

func newCall(p *Projector, ctx Context, evt *models.InternalEvent, scopeObj map[string]any) *call {
	ts := time.Now().UTC()
	if ctx.ServerTimestamp != nil {
		ts = ctx.ServerTimestamp.UTC()
	}
	c := &call{
		p:        p,
		ctx:      ctx,
		scopeObj: scopeObj,
		ts:       ts.Format(time.RFC3339Nano),
	}
	if evt != nil {
		c.seq = evt.SequenceNumber
	}
	return c
}

// envelope allocates the next event ID and builds the common envelope.
func (c *call) envelope(kind stream.Kind, notices []stream.Notice) stream.Envelope {
	c.p.nextEventID++

	var workflow map[string]any
	if c.ctx.Workflow != nil {
		workflow = c.ctx.Workflow.Workflow
	}
	return stream.Envelope{
		Schema:                 stream.SchemaVersion,
		Kind:                   kind,
		EventID:                c.p.nextEventID,
		StreamID:               c.p.streamID,
		ServerTimestamp:        c.ts,
		ConversationID:         c.ctx.ConversationID,
		ResponseID:             c.ctx.ResponseID,
		Agent:                  c.ctx.Agent,
		Workflow:               workflow,
		Scope:                  c.scopeObj,
		ProviderSequenceNumber: c.seq,
		Notices:                notices,
	}
}

// itemEnvelope builds the envelope for item-scoped variants.
func (c *call) itemEnvelope(kind stream.Kind, itemID string, outputIndex int, notices []stream.Notice) stream.ItemEnvelope {
	return stream.ItemEnvelope{
		Envelope:    c.envelope(kind, notices),
		ItemID:      itemID,
		OutputIndex: outputIndex,
	}
}

func (c *call) emit(ev stream.Event) {
	c.events = append(c.events, ev)
}

// agentToolMeta reports whether toolName is a function tool backed by an
// agent, and the agent name when known.
func (c *call) agentToolMeta(toolName string) (string, bool) {
	wf := c.ctx.Workflow
	if wf == nil || toolName == "" {
		return "", false
	}
	if !wf.AgentToolNames[toolName] {
		return "", false
	}
	return wf.AgentToolNameMap[toolName], true
}
