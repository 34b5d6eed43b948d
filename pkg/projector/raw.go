package projector

import (
	"github.com/agentwire/relay/pkg/models"
	"github.com/agentwire/relay/pkg/stream"
)

// handleRaw runs the raw provider event chain in its fixed order. Returns
// true when a terminal error was emitted and the pipeline must stop.
//
// The order matters: a single frame may carry both a tool-call snapshot and a
// raw item-done marker, so the snapshot merge runs first and downstream
// handlers observe the updated state. Lifecycle precedes output items so
// consumers see in_progress before any item-scoped deltas.
func (p *Projector) handleRaw(c *call, st *projectionState, evt *models.InternalEvent) bool {
	if p.handleTerminalErrors(c, evt) {
		return true
	}

	p.handleToolSnapshot(c, st, evt)
	p.handleResponseLifecycle(c, st, evt)
	p.handleServiceLifecycle(c, st, evt)
	p.handleOutputItems(c, st, evt)
	p.handleTextDelta(c, st, evt)
	p.handleCitations(c, st, evt)
	p.handleReasoningSummary(c, st, evt)
	p.handleRefusal(c, st, evt)
	p.handleRawToolStatus(c, st, evt)
	p.handleCodeDelta(c, st, evt)
	p.handleToolArguments(c, st, evt)
	return false
}

// handleTerminalErrors surfaces provider (raw_type=error) and server
// (kind=error) terminal errors. Either one marks the stream terminal and
// short-circuits the rest of the pipeline.
func (p *Projector) handleTerminalErrors(c *call, evt *models.InternalEvent) bool {
	switch {
	case evt.Kind == models.KindRawResponseEvent && evt.RawType == "error":
		var code *string
		if s, ok := getString(evt.RawEvent, "code"); ok && s != "" {
			code = strptr(s)
		}
		message, _ := getString(evt.RawEvent, "message")
		if message == "" {
			message = "Provider error"
		}
		p.terminal = true
		c.emit(&stream.Error{
			Envelope:    c.envelope(stream.KindError, nil),
			Code:        code,
			Message:     message,
			Source:      stream.ErrorSourceProvider,
			IsRetryable: false,
		})
		return true

	case evt.Kind == models.KindError:
		message, _ := getString(evt.Payload, "message")
		if message == "" {
			message, _ = getString(evt.Payload, "error")
		}
		if message == "" {
			message = "Server error"
		}
		var code *string
		if s, ok := getString(evt.Payload, "code"); ok && s != "" {
			code = strptr(s)
		}
		p.terminal = true
		c.emit(&stream.Error{
			Envelope:    c.envelope(stream.KindError, nil),
			Code:        code,
			Message:     message,
			Source:      stream.ErrorSourceServer,
			IsRetryable: false,
		})
		return true
	}
	return false
}

// lifecycleByRawType maps provider response lifecycle events to the public
// status. response.created maps to in_progress: from the client's point of
// view the response is already underway once it exists.
var lifecycleByRawType = map[string]string{
	"response.created":     stream.StatusInProgress,
	"response.in_progress": stream.StatusInProgress,
	"response.queued":      stream.StatusQueued,
	"response.completed":   stream.StatusCompleted,
	"response.failed":      stream.StatusFailed,
	"response.incomplete":  stream.StatusIncomplete,
}

func (p *Projector) handleResponseLifecycle(c *call, st *projectionState, evt *models.InternalEvent) {
	if evt.Kind != models.KindRawResponseEvent {
		return
	}
	status, ok := lifecycleByRawType[evt.RawType]
	if !ok {
		return
	}
	st.lifecycleStatus = status
	c.emit(&stream.Lifecycle{
		Envelope: c.envelope(stream.KindLifecycle, nil),
		Status:   status,
	})
}

// handleServiceLifecycle surfaces runtime-level lifecycle signals:
// cancellation and memory compaction checkpoints.
func (p *Projector) handleServiceLifecycle(c *call, st *projectionState, evt *models.InternalEvent) {
	if evt.Kind != models.KindLifecycle {
		return
	}

	if state, ok := getString(evt.Metadata, "state"); ok && (state == "cancelled" || state == "canceled") {
		st.lifecycleStatus = stream.StatusCancelled
		ev := &stream.Lifecycle{
			Envelope: c.envelope(stream.KindLifecycle, nil),
			Status:   stream.StatusCancelled,
		}
		if reason, ok := getString(evt.Metadata, "reason"); ok && reason != "" {
			ev.Reason = strptr(reason)
		}
		c.emit(ev)
		return
	}

	if evt.Event == "memory_compaction" {
		c.emit(&stream.MemoryCheckpoint{
			Envelope:   c.envelope(stream.KindMemoryCheckpoint, nil),
			Checkpoint: coerceMemoryCheckpoint(evt.Payload),
		})
	}
}

// coerceMemoryCheckpoint builds the strictly typed checkpoint payload from an
// untrusted runtime payload. Unknown strategies collapse to "compact".
func coerceMemoryCheckpoint(payload map[string]any) stream.MemoryCheckpointPayload {
	out := stream.MemoryCheckpointPayload{Strategy: "compact"}

	if s, ok := getString(payload, "strategy"); ok {
		switch s {
		case "compact", "summarize", "trim":
			out.Strategy = s
		}
	}
	if n, ok := getInt(payload, "tokens_before"); ok {
		out.TokensBefore = intptr(n)
	}
	if n, ok := getInt(payload, "tokens_after"); ok {
		out.TokensAfter = intptr(n)
	}
	if n, ok := getInt(payload, "messages_removed"); ok {
		out.MessagesRemoved = intptr(n)
	}
	if b, ok := getBool(payload, "forced"); ok {
		out.Forced = b
	}
	out.RemovedItemIDs = getStringList(payload, "removed_item_ids")
	return out
}
