package projector

import (
	"sort"

	"github.com/agentwire/relay/pkg/models"
	"github.com/agentwire/relay/pkg/sanitize"
	"github.com/agentwire/relay/pkg/stream"
)

const (
	maxToolOutputStringChars = 8000
	maxExtractedSourceURLs   = 50
)

// handleRunItem projects the runtime's higher-level run items: tool
// invocations, tool outputs, and MCP approval requests. Run items often
// duplicate information the raw chain already streamed, so emission is
// conditional on state the raw handlers left behind.
func (p *Projector) handleRunItem(c *call, st *projectionState, evt *models.InternalEvent) {
	if evt.Kind != models.KindRunItemStreamEvent {
		return
	}

	rawItem := runItemPayload(evt)
	toolCallID := evt.ToolCallID
	if toolCallID == "" {
		if s, ok := getString(rawItem, "call_id"); ok && s != "" {
			toolCallID = s
		} else if s, ok := getString(rawItem, "id"); ok && s != "" {
			toolCallID = s
		}
	}
	if toolCallID == "" {
		return
	}

	toolType := classifyRunItemTool(evt, rawItem)
	ts := st.tool(toolCallID, toolType)
	if name, ok := getString(rawItem, "name"); ok && name != "" {
		ts.toolName = name
	} else if evt.ToolName != "" && ts.toolName == "" {
		ts.toolName = evt.ToolName
	}
	if label, ok := getString(rawItem, "server_label"); ok && label != "" {
		ts.serverLabel = label
	}
	if agentName, isAgent := c.agentToolMeta(ts.toolName); isAgent {
		ts = st.tool(toolCallID, stream.ToolTypeAgent)
		ts.agentName = agentName
	}

	switch evt.RunItemName {
	case models.RunItemMCPApprovalRequested:
		p.runItemApproval(c, st, toolCallID, ts, rawItem)
	case models.RunItemToolCalled:
		p.runItemCalled(c, st, toolCallID, ts, rawItem)
	case models.RunItemToolOutput:
		p.runItemOutput(c, st, toolCallID, ts, rawItem)
	}
}

// runItemPayload unwraps the item payload carried on a run item event.
func runItemPayload(evt *models.InternalEvent) map[string]any {
	raw := evt.RawEvent
	if item, ok := getMap(raw, "raw_item"); ok {
		return item
	}
	if item, ok := getMap(raw, "item"); ok {
		return item
	}
	return raw
}

// classifyRunItemTool determines the tool type for a run item. The item type
// is authoritative; the run item name is a fallback for approval requests
// carried without a typed item.
func classifyRunItemTool(evt *models.InternalEvent, rawItem map[string]any) stream.ToolType {
	if itemType, ok := getString(rawItem, "type"); ok {
		if t, known := toolTypeByItemType[itemType]; known {
			return t
		}
		if itemType == "mcp_approval_request" {
			return stream.ToolTypeMCP
		}
	}
	if evt.RunItemName == models.RunItemMCPApprovalRequested {
		return stream.ToolTypeMCP
	}
	return stream.ToolTypeFunction
}

// runItemApproval announces an MCP call waiting on a human decision. The
// awaiting_approval status is emitted once, followed by the approval request
// itself.
func (p *Projector) runItemApproval(c *call, st *projectionState, toolCallID string, ts *toolState, rawItem map[string]any) {
	scope := toolScope(toolCallID, ts, rawItem)
	if scope == nil {
		return
	}
	if ts.lastStatus != stream.ToolStatusAwaitingApproval {
		ts.lastStatus = stream.ToolStatusAwaitingApproval
		c.emit(&stream.ToolStatus{
			ItemEnvelope: c.itemEnvelope(stream.KindToolStatus, scope.itemID, scope.outputIndex, nil),
			ToolCallID:   toolCallID,
			ToolType:     ts.toolType,
			Status:       stream.ToolStatusAwaitingApproval,
			Tool:         ts.payload(),
		})
	}

	ev := &stream.ToolApproval{
		ItemEnvelope: c.itemEnvelope(stream.KindToolApproval, scope.itemID, scope.outputIndex, nil),
		ToolCallID:   toolCallID,
	}
	if ts.toolName != "" {
		ev.ToolName = strptr(ts.toolName)
	}
	if ts.serverLabel != "" {
		ev.ServerLabel = strptr(ts.serverLabel)
	}
	c.emit(ev)
}

// runItemCalled announces function, MCP, and agent tool invocations the raw
// chain has not announced yet. Provider-native tools stream their own status
// via raw events, so they are left alone here.
func (p *Projector) runItemCalled(c *call, st *projectionState, toolCallID string, ts *toolState, rawItem map[string]any) {
	switch ts.toolType {
	case stream.ToolTypeFunction, stream.ToolTypeMCP, stream.ToolTypeAgent:
	default:
		return
	}
	if ts.lastStatus == stream.ToolStatusInProgress {
		return
	}
	scope := toolScope(toolCallID, ts, rawItem)
	if scope == nil {
		return
	}
	ts.lastStatus = stream.ToolStatusInProgress
	c.emit(&stream.ToolStatus{
		ItemEnvelope: c.itemEnvelope(stream.KindToolStatus, scope.itemID, scope.outputIndex, nil),
		ToolCallID:   toolCallID,
		ToolType:     ts.toolType,
		Status:       stream.ToolStatusInProgress,
		Tool:         ts.payload(),
	})
}

// runItemOutput projects a completed tool's output. Web search outputs are
// mined for source URLs instead of being forwarded; everything else is
// sanitized and emitted verbatim.
func (p *Projector) runItemOutput(c *call, st *projectionState, toolCallID string, ts *toolState, rawItem map[string]any) {
	scope := toolScope(toolCallID, ts, rawItem)
	if scope == nil {
		return
	}

	output, haveOutput := rawItem["output"]

	if ts.toolType == stream.ToolTypeWebSearch {
		if haveOutput {
			for _, u := range extractURLs(output, maxExtractedSourceURLs) {
				ts.addSource(u)
			}
		}
		status := ts.lastStatus
		if status == "" {
			status = stream.ToolStatusCompleted
			ts.lastStatus = status
		}
		c.emit(&stream.ToolStatus{
			ItemEnvelope: c.itemEnvelope(stream.KindToolStatus, scope.itemID, scope.outputIndex, nil),
			ToolCallID:   toolCallID,
			ToolType:     ts.toolType,
			Status:       status,
			Tool:         ts.payload(),
		})
		return
	}

	switch ts.toolType {
	case stream.ToolTypeFunction, stream.ToolTypeMCP, stream.ToolTypeAgent:
	default:
		return
	}

	var notices []stream.Notice
	if haveOutput {
		clean, cleanNotices := sanitize.Value(output, maxToolOutputStringChars, "output")
		notices = cleanNotices
		c.emit(&stream.ToolOutput{
			ItemEnvelope: c.itemEnvelope(stream.KindToolOutput, scope.itemID, scope.outputIndex, notices),
			ToolCallID:   toolCallID,
			ToolType:     ts.toolType,
			Output:       clean,
		})
	}

	ts.lastStatus = stream.ToolStatusCompleted
	c.emit(&stream.ToolStatus{
		ItemEnvelope: c.itemEnvelope(stream.KindToolStatus, scope.itemID, scope.outputIndex, nil),
		ToolCallID:   toolCallID,
		ToolType:     ts.toolType,
		Status:       stream.ToolStatusCompleted,
		Tool:         ts.payload(),
	})
}

// extractURLs walks an arbitrary output value collecting string values under
// keys named "url", capped at max entries. Map keys are visited in sorted
// order so the resulting source list is deterministic.
func extractURLs(v any, max int) []string {
	var urls []string
	var walk func(any)
	walk = func(node any) {
		if len(urls) >= max {
			return
		}
		switch n := node.(type) {
		case map[string]any:
			if u, ok := n["url"].(string); ok && u != "" {
				urls = append(urls, u)
			}
			keys := make([]string, 0, len(n))
			for k := range n {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				walk(n[k])
			}
		case []any:
			for _, child := range n {
				walk(child)
			}
		}
	}
	walk(v)
	if len(urls) > max {
		urls = urls[:max]
	}
	return urls
}
