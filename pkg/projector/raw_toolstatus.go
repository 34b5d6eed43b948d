package projector

import (
	"strings"

	"github.com/agentwire/relay/pkg/models"
	"github.com/agentwire/relay/pkg/stream"
)

// rawToolFamily describes one response.<family>_call.<status> event family.
type rawToolFamily struct {
	prefix   string
	toolType stream.ToolType
	status   func(string) string
}

// asMCPStatus coerces an MCP call status into the public set.
func asMCPStatus(s string) string {
	switch s {
	case stream.ToolStatusInProgress, stream.ToolStatusCompleted, stream.ToolStatusFailed:
		return s
	default:
		return stream.ToolStatusInProgress
	}
}

var rawToolFamilies = []rawToolFamily{
	{"response.web_search_call.", stream.ToolTypeWebSearch, asSearchStatus},
	{"response.file_search_call.", stream.ToolTypeFileSearch, asSearchStatus},
	{"response.code_interpreter_call.", stream.ToolTypeCodeInterpreter, asCodeInterpreterStatus},
	{"response.image_generation_call.", stream.ToolTypeImageGeneration, asImageGenerationStatus},
	{"response.mcp_call.", stream.ToolTypeMCP, asMCPStatus},
}

// handleRawToolStatus projects the per-family raw tool call progress events.
// Image generation partial_image frames additionally carry base64 image data,
// which is re-emitted as an ordered chunk stream after the tool.status so
// clients learn the partial_image_index before the first chunk arrives.
func (p *Projector) handleRawToolStatus(c *call, st *projectionState, evt *models.InternalEvent) {
	if evt.Kind != models.KindRawResponseEvent {
		return
	}

	var family *rawToolFamily
	var rawStatus string
	for i := range rawToolFamilies {
		if strings.HasPrefix(evt.RawType, rawToolFamilies[i].prefix) {
			family = &rawToolFamilies[i]
			rawStatus = strings.TrimPrefix(evt.RawType, rawToolFamilies[i].prefix)
			break
		}
	}
	if family == nil {
		return
	}

	raw := evt.RawEvent
	itemID, ok := getString(raw, "item_id")
	if !ok || itemID == "" {
		return
	}

	ts := st.tool(itemID, family.toolType)
	if family.toolType == stream.ToolTypeWebSearch {
		st.lastWebSearchToolCallID = itemID
	}
	if family.toolType == stream.ToolTypeImageGeneration {
		if i, ok := getInt(raw, "partial_image_index"); ok {
			ts.imagePartialIndex = intptr(i)
		}
	}

	scope := toolScope(itemID, ts, raw)
	if scope == nil {
		return
	}

	status := family.status(rawStatus)
	ts.lastStatus = status
	c.emit(&stream.ToolStatus{
		ItemEnvelope: c.itemEnvelope(stream.KindToolStatus, scope.itemID, scope.outputIndex, nil),
		ToolCallID:   itemID,
		ToolType:     ts.toolType,
		Status:       status,
		Tool:         ts.payload(),
	})

	if status == stream.ToolStatusPartialImage {
		if b64, ok := getString(raw, "partial_image_b64"); ok && b64 != "" {
			p.emitChunks(c, stream.ChunkTarget{
				EntityKind: "tool_call",
				EntityID:   itemID,
				Field:      "partial_image_b64",
				PartIndex:  ts.imagePartialIndex,
			}, b64)
		}
	}
}
