package projector

import (
	"github.com/agentwire/relay/pkg/models"
	"github.com/agentwire/relay/pkg/stream"
)

// toolTypeByItemType maps provider output item types to tool types.
// custom_tool_call is treated as a function tool until metadata says
// otherwise.
var toolTypeByItemType = map[string]stream.ToolType{
	"web_search_call":       stream.ToolTypeWebSearch,
	"file_search_call":      stream.ToolTypeFileSearch,
	"code_interpreter_call": stream.ToolTypeCodeInterpreter,
	"image_generation_call": stream.ToolTypeImageGeneration,
	"function_call":         stream.ToolTypeFunction,
	"custom_tool_call":      stream.ToolTypeFunction,
	"mcp_call":              stream.ToolTypeMCP,
}

// handleOutputItems projects response.output_item.added/.done and seeds tool
// state for tool-typed items.
func (p *Projector) handleOutputItems(c *call, st *projectionState, evt *models.InternalEvent) {
	if evt.Kind != models.KindRawResponseEvent {
		return
	}
	var kind stream.Kind
	switch evt.RawType {
	case "response.output_item.added":
		kind = stream.KindOutputItemAdded
	case "response.output_item.done":
		kind = stream.KindOutputItemDone
	default:
		return
	}

	raw := evt.RawEvent
	item, ok := getMap(raw, "item")
	if !ok {
		return
	}
	itemID, ok := getString(item, "id")
	if !ok || itemID == "" {
		if itemID, ok = getString(raw, "item_id"); !ok || itemID == "" {
			return
		}
	}
	outputIndex, ok := getInt(raw, "output_index")
	if !ok {
		return
	}

	itemType, _ := getString(item, "type")
	var role, status *string
	if s, ok := getString(item, "role"); ok && s != "" {
		role = strptr(s)
	}
	if s, ok := getString(item, "status"); ok && s != "" {
		status = strptr(s)
	}

	if toolType, isTool := toolTypeByItemType[itemType]; isTool {
		ts := st.tool(itemID, toolType)
		if ts.outputIndex == nil {
			ts.outputIndex = intptr(outputIndex)
		}
		if name, ok := getString(item, "name"); ok && name != "" {
			ts.toolName = name
		} else if name, ok := getString(item, "tool_name"); ok && name != "" {
			ts.toolName = name
		}
		if label, ok := getString(item, "server_label"); ok && label != "" {
			ts.serverLabel = label
		}
		if toolType == stream.ToolTypeWebSearch {
			st.lastWebSearchToolCallID = itemID
		}
	}

	if kind == stream.KindOutputItemAdded {
		c.emit(&stream.OutputItemAdded{
			ItemEnvelope: c.itemEnvelope(kind, itemID, outputIndex, nil),
			ItemType:     itemType,
			Role:         role,
			Status:       status,
		})
		return
	}
	c.emit(&stream.OutputItemDone{
		ItemEnvelope: c.itemEnvelope(kind, itemID, outputIndex, nil),
		ItemType:     itemType,
		Role:         role,
		Status:       status,
	})
}
