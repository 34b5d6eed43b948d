package projector

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/agentwire/relay/pkg/models"
	"github.com/agentwire/relay/pkg/sanitize"
	"github.com/agentwire/relay/pkg/stream"
)

// Argument payload caps. Strings inside the parsed argument object are capped
// at maxArgumentStringChars; the flat argument text at maxArgumentTextChars.
// Outbound deltas are re-sliced to argumentsDeltaChars so a single huge delta
// cannot dominate one SSE frame.
const (
	maxArgumentStringChars = 4000
	maxArgumentTextChars   = 8000
	argumentsDeltaChars    = 2000
)

// handleCodeDelta projects code interpreter source code streaming.
func (p *Projector) handleCodeDelta(c *call, st *projectionState, evt *models.InternalEvent) {
	if evt.Kind != models.KindRawResponseEvent {
		return
	}

	switch evt.RawType {
	case "response.code_interpreter_call_code.delta":
		itemID, ok := getString(evt.RawEvent, "item_id")
		if !ok || itemID == "" {
			return
		}
		delta, ok := getString(evt.RawEvent, "delta")
		if !ok || delta == "" {
			return
		}
		ts := st.tool(itemID, stream.ToolTypeCodeInterpreter)
		scope := toolScope(itemID, ts, evt.RawEvent)
		if scope == nil {
			return
		}
		c.emit(&stream.ToolCodeDelta{
			ItemEnvelope: c.itemEnvelope(stream.KindToolCodeDelta, scope.itemID, scope.outputIndex, nil),
			ToolCallID:   itemID,
			Delta:        delta,
		})

	case "response.code_interpreter_call_code.done":
		itemID, ok := getString(evt.RawEvent, "item_id")
		if !ok || itemID == "" {
			return
		}
		code, _ := getString(evt.RawEvent, "code")
		ts := st.tool(itemID, stream.ToolTypeCodeInterpreter)
		scope := toolScope(itemID, ts, evt.RawEvent)
		if scope == nil {
			return
		}
		c.emit(&stream.ToolCodeDone{
			ItemEnvelope: c.itemEnvelope(stream.KindToolCodeDone, scope.itemID, scope.outputIndex, nil),
			ToolCallID:   itemID,
			Code:         code,
		})
	}
}

// marshalArguments re-serializes the sanitized argument object without HTML
// escaping, so placeholder values like "<redacted>" stay verbatim.
func marshalArguments(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

var argumentDeltaTypes = map[string]bool{
	"response.function_call_arguments.delta": true,
	"response.mcp_call_arguments.delta":      true,
}

// handleToolArguments accumulates argument deltas silently and, on the done
// frame, emits the sanitized argument stream: an in_progress tool.status when
// the tool was never announced, the argument text re-sliced into bounded
// deltas, and a done carrying both the capped text and the parsed object.
func (p *Projector) handleToolArguments(c *call, st *projectionState, evt *models.InternalEvent) {
	if evt.Kind != models.KindRawResponseEvent {
		return
	}

	if argumentDeltaTypes[evt.RawType] {
		itemID, ok := getString(evt.RawEvent, "item_id")
		if !ok || itemID == "" {
			return
		}
		toolType := stream.ToolTypeFunction
		if evt.RawType == "response.mcp_call_arguments.delta" {
			toolType = stream.ToolTypeMCP
		}
		ts := st.tool(itemID, toolType)
		if delta, ok := getString(evt.RawEvent, "delta"); ok {
			ts.argumentsText += delta
		}
		toolScope(itemID, ts, evt.RawEvent)
		return
	}

	var toolType stream.ToolType
	switch evt.RawType {
	case "response.function_call_arguments.done":
		toolType = stream.ToolTypeFunction
	case "response.mcp_call_arguments.done":
		toolType = stream.ToolTypeMCP
	default:
		return
	}

	itemID, ok := getString(evt.RawEvent, "item_id")
	if !ok || itemID == "" {
		return
	}
	ts := st.tool(itemID, toolType)

	name, _ := getString(evt.RawEvent, "name")
	if name == "" {
		name = ts.toolName
	}
	if name == "" {
		name = "unknown"
	}
	ts.toolName = name
	if agentName, isAgent := c.agentToolMeta(name); isAgent {
		ts = st.tool(itemID, stream.ToolTypeAgent)
		ts.agentName = agentName
	}

	scope := toolScope(itemID, ts, evt.RawEvent)
	if scope == nil {
		return
	}

	argsText, ok := getString(evt.RawEvent, "arguments")
	if !ok || argsText == "" {
		argsText = ts.argumentsText
	}

	var notices []stream.Notice
	var argsObj map[string]any
	var parsed any
	if err := json.Unmarshal([]byte(argsText), &parsed); err == nil {
		if obj, isMap := parsed.(map[string]any); isMap {
			clean, objNotices := sanitize.Value(obj, maxArgumentStringChars, "arguments_json")
			notices = append(notices, objNotices...)
			argsObj, _ = clean.(map[string]any)
			if encoded, err := marshalArguments(argsObj); err == nil {
				argsText = encoded
			}
		}
	}
	argsText, textNotice := sanitize.TruncateString(argsText, maxArgumentTextChars, "arguments_text")
	if textNotice != nil {
		notices = append(notices, *textNotice)
	}

	// A done without any prior announcement still introduces the tool.
	if ts.lastStatus == "" {
		ts.lastStatus = stream.ToolStatusInProgress
		c.emit(&stream.ToolStatus{
			ItemEnvelope: c.itemEnvelope(stream.KindToolStatus, scope.itemID, scope.outputIndex, nil),
			ToolCallID:   itemID,
			ToolType:     ts.toolType,
			Status:       stream.ToolStatusInProgress,
			Tool:         ts.payload(),
		})
	}

	runes := []rune(argsText)
	for offset := 0; offset < len(runes); offset += argumentsDeltaChars {
		end := offset + argumentsDeltaChars
		if end > len(runes) {
			end = len(runes)
		}
		c.emit(&stream.ToolArgumentsDelta{
			ItemEnvelope: c.itemEnvelope(stream.KindToolArgumentsDelta, scope.itemID, scope.outputIndex, nil),
			ToolCallID:   itemID,
			ToolName:     name,
			Delta:        string(runes[offset:end]),
		})
	}

	c.emit(&stream.ToolArgumentsDone{
		ItemEnvelope:  c.itemEnvelope(stream.KindToolArgumentsDone, scope.itemID, scope.outputIndex, notices),
		ToolCallID:    itemID,
		ToolName:      name,
		ArgumentsText: argsText,
		ArgumentsJSON: argsObj,
	})
	ts.argumentsText = ""
}
