package projector

import (
	"strconv"

	"github.com/agentwire/relay/pkg/models"
	"github.com/agentwire/relay/pkg/sanitize"
	"github.com/agentwire/relay/pkg/stream"
)

// File-search result coercion caps.
const (
	maxFileSearchResults    = 10
	maxFileSearchResultText = 2000
)

// asSearchStatus coerces a search tool status into the public set.
func asSearchStatus(s string) string {
	switch s {
	case stream.ToolStatusInProgress, stream.ToolStatusSearching, stream.ToolStatusCompleted:
		return s
	default:
		return stream.ToolStatusInProgress
	}
}

// asCodeInterpreterStatus coerces a code interpreter status into the public set.
func asCodeInterpreterStatus(s string) string {
	switch s {
	case stream.ToolStatusInProgress, stream.ToolStatusInterpreting, stream.ToolStatusCompleted:
		return s
	default:
		return stream.ToolStatusInProgress
	}
}

// asImageGenerationStatus coerces an image generation status into the public set.
func asImageGenerationStatus(s string) string {
	switch s {
	case stream.ToolStatusInProgress, stream.ToolStatusGenerating,
		stream.ToolStatusPartialImage, stream.ToolStatusCompleted:
		return s
	default:
		return stream.ToolStatusInProgress
	}
}

// mergedTool is the outcome of folding one declarative tool-call snapshot.
type mergedTool struct {
	toolCallID string
	toolType   stream.ToolType
	status     string
	notices    []stream.Notice
}

// innerCallKeys maps the snapshot tool_type discriminator to the inner call
// object key and the public tool type.
var innerCallKeys = map[string]struct {
	key      string
	toolType stream.ToolType
}{
	"web_search":       {"web_search_call", stream.ToolTypeWebSearch},
	"file_search":      {"file_search_call", stream.ToolTypeFileSearch},
	"code_interpreter": {"code_interpreter_call", stream.ToolTypeCodeInterpreter},
	"image_generation": {"image_generation_call", stream.ToolTypeImageGeneration},
	"function":         {"function_call", stream.ToolTypeFunction},
	"mcp":              {"mcp_call", stream.ToolTypeMCP},
	"agent":            {"agent_call", stream.ToolTypeAgent},
}

// mergeToolCall folds a declarative tool-call snapshot into per-tool state.
// Returns nil when the snapshot is malformed or names an unsupported tool.
func mergeToolCall(st *projectionState, tc map[string]any) *mergedTool {
	typeName, ok := getString(tc, "tool_type")
	if !ok {
		return nil
	}
	entry, supported := innerCallKeys[typeName]
	if !supported {
		return nil
	}
	inner, ok := getMap(tc, entry.key)
	if !ok {
		return nil
	}
	toolCallID, ok := getString(inner, "id")
	if !ok || toolCallID == "" {
		return nil
	}

	ts := st.tool(toolCallID, entry.toolType)
	m := &mergedTool{toolCallID: toolCallID, toolType: ts.toolType}

	if status, ok := getString(inner, "status"); ok && status != "" {
		m.status = status
		ts.lastStatus = status
	}

	switch entry.toolType {
	case stream.ToolTypeWebSearch:
		mergeWebSearch(st, toolCallID, ts, inner)
	case stream.ToolTypeFileSearch:
		m.notices = mergeFileSearch(ts, inner)
	case stream.ToolTypeCodeInterpreter:
		if s, ok := getString(inner, "container_id"); ok && s != "" {
			ts.containerID = strptr(s)
		}
		if s, ok := getString(inner, "container_mode"); ok && s != "" {
			ts.containerMode = strptr(s)
		}
	case stream.ToolTypeImageGeneration:
		mergeImageGeneration(ts, inner)
	case stream.ToolTypeFunction, stream.ToolTypeAgent, stream.ToolTypeMCP:
		if s, ok := getString(inner, "name"); ok && s != "" {
			ts.toolName = s
		}
		if s, ok := getString(inner, "server_label"); ok && s != "" {
			ts.serverLabel = s
		}
		if s, ok := getString(inner, "agent_name"); ok && s != "" {
			ts.agentName = s
		}
	}

	return m
}

func mergeWebSearch(st *projectionState, toolCallID string, ts *toolState, inner map[string]any) {
	st.lastWebSearchToolCallID = toolCallID
	if s, ok := getString(inner, "query"); ok && s != "" {
		ts.query = strptr(s)
	} else if action, ok := getMap(inner, "action"); ok {
		if s, ok := getString(action, "query"); ok && s != "" {
			ts.query = strptr(s)
		}
	}
	for _, src := range getStringList(inner, "sources") {
		ts.addSource(src)
	}
}

func mergeImageGeneration(ts *toolState, inner map[string]any) {
	set := func(dst **string, keys ...string) {
		for _, k := range keys {
			if s, ok := getString(inner, k); ok && s != "" {
				*dst = strptr(s)
				return
			}
		}
	}
	set(&ts.imageFormat, "output_format", "format")
	set(&ts.imageSize, "size")
	set(&ts.imageQuality, "quality")
	set(&ts.imageBackground, "background")
	set(&ts.imageRevisedPrompt, "revised_prompt")
	if i, ok := getInt(inner, "partial_image_index"); ok {
		ts.imagePartialIndex = intptr(i)
	}
}

// mergeFileSearch coerces queries and results with hard caps: at most
// maxFileSearchResults entries, per-entry text capped at
// maxFileSearchResultText characters. Invalid entries are skipped silently;
// every cap emits a truncated notice.
func mergeFileSearch(ts *toolState, inner map[string]any) []stream.Notice {
	if queries := getStringList(inner, "queries"); len(queries) > 0 {
		ts.fileSearchQueries = queries
	}

	list, ok := getList(inner, "results")
	if !ok {
		return nil
	}

	var notices []stream.Notice
	results := make([]stream.FileSearchResult, 0, len(list))
	for i, raw := range list {
		if len(results) == maxFileSearchResults {
			notices = append(notices, stream.Notice{Type: stream.NoticeTruncated, Path: "tool.results"})
			break
		}
		entry, ok := asMap(raw)
		if !ok {
			continue
		}
		r := stream.FileSearchResult{}
		if s, ok := getString(entry, "file_id"); ok && s != "" {
			r.FileID = strptr(s)
		}
		if s, ok := getString(entry, "filename"); ok && s != "" {
			r.Filename = strptr(s)
		}
		if f, ok := entry["score"]; ok {
			if score, ok := asFloat(f); ok {
				r.Score = &score
			}
		}
		if text, ok := getString(entry, "text"); ok {
			path := "tool.results[" + strconv.Itoa(i) + "].text"
			truncated, notice := sanitize.TruncateString(text, maxFileSearchResultText, path)
			if notice != nil {
				notices = append(notices, *notice)
			}
			r.Text = strptr(truncated)
		}
		results = append(results, r)
	}
	ts.fileSearchResults = results
	return notices
}

// handleToolSnapshot merges a declarative tool-call snapshot carried on the
// frame and, when the same frame is a raw output_item.done marker, emits a
// coherent tool.status from the freshly merged state. Merging runs before the
// rest of the raw chain so downstream handlers observe the updated state.
func (p *Projector) handleToolSnapshot(c *call, st *projectionState, evt *models.InternalEvent) {
	if evt.ToolCall == nil {
		return
	}
	m := mergeToolCall(st, evt.ToolCall)
	if m == nil {
		return
	}

	if evt.RawType != "response.output_item.done" {
		return
	}
	ts, ok := st.lookupTool(m.toolCallID)
	if !ok {
		return
	}
	scope := toolScope(m.toolCallID, ts, evt.RawEvent)
	if scope == nil {
		return
	}
	status := m.status
	if status == "" {
		status = ts.lastStatus
	}
	if status == "" {
		status = stream.ToolStatusCompleted
	}
	ts.lastStatus = status
	c.emit(&stream.ToolStatus{
		ItemEnvelope: c.itemEnvelope(stream.KindToolStatus, scope.itemID, scope.outputIndex, m.notices),
		ToolCallID:   m.toolCallID,
		ToolType:     ts.toolType,
		Status:       status,
		Tool:         ts.payload(),
	})
}
