package projector

import (
	"net/url"

	"github.com/agentwire/relay/pkg/models"
	"github.com/agentwire/relay/pkg/stream"
)

// handleTextDelta forwards assistant text deltas in provider order. Deltas
// are never merged or split.
func (p *Projector) handleTextDelta(c *call, st *projectionState, evt *models.InternalEvent) {
	if evt.Kind != models.KindRawResponseEvent || evt.RawType != "response.output_text.delta" {
		return
	}
	if evt.TextDelta == nil {
		return
	}
	scope := itemScopeFromRaw(evt.RawEvent)
	if scope == nil {
		return
	}
	contentIndex, ok := getInt(evt.RawEvent, "content_index")
	if !ok {
		return
	}
	c.emit(&stream.MessageDelta{
		ItemEnvelope: c.itemEnvelope(stream.KindMessageDelta, scope.itemID, scope.outputIndex, nil),
		ContentIndex: contentIndex,
		Delta:        *evt.TextDelta,
	})
}

// handleCitations projects citation annotations. URL citations additionally
// feed the most recent web search tool's source list, re-announcing that
// tool's status so clients see the updated sources even when the citation
// arrives after the tool completed.
func (p *Projector) handleCitations(c *call, st *projectionState, evt *models.InternalEvent) {
	if evt.Kind != models.KindRawResponseEvent || evt.RawType != "response.output_text.annotation.added" {
		return
	}

	scope := itemScopeFromRaw(evt.RawEvent)
	contentIndex, haveContentIndex := getInt(evt.RawEvent, "content_index")

	for _, ann := range evt.Annotations {
		citation, ok := coerceCitation(ann, c.ctx.ConversationID)
		if !ok {
			continue
		}

		if citation.Type == "url_citation" && citation.URL != nil {
			p.reannounceWebSearch(c, st, *citation.URL)
		}

		if scope == nil || !haveContentIndex {
			continue
		}
		c.emit(&stream.MessageCitation{
			ItemEnvelope: c.itemEnvelope(stream.KindMessageCitation, scope.itemID, scope.outputIndex, nil),
			ContentIndex: contentIndex,
			Citation:     *citation,
		})
	}
}

// reannounceWebSearch appends a newly cited URL to the last web search
// tool's sources and emits an updated tool.status for it.
func (p *Projector) reannounceWebSearch(c *call, st *projectionState, citedURL string) {
	if st.lastWebSearchToolCallID == "" {
		return
	}
	ts, ok := st.lookupTool(st.lastWebSearchToolCallID)
	if !ok || !ts.addSource(citedURL) {
		return
	}
	scope := toolScope(st.lastWebSearchToolCallID, ts, nil)
	if scope == nil {
		return
	}
	status := ts.lastStatus
	if status == "" {
		status = stream.ToolStatusCompleted
	}
	c.emit(&stream.ToolStatus{
		ItemEnvelope: c.itemEnvelope(stream.KindToolStatus, scope.itemID, scope.outputIndex, nil),
		ToolCallID:   st.lastWebSearchToolCallID,
		ToolType:     stream.ToolTypeWebSearch,
		Status:       status,
		Tool:         ts.payload(),
	})
}

// coerceCitation validates one annotation map into a typed citation.
// Malformed annotations are skipped.
func coerceCitation(ann map[string]any, conversationID string) (*stream.Citation, bool) {
	typ, ok := getString(ann, "type")
	if !ok {
		return nil, false
	}

	citation := &stream.Citation{Type: typ}
	setStr := func(dst **string, key string) {
		if s, ok := getString(ann, key); ok && s != "" {
			*dst = strptr(s)
		}
	}
	setInt := func(dst **int, key string) {
		if n, ok := getInt(ann, key); ok {
			*dst = intptr(n)
		}
	}

	switch typ {
	case "url_citation":
		setStr(&citation.URL, "url")
		setStr(&citation.Title, "title")
		setInt(&citation.StartIndex, "start_index")
		setInt(&citation.EndIndex, "end_index")
		if citation.URL == nil {
			return nil, false
		}
	case "container_file_citation":
		setStr(&citation.URL, "url")
		setStr(&citation.ContainerID, "container_id")
		setStr(&citation.FileID, "file_id")
		setStr(&citation.Filename, "filename")
		setInt(&citation.StartIndex, "start_index")
		setInt(&citation.EndIndex, "end_index")
		if citation.URL == nil && citation.ContainerID != nil && citation.FileID != nil {
			citation.URL = strptr(containerFileURL(*citation.ContainerID, *citation.FileID, conversationID, citation.Filename))
		}
	case "file_citation":
		setStr(&citation.FileID, "file_id")
		setStr(&citation.Filename, "filename")
		setInt(&citation.StartIndex, "start_index")
	default:
		return nil, false
	}
	return citation, true
}

// containerFileURL synthesizes the download URL for a container file
// citation that arrived without one.
func containerFileURL(containerID, fileID, conversationID string, filename *string) string {
	qs := url.Values{}
	qs.Set("conversation_id", conversationID)
	if filename != nil {
		qs.Set("filename", *filename)
	}
	return "/api/v1/openai/containers/" + url.PathEscape(containerID) +
		"/files/" + url.PathEscape(fileID) + "/download?" + qs.Encode()
}
