package projector

import (
	"github.com/agentwire/relay/pkg/models"
	"github.com/agentwire/relay/pkg/stream"
)

// handleRefusal projects refusal deltas and the final refusal text. The done
// frame replaces the accumulated text wholesale since providers may rewrite
// the refusal on completion.
func (p *Projector) handleRefusal(c *call, st *projectionState, evt *models.InternalEvent) {
	if evt.Kind != models.KindRawResponseEvent {
		return
	}

	switch evt.RawType {
	case "response.refusal.delta":
		scope := itemScopeFromRaw(evt.RawEvent)
		if scope == nil {
			return
		}
		delta, ok := getString(evt.RawEvent, "delta")
		if !ok || delta == "" {
			return
		}
		contentIndex, _ := getInt(evt.RawEvent, "content_index")
		st.refusalText += delta
		c.emit(&stream.RefusalDelta{
			ItemEnvelope: c.itemEnvelope(stream.KindRefusalDelta, scope.itemID, scope.outputIndex, nil),
			ContentIndex: contentIndex,
			Delta:        delta,
		})

	case "response.refusal.done":
		scope := itemScopeFromRaw(evt.RawEvent)
		if scope == nil {
			return
		}
		if text, ok := getString(evt.RawEvent, "refusal"); ok && text != "" {
			st.refusalText = text
		} else if text, ok := getString(evt.RawEvent, "text"); ok && text != "" {
			st.refusalText = text
		}
		contentIndex, _ := getInt(evt.RawEvent, "content_index")
		c.emit(&stream.RefusalDone{
			ItemEnvelope: c.itemEnvelope(stream.KindRefusalDone, scope.itemID, scope.outputIndex, nil),
			ContentIndex: contentIndex,
			Refusal:      st.refusalText,
		})
	}
}
