package projector

import (
	"strings"

	"github.com/agentwire/relay/pkg/models"
	"github.com/agentwire/relay/pkg/stream"
)

// handleReasoningSummary projects reasoning summary deltas and part markers.
// The done frame carries the full summary text; anything the deltas already
// covered is not re-sent, only a missing suffix is. A done text that
// contradicts the accumulated deltas is dropped in favor of what was already
// streamed.
func (p *Projector) handleReasoningSummary(c *call, st *projectionState, evt *models.InternalEvent) {
	if evt.Kind != models.KindRawResponseEvent {
		return
	}

	switch evt.RawType {
	case "response.reasoning_summary_text.delta":
		scope := itemScopeFromRaw(evt.RawEvent)
		if scope == nil {
			return
		}
		var delta string
		if evt.ReasoningDelta != nil {
			delta = *evt.ReasoningDelta
		} else {
			delta, _ = getString(evt.RawEvent, "delta")
		}
		if delta == "" {
			return
		}
		summaryIndex, _ := getInt(evt.RawEvent, "summary_index")
		st.reasoningSummaryText += delta
		c.emit(&stream.ReasoningSummaryDelta{
			ItemEnvelope: c.itemEnvelope(stream.KindReasoningSummaryDelta, scope.itemID, scope.outputIndex, nil),
			SummaryIndex: summaryIndex,
			Delta:        delta,
		})

	case "response.reasoning_summary_text.done":
		scope := itemScopeFromRaw(evt.RawEvent)
		if scope == nil {
			return
		}
		text, ok := getString(evt.RawEvent, "text")
		if !ok || text == "" {
			return
		}
		summaryIndex, _ := getInt(evt.RawEvent, "summary_index")

		var missing string
		switch {
		case st.reasoningSummaryText == "":
			missing = text
		case strings.HasPrefix(text, st.reasoningSummaryText):
			missing = text[len(st.reasoningSummaryText):]
		default:
			// Accumulated deltas win over a contradictory done text.
			return
		}
		if missing == "" {
			return
		}
		st.reasoningSummaryText = text
		c.emit(&stream.ReasoningSummaryDelta{
			ItemEnvelope: c.itemEnvelope(stream.KindReasoningSummaryDelta, scope.itemID, scope.outputIndex, nil),
			SummaryIndex: summaryIndex,
			Delta:        missing,
		})

	case "response.reasoning_summary_part.added":
		scope := itemScopeFromRaw(evt.RawEvent)
		if scope == nil {
			return
		}
		summaryIndex, _ := getInt(evt.RawEvent, "summary_index")
		c.emit(&stream.ReasoningSummaryPartAdded{
			ItemEnvelope: c.itemEnvelope(stream.KindReasoningSummaryPartAdded, scope.itemID, scope.outputIndex, nil),
			SummaryIndex: summaryIndex,
		})

	case "response.reasoning_summary_part.done":
		scope := itemScopeFromRaw(evt.RawEvent)
		if scope == nil {
			return
		}
		summaryIndex, _ := getInt(evt.RawEvent, "summary_index")
		ev := &stream.ReasoningSummaryPartDone{
			ItemEnvelope: c.itemEnvelope(stream.KindReasoningSummaryPartDone, scope.itemID, scope.outputIndex, nil),
			SummaryIndex: summaryIndex,
		}
		if part, ok := getMap(evt.RawEvent, "part"); ok {
			if typ, _ := getString(part, "type"); typ == "summary_text" {
				if text, ok := getString(part, "text"); ok && text != "" {
					ev.Text = strptr(text)
				}
			}
		}
		c.emit(ev)
	}
}
