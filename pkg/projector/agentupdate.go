package projector

import (
	"github.com/agentwire/relay/pkg/models"
	"github.com/agentwire/relay/pkg/stream"
)

// handleAgentUpdate emits agent.updated when the active agent name changes.
// Repeated updates with the same agent are silent.
func (p *Projector) handleAgentUpdate(c *call, st *projectionState, evt *models.InternalEvent) {
	if evt.Kind != models.KindAgentUpdatedStreamEvent || evt.NewAgent == "" {
		return
	}
	if evt.NewAgent == st.currentAgent {
		return
	}

	var from *string
	if st.currentAgent != "" {
		from = strptr(st.currentAgent)
	}
	st.handoffCount++
	st.currentAgent = evt.NewAgent

	c.emit(&stream.AgentUpdated{
		Envelope:     c.envelope(stream.KindAgentUpdated, nil),
		FromAgent:    from,
		ToAgent:      evt.NewAgent,
		HandoffIndex: st.handoffCount,
	})
}
