package projector

import (
	"github.com/agentwire/relay/pkg/models"
	"github.com/agentwire/relay/pkg/stream"
)

// emitFinal emits the top-level terminal event. Status priority:
// refused > failed/incomplete/cancelled lifecycle > incomplete (no output)
// > completed.
func (p *Projector) emitFinal(c *call, st *projectionState, evt *models.InternalEvent) {
	status := stream.StatusCompleted
	switch {
	case st.refusalText != "":
		status = stream.FinalStatusRefused
	case st.lifecycleStatus == stream.StatusFailed,
		st.lifecycleStatus == stream.StatusIncomplete,
		st.lifecycleStatus == stream.StatusCancelled:
		status = st.lifecycleStatus
	case evt.ResponseText == nil && evt.StructuredOutput == nil:
		status = stream.StatusIncomplete
	}

	c.emit(&stream.Final{
		Envelope:         c.envelope(stream.KindFinal, nil),
		Status:           status,
		ResponseText:     evt.ResponseText,
		StructuredOutput: evt.StructuredOutput,
		Usage:            evt.Usage,
		Attachments:      p.attachments,
	})
}
