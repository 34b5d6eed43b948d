package projector

import (
	"github.com/agentwire/relay/pkg/models"
	"github.com/agentwire/relay/pkg/stream"
)

// updateAttachments folds message attachments into the top-level set,
// deduplicated by object_id (first insertion wins, insertion order kept).
// Entries without an object_id are skipped.
func (p *Projector) updateAttachments(evt *models.InternalEvent) {
	for _, raw := range evt.Attachments {
		objectID, ok := getString(raw, "object_id")
		if !ok || objectID == "" {
			continue
		}
		if p.seenAttachmentIDs[objectID] {
			continue
		}
		p.seenAttachmentIDs[objectID] = true

		att := stream.MessageAttachment{ObjectID: objectID}
		if s, ok := getString(raw, "type"); ok && s != "" {
			att.Type = strptr(s)
		}
		if s, ok := getString(raw, "name"); ok && s != "" {
			att.Name = strptr(s)
		}
		if s, ok := getString(raw, "url"); ok && s != "" {
			att.URL = strptr(s)
		}
		if s, ok := getString(raw, "mime_type"); ok && s != "" {
			att.MimeType = strptr(s)
		}
		p.attachments = append(p.attachments, att)
	}
}
