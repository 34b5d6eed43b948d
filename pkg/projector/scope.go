package projector

// itemScope is a resolved (item_id, output_index) pair. Events that cannot
// resolve a scope are suppressed rather than emitted malformed.
type itemScope struct {
	itemID      string
	outputIndex int
}

// itemScopeFromRaw resolves scope directly from a raw frame. Requires both
// item_id (string) and output_index (int).
func itemScopeFromRaw(raw map[string]any) *itemScope {
	itemID, ok := getString(raw, "item_id")
	if !ok || itemID == "" {
		return nil
	}
	outputIndex, ok := getInt(raw, "output_index")
	if !ok {
		return nil
	}
	return &itemScope{itemID: itemID, outputIndex: outputIndex}
}

// toolScope resolves scope for a tool call. Prefers the output index cached
// on tool state; otherwise reads it from the raw frame and caches it.
func toolScope(toolCallID string, st *toolState, raw map[string]any) *itemScope {
	if toolCallID == "" {
		return nil
	}
	if st != nil && st.outputIndex != nil {
		return &itemScope{itemID: toolCallID, outputIndex: *st.outputIndex}
	}
	outputIndex, ok := getInt(raw, "output_index")
	if !ok {
		return nil
	}
	if st != nil {
		st.outputIndex = intptr(outputIndex)
	}
	return &itemScope{itemID: toolCallID, outputIndex: outputIndex}
}
