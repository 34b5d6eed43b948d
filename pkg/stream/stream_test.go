package stream

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStreamID(t *testing.T) {
	id, err := NewStreamID("strm")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^strm_[0-9a-f]{32}$`), id)

	// Two IDs must not collide.
	id2, err := NewStreamID("strm")
	require.NoError(t, err)
	assert.NotEqual(t, id, id2)
}

func TestKindConstantsDistinct(t *testing.T) {
	kinds := []Kind{
		KindLifecycle, KindMemoryCheckpoint, KindAgentUpdated,
		KindOutputItemAdded, KindOutputItemDone, KindMessageDelta,
		KindMessageCitation, KindReasoningSummaryDelta,
		KindReasoningSummaryPartAdded, KindReasoningSummaryPartDone,
		KindRefusalDelta, KindRefusalDone, KindToolStatus,
		KindToolArgumentsDelta, KindToolArgumentsDone, KindToolCodeDelta,
		KindToolCodeDone, KindToolOutput, KindToolApproval,
		KindChunkDelta, KindChunkDone, KindError, KindFinal,
	}
	seen := make(map[Kind]bool)
	for _, k := range kinds {
		assert.NotEmpty(t, k)
		assert.False(t, seen[k], "duplicate kind: %s", k)
		seen[k] = true
	}
}

func TestEnvelopeWireShape(t *testing.T) {
	ev := &MessageDelta{
		ItemEnvelope: ItemEnvelope{
			Envelope: Envelope{
				Schema:          SchemaVersion,
				Kind:            KindMessageDelta,
				EventID:         3,
				StreamID:        "strm_x",
				ServerTimestamp: "2026-01-01T00:00:00Z",
				ConversationID:  "conv_1",
			},
			ItemID:      "msg_1",
			OutputIndex: 0,
		},
		ContentIndex: 0,
		Delta:        "Hi ",
	}

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))

	// Envelope fields are flattened onto the root object.
	assert.Equal(t, "public_sse_v1", m["schema"])
	assert.Equal(t, "message.delta", m["kind"])
	assert.Equal(t, float64(3), m["event_id"])
	assert.Equal(t, "msg_1", m["item_id"])
	assert.Equal(t, float64(0), m["output_index"])
	assert.Equal(t, "Hi ", m["delta"])

	// Nullable envelope fields serialize as explicit nulls.
	for _, key := range []string{"response_id", "agent", "workflow", "scope", "provider_sequence_number", "notices"} {
		v, ok := m[key]
		assert.True(t, ok, "missing envelope field %s", key)
		assert.Nil(t, v)
	}
}

func TestEventInterface(t *testing.T) {
	var ev Event = &Final{Envelope: Envelope{Kind: KindFinal, EventID: 9}}
	assert.Equal(t, KindFinal, ev.Env().Kind)
	assert.Equal(t, uint64(9), ev.Env().EventID)
}
