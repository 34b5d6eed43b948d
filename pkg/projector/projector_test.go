package projector

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentwire/relay/pkg/models"
	"github.com/agentwire/relay/pkg/stream"
)

func testContext() Context {
	ts := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	return Context{
		ConversationID:  "conv_1",
		ServerTimestamp: &ts,
	}
}

func rawEvt(rawType string, raw map[string]any) *models.InternalEvent {
	return &models.InternalEvent{
		Kind:     models.KindRawResponseEvent,
		RawType:  rawType,
		RawEvent: raw,
	}
}

func kinds(events []stream.Event) []stream.Kind {
	out := make([]stream.Kind, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Env().Kind)
	}
	return out
}

func projectAll(t *testing.T, p *Projector, ctx Context, events ...*models.InternalEvent) []stream.Event {
	t.Helper()
	var out []stream.Event
	for _, evt := range events {
		out = append(out, p.Project(evt, ctx)...)
	}
	return out
}

func TestProjectMinimalTextResponse(t *testing.T) {
	p := New("str_1")
	ctx := testContext()

	out := projectAll(t, p, ctx,
		rawEvt("response.created", map[string]any{}),
		rawEvt("response.output_item.added", map[string]any{
			"output_index": 0,
			"item":         map[string]any{"id": "msg_1", "type": "message", "role": "assistant"},
		}),
		&models.InternalEvent{
			Kind:      models.KindRawResponseEvent,
			RawType:   "response.output_text.delta",
			TextDelta: strptr("Hi "),
			RawEvent:  map[string]any{"item_id": "msg_1", "output_index": 0, "content_index": 0},
		},
		&models.InternalEvent{
			Kind:      models.KindRawResponseEvent,
			RawType:   "response.output_text.delta",
			TextDelta: strptr("there"),
			RawEvent:  map[string]any{"item_id": "msg_1", "output_index": 0, "content_index": 0},
		},
		rawEvt("response.output_item.done", map[string]any{
			"output_index": 0,
			"item":         map[string]any{"id": "msg_1", "type": "message", "role": "assistant", "status": "completed"},
		}),
		rawEvt("response.completed", map[string]any{}),
		&models.InternalEvent{
			Kind:         models.KindRawResponseEvent,
			IsTerminal:   true,
			ResponseText: strptr("Hi there"),
		},
	)

	require.Equal(t, []stream.Kind{
		stream.KindLifecycle,
		stream.KindOutputItemAdded,
		stream.KindMessageDelta,
		stream.KindMessageDelta,
		stream.KindOutputItemDone,
		stream.KindLifecycle,
		stream.KindFinal,
	}, kinds(out))

	for i, ev := range out {
		assert.Equal(t, uint64(i+1), ev.Env().EventID)
		assert.Equal(t, stream.SchemaVersion, ev.Env().Schema)
		assert.Equal(t, "str_1", ev.Env().StreamID)
	}

	first := out[0].(*stream.Lifecycle)
	assert.Equal(t, stream.StatusInProgress, first.Status)

	d1 := out[2].(*stream.MessageDelta)
	d2 := out[3].(*stream.MessageDelta)
	assert.Equal(t, "Hi ", d1.Delta)
	assert.Equal(t, "there", d2.Delta)
	assert.Equal(t, "msg_1", d1.ItemID)
	assert.Equal(t, 0, d1.OutputIndex)

	final := out[6].(*stream.Final)
	assert.Equal(t, stream.StatusCompleted, final.Status)
	require.NotNil(t, final.ResponseText)
	assert.Equal(t, "Hi there", *final.ResponseText)
	assert.True(t, p.Terminal())
}

func TestProviderErrorMidStream(t *testing.T) {
	p := New("str_1")
	ctx := testContext()

	out := projectAll(t, p, ctx,
		rawEvt("response.created", map[string]any{}),
		rawEvt("error", map[string]any{"code": "rate_limited", "message": "slow down"}),
	)

	require.Equal(t, []stream.Kind{stream.KindLifecycle, stream.KindError}, kinds(out))

	errEv := out[1].(*stream.Error)
	require.NotNil(t, errEv.Code)
	assert.Equal(t, "rate_limited", *errEv.Code)
	assert.Equal(t, "slow down", errEv.Message)
	assert.Equal(t, stream.ErrorSourceProvider, errEv.Source)
	assert.False(t, errEv.IsRetryable)
	assert.True(t, p.Terminal())

	// Post-terminal inputs are suppressed entirely.
	assert.Empty(t, p.Project(rawEvt("response.completed", map[string]any{}), ctx))
	assert.Nil(t, p.ProjectError(ctx, nil, "late", stream.ErrorSourceServer, true))
}

func TestServerErrorEvent(t *testing.T) {
	p := New("str_1")

	out := p.Project(&models.InternalEvent{
		Kind:    models.KindError,
		Payload: map[string]any{"message": "backend unavailable"},
	}, testContext())

	require.Len(t, out, 1)
	errEv := out[0].(*stream.Error)
	assert.Equal(t, "backend unavailable", errEv.Message)
	assert.Equal(t, stream.ErrorSourceServer, errEv.Source)
	assert.True(t, p.Terminal())
}

func TestProjectErrorDirect(t *testing.T) {
	p := New("str_1")

	ev := p.ProjectError(testContext(), strptr("timeout"), "deadline exceeded", stream.ErrorSourceServer, true)
	require.NotNil(t, ev)
	assert.Equal(t, uint64(1), ev.EventID)
	assert.Equal(t, "deadline exceeded", ev.Message)
	assert.True(t, ev.IsRetryable)
	assert.True(t, p.Terminal())

	assert.Nil(t, p.ProjectError(testContext(), nil, "again", stream.ErrorSourceServer, false))
}

func TestFunctionArgumentsSanitized(t *testing.T) {
	p := New("str_1")
	ctx := testContext()
	args := `{"api_key":"sk-abc","q":"hi"}`

	out := projectAll(t, p, ctx,
		rawEvt("response.function_call_arguments.delta", map[string]any{
			"item_id": "call_7", "delta": args[:10],
		}),
		rawEvt("response.function_call_arguments.delta", map[string]any{
			"item_id": "call_7", "delta": args[10:],
		}),
		rawEvt("response.function_call_arguments.done", map[string]any{
			"item_id": "call_7", "name": "lookup", "arguments": args, "output_index": 2,
		}),
	)

	require.Equal(t, []stream.Kind{
		stream.KindToolStatus,
		stream.KindToolArgumentsDelta,
		stream.KindToolArgumentsDone,
	}, kinds(out))

	status := out[0].(*stream.ToolStatus)
	assert.Equal(t, stream.ToolStatusInProgress, status.Status)
	assert.Equal(t, stream.ToolTypeFunction, status.ToolType)
	assert.Equal(t, stream.FunctionToolPayload{Name: "lookup"}, status.Tool)
	assert.Equal(t, 2, status.OutputIndex)

	delta := out[1].(*stream.ToolArgumentsDelta)
	assert.Equal(t, `{"api_key":"<redacted>","q":"hi"}`, delta.Delta)

	done := out[2].(*stream.ToolArgumentsDone)
	assert.Equal(t, "lookup", done.ToolName)
	assert.Equal(t, map[string]any{"api_key": "<redacted>", "q": "hi"}, done.ArgumentsJSON)
	require.Len(t, done.Notices, 1)
	assert.Equal(t, stream.NoticeRedacted, done.Notices[0].Type)
	assert.Equal(t, "arguments_json.api_key", done.Notices[0].Path)
}

func TestWebSearchPostCompletionCitation(t *testing.T) {
	p := New("str_1")
	ctx := testContext()

	out := projectAll(t, p, ctx,
		rawEvt("response.web_search_call.in_progress", map[string]any{
			"item_id": "ws_1", "output_index": 0,
		}),
		rawEvt("response.web_search_call.completed", map[string]any{
			"item_id": "ws_1", "output_index": 0,
		}),
		&models.InternalEvent{
			Kind:     models.KindRawResponseEvent,
			RawType:  "response.output_text.annotation.added",
			RawEvent: map[string]any{"item_id": "msg_2", "output_index": 1, "content_index": 0},
			Annotations: []map[string]any{{
				"type": "url_citation", "url": "https://x.example",
				"start_index": 0, "end_index": 5, "title": "X",
			}},
		},
	)

	require.Equal(t, []stream.Kind{
		stream.KindToolStatus,
		stream.KindToolStatus,
		stream.KindToolStatus,
		stream.KindMessageCitation,
	}, kinds(out))

	assert.Equal(t, stream.ToolStatusInProgress, out[0].(*stream.ToolStatus).Status)
	assert.Equal(t, stream.ToolStatusCompleted, out[1].(*stream.ToolStatus).Status)

	updated := out[2].(*stream.ToolStatus)
	assert.Equal(t, stream.ToolStatusCompleted, updated.Status)
	assert.Equal(t, "ws_1", updated.ToolCallID)
	assert.Equal(t, []string{"https://x.example"}, updated.Tool.(stream.WebSearchToolPayload).Sources)

	citation := out[3].(*stream.MessageCitation)
	assert.Equal(t, "msg_2", citation.ItemID)
	require.NotNil(t, citation.Citation.URL)
	assert.Equal(t, "https://x.example", *citation.Citation.URL)
	assert.Equal(t, "X", *citation.Citation.Title)
}

func TestDuplicateCitationDoesNotReannounce(t *testing.T) {
	p := New("str_1")
	ctx := testContext()
	annotation := &models.InternalEvent{
		Kind:     models.KindRawResponseEvent,
		RawType:  "response.output_text.annotation.added",
		RawEvent: map[string]any{"item_id": "msg_2", "output_index": 1, "content_index": 0},
		Annotations: []map[string]any{{
			"type": "url_citation", "url": "https://x.example",
		}},
	}

	projectAll(t, p, ctx,
		rawEvt("response.web_search_call.completed", map[string]any{
			"item_id": "ws_1", "output_index": 0,
		}),
		annotation,
	)
	out := p.Project(annotation, ctx)

	// Second citation for a known source yields only the citation itself.
	require.Equal(t, []stream.Kind{stream.KindMessageCitation}, kinds(out))
}

func TestContainerFileCitationURLSynthesis(t *testing.T) {
	p := New("str_1")

	out := p.Project(&models.InternalEvent{
		Kind:     models.KindRawResponseEvent,
		RawType:  "response.output_text.annotation.added",
		RawEvent: map[string]any{"item_id": "msg_1", "output_index": 0, "content_index": 0},
		Annotations: []map[string]any{{
			"type":         "container_file_citation",
			"container_id": "cntr_1",
			"file_id":      "file_9",
			"filename":     "report.csv",
		}},
	}, testContext())

	require.Len(t, out, 1)
	citation := out[0].(*stream.MessageCitation).Citation
	require.NotNil(t, citation.URL)
	assert.Equal(t,
		"/api/v1/openai/containers/cntr_1/files/file_9/download?conversation_id=conv_1&filename=report.csv",
		*citation.URL)
}

func TestAgentHandoff(t *testing.T) {
	p := New("str_1")
	ctx := testContext()

	out := projectAll(t, p, ctx,
		&models.InternalEvent{Kind: models.KindAgentUpdatedStreamEvent, NewAgent: "planner"},
		&models.InternalEvent{Kind: models.KindAgentUpdatedStreamEvent, NewAgent: "writer"},
		&models.InternalEvent{Kind: models.KindAgentUpdatedStreamEvent, NewAgent: "writer"},
	)

	require.Len(t, out, 2)
	first := out[0].(*stream.AgentUpdated)
	assert.Nil(t, first.FromAgent)
	assert.Equal(t, "planner", first.ToAgent)
	assert.Equal(t, uint32(1), first.HandoffIndex)

	second := out[1].(*stream.AgentUpdated)
	require.NotNil(t, second.FromAgent)
	assert.Equal(t, "planner", *second.FromAgent)
	assert.Equal(t, "writer", second.ToAgent)
	assert.Equal(t, uint32(2), second.HandoffIndex)
}

func TestPartialImageChunking(t *testing.T) {
	p := New("str_1", WithMaxChunkChars(8))
	payload := strings.Repeat("A", 17)

	out := p.Project(rawEvt("response.image_generation_call.partial_image", map[string]any{
		"item_id":             "img_1",
		"output_index":        3,
		"partial_image_index": 0,
		"partial_image_b64":   payload,
	}), testContext())

	require.Equal(t, []stream.Kind{
		stream.KindToolStatus,
		stream.KindChunkDelta,
		stream.KindChunkDelta,
		stream.KindChunkDelta,
		stream.KindChunkDone,
	}, kinds(out))

	status := out[0].(*stream.ToolStatus)
	assert.Equal(t, stream.ToolStatusPartialImage, status.Status)
	require.NotNil(t, status.Tool.(stream.ImageGenerationToolPayload).PartialImageIndex)
	assert.Equal(t, 0, *status.Tool.(stream.ImageGenerationToolPayload).PartialImageIndex)

	var rebuilt strings.Builder
	for i, ev := range out[1:4] {
		chunk := ev.(*stream.ChunkDelta)
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.Equal(t, "base64", chunk.Encoding)
		assert.Equal(t, "tool_call", chunk.Target.EntityKind)
		assert.Equal(t, "img_1", chunk.Target.EntityID)
		assert.Equal(t, "partial_image_b64", chunk.Target.Field)
		rebuilt.WriteString(chunk.Data)
	}
	assert.Equal(t, payload, rebuilt.String())

	done := out[4].(*stream.ChunkDone)
	assert.Equal(t, 3, done.ChunkCount)
}

func TestReasoningSummaryDone(t *testing.T) {
	scope := map[string]any{"item_id": "rs_1", "output_index": 0}

	tests := []struct {
		name       string
		deltas     []string
		doneText   string
		wantDeltas []string
	}{
		{
			name:       "done without prior deltas emits full text",
			doneText:   "full summary",
			wantDeltas: []string{"full summary"},
		},
		{
			name:       "done emits only the missing suffix",
			deltas:     []string{"part one"},
			doneText:   "part one and two",
			wantDeltas: []string{"part one", " and two"},
		},
		{
			name:       "contradictory done is dropped",
			deltas:     []string{"part one"},
			doneText:   "something else",
			wantDeltas: []string{"part one"},
		},
		{
			name:       "done equal to accumulated emits nothing",
			deltas:     []string{"done"},
			doneText:   "done",
			wantDeltas: []string{"done"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New("str_1")
			ctx := testContext()

			var got []string
			for _, d := range tt.deltas {
				raw := map[string]any{"item_id": "rs_1", "output_index": 0, "summary_index": 0, "delta": d}
				for _, ev := range p.Project(rawEvt("response.reasoning_summary_text.delta", raw), ctx) {
					got = append(got, ev.(*stream.ReasoningSummaryDelta).Delta)
				}
			}
			doneRaw := map[string]any{"item_id": scope["item_id"], "output_index": 0, "summary_index": 0, "text": tt.doneText}
			for _, ev := range p.Project(rawEvt("response.reasoning_summary_text.done", doneRaw), ctx) {
				got = append(got, ev.(*stream.ReasoningSummaryDelta).Delta)
			}

			assert.Equal(t, tt.wantDeltas, got)
		})
	}
}

func TestReasoningSummaryDeltaFromConvenienceField(t *testing.T) {
	p := New("str_1")
	ctx := testContext()

	// The pre-extracted delta counts even when the raw frame omits it.
	out := p.Project(&models.InternalEvent{
		Kind:           models.KindRawResponseEvent,
		RawType:        "response.reasoning_summary_text.delta",
		ReasoningDelta: strptr("Plan: "),
		RawEvent:       map[string]any{"item_id": "rs_1", "output_index": 0, "summary_index": 0},
	}, ctx)

	require.Len(t, out, 1)
	assert.Equal(t, "Plan: ", out[0].(*stream.ReasoningSummaryDelta).Delta)

	// The done frame treats it as already streamed and sends only the suffix.
	out = p.Project(rawEvt("response.reasoning_summary_text.done", map[string]any{
		"item_id": "rs_1", "output_index": 0, "summary_index": 0, "text": "Plan: verify",
	}), ctx)
	require.Len(t, out, 1)
	assert.Equal(t, "verify", out[0].(*stream.ReasoningSummaryDelta).Delta)
}

func TestRefusalFlow(t *testing.T) {
	p := New("str_1")
	ctx := testContext()

	out := projectAll(t, p, ctx,
		rawEvt("response.refusal.delta", map[string]any{
			"item_id": "msg_1", "output_index": 0, "content_index": 0, "delta": "I cannot ",
		}),
		rawEvt("response.refusal.done", map[string]any{
			"item_id": "msg_1", "output_index": 0, "content_index": 0, "refusal": "I cannot help with that.",
		}),
		&models.InternalEvent{Kind: models.KindRawResponseEvent, IsTerminal: true},
	)

	require.Equal(t, []stream.Kind{
		stream.KindRefusalDelta,
		stream.KindRefusalDone,
		stream.KindFinal,
	}, kinds(out))

	assert.Equal(t, "I cannot help with that.", out[1].(*stream.RefusalDone).Refusal)
	assert.Equal(t, stream.FinalStatusRefused, out[2].(*stream.Final).Status)
}

func TestFinalStatusPriority(t *testing.T) {
	tests := []struct {
		name   string
		events []*models.InternalEvent
		want   string
	}{
		{
			name: "failed lifecycle wins over missing output",
			events: []*models.InternalEvent{
				rawEvt("response.failed", map[string]any{}),
			},
			want: stream.StatusFailed,
		},
		{
			name: "cancelled lifecycle",
			events: []*models.InternalEvent{
				{Kind: models.KindLifecycle, Metadata: map[string]any{"state": "cancelled"}},
			},
			want: stream.StatusCancelled,
		},
		{
			name: "no output at all reads as incomplete",
			want: stream.StatusIncomplete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New("str_1")
			ctx := testContext()
			projectAll(t, p, ctx, tt.events...)

			out := p.Project(&models.InternalEvent{Kind: models.KindRawResponseEvent, IsTerminal: true}, ctx)
			require.NotEmpty(t, out)
			final := out[len(out)-1].(*stream.Final)
			assert.Equal(t, tt.want, final.Status)
		})
	}
}

func TestMemoryCheckpoint(t *testing.T) {
	p := New("str_1")

	out := p.Project(&models.InternalEvent{
		Kind:  models.KindLifecycle,
		Event: "memory_compaction",
		Payload: map[string]any{
			"strategy":         "summarize",
			"tokens_before":    9000,
			"tokens_after":     2000,
			"messages_removed": 12,
			"forced":           true,
			"removed_item_ids": []any{"msg_1", "msg_2"},
		},
	}, testContext())

	require.Len(t, out, 1)
	cp := out[0].(*stream.MemoryCheckpoint).Checkpoint
	assert.Equal(t, "summarize", cp.Strategy)
	assert.Equal(t, 9000, *cp.TokensBefore)
	assert.Equal(t, 2000, *cp.TokensAfter)
	assert.Equal(t, 12, *cp.MessagesRemoved)
	assert.True(t, cp.Forced)
	assert.Equal(t, []string{"msg_1", "msg_2"}, cp.RemovedItemIDs)
}

func TestAttachmentDedup(t *testing.T) {
	p := New("str_1")
	ctx := testContext()

	projectAll(t, p, ctx,
		&models.InternalEvent{
			Kind: models.KindRawResponseEvent,
			Attachments: []map[string]any{
				{"object_id": "obj_1", "name": "a.png", "type": "image"},
				{"object_id": "obj_2"},
				{"name": "no-id.txt"},
			},
		},
		&models.InternalEvent{
			Kind: models.KindRawResponseEvent,
			Attachments: []map[string]any{
				{"object_id": "obj_1", "name": "duplicate.png"},
			},
		},
	)
	out := p.Project(&models.InternalEvent{Kind: models.KindRawResponseEvent, IsTerminal: true}, ctx)

	require.NotEmpty(t, out)
	final := out[len(out)-1].(*stream.Final)
	require.Len(t, final.Attachments, 2)
	assert.Equal(t, "obj_1", final.Attachments[0].ObjectID)
	assert.Equal(t, "a.png", *final.Attachments[0].Name)
	assert.Equal(t, "obj_2", final.Attachments[1].ObjectID)
}

func TestScopedAgentToolSubStream(t *testing.T) {
	p := New("str_1")
	ctx := testContext()
	scope := map[string]any{"type": "agent_tool", "tool_call_id": "call_9"}

	// The nested agent's lifecycle does not leak into top-level state.
	scoped := p.Project(&models.InternalEvent{
		Kind:     models.KindRawResponseEvent,
		RawType:  "response.created",
		RawEvent: map[string]any{},
		Scope:    scope,
	}, ctx)
	top := p.Project(rawEvt("response.created", map[string]any{}), ctx)

	require.Len(t, scoped, 1)
	require.Len(t, top, 1)
	assert.Equal(t, map[string]any{"type": "agent_tool", "tool_call_id": "call_9"}, scoped[0].Env().Scope)
	assert.Nil(t, top[0].Env().Scope)

	// Event IDs draw from one shared counter.
	assert.Equal(t, uint64(1), scoped[0].Env().EventID)
	assert.Equal(t, uint64(2), top[0].Env().EventID)

	// A scoped terminal marker does not end the top-level stream.
	p.Project(&models.InternalEvent{Kind: models.KindRawResponseEvent, IsTerminal: true, Scope: scope}, ctx)
	assert.False(t, p.Terminal())
}

func TestMonotonicEventIDs(t *testing.T) {
	p := New("str_1")
	ctx := testContext()

	out := projectAll(t, p, ctx,
		rawEvt("response.created", map[string]any{}),
		&models.InternalEvent{Kind: models.KindAgentUpdatedStreamEvent, NewAgent: "planner"},
		rawEvt("response.web_search_call.in_progress", map[string]any{"item_id": "ws_1", "output_index": 0}),
		rawEvt("response.completed", map[string]any{}),
		&models.InternalEvent{Kind: models.KindRawResponseEvent, IsTerminal: true, ResponseText: strptr("ok")},
	)

	var prev uint64
	for _, ev := range out {
		assert.Greater(t, ev.Env().EventID, prev)
		prev = ev.Env().EventID
	}
}

func TestMalformedInputsYieldNothing(t *testing.T) {
	p := New("str_1")
	ctx := testContext()

	tests := []struct {
		name string
		evt  *models.InternalEvent
	}{
		{"nil event", nil},
		{"unknown kind", &models.InternalEvent{Kind: "mystery"}},
		{"unknown raw type", rawEvt("response.sparkles", map[string]any{})},
		{"output item without index", rawEvt("response.output_item.added", map[string]any{
			"item": map[string]any{"id": "msg_1", "type": "message"},
		})},
		{"text delta without scope", &models.InternalEvent{
			Kind: models.KindRawResponseEvent, RawType: "response.output_text.delta",
			TextDelta: strptr("x"), RawEvent: map[string]any{"content_index": 0},
		}},
		{"tool status without item id", rawEvt("response.web_search_call.completed", map[string]any{
			"output_index": 0,
		})},
		{"annotation of unknown type", &models.InternalEvent{
			Kind: models.KindRawResponseEvent, RawType: "response.output_text.annotation.added",
			RawEvent:    map[string]any{"item_id": "m", "output_index": 0, "content_index": 0},
			Annotations: []map[string]any{{"type": "hologram"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, p.Project(tt.evt, ctx))
		})
	}
	assert.False(t, p.Terminal())
}

func TestToolSnapshotOnItemDone(t *testing.T) {
	p := New("str_1")

	out := p.Project(&models.InternalEvent{
		Kind:    models.KindRawResponseEvent,
		RawType: "response.output_item.done",
		RawEvent: map[string]any{
			"output_index": 1,
			"item":         map[string]any{"id": "ws_1", "type": "web_search_call", "status": "completed"},
		},
		ToolCall: map[string]any{
			"tool_type": "web_search",
			"web_search_call": map[string]any{
				"id":      "ws_1",
				"status":  "completed",
				"query":   "golang sse",
				"sources": []any{"https://a.example", "https://b.example"},
			},
		},
	}, testContext())

	require.Equal(t, []stream.Kind{stream.KindToolStatus, stream.KindOutputItemDone}, kinds(out))

	status := out[0].(*stream.ToolStatus)
	assert.Equal(t, "ws_1", status.ToolCallID)
	assert.Equal(t, stream.ToolStatusCompleted, status.Status)
	payload := status.Tool.(stream.WebSearchToolPayload)
	require.NotNil(t, payload.Query)
	assert.Equal(t, "golang sse", *payload.Query)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, payload.Sources)
}

func TestFileSearchResultCaps(t *testing.T) {
	results := make([]any, 12)
	for i := range results {
		results[i] = map[string]any{
			"file_id": "file_1",
			"text":    strings.Repeat("x", 2500),
		}
	}

	p := New("str_1")
	out := p.Project(&models.InternalEvent{
		Kind:    models.KindRawResponseEvent,
		RawType: "response.output_item.done",
		RawEvent: map[string]any{
			"output_index": 0,
			"item":         map[string]any{"id": "fs_1", "type": "file_search_call"},
		},
		ToolCall: map[string]any{
			"tool_type": "file_search",
			"file_search_call": map[string]any{
				"id":      "fs_1",
				"status":  "completed",
				"queries": []any{"q1"},
				"results": results,
			},
		},
	}, testContext())

	require.NotEmpty(t, out)
	status := out[0].(*stream.ToolStatus)
	payload := status.Tool.(stream.FileSearchToolPayload)
	assert.Len(t, payload.Results, 10)
	for _, r := range payload.Results {
		require.NotNil(t, r.Text)
		assert.Len(t, *r.Text, 2000)
	}

	var paths []string
	for _, n := range status.Notices {
		paths = append(paths, n.Path)
	}
	assert.Contains(t, paths, "tool.results")
	assert.Contains(t, paths, "tool.results[0].text")
}

func TestMCPApprovalRequested(t *testing.T) {
	p := New("str_1")

	out := p.Project(&models.InternalEvent{
		Kind:        models.KindRunItemStreamEvent,
		RunItemName: models.RunItemMCPApprovalRequested,
		RawEvent: map[string]any{
			"raw_item": map[string]any{
				"type":         "mcp_approval_request",
				"id":           "apr_1",
				"name":         "delete_row",
				"server_label": "db",
				"output_index": 0,
			},
		},
	}, testContext())

	require.Equal(t, []stream.Kind{stream.KindToolStatus, stream.KindToolApproval}, kinds(out))

	status := out[0].(*stream.ToolStatus)
	assert.Equal(t, stream.ToolStatusAwaitingApproval, status.Status)
	assert.Equal(t, stream.ToolTypeMCP, status.ToolType)

	approval := out[1].(*stream.ToolApproval)
	assert.Equal(t, "apr_1", approval.ToolCallID)
	assert.Equal(t, "delete_row", *approval.ToolName)
	assert.Equal(t, "db", *approval.ServerLabel)
}

func TestToolOutputSanitized(t *testing.T) {
	p := New("str_1")
	ctx := testContext()

	projectAll(t, p, ctx, &models.InternalEvent{
		Kind:        models.KindRunItemStreamEvent,
		RunItemName: models.RunItemToolCalled,
		ToolCallID:  "call_1",
		RawEvent: map[string]any{
			"raw_item": map[string]any{"type": "function_call", "call_id": "call_1", "name": "fetch", "output_index": 0},
		},
	})

	out := p.Project(&models.InternalEvent{
		Kind:        models.KindRunItemStreamEvent,
		RunItemName: models.RunItemToolOutput,
		ToolCallID:  "call_1",
		RawEvent: map[string]any{
			"raw_item": map[string]any{
				"type":    "function_call",
				"call_id": "call_1",
				"output":  map[string]any{"password": "hunter2", "rows": float64(3)},
			},
		},
	}, testContext())

	require.Equal(t, []stream.Kind{stream.KindToolOutput, stream.KindToolStatus}, kinds(out))

	outputEv := out[0].(*stream.ToolOutput)
	assert.Equal(t, map[string]any{"password": "<redacted>", "rows": float64(3)}, outputEv.Output)
	require.Len(t, outputEv.Notices, 1)
	assert.Equal(t, "output.password", outputEv.Notices[0].Path)

	assert.Equal(t, stream.ToolStatusCompleted, out[1].(*stream.ToolStatus).Status)
}

func TestWebSearchOutputMinedForSources(t *testing.T) {
	p := New("str_1")
	ctx := testContext()

	projectAll(t, p, ctx, rawEvt("response.web_search_call.completed", map[string]any{
		"item_id": "ws_1", "output_index": 0,
	}))

	out := p.Project(&models.InternalEvent{
		Kind:        models.KindRunItemStreamEvent,
		RunItemName: models.RunItemToolOutput,
		ToolCallID:  "ws_1",
		RawEvent: map[string]any{
			"raw_item": map[string]any{
				"type": "web_search_call",
				"id":   "ws_1",
				"output": []any{
					map[string]any{"url": "https://a.example", "snippet": "x"},
					map[string]any{"nested": map[string]any{"url": "https://b.example"}},
				},
			},
		},
	}, ctx)

	require.Len(t, out, 1)
	status := out[0].(*stream.ToolStatus)
	assert.Equal(t, stream.ToolStatusCompleted, status.Status)
	payload := status.Tool.(stream.WebSearchToolPayload)
	assert.ElementsMatch(t, []string{"https://a.example", "https://b.example"}, payload.Sources)
}

func TestAgentToolUpgrade(t *testing.T) {
	p := New("str_1")
	ctx := testContext()
	ctx.Workflow = &models.WorkflowMeta{
		AgentToolNames:   map[string]bool{"research_agent": true},
		AgentToolNameMap: map[string]string{"research_agent": "researcher"},
	}

	out := p.Project(rawEvt("response.function_call_arguments.done", map[string]any{
		"item_id": "call_1", "name": "research_agent", "arguments": `{"topic":"go"}`, "output_index": 0,
	}), ctx)

	require.NotEmpty(t, out)
	status := out[0].(*stream.ToolStatus)
	assert.Equal(t, stream.ToolTypeAgent, status.ToolType)
	payload := status.Tool.(stream.AgentToolPayload)
	assert.Equal(t, "research_agent", payload.Name)
	assert.Equal(t, "researcher", payload.AgentName)
}

func TestCodeInterpreterCodeStreaming(t *testing.T) {
	p := New("str_1")
	ctx := testContext()

	out := projectAll(t, p, ctx,
		rawEvt("response.code_interpreter_call_code.delta", map[string]any{
			"item_id": "ci_1", "output_index": 0, "delta": "print(",
		}),
		rawEvt("response.code_interpreter_call_code.delta", map[string]any{
			"item_id": "ci_1", "delta": "42)",
		}),
		rawEvt("response.code_interpreter_call_code.done", map[string]any{
			"item_id": "ci_1", "code": "print(42)",
		}),
	)

	require.Equal(t, []stream.Kind{
		stream.KindToolCodeDelta,
		stream.KindToolCodeDelta,
		stream.KindToolCodeDone,
	}, kinds(out))
	assert.Equal(t, "print(42)", out[2].(*stream.ToolCodeDone).Code)
}

func TestLongArgumentsResliced(t *testing.T) {
	p := New("str_1")
	args := `{"q":"` + strings.Repeat("x", 4500) + `"}`

	out := p.Project(rawEvt("response.function_call_arguments.done", map[string]any{
		"item_id": "call_1", "name": "lookup", "arguments": args, "output_index": 0,
	}), testContext())

	var deltas []*stream.ToolArgumentsDelta
	var done *stream.ToolArgumentsDone
	for _, ev := range out {
		switch e := ev.(type) {
		case *stream.ToolArgumentsDelta:
			deltas = append(deltas, e)
		case *stream.ToolArgumentsDone:
			done = e
		}
	}

	require.NotNil(t, done)
	require.Len(t, deltas, 3)
	var rebuilt strings.Builder
	for _, d := range deltas {
		assert.LessOrEqual(t, len(d.Delta), 2000)
		rebuilt.WriteString(d.Delta)
	}
	assert.Equal(t, done.ArgumentsText, rebuilt.String())

	// 4000-char cap applies inside the object, not the flat text.
	q := done.ArgumentsJSON["q"].(string)
	assert.Len(t, q, 4000)
}
