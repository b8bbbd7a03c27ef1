package hydrate

import (
	"reflect"
	"testing"
)

func mustEvent(t *testing.T, raw string) *Event {
	t.Helper()
	ev, err := decodeEvent([]byte(raw))
	if err != nil {
		t.Fatalf("bad test event %s: %v", raw, err)
	}
	return ev
}

func applyAll(t *testing.T, st *State, raws ...string) {
	t.Helper()
	for _, raw := range raws {
		if term := st.apply(mustEvent(t, raw)); term != nil {
			t.Fatalf("unexpected terminal event in %s", raw)
		}
	}
}

const vocabSnapshot = `{"type":"render-snapshot","ui":{"component":"VocabGrid","props":{"words":["a","b"]},"intention":"practice","target_level":2},"fallback_text":"word list"}`

func TestRenderSnapshotReplacesWidget(t *testing.T) {
	st := newState()
	applyAll(t, st, vocabSnapshot)

	if st.Widget == nil {
		t.Fatal("widget not created")
	}
	if st.Widget.ComponentName != "VocabGrid" {
		t.Errorf("component = %q", st.Widget.ComponentName)
	}
	if st.Widget.TargetLevel != 2 {
		t.Errorf("target level = %v", st.Widget.TargetLevel)
	}
	if st.Widget.FallbackText != "word list" {
		t.Errorf("fallback text = %q", st.Widget.FallbackText)
	}
}

func TestSnapshotIdempotence(t *testing.T) {
	once := newState()
	applyAll(t, once, vocabSnapshot)

	twice := newState()
	applyAll(t, twice, vocabSnapshot, vocabSnapshot)

	if !reflect.DeepEqual(once.Widget, twice.Widget) {
		t.Errorf("applying the same snapshot twice diverged: %v vs %v", once.Widget, twice.Widget)
	}
}

func TestMessageLifecycle(t *testing.T) {
	st := newState()
	applyAll(t, st,
		`{"type":"message-start","message_id":"m1","role":"assistant"}`,
		`{"type":"text-delta","message_id":"m1","delta":"ab"}`,
		`{"type":"text-delta","message_id":"m1","delta":"c"}`,
		`{"type":"message-end","message_id":"m1"}`,
	)

	if len(st.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(st.Messages))
	}
	m := st.Messages[0]
	if m.ID != "m1" || m.Content != "abc" || m.IsStreaming {
		t.Errorf("got Message{id:%q, content:%q, isStreaming:%v}, want {m1, abc, false}", m.ID, m.Content, m.IsStreaming)
	}
}

func TestMessageEndFinalContentOverrides(t *testing.T) {
	st := newState()
	applyAll(t, st,
		`{"type":"message-start","message_id":"m1"}`,
		`{"type":"text-delta","message_id":"m1","delta":"partial"}`,
		`{"type":"message-end","message_id":"m1","content":"final text"}`,
	)

	if st.Messages[0].Content != "final text" {
		t.Errorf("content = %q, want final text", st.Messages[0].Content)
	}
}

func TestMessageEndUnknownIDIsNoOp(t *testing.T) {
	st := newState()
	applyAll(t, st, `{"type":"message-end","message_id":"ghost"}`)

	if len(st.Messages) != 0 {
		t.Errorf("expected no messages, got %d", len(st.Messages))
	}
}

func TestDuplicateMessageStartIgnored(t *testing.T) {
	st := newState()
	applyAll(t, st,
		`{"type":"message-start","message_id":"m1","role":"assistant"}`,
		`{"type":"text-delta","message_id":"m1","delta":"hi"}`,
		`{"type":"message-start","message_id":"m1","role":"user"}`,
	)

	if len(st.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(st.Messages))
	}
	if st.Messages[0].Content != "hi" || st.Messages[0].Role != "assistant" {
		t.Errorf("duplicate start clobbered the message: %+v", st.Messages[0])
	}
}

func TestTextDeltaRoutesToWidgetPath(t *testing.T) {
	st := newState()
	applyAll(t, st,
		vocabSnapshot,
		`{"type":"text-delta","field_path":"hint.text","delta":"try "}`,
		`{"type":"text-delta","field_path":"hint.text","delta":"again"}`,
	)

	hint, ok := st.Widget.Props["hint"].(map[string]interface{})
	if !ok {
		t.Fatalf("intermediate object not created: %v", st.Widget.Props)
	}
	if hint["text"] != "try again" {
		t.Errorf("hint.text = %v, want try again", hint["text"])
	}
}

func TestTextDeltaDefaultsToContentField(t *testing.T) {
	st := newState()
	applyAll(t, st,
		vocabSnapshot,
		`{"type":"text-delta","delta":"hello"}`,
	)

	if st.Widget.Props["content"] != "hello" {
		t.Errorf("props.content = %v, want hello", st.Widget.Props["content"])
	}
}

func TestTextDeltaDroppedWithoutWidget(t *testing.T) {
	st := newState()
	applyAll(t, st, `{"type":"text-delta","field_path":"content","delta":"orphan"}`)

	if st.Widget != nil {
		t.Errorf("widget appeared from nowhere: %v", st.Widget)
	}
}

func TestTextDeltaPrefersStreamingMessage(t *testing.T) {
	st := newState()
	applyAll(t, st,
		vocabSnapshot,
		`{"type":"message-start","message_id":"m1"}`,
		`{"type":"text-delta","message_id":"m1","delta":"to message"}`,
	)

	if st.Messages[0].Content != "to message" {
		t.Errorf("message content = %q", st.Messages[0].Content)
	}
	if _, exists := st.Widget.Props["content"]; exists {
		t.Error("delta leaked into widget props despite a tracked message")
	}
}

func TestStateDeltaPatchesWidget(t *testing.T) {
	st := newState()
	applyAll(t, st,
		vocabSnapshot,
		`{"type":"state-delta","delta":[{"op":"add","path":"/props/words/-","value":"c"},{"op":"replace","path":"/target_level","value":3}]}`,
	)

	words, _ := st.Widget.Props["words"].([]interface{})
	if !reflect.DeepEqual(words, []interface{}{"a", "b", "c"}) {
		t.Errorf("words = %v", words)
	}
	if st.Widget.TargetLevel != 3 {
		t.Errorf("target level = %v, want 3 (target_level must map back)", st.Widget.TargetLevel)
	}
}

func TestStateDeltaFailurePreservesWidget(t *testing.T) {
	st := newState()
	applyAll(t, st, vocabSnapshot)
	before := st.snapshot().Widget

	applyAll(t, st, `{"type":"state-delta","delta":[{"op":"replace","path":"/props/missing/deep","value":1}]}`)

	if !reflect.DeepEqual(st.snapshot().Widget, before) {
		t.Errorf("failed patch mutated widget: %v, want %v", st.Widget, before)
	}
}

func TestStateDeltaWithoutWidgetIgnored(t *testing.T) {
	st := newState()
	applyAll(t, st, `{"type":"state-delta","delta":[{"op":"add","path":"/props/x","value":1}]}`)

	if st.Widget != nil {
		t.Errorf("widget created by a delta: %v", st.Widget)
	}
}

func TestActivitySnapshotAndDelta(t *testing.T) {
	st := newState()
	applyAll(t, st,
		`{"type":"activity-snapshot","activity_id":"dl1","name":"Download audio","status":"running","progress":0.2,"current_step":"fetching"}`,
		`{"type":"activity-delta","activity_id":"dl1","delta":[{"op":"replace","path":"/progress","value":0.8},{"op":"replace","path":"/current_step","value":"decoding"}]}`,
	)

	act := st.Activities["dl1"]
	if act == nil {
		t.Fatal("activity not tracked")
	}
	if act.Progress != 0.8 || act.CurrentStep != "decoding" || act.Name != "Download audio" {
		t.Errorf("activity after delta: %+v", act)
	}
}

func TestActivityDeltaUnknownIDIsNoOp(t *testing.T) {
	st := newState()
	applyAll(t, st, `{"type":"activity-delta","activity_id":"x","delta":[{"op":"replace","path":"/progress","value":1}]}`)

	if len(st.Activities) != 0 {
		t.Errorf("activity map should stay empty, got %v", st.Activities)
	}
}

func TestActivityDeltaPatchFailureKeepsPrevious(t *testing.T) {
	st := newState()
	applyAll(t, st,
		`{"type":"activity-snapshot","activity_id":"a1","name":"Index","status":"running","progress":0.5}`,
		`{"type":"activity-delta","activity_id":"a1","delta":[{"op":"test","path":"/status","value":"done"},{"op":"replace","path":"/progress","value":1}]}`,
	)

	if st.Activities["a1"].Progress != 0.5 {
		t.Errorf("failed activity patch was partially applied: %+v", st.Activities["a1"])
	}
}

func TestToolCallTimelineAppends(t *testing.T) {
	st := newState()
	applyAll(t, st,
		`{"type":"tool-call-start","tool_call_id":"t1","tool_name":"lookup_word"}`,
		`{"type":"tool-call-args","tool_call_id":"t1","delta":"{\"word\":\"ubiquitous\"}"}`,
		`{"type":"tool-call-end","tool_call_id":"t1","status":"ok","duration_ms":120}`,
		`{"type":"tool-call-result","tool_call_id":"t1","result":{"definition":"everywhere"}}`,
	)

	if len(st.ToolCalls) != 4 {
		t.Fatalf("expected 4 timeline entries, got %d", len(st.ToolCalls))
	}
	kinds := []string{st.ToolCalls[0].Kind, st.ToolCalls[1].Kind, st.ToolCalls[2].Kind, st.ToolCalls[3].Kind}
	if !reflect.DeepEqual(kinds, []string{"start", "args", "end", "result"}) {
		t.Errorf("kinds = %v", kinds)
	}
	if st.ToolCalls[1].Args != `{"word":"ubiquitous"}` {
		t.Errorf("args = %q", st.ToolCalls[1].Args)
	}
	for _, tc := range st.ToolCalls {
		if tc.ToolCallID != "t1" {
			t.Errorf("entry lost its correlation id: %+v", tc)
		}
	}
}

func TestRunStateReplaced(t *testing.T) {
	st := newState()
	applyAll(t, st,
		`{"type":"run-started","task":"generate lesson"}`,
		`{"type":"run-finished","duration_ms":900}`,
	)

	if st.Run.Status != "finished" || st.Run.DurationMs != 900 {
		t.Errorf("run = %+v", st.Run)
	}

	applyAll(t, st, `{"type":"run-error","error":"model overloaded"}`)
	if st.Run.Status != "error" || st.Run.Error != "model overloaded" {
		t.Errorf("run = %+v", st.Run)
	}
}

func TestUnrecognizedEventKindLeavesSlicesUnchanged(t *testing.T) {
	st := newState()
	applyAll(t, st,
		vocabSnapshot,
		`{"type":"message-start","message_id":"m1"}`,
		`{"type":"activity-snapshot","activity_id":"a1","name":"x"}`,
		`{"type":"tool-call-start","tool_call_id":"t1"}`,
		`{"type":"run-started"}`,
	)
	before := st.snapshot()

	if term := st.apply(mustEvent(t, `{"type":"totally_unknown","delta":"???"}`)); term != nil {
		t.Fatal("unknown event must not terminate the session")
	}

	after := st.snapshot()
	if !reflect.DeepEqual(before, after) {
		t.Errorf("unknown event changed state:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestStreamEndAndErrorAreTerminal(t *testing.T) {
	st := newState()

	if term := st.apply(mustEvent(t, `{"type":"stream-end"}`)); term == nil || term.errored {
		t.Errorf("stream-end disposition = %+v", term)
	}
	if term := st.apply(mustEvent(t, `{"type":"stream-error","error":"boom"}`)); term == nil || !term.errored || term.message != "boom" {
		t.Errorf("stream-error disposition = %+v", term)
	}
}
