package hydrate

import (
	"encoding/json"

	"github.com/AHGGG/nce-english-practices-sub006/internal/patch"
)

// WidgetSpec is the single current dynamic UI description. It is always a
// full snapshot: created wholesale by a snapshot event and replaced only by
// a successfully applied patch or a later snapshot.
type WidgetSpec struct {
	ComponentName string                 `json:"componentName"`
	Props         map[string]interface{} `json:"props"`
	Intention     string                 `json:"intention"`
	TargetLevel   float64                `json:"targetLevel"`
	FallbackText  string                 `json:"fallbackText,omitempty"`
}

// Message is a growing text message. Content is append-only while
// IsStreaming is true; message-end freezes it.
type Message struct {
	ID          string                 `json:"id"`
	Role        string                 `json:"role"`
	Content     string                 `json:"content"`
	IsStreaming bool                   `json:"isStreaming"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// Activity is a named, progress-bearing background operation.
type Activity struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Status      string                 `json:"status"`
	Progress    float64                `json:"progress"`
	CurrentStep string                 `json:"current_step"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// ToolCallEvent is one immutable entry of the tool-call timeline. A logical
// tool call is 1..4 entries sharing a ToolCallID; grouping is left to
// consumers.
type ToolCallEvent struct {
	Kind       string          `json:"kind"` // start, args, end, result
	ToolCallID string          `json:"tool_call_id"`
	ToolName   string          `json:"tool_name,omitempty"`
	Args       string          `json:"args,omitempty"`
	Status     string          `json:"status,omitempty"`
	DurationMs int64           `json:"duration_ms,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
}

// RunEvent is the latest run-lifecycle event; later events replace earlier.
type RunEvent struct {
	Status     string `json:"status"` // started, finished, error
	Task       string `json:"task,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
	Error      string `json:"error,omitempty"`
}

// State holds the five slices reconstructed from the event stream. All
// writes go through apply; the owning session serializes access.
type State struct {
	StreamID   string
	Widget     *WidgetSpec
	Messages   []*Message
	Activities map[string]*Activity
	ToolCalls  []ToolCallEvent
	Run        *RunEvent

	msgIndex map[string]*Message
}

func newState() *State {
	return &State{
		Activities: make(map[string]*Activity),
		msgIndex:   make(map[string]*Message),
	}
}

func (st *State) message(id string) *Message {
	if id == "" {
		return nil
	}
	return st.msgIndex[id]
}

// Snapshot is a committed, copy-safe view of a session's state, shaped for
// broadcast to UI clients.
type Snapshot struct {
	SessionID  string              `json:"session_id"`
	Status     string              `json:"status"`
	Widget     *WidgetSpec         `json:"widget,omitempty"`
	Messages   []Message           `json:"messages"`
	Activities map[string]Activity `json:"activities"`
	ToolCalls  []ToolCallEvent     `json:"tool_calls"`
	Run        *RunEvent           `json:"run,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// snapshot deep-copies the mutable slices so readers never alias live state.
func (st *State) snapshot() *Snapshot {
	snap := &Snapshot{
		Messages:   make([]Message, 0, len(st.Messages)),
		Activities: make(map[string]Activity, len(st.Activities)),
		ToolCalls:  append([]ToolCallEvent(nil), st.ToolCalls...),
	}

	if st.Widget != nil {
		w := *st.Widget
		w.Props, _ = patch.DeepCopy(st.Widget.Props).(map[string]interface{})
		snap.Widget = &w
	}
	for _, m := range st.Messages {
		mc := *m
		mc.Metadata, _ = patch.DeepCopy(m.Metadata).(map[string]interface{})
		snap.Messages = append(snap.Messages, mc)
	}
	for id, a := range st.Activities {
		ac := *a
		ac.Metadata, _ = patch.DeepCopy(a.Metadata).(map[string]interface{})
		snap.Activities[id] = ac
	}
	if st.Run != nil {
		r := *st.Run
		snap.Run = &r
	}

	return snap
}
