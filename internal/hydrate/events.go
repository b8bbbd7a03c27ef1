package hydrate

import (
	"encoding/json"
	"fmt"

	"github.com/AHGGG/nce-english-practices-sub006/internal/patch"
)

// Wire event discriminants pushed by the content service.
const (
	EventStreamStart      = "stream-start"
	EventRenderSnapshot   = "render-snapshot"
	EventStateSnapshot    = "state-snapshot"
	EventTextDelta        = "text-delta"
	EventStateDelta       = "state-delta"
	EventStreamEnd        = "stream-end"
	EventStreamError      = "stream-error"
	EventMessageStart     = "message-start"
	EventMessageEnd       = "message-end"
	EventActivitySnapshot = "activity-snapshot"
	EventActivityDelta    = "activity-delta"
	EventToolCallStart    = "tool-call-start"
	EventToolCallArgs     = "tool-call-args"
	EventToolCallEnd      = "tool-call-end"
	EventToolCallResult   = "tool-call-result"
	EventRunStarted       = "run-started"
	EventRunFinished      = "run-finished"
	EventRunError         = "run-error"
)

// WidgetPayload is the `ui` object carried by render/state snapshot events.
type WidgetPayload struct {
	Component   string                 `json:"component"`
	Props       map[string]interface{} `json:"props"`
	Intention   string                 `json:"intention"`
	TargetLevel float64                `json:"target_level"`
}

// Event is one decoded wire message. The service sends one JSON object per
// push-channel frame; only the fields relevant to each Type are populated.
// Delta is polymorphic: a plain string for text-delta, an ordered patch
// array for state-delta and activity-delta.
type Event struct {
	Type     string `json:"type"`
	StreamID string `json:"stream_id,omitempty"`

	// Message lifecycle
	MessageID string                 `json:"message_id,omitempty"`
	Role      string                 `json:"role,omitempty"`
	Content   *string                `json:"content,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`

	// Activities
	ActivityID  string  `json:"activity_id,omitempty"`
	Name        string  `json:"name,omitempty"`
	Status      string  `json:"status,omitempty"`
	Progress    float64 `json:"progress,omitempty"`
	CurrentStep string  `json:"current_step,omitempty"`

	// Delta payloads
	Delta     json.RawMessage `json:"delta,omitempty"`
	FieldPath string          `json:"field_path,omitempty"`

	// Tool calls
	ToolCallID string          `json:"tool_call_id,omitempty"`
	ToolName   string          `json:"tool_name,omitempty"`
	DurationMs int64           `json:"duration_ms,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`

	// Snapshots
	UI           *WidgetPayload `json:"ui,omitempty"`
	FallbackText string         `json:"fallback_text,omitempty"`

	// Run lifecycle
	Task  string `json:"task,omitempty"`
	Error string `json:"error,omitempty"`
}

func decodeEvent(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if ev.Type == "" {
		return nil, fmt.Errorf("event has no type discriminant")
	}
	return &ev, nil
}

// TextDelta decodes Delta as a plain string fragment.
func (e *Event) TextDelta() (string, bool) {
	var s string
	if err := json.Unmarshal(e.Delta, &s); err != nil {
		return "", false
	}
	return s, true
}

// PatchDelta decodes Delta as an ordered list of patch operations.
func (e *Event) PatchDelta() ([]patch.Operation, bool) {
	var ops []patch.Operation
	if err := json.Unmarshal(e.Delta, &ops); err != nil {
		return nil, false
	}
	return ops, true
}
