package hydrate

import (
	"github.com/AHGGG/nce-english-practices-sub006/internal/logger"
	"github.com/AHGGG/nce-english-practices-sub006/internal/patch"
)

// terminal is the disposition of a stream-end / stream-error event.
type terminal struct {
	errored bool
	message string
}

// apply routes one decoded event to its reducer. Every failure path is a
// logged no-op: a malformed or unexpected event must never corrupt a slice
// it wasn't addressed to, and must never stop the session by itself.
// A non-nil return means the stream asked to terminate.
func (st *State) apply(ev *Event) *terminal {
	switch ev.Type {

	case EventStreamStart:
		st.StreamID = ev.StreamID
		logger.Stream("start", ev.StreamID)

	case EventRenderSnapshot, EventStateSnapshot:
		st.applySnapshot(ev)

	case EventTextDelta:
		st.applyTextDelta(ev)

	case EventStateDelta:
		st.applyStateDelta(ev)

	case EventStreamEnd:
		return &terminal{}

	case EventStreamError:
		return &terminal{errored: true, message: ev.Error}

	case EventMessageStart:
		st.applyMessageStart(ev)

	case EventMessageEnd:
		st.applyMessageEnd(ev)

	case EventActivitySnapshot:
		st.Activities[ev.ActivityID] = &Activity{
			ID:          ev.ActivityID,
			Name:        ev.Name,
			Status:      ev.Status,
			Progress:    ev.Progress,
			CurrentStep: ev.CurrentStep,
			Metadata:    ev.Metadata,
		}

	case EventActivityDelta:
		st.applyActivityDelta(ev)

	case EventToolCallStart, EventToolCallArgs, EventToolCallEnd, EventToolCallResult:
		st.applyToolCall(ev)

	case EventRunStarted:
		st.Run = &RunEvent{Status: "started", Task: ev.Task}

	case EventRunFinished:
		st.Run = &RunEvent{Status: "finished", Task: ev.Task, DurationMs: ev.DurationMs}

	case EventRunError:
		st.Run = &RunEvent{Status: "error", Error: ev.Error, DurationMs: ev.DurationMs}

	default:
		logger.Warn("Unrecognized stream event type %q, ignoring", ev.Type)
	}

	return nil
}

// applySnapshot replaces the widget spec wholesale. The payload is trusted;
// a snapshot with no ui object is dropped.
func (st *State) applySnapshot(ev *Event) {
	if ev.UI == nil {
		logger.Warn("Snapshot event %q without ui payload, ignoring", ev.Type)
		return
	}
	st.Widget = &WidgetSpec{
		ComponentName: ev.UI.Component,
		Props:         ev.UI.Props,
		Intention:     ev.UI.Intention,
		TargetLevel:   ev.UI.TargetLevel,
		FallbackText:  ev.FallbackText,
	}
	if st.Widget.Props == nil {
		st.Widget.Props = make(map[string]interface{})
	}
}

// applyStateDelta patches a normalized view of the widget spec. The previous
// spec is kept untouched unless the whole patch succeeds.
func (st *State) applyStateDelta(ev *Event) {
	if st.Widget == nil {
		logger.Warn("state-delta before any snapshot, ignoring")
		return
	}
	ops, ok := ev.PatchDelta()
	if !ok {
		logger.Warn("state-delta with non-patch delta payload, ignoring")
		return
	}

	normalized := map[string]interface{}{
		"component":    st.Widget.ComponentName,
		"props":        st.Widget.Props,
		"intention":    st.Widget.Intention,
		"target_level": st.Widget.TargetLevel,
	}
	patched, err := patch.Apply(normalized, ops)
	if err != nil {
		logger.Warn("state-delta patch failed, keeping previous widget: %v", err)
		return
	}

	doc, ok := patched.(map[string]interface{})
	if !ok {
		logger.Warn("state-delta replaced the widget with a non-object, keeping previous widget")
		return
	}

	next := &WidgetSpec{FallbackText: st.Widget.FallbackText}
	next.ComponentName, _ = doc["component"].(string)
	next.Intention, _ = doc["intention"].(string)
	next.TargetLevel, _ = doc["target_level"].(float64)
	if props, ok := doc["props"].(map[string]interface{}); ok {
		next.Props = props
	} else {
		next.Props = make(map[string]interface{})
	}
	st.Widget = next
}

func (st *State) applyMessageStart(ev *Event) {
	if ev.MessageID == "" {
		logger.Warn("message-start without message_id, ignoring")
		return
	}
	if st.msgIndex[ev.MessageID] != nil {
		logger.Warn("message-start for already-tracked id %s, ignoring", ev.MessageID)
		return
	}
	m := &Message{
		ID:          ev.MessageID,
		Role:        ev.Role,
		IsStreaming: true,
		Metadata:    ev.Metadata,
	}
	st.Messages = append(st.Messages, m)
	st.msgIndex[ev.MessageID] = m
}

func (st *State) applyMessageEnd(ev *Event) {
	m := st.message(ev.MessageID)
	if m == nil {
		logger.Warn("message-end for unknown id %s, ignoring", ev.MessageID)
		return
	}
	m.IsStreaming = false
	// A definitive final content overrides whatever was accumulated.
	if ev.Content != nil {
		m.Content = *ev.Content
	}
}

// applyActivityDelta patches a clone of the referenced activity and swaps it
// in only on success. Unknown ids are dropped.
func (st *State) applyActivityDelta(ev *Event) {
	act, ok := st.Activities[ev.ActivityID]
	if !ok {
		logger.Warn("activity-delta for unknown id %s, ignoring", ev.ActivityID)
		return
	}
	ops, ok := ev.PatchDelta()
	if !ok {
		logger.Warn("activity-delta with non-patch delta payload, ignoring")
		return
	}

	normalized := map[string]interface{}{
		"name":         act.Name,
		"status":       act.Status,
		"progress":     act.Progress,
		"current_step": act.CurrentStep,
		"metadata":     act.Metadata,
	}
	patched, err := patch.Apply(normalized, ops)
	if err != nil {
		logger.Warn("activity-delta patch failed for %s, keeping previous: %v", ev.ActivityID, err)
		return
	}
	doc, ok := patched.(map[string]interface{})
	if !ok {
		logger.Warn("activity-delta replaced activity %s with a non-object, keeping previous", ev.ActivityID)
		return
	}

	next := &Activity{ID: act.ID}
	next.Name, _ = doc["name"].(string)
	next.Status, _ = doc["status"].(string)
	next.Progress, _ = doc["progress"].(float64)
	next.CurrentStep, _ = doc["current_step"].(string)
	next.Metadata, _ = doc["metadata"].(map[string]interface{})
	st.Activities[ev.ActivityID] = next
}

func (st *State) applyToolCall(ev *Event) {
	entry := ToolCallEvent{
		ToolCallID: ev.ToolCallID,
		ToolName:   ev.ToolName,
		Status:     ev.Status,
		DurationMs: ev.DurationMs,
		Result:     ev.Result,
	}
	switch ev.Type {
	case EventToolCallStart:
		entry.Kind = "start"
	case EventToolCallArgs:
		entry.Kind = "args"
		if args, ok := ev.TextDelta(); ok {
			entry.Args = args
		}
	case EventToolCallEnd:
		entry.Kind = "end"
	case EventToolCallResult:
		entry.Kind = "result"
	}
	st.ToolCalls = append(st.ToolCalls, entry)
}
