package hydrate

import (
	"strings"

	"github.com/AHGGG/nce-english-practices-sub006/internal/logger"
	"github.com/AHGGG/nce-english-practices-sub006/internal/patch"
)

// applyTextDelta routes an incremental text fragment. A tracked, still-
// streaming message with the event's id wins; otherwise the fragment is
// appended into the widget props at the dot-separated field path. Deltas
// that arrive before any widget snapshot have nothing to mutate and are
// dropped.
func (st *State) applyTextDelta(ev *Event) {
	delta, ok := ev.TextDelta()
	if !ok {
		logger.Warn("text-delta with non-string delta payload, ignoring")
		return
	}

	if m := st.message(ev.MessageID); m != nil && m.IsStreaming {
		m.Content += delta
		return
	}

	if st.Widget == nil {
		logger.Warn("text-delta with no tracked message and no widget snapshot, dropping")
		return
	}

	fieldPath := ev.FieldPath
	if fieldPath == "" {
		fieldPath = "content"
	}

	props, _ := patch.DeepCopy(st.Widget.Props).(map[string]interface{})
	if props == nil {
		props = make(map[string]interface{})
	}
	appendAtPath(props, strings.Split(fieldPath, "."), delta)
	st.Widget.Props = props
}

// appendAtPath walks the dot segments, creating intermediate objects as
// needed (non-object intermediates are replaced), and appends delta to the
// terminal key's string value. A missing or non-string terminal starts from
// the empty string.
func appendAtPath(obj map[string]interface{}, segments []string, delta string) {
	for _, seg := range segments[:len(segments)-1] {
		child, ok := obj[seg].(map[string]interface{})
		if !ok {
			child = make(map[string]interface{})
			obj[seg] = child
		}
		obj = child
	}

	last := segments[len(segments)-1]
	current, _ := obj[last].(string)
	obj[last] = current + delta
}
