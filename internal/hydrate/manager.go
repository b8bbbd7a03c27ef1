package hydrate

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/AHGGG/nce-english-practices-sub006/internal/logger"
	"github.com/AHGGG/nce-english-practices-sub006/internal/widget"
)

// BroadcastFunc pushes a payload to local UI clients subscribed to a topic.
type BroadcastFunc func(topic, msgType string, payload interface{})

// RenderDirective tells the UI how to present the current widget: a resolved
// component kind, or a textual fallback when the name is not in the closed
// registry.
type RenderDirective struct {
	Kind         string                 `json:"kind"`
	Title        string                 `json:"title,omitempty"`
	Props        map[string]interface{} `json:"props,omitempty"`
	FallbackText string                 `json:"fallback_text,omitempty"`
}

// StreamUpdate is the hub payload broadcast after each committed event.
type StreamUpdate struct {
	Snapshot *Snapshot        `json:"snapshot"`
	Render   *RenderDirective `json:"render,omitempty"`
}

// Manager owns the live hydration sessions, keyed by session id. Each open
// session relays committed snapshots to the topic "stream:<id>".
type Manager struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	broadcast BroadcastFunc
}

func NewManager(broadcast BroadcastFunc) *Manager {
	return &Manager{
		sessions:  make(map[string]*Session),
		broadcast: broadcast,
	}
}

// Open dials the push channel and starts a session goroutine. The slices
// start empty; the caller reads them back via Get(id).Snapshot() or over
// the hub topic.
func (m *Manager) Open(ctx context.Context, url string) (*Session, error) {
	ch, err := Dial(ctx, url)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	topic := "stream:" + id

	sess := NewSession(id, ch, Callbacks{
		OnChange: func(snap *Snapshot) {
			m.publish(topic, "stream_state", &StreamUpdate{
				Snapshot: snap,
				Render:   resolveRender(snap.Widget),
			})
		},
		OnComplete: func() {
			m.publish(topic, "stream_complete", map[string]string{"session_id": id})
		},
		OnError: func(msg string) {
			m.publish(topic, "stream_error", map[string]string{"session_id": id, "error": msg})
		},
	})

	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()

	go sess.Run()
	logger.Stream("open", url)
	return sess, nil
}

func (m *Manager) publish(topic, msgType string, payload interface{}) {
	if m.broadcast != nil {
		m.broadcast(topic, msgType, payload)
	}
}

// resolveRender maps the widget's component name through the closed widget
// registry. Unknown names degrade to the widget's fallback text.
func resolveRender(spec *WidgetSpec) *RenderDirective {
	if spec == nil {
		return nil
	}
	desc, ok := widget.Resolve(spec.ComponentName)
	if !ok {
		return &RenderDirective{
			Kind:         widget.KindFallback,
			FallbackText: spec.FallbackText,
		}
	}
	return &RenderDirective{
		Kind:  desc.Kind,
		Title: desc.Title,
		Props: spec.Props,
	}
}

// Get returns a live session or nil.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// Close tears down one session and forgets it.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return false
	}
	sess.Close()
	return true
}

// Shutdown closes every live session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
