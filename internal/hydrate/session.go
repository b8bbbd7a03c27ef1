package hydrate

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/AHGGG/nce-english-practices-sub006/internal/logger"
)

// Status is the session lifecycle state. A session moves from Connecting to
// Open and from Open to exactly one terminal state; there is no reconnect.
type Status int

const (
	StatusConnecting Status = iota
	StatusOpen
	StatusEnded
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusOpen:
		return "open"
	case StatusEnded:
		return "ended"
	case StatusErrored:
		return "errored"
	}
	return "unknown"
}

// Channel is the server-push transport a session reads from. ReadMessage
// blocks until the next frame; Close must unblock a pending read.
type Channel interface {
	ReadMessage() ([]byte, error)
	Close() error
}

type wsChannel struct {
	conn *websocket.Conn
}

func (c *wsChannel) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *wsChannel) Close() error {
	return c.conn.Close()
}

// Dial opens a websocket push channel to the content service.
func Dial(ctx context.Context, url string) (Channel, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial stream: %w", err)
	}
	return &wsChannel{conn: conn}, nil
}

// Callbacks are invoked by the session goroutine. OnComplete fires at most
// once (explicit stream-end), OnError at most once (stream-error or channel
// failure). OnChange fires after every committed, non-terminal event.
type Callbacks struct {
	OnChange   func(snap *Snapshot)
	OnComplete func()
	OnError    func(message string)
}

// Session owns one logical streaming connection and the five state slices
// hydrated from it. All mutation happens on the Run goroutine, one event at
// a time; readers get committed snapshots only.
type Session struct {
	ID string

	mu     sync.Mutex
	state  *State
	status Status
	errMsg string

	ch        Channel
	cb        Callbacks
	closed    chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

func NewSession(id string, ch Channel, cb Callbacks) *Session {
	return &Session{
		ID:     id,
		state:  newState(),
		status: StatusConnecting,
		ch:     ch,
		cb:     cb,
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Run decodes and dispatches events until an explicit terminal event, a
// channel error, or a caller Close. The channel is released on every exit
// path. Decode failures skip the one bad frame and keep listening.
func (s *Session) Run() {
	defer close(s.done)
	defer s.ch.Close()

	s.mu.Lock()
	if s.status == StatusConnecting {
		s.status = StatusOpen
	}
	s.mu.Unlock()

	for {
		data, err := s.ch.ReadMessage()
		if err != nil {
			select {
			case <-s.closed:
				// Caller teardown: freeze the state quietly.
				s.setTerminal(StatusEnded, "")
			default:
				s.fail(fmt.Sprintf("stream channel error: %v", err))
			}
			return
		}

		select {
		case <-s.closed:
			s.setTerminal(StatusEnded, "")
			return
		default:
		}

		ev, err := decodeEvent(data)
		if err != nil {
			logger.Warn("Malformed stream event, skipping: %v", err)
			continue
		}

		s.mu.Lock()
		term := s.state.apply(ev)
		var snap *Snapshot
		if term == nil && s.cb.OnChange != nil {
			snap = s.snapshotLocked()
		}
		s.mu.Unlock()

		if term != nil {
			if term.errored {
				s.fail(term.message)
			} else {
				s.complete()
			}
			return
		}
		if snap != nil {
			s.cb.OnChange(snap)
		}
	}
}

// Close tears the session down. It is idempotent, stops further dispatch,
// and unblocks the Run goroutine by closing the underlying channel. An
// event already being dispatched completes first.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.ch.Close()
	})
}

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Err returns the terminal error message, if any.
func (s *Session) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// Snapshot returns a committed copy of the session state.
func (s *Session) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() *Snapshot {
	snap := s.state.snapshot()
	snap.SessionID = s.ID
	snap.Status = s.status.String()
	snap.Error = s.errMsg
	return snap
}

// setTerminal records the first terminal transition; later ones are ignored.
func (s *Session) setTerminal(status Status, errMsg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusEnded || s.status == StatusErrored {
		return false
	}
	s.status = status
	s.errMsg = errMsg
	return true
}

func (s *Session) complete() {
	if !s.setTerminal(StatusEnded, "") {
		return
	}
	logger.Stream("end", s.ID)
	if s.cb.OnComplete != nil {
		s.cb.OnComplete()
	}
}

func (s *Session) fail(msg string) {
	if !s.setTerminal(StatusErrored, msg) {
		return
	}
	logger.Stream("error", msg)
	if s.cb.OnError != nil {
		s.cb.OnError(msg)
	}
}
