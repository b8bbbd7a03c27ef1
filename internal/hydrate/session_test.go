package hydrate

import (
	"errors"
	"io"
	"reflect"
	"sync"
	"testing"
)

// scriptedChannel replays a fixed frame sequence, then returns err (or
// io.EOF). Close unblocks nothing because reads never block.
type scriptedChannel struct {
	frames [][]byte
	err    error

	mu     sync.Mutex
	i      int
	closed bool
}

func script(err error, frames ...string) *scriptedChannel {
	ch := &scriptedChannel{err: err}
	for _, f := range frames {
		ch.frames = append(ch.frames, []byte(f))
	}
	return ch
}

func (c *scriptedChannel) ReadMessage() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, errors.New("use of closed channel")
	}
	if c.i >= len(c.frames) {
		if c.err != nil {
			return nil, c.err
		}
		return nil, io.EOF
	}
	f := c.frames[c.i]
	c.i++
	return f, nil
}

func (c *scriptedChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func TestSessionEndToEnd(t *testing.T) {
	ch := script(nil,
		`{"type":"stream-start","stream_id":"s-42"}`,
		`{"type":"render-snapshot","ui":{"component":"VocabGrid","props":{"words":["a","b"]}}}`,
		`{"type":"state-delta","delta":[{"op":"add","path":"/props/words/-","value":"c"}]}`,
		`{"type":"stream-end"}`,
	)

	completions := 0
	var errMsgs []string
	sess := NewSession("sess-1", ch, Callbacks{
		OnComplete: func() { completions++ },
		OnError:    func(msg string) { errMsgs = append(errMsgs, msg) },
	})
	sess.Run()

	if sess.Status() != StatusEnded {
		t.Errorf("status = %v, want ended", sess.Status())
	}
	if completions != 1 {
		t.Errorf("onComplete invoked %d times, want exactly 1", completions)
	}
	if len(errMsgs) != 0 {
		t.Errorf("onError invoked: %v", errMsgs)
	}

	snap := sess.Snapshot()
	if snap.Widget == nil {
		t.Fatal("widget missing from final snapshot")
	}
	words := snap.Widget.Props["words"]
	if !reflect.DeepEqual(words, []interface{}{"a", "b", "c"}) {
		t.Errorf("final words = %v, want [a b c]", words)
	}
	if !ch.closed {
		t.Error("channel not released after normal completion")
	}
}

func TestSessionStreamErrorInvokesOnErrorOnce(t *testing.T) {
	ch := script(nil, `{"type":"stream-error","error":"server gave up"}`)

	var errMsgs []string
	completions := 0
	sess := NewSession("sess-1", ch, Callbacks{
		OnComplete: func() { completions++ },
		OnError:    func(msg string) { errMsgs = append(errMsgs, msg) },
	})
	sess.Run()

	if sess.Status() != StatusErrored {
		t.Errorf("status = %v, want errored", sess.Status())
	}
	if len(errMsgs) != 1 || errMsgs[0] != "server gave up" {
		t.Errorf("onError calls = %v", errMsgs)
	}
	if completions != 0 {
		t.Errorf("onComplete invoked on error path")
	}
	if sess.Err() != "server gave up" {
		t.Errorf("Err() = %q", sess.Err())
	}
}

func TestSessionChannelErrorIsTerminal(t *testing.T) {
	ch := script(errors.New("connection reset"),
		`{"type":"message-start","message_id":"m1"}`,
	)

	var errMsgs []string
	sess := NewSession("sess-1", ch, Callbacks{
		OnError: func(msg string) { errMsgs = append(errMsgs, msg) },
	})
	sess.Run()

	if sess.Status() != StatusErrored {
		t.Errorf("status = %v, want errored", sess.Status())
	}
	if len(errMsgs) != 1 {
		t.Fatalf("onError invoked %d times, want 1", len(errMsgs))
	}
	// The state reconciled before the failure is frozen, not discarded.
	if len(sess.Snapshot().Messages) != 1 {
		t.Errorf("pre-error state lost: %+v", sess.Snapshot())
	}
	if !ch.closed {
		t.Error("channel not released after channel error")
	}
}

func TestSessionSkipsMalformedFrames(t *testing.T) {
	ch := script(nil,
		`{not json`,
		`{"no_type_field":true}`,
		`{"type":"message-start","message_id":"m1"}`,
		`{"type":"stream-end"}`,
	)

	sess := NewSession("sess-1", ch, Callbacks{})
	sess.Run()

	if sess.Status() != StatusEnded {
		t.Errorf("status = %v, want ended", sess.Status())
	}
	if len(sess.Snapshot().Messages) != 1 {
		t.Errorf("event after malformed frames was not processed")
	}
}

func TestSessionUnrecognizedEventKeepsListening(t *testing.T) {
	ch := script(nil,
		`{"type":"totally_unknown"}`,
		`{"type":"message-start","message_id":"m1"}`,
		`{"type":"stream-end"}`,
	)

	sess := NewSession("sess-1", ch, Callbacks{})
	sess.Run()

	if sess.Status() != StatusEnded {
		t.Errorf("status = %v, want ended", sess.Status())
	}
	if len(sess.Snapshot().Messages) != 1 {
		t.Errorf("session stopped on an unrecognized event kind")
	}
}

func TestSessionCloseStopsDispatchWithoutCallbacks(t *testing.T) {
	ch := script(nil, `{"type":"message-start","message_id":"m1"}`)

	completions, errored := 0, 0
	sess := NewSession("sess-1", ch, Callbacks{
		OnComplete: func() { completions++ },
		OnError:    func(string) { errored++ },
	})
	sess.Close()
	sess.Run()

	if sess.Status() != StatusEnded {
		t.Errorf("status = %v, want ended after caller close", sess.Status())
	}
	if completions != 0 || errored != 0 {
		t.Errorf("caller teardown fired callbacks: complete=%d error=%d", completions, errored)
	}
	if !ch.closed {
		t.Error("channel not released on caller close")
	}
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	ch := script(nil)
	sess := NewSession("sess-1", ch, Callbacks{})
	sess.Close()
	sess.Close()
	sess.Run()

	if sess.Status() != StatusEnded {
		t.Errorf("status = %v", sess.Status())
	}
}

func TestSessionOnChangeSeesCommittedState(t *testing.T) {
	ch := script(nil,
		`{"type":"message-start","message_id":"m1"}`,
		`{"type":"text-delta","message_id":"m1","delta":"hi"}`,
		`{"type":"stream-end"}`,
	)

	var contents []string
	sess := NewSession("sess-1", ch, Callbacks{
		OnChange: func(snap *Snapshot) {
			if len(snap.Messages) == 1 {
				contents = append(contents, snap.Messages[0].Content)
			}
		},
	})
	sess.Run()

	want := []string{"", "hi"}
	if !reflect.DeepEqual(contents, want) {
		t.Errorf("observed contents %v, want %v", contents, want)
	}
}
