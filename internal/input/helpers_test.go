package input

import (
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
	ch     chan Event
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan Event, 64)}
}

func (r *recorder) Dispatch(ev Event) bool {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	select {
	case r.ch <- ev:
	default:
	}
	return true
}

func (r *recorder) Start() {}
func (r *recorder) Stop()  {}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recorder) next(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-r.ch:
		return ev
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for an event")
		return nil
	}
}

func (r *recorder) none(t *testing.T) {
	t.Helper()
	select {
	case ev := <-r.ch:
		t.Fatalf("unexpected event %#v", ev)
	case <-time.After(20 * time.Millisecond):
	}
}

type fakeVisualizer struct {
	mu    sync.Mutex
	calls [][]TouchSpot
}

func (v *fakeVisualizer) VisualizeTouches(spots []TouchSpot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls = append(v.calls, spots)
}

type fakeCursor struct {
	mu        sync.Mutex
	positions [][2]float32
	usable    int
	unusable  int
}

func (c *fakeCursor) CursorMovedTo(x, y float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.positions = append(c.positions, [2]float32{x, y})
}

func (c *fakeCursor) PointerUsable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.usable++
}

func (c *fakeCursor) PointerUnusable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unusable++
}

func key(id DeviceID, action KeyAction, sc uint32) *KeyEvent {
	return &KeyEvent{DeviceID: id, Action: action, ScanCode: sc}
}
