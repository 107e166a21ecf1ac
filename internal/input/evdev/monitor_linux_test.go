package evdev

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/matjam/wlcore/internal/input"
)

type countingSink struct {
	mu      sync.Mutex
	next    input.DeviceID
	added   []string
	removed []input.DeviceID
}

func (s *countingSink) Add(name, path string, caps input.Capabilities) (input.DeviceInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.added = append(s.added, path)
	return input.DeviceInfo{ID: s.next, Name: name, Path: path, Capabilities: caps}, nil
}

func (s *countingSink) Remove(id input.DeviceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, id)
	return nil
}

func (s *countingSink) Post(input.Event) error { return nil }

func (s *countingSink) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.added), len(s.removed)
}

// pipeDevice is a keyboard that never produces events.
func pipeDevice(t *testing.T, path string) *Device {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { w.Close() })
	return &Device{Path: path, Name: "test keyboard", Caps: input.CapKeyboard, file: r}
}

func TestMonitorAttachesNodeOnce(t *testing.T) {
	sink := &countingSink{}
	m, err := NewMonitor(t.TempDir(), sink, nil)
	if err != nil {
		t.Fatal(err)
	}

	entered := make(chan struct{})
	proceed := make(chan struct{})
	var opens int
	var mu sync.Mutex
	m.open = func(path string) (*Device, error) {
		mu.Lock()
		opens++
		first := opens == 1
		mu.Unlock()
		if first {
			close(entered)
			<-proceed
		}
		return pipeDevice(t, path), nil
	}

	path := filepath.Join(m.dir, "event3")
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.attach(path)
	}()
	<-entered
	// a Create event for the node arriving while the scan is opening it
	m.attach(path)
	close(proceed)
	<-done

	mu.Lock()
	if opens != 1 {
		t.Errorf("node opened %d times", opens)
	}
	mu.Unlock()
	if added, _ := sink.counts(); added != 1 {
		t.Errorf("registered %d times", added)
	}

	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if added, removed := sink.counts(); removed != added {
		t.Errorf("added %d, removed %d after Close", added, removed)
	}
}

func TestMonitorRemoveWhileOpening(t *testing.T) {
	sink := &countingSink{}
	m, err := NewMonitor(t.TempDir(), sink, nil)
	if err != nil {
		t.Fatal(err)
	}

	entered := make(chan struct{})
	proceed := make(chan struct{})
	m.open = func(path string) (*Device, error) {
		close(entered)
		<-proceed
		return pipeDevice(t, path), nil
	}

	path := filepath.Join(m.dir, "event4")
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.attach(path)
	}()
	<-entered
	m.detach(path)
	close(proceed)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("attach did not return")
	}
	if added, removed := sink.counts(); added != 1 || removed != 1 {
		t.Errorf("added %d, removed %d", added, removed)
	}
	m.mu.Lock()
	n := len(m.devices)
	m.mu.Unlock()
	if n != 0 {
		t.Errorf("%d devices still tracked", n)
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
}
