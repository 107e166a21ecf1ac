package input

import (
	"slices"
	"sync"

	"github.com/charmbracelet/log"
)

// Dispatcher is a stage of the input pipeline. Dispatch reports whether the
// event was handled.
type Dispatcher interface {
	Dispatch(ev Event) bool
	Start()
	Stop()
}

// EventFilter may consume an event before it reaches the scene.
type EventFilter interface {
	HandleEvent(ev Event) bool
}

type EventFilterFunc func(ev Event) bool

func (f EventFilterFunc) HandleEvent(ev Event) bool { return f(ev) }

// FilterChain offers events to its filters in order. The first filter that
// returns true consumes the event; otherwise it goes to next.
type FilterChain struct {
	mu      sync.RWMutex
	filters []EventFilter
	next    Dispatcher
}

func NewFilterChain(next Dispatcher, filters ...EventFilter) *FilterChain {
	return &FilterChain{filters: filters, next: next}
}

func (c *FilterChain) Append(f EventFilter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = append(c.filters, f)
}

func (c *FilterChain) Prepend(f EventFilter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = append([]EventFilter{f}, c.filters...)
}

func (c *FilterChain) Dispatch(ev Event) bool {
	c.mu.RLock()
	filters := slices.Clone(c.filters)
	c.mu.RUnlock()

	for _, f := range filters {
		if f.HandleEvent(ev) {
			return true
		}
	}
	if c.next == nil {
		return false
	}
	return c.next.Dispatch(ev)
}

func (c *FilterChain) Start() {
	if c.next != nil {
		c.next.Start()
	}
}

func (c *FilterChain) Stop() {
	if c.next != nil {
		c.next.Stop()
	}
}

// LogSink is the end of the chain when no scene is attached. It logs events
// at debug level and reports them handled.
type LogSink struct {
	logger *log.Logger
}

func NewLogSink() *LogSink {
	return &LogSink{logger: log.WithPrefix("scene")}
}

func (s *LogSink) Dispatch(ev Event) bool {
	switch e := ev.(type) {
	case *KeyEvent:
		s.logger.Debug("key", "device", e.DeviceID, "action", e.Action, "scan_code", e.ScanCode, "modifiers", e.Modifiers)
	case *PointerEvent:
		var x, y float32
		if e.Absolute != nil {
			x, y = e.Absolute.X, e.Absolute.Y
		}
		s.logger.Debug("pointer", "device", e.DeviceID, "x", x, "y", y, "buttons", e.Buttons)
	case *TouchEvent:
		s.logger.Debug("touch", "device", e.DeviceID, "contacts", len(e.Contacts))
	case *DeviceStateEvent:
		s.logger.Debug("device state", "devices", len(e.Devices))
	}
	return true
}

func (s *LogSink) Start() {}
func (s *LogSink) Stop()  {}

// Tee delivers every event to each dispatcher in order and reports whether
// any handled it.
type Tee []Dispatcher

func (t Tee) Dispatch(ev Event) bool {
	handled := false
	for _, d := range t {
		if d.Dispatch(ev.Clone()) {
			handled = true
		}
	}
	return handled
}

func (t Tee) Start() {
	for _, d := range t {
		d.Start()
	}
}

func (t Tee) Stop() {
	for _, d := range t {
		d.Stop()
	}
}
