// Package alarm provides one-shot callbacks scheduled on a clockwork clock.
package alarm

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type State int

const (
	Cancelled State = iota
	Pending
	Triggered
)

// Alarm is a rescheduleable one-shot timer.
type Alarm interface {
	// Reschedule arms the alarm to fire after d, replacing any pending
	// schedule. It reports whether a pending schedule was replaced.
	Reschedule(d time.Duration) bool
	// Cancel stops a pending alarm and reports whether it was pending.
	Cancel() bool
	State() State
}

// Factory creates alarms. Implementations may fail when timer resources are
// exhausted.
type Factory interface {
	Create(callback func()) (Alarm, error)
}

type ClockFactory struct {
	clock clockwork.Clock
}

func NewFactory(clock clockwork.Clock) *ClockFactory {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ClockFactory{clock: clock}
}

func (f *ClockFactory) Create(callback func()) (Alarm, error) {
	return &clockAlarm{clock: f.clock, callback: callback}, nil
}

type clockAlarm struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	callback func()
	timer    clockwork.Timer
	state    State
	// generation guards against a timer that already fired racing with
	// Reschedule or Cancel.
	generation uint64
}

func (a *clockAlarm) Reschedule(d time.Duration) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	wasPending := a.state == Pending
	if a.timer != nil {
		a.timer.Stop()
	}
	a.generation++
	gen := a.generation
	a.state = Pending
	a.timer = a.clock.AfterFunc(d, func() { a.fire(gen) })
	return wasPending
}

func (a *clockAlarm) Cancel() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != Pending {
		return false
	}
	a.generation++
	a.timer.Stop()
	a.state = Cancelled
	return true
}

func (a *clockAlarm) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *clockAlarm) fire(gen uint64) {
	a.mu.Lock()
	if gen != a.generation || a.state != Pending {
		a.mu.Unlock()
		return
	}
	a.state = Triggered
	a.mu.Unlock()

	a.callback()
}
