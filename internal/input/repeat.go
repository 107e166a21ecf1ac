package input

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/matjam/wlcore/internal/alarm"
)

const (
	DefaultRepeatTimeout     = 500 * time.Millisecond
	DefaultRepeatDelay       = 50 * time.Millisecond
	DefaultTouchButtonDevice = "mtk-tpd"
)

type KeyRepeatConfig struct {
	Enabled bool
	// Timeout is how long a key is held before the first repeat.
	Timeout time.Duration
	// Delay is the interval between repeats.
	Delay time.Duration
	// TouchButtonDevice names a device whose keys never repeat.
	TouchButtonDevice string
}

func DefaultKeyRepeatConfig() KeyRepeatConfig {
	return KeyRepeatConfig{
		Enabled:           true,
		Timeout:           DefaultRepeatTimeout,
		Delay:             DefaultRepeatDelay,
		TouchButtonDevice: DefaultTouchButtonDevice,
	}
}

type repeatTrain struct {
	alarm alarm.Alarm
	event *KeyEvent
}

// KeyRepeatDispatcher synthesizes repeat events for held non-modifier keys.
// Each keyboard has at most one repeat train; pressing another key replaces
// it. All events are passed on to next unchanged.
type KeyRepeatDispatcher struct {
	next   Dispatcher
	alarms alarm.Factory
	clock  clockwork.Clock
	cfg    KeyRepeatConfig
	logger *log.Logger
	failed rate.Sometimes

	mu          sync.Mutex
	trains      map[DeviceID]*repeatTrain
	touchButton map[DeviceID]bool
}

func NewKeyRepeatDispatcher(next Dispatcher, alarms alarm.Factory, clock clockwork.Clock, cfg KeyRepeatConfig) *KeyRepeatDispatcher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &KeyRepeatDispatcher{
		next:        next,
		alarms:      alarms,
		clock:       clock,
		cfg:         cfg,
		logger:      log.WithPrefix("repeat"),
		failed:      rate.Sometimes{Interval: 5 * time.Second},
		trains:      make(map[DeviceID]*repeatTrain),
		touchButton: make(map[DeviceID]bool),
	}
}

func (k *KeyRepeatDispatcher) Dispatch(ev Event) bool {
	if k.cfg.Enabled {
		if key, ok := ev.(*KeyEvent); ok {
			k.handleKey(key)
		}
	}
	return k.next.Dispatch(ev)
}

func (k *KeyRepeatDispatcher) Start() { k.next.Start() }

func (k *KeyRepeatDispatcher) Stop() {
	k.mu.Lock()
	trains := k.trains
	k.trains = make(map[DeviceID]*repeatTrain)
	k.mu.Unlock()

	for _, t := range trains {
		t.alarm.Cancel()
	}
	k.next.Stop()
}

func (k *KeyRepeatDispatcher) handleKey(ev *KeyEvent) {
	switch ev.Action {
	case KeyDown:
		if IsModifierKey(ev.ScanCode) {
			k.cancel(ev.DeviceID, nil)
			return
		}
		k.mu.Lock()
		skip := k.touchButton[ev.DeviceID]
		k.mu.Unlock()
		if skip {
			return
		}
		k.startTrain(ev)

	case KeyUp:
		k.cancel(ev.DeviceID, &ev.ScanCode)
	}
}

func (k *KeyRepeatDispatcher) startTrain(ev *KeyEvent) {
	train := &repeatTrain{event: ev.Clone().(*KeyEvent)}

	a, err := k.alarms.Create(func() { k.fire(ev.DeviceID, train) })
	if err != nil {
		k.failed.Do(func() {
			k.logger.Warnf("unable to schedule key repeat for device %d: %v", ev.DeviceID, err)
		})
		k.cancel(ev.DeviceID, nil)
		return
	}
	train.alarm = a

	k.mu.Lock()
	old := k.trains[ev.DeviceID]
	k.trains[ev.DeviceID] = train
	a.Reschedule(k.cfg.Timeout)
	k.mu.Unlock()

	if old != nil {
		old.alarm.Cancel()
	}
}

// cancel ends the device's train. With a scan code it only ends a train
// repeating that key.
func (k *KeyRepeatDispatcher) cancel(id DeviceID, scanCode *uint32) {
	k.mu.Lock()
	train := k.trains[id]
	if train == nil || (scanCode != nil && train.event.ScanCode != *scanCode) {
		k.mu.Unlock()
		return
	}
	delete(k.trains, id)
	k.mu.Unlock()

	train.alarm.Cancel()
}

func (k *KeyRepeatDispatcher) fire(id DeviceID, train *repeatTrain) {
	k.mu.Lock()
	if k.trains[id] != train {
		k.mu.Unlock()
		return
	}
	repeat := train.event.Clone().(*KeyEvent)
	k.mu.Unlock()

	repeat.Action = KeyRepeat
	repeat.Time = time.Duration(k.clock.Now().UnixNano())
	k.next.Dispatch(repeat)

	k.mu.Lock()
	if k.trains[id] == train {
		train.alarm.Reschedule(k.cfg.Delay)
	}
	k.mu.Unlock()
}

// DeviceAdded marks devices that must not repeat.
func (k *KeyRepeatDispatcher) DeviceAdded(info DeviceInfo) {
	if k.cfg.TouchButtonDevice == "" || info.Name != k.cfg.TouchButtonDevice {
		return
	}
	k.mu.Lock()
	k.touchButton[info.ID] = true
	k.mu.Unlock()
}

func (k *KeyRepeatDispatcher) DeviceChanged(DeviceInfo) {}

func (k *KeyRepeatDispatcher) DeviceRemoved(info DeviceInfo) {
	k.mu.Lock()
	delete(k.touchButton, info.ID)
	k.mu.Unlock()

	k.cancel(info.ID, nil)
}

// Repeating reports whether a device currently has a pending repeat.
func (k *KeyRepeatDispatcher) Repeating(id DeviceID) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.trains[id] != nil
}
