package input

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/matjam/wlcore/internal/alarm"
)

const (
	testTimeout = 500 * time.Millisecond
	testDelay   = 50 * time.Millisecond
)

func newTestRepeat(t *testing.T) (*KeyRepeatDispatcher, *recorder, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	rec := newRecorder()
	cfg := KeyRepeatConfig{Enabled: true, Timeout: testTimeout, Delay: testDelay, TouchButtonDevice: DefaultTouchButtonDevice}
	return NewKeyRepeatDispatcher(rec, alarm.NewFactory(clock), clock, cfg), rec, clock
}

func TestRepeatAfterTimeoutThenDelay(t *testing.T) {
	k, rec, clock := newTestRepeat(t)

	k.Dispatch(key(1, KeyDown, KeyA))
	if ev := rec.next(t).(*KeyEvent); ev.Action != KeyDown {
		t.Fatalf("first event = %v", ev.Action)
	}

	clock.Advance(testTimeout-time.Millisecond)
	rec.none(t)

	clock.Advance(time.Millisecond)
	ev := rec.next(t).(*KeyEvent)
	if ev.Action != KeyRepeat || ev.ScanCode != KeyA || ev.DeviceID != 1 {
		t.Fatalf("repeat event = %+v", ev)
	}

	// the alarm is rescheduled after the repeat is dispatched
	waitRepeating(t, k, 1)
	clock.Advance(testDelay)
	if ev := rec.next(t).(*KeyEvent); ev.Action != KeyRepeat {
		t.Fatalf("second repeat = %+v", ev)
	}

	k.Dispatch(key(1, KeyUp, KeyA))
	rec.next(t)
	if k.Repeating(1) {
		t.Errorf("still repeating after key up")
	}
	clock.Advance(time.Second)
	rec.none(t)
}

func TestRepeatNewestKeyWins(t *testing.T) {
	k, rec, clock := newTestRepeat(t)

	k.Dispatch(key(1, KeyDown, KeyA))
	rec.next(t)
	clock.Advance(200*time.Millisecond)

	const keyB uint32 = 48
	k.Dispatch(key(1, KeyDown, keyB))
	rec.next(t)

	// A's schedule would have fired here
	clock.Advance(300*time.Millisecond)
	rec.none(t)

	clock.Advance(200*time.Millisecond)
	ev := rec.next(t).(*KeyEvent)
	if ev.ScanCode != keyB {
		t.Errorf("repeating scan code %d, want %d", ev.ScanCode, keyB)
	}

	// releasing A does not stop B
	k.Dispatch(key(1, KeyUp, KeyA))
	rec.next(t)
	if !k.Repeating(1) {
		t.Errorf("releasing the old key cancelled the new train")
	}
}

func TestRepeatCancelledByModifier(t *testing.T) {
	k, rec, clock := newTestRepeat(t)

	k.Dispatch(key(1, KeyDown, KeyA))
	rec.next(t)
	k.Dispatch(key(1, KeyDown, KeyLeftShift))
	rec.next(t)

	if k.Repeating(1) {
		t.Fatalf("modifier key down did not cancel the train")
	}
	clock.Advance(time.Second)
	rec.none(t)
}

func TestRepeatIsPerDevice(t *testing.T) {
	k, rec, _ := newTestRepeat(t)

	k.Dispatch(key(1, KeyDown, KeyA))
	k.Dispatch(key(2, KeyDown, KeyA))
	rec.next(t)
	rec.next(t)

	if !k.Repeating(1) || !k.Repeating(2) {
		t.Errorf("each device should have its own train")
	}

	k.DeviceRemoved(DeviceInfo{ID: 1})
	if k.Repeating(1) {
		t.Errorf("device removal did not cancel its train")
	}
	if !k.Repeating(2) {
		t.Errorf("device removal cancelled another device's train")
	}
}

func TestRepeatSkipsTouchButtonDevice(t *testing.T) {
	k, rec, _ := newTestRepeat(t)
	k.DeviceAdded(DeviceInfo{ID: 7, Name: DefaultTouchButtonDevice})

	k.Dispatch(key(7, KeyDown, KeyA))
	rec.next(t)
	if k.Repeating(7) {
		t.Errorf("touch button device repeats")
	}
}

func TestRepeatDisabled(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := newRecorder()
	k := NewKeyRepeatDispatcher(rec, alarm.NewFactory(clock), clock, KeyRepeatConfig{})

	k.Dispatch(key(1, KeyDown, KeyA))
	rec.next(t)
	if k.Repeating(1) {
		t.Errorf("repeat scheduled while disabled")
	}
}

type failingFactory struct{}

func (failingFactory) Create(func()) (alarm.Alarm, error) {
	return nil, errors.New("out of timers")
}

func TestRepeatSurvivesAlarmFailure(t *testing.T) {
	rec := newRecorder()
	k := NewKeyRepeatDispatcher(rec, failingFactory{}, nil, DefaultKeyRepeatConfig())

	if !k.Dispatch(key(1, KeyDown, KeyA)) {
		t.Errorf("Dispatch reported unhandled")
	}
	rec.next(t)
	if k.Repeating(1) {
		t.Errorf("train recorded without an alarm")
	}
}

func waitRepeating(t *testing.T, k *KeyRepeatDispatcher, id DeviceID) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		k.mu.Lock()
		train := k.trains[id]
		k.mu.Unlock()
		if train != nil && train.alarm.State() == alarm.Pending {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("device %d never rearmed its repeat", id)
}
