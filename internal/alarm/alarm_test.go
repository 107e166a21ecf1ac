package alarm

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func advance(t *testing.T, clock *clockwork.FakeClock, d time.Duration) {
	t.Helper()
	clock.Advance(d)
	// AfterFunc callbacks run on their own goroutine
	time.Sleep(10 * time.Millisecond)
}

func TestAlarmFiresOnce(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var fired atomic.Int32

	a, err := NewFactory(clock).Create(func() { fired.Add(1) })
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.State() != Cancelled {
		t.Errorf("new alarm state = %v", a.State())
	}

	a.Reschedule(100 * time.Millisecond)
	if a.State() != Pending {
		t.Errorf("state after Reschedule = %v", a.State())
	}

	advance(t, clock, 99*time.Millisecond)
	if fired.Load() != 0 {
		t.Fatalf("alarm fired early")
	}
	advance(t, clock, time.Millisecond)
	if fired.Load() != 1 {
		t.Fatalf("alarm fired %d times, want 1", fired.Load())
	}
	if a.State() != Triggered {
		t.Errorf("state after firing = %v", a.State())
	}

	advance(t, clock, time.Second)
	if fired.Load() != 1 {
		t.Errorf("alarm fired again without reschedule")
	}
}

func TestAlarmCancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var fired atomic.Int32

	a, _ := NewFactory(clock).Create(func() { fired.Add(1) })
	a.Reschedule(time.Second)

	if !a.Cancel() {
		t.Errorf("Cancel of pending alarm returned false")
	}
	if a.Cancel() {
		t.Errorf("second Cancel returned true")
	}

	advance(t, clock, 2*time.Second)
	if fired.Load() != 0 {
		t.Errorf("cancelled alarm fired")
	}
}

func TestAlarmRescheduleReplacesPending(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var fired atomic.Int32

	a, _ := NewFactory(clock).Create(func() { fired.Add(1) })
	if a.Reschedule(time.Second) {
		t.Errorf("first Reschedule reported a replaced schedule")
	}
	if !a.Reschedule(3 * time.Second) {
		t.Errorf("second Reschedule did not report a replaced schedule")
	}

	advance(t, clock, 2*time.Second)
	if fired.Load() != 0 {
		t.Fatalf("replaced schedule fired")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = clock.BlockUntilContext(ctx, 1)
	advance(t, clock, time.Second)
	if fired.Load() != 1 {
		t.Errorf("fired = %d, want 1", fired.Load())
	}
}
