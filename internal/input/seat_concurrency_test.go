package input

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/matjam/wlcore/internal/alarm"
	"github.com/matjam/wlcore/internal/geometry"
)

// ownButtons is the mask device id reports at step j.
func ownButtons(id DeviceID, j int) Buttons {
	if j%2 == 0 {
		return Buttons(1) << uint(id)
	}
	return 0
}

func TestSeatConcurrentDispatch(t *testing.T) {
	const (
		devices = 8
		steps   = 200
	)
	clock := clockwork.NewFakeClock()
	rec := newRecorder()
	cfg := KeyRepeatConfig{Enabled: true, Timeout: testTimeout, Delay: testDelay, TouchButtonDevice: DefaultTouchButtonDevice}
	chain := NewChain(rec, alarm.NewFactory(clock), clock, cfg)
	chain.Start()
	defer chain.Stop()

	s := NewSeat(chain, nil, &fakeCursor{}, nil, clock)
	s.UpdateOutputs(geometry.Rectangles{{X: 0, Y: 0, Width: 100, Height: 100}})
	var all Buttons
	for id := DeviceID(0); id < devices; id++ {
		if err := s.AddDevice(id); err != nil {
			t.Fatal(err)
		}
		all |= Buttons(1) << uint(id)
	}

	var wg sync.WaitGroup
	for id := DeviceID(0); id < devices; id++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sc := KeyA + uint32(id)
			for j := 0; j < steps; j++ {
				action := KeyDown
				if j%2 == 1 {
					action = KeyUp
				}
				if err := s.Dispatch(key(id, action, sc)); err != nil {
					t.Errorf("key dispatch: %v", err)
					return
				}
				err := s.Dispatch(&PointerEvent{
					DeviceID: id,
					Time:     time.Duration(j),
					Action:   PointerMotion,
					Buttons:  ownButtons(id, j),
					Motion:   geometry.DisplacementF{DX: 1, DY: -1},
				})
				if err != nil {
					t.Errorf("pointer dispatch: %v", err)
					return
				}
			}
		}()
	}

	done := make(chan struct{})
	var observer sync.WaitGroup
	observer.Add(1)
	go func() {
		defer observer.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			clock.Advance(testDelay)
			if b := s.ButtonState(); b&^all != 0 {
				t.Errorf("button state %b has bits no device set", b)
			}
			s.CreateDeviceState()
			if p := s.CursorPosition(); p.X < 0 || p.X > 100 || p.Y < 0 || p.Y > 100 {
				t.Errorf("cursor %v left the input region", p)
			}
		}
	}()

	wg.Wait()
	close(done)
	observer.Wait()

	// The last step of every device is odd, which releases its buttons
	// and keys; press one button per device to check the final mask.
	var want Buttons
	for id := DeviceID(0); id < devices; id += 2 {
		if err := s.Dispatch(&PointerEvent{DeviceID: id, Time: steps, Buttons: ownButtons(id, 0)}); err != nil {
			t.Fatal(err)
		}
		want |= ownButtons(id, 0)
	}
	if got := s.ButtonState(); got != want {
		t.Errorf("ButtonState = %b, want %b", got, want)
	}

	for _, ev := range rec.all() {
		pe, ok := ev.(*PointerEvent)
		if !ok || pe.Time >= steps {
			continue
		}
		own := ownButtons(pe.DeviceID, int(pe.Time))
		if pe.Buttons&own != own {
			t.Errorf("device %d step %d: seat mask %b is missing the device's own %b", pe.DeviceID, pe.Time, pe.Buttons, own)
		}
	}
	for id := DeviceID(0); id < devices; id++ {
		if chain.Repeat.Repeating(id) {
			t.Errorf("device %d still repeating after its key was released", id)
		}
	}
}
