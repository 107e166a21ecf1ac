package input

import (
	"errors"
	"testing"
)

type hubRecorder struct {
	added, removed []DeviceInfo
}

func (h *hubRecorder) DeviceAdded(info DeviceInfo)   { h.added = append(h.added, info) }
func (h *hubRecorder) DeviceChanged(DeviceInfo)      {}
func (h *hubRecorder) DeviceRemoved(info DeviceInfo) { h.removed = append(h.removed, info) }

func TestHubAssignsIDsAndRegistersWithSeat(t *testing.T) {
	seat, rec, _, cur := newTestSeat()
	hub := NewDeviceHub(seat)
	obs := &hubRecorder{}
	hub.AddObserver(obs)

	kbd, err := hub.Add("AT keyboard", "/dev/input/event0", CapKeyboard|CapAlphanumeric)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	mouse, _ := hub.Add("mouse", "/dev/input/event1", CapPointer)
	if kbd.ID == mouse.ID {
		t.Fatalf("duplicate ids %d", kbd.ID)
	}
	if cur.usable != 1 {
		t.Errorf("pointer not made usable")
	}

	if err := hub.Post(key(kbd.ID, KeyDown, KeyA)); err != nil {
		t.Errorf("Post: %v", err)
	}
	if len(rec.all()) != 1 {
		t.Errorf("event not forwarded")
	}

	if err := hub.Remove(mouse.ID); err != nil {
		t.Errorf("Remove: %v", err)
	}
	if cur.unusable != 1 {
		t.Errorf("pointer not made unusable")
	}
	if err := hub.Post(&PointerEvent{DeviceID: mouse.ID}); !errors.Is(err, ErrUnknownDevice) {
		t.Errorf("Post after removal = %v", err)
	}
	if err := hub.Remove(mouse.ID); !errors.Is(err, ErrUnknownDevice) {
		t.Errorf("second Remove = %v", err)
	}

	if len(obs.added) != 2 || len(obs.removed) != 1 {
		t.Errorf("observer saw %d adds and %d removes", len(obs.added), len(obs.removed))
	}
	if devs := hub.Devices(); len(devs) != 1 || devs[0].ID != kbd.ID {
		t.Errorf("Devices() = %v", devs)
	}
}

func TestHubReplaysDevicesToLateObservers(t *testing.T) {
	seat, _, _, _ := newTestSeat()
	hub := NewDeviceHub(seat)
	hub.Add("a", "", CapKeyboard)
	hub.Add("b", "", CapKeyboard)

	obs := &hubRecorder{}
	hub.AddObserver(obs)
	if len(obs.added) != 2 || obs.added[0].Name != "a" {
		t.Errorf("replayed %v", obs.added)
	}
}

func TestCapabilitiesString(t *testing.T) {
	if got := (CapKeyboard | CapPointer).String(); got != "keyboard|pointer" {
		t.Errorf("String() = %q", got)
	}
}
