package input

import (
	"fmt"
	"slices"
	"time"

	"github.com/matjam/wlcore/internal/geometry"
)

type DeviceID int32

// Event is one of *KeyEvent, *PointerEvent, *TouchEvent or *DeviceStateEvent.
type Event interface {
	Device() DeviceID
	EventTime() time.Duration
	Clone() Event

	isEvent()
}

type KeyAction int

const (
	KeyUp KeyAction = iota
	KeyDown
	KeyRepeat
)

func (a KeyAction) String() string {
	switch a {
	case KeyUp:
		return "up"
	case KeyDown:
		return "down"
	case KeyRepeat:
		return "repeat"
	}
	return fmt.Sprintf("KeyAction(%d)", int(a))
}

type KeyEvent struct {
	DeviceID  DeviceID      `json:"device"`
	Time      time.Duration `json:"time"`
	Action    KeyAction     `json:"action"`
	ScanCode  uint32        `json:"scan_code"`
	Modifiers Modifiers     `json:"modifiers"`
}

func (e *KeyEvent) Device() DeviceID         { return e.DeviceID }
func (e *KeyEvent) EventTime() time.Duration { return e.Time }
func (e *KeyEvent) isEvent()                 {}

func (e *KeyEvent) Clone() Event {
	c := *e
	return &c
}

type PointerAction int

const (
	PointerMotion PointerAction = iota
	PointerButtonDown
	PointerButtonUp
	PointerEnter
	PointerLeave
)

type PointerEvent struct {
	DeviceID  DeviceID      `json:"device"`
	Time      time.Duration `json:"time"`
	Action    PointerAction `json:"action"`
	Modifiers Modifiers     `json:"modifiers"`

	// Buttons is the device's own button mask on input and the seat-wide
	// mask once the seat has processed the event.
	Buttons Buttons `json:"buttons"`

	// Absolute is set by absolute pointing devices. After the seat has
	// processed the event it holds the confined cursor position.
	Absolute *geometry.PointF `json:"position,omitempty"`

	Motion geometry.DisplacementF `json:"motion"`
	Scroll geometry.DisplacementF `json:"scroll"`
}

func (e *PointerEvent) Device() DeviceID         { return e.DeviceID }
func (e *PointerEvent) EventTime() time.Duration { return e.Time }
func (e *PointerEvent) isEvent()                 {}

func (e *PointerEvent) Clone() Event {
	c := *e
	if e.Absolute != nil {
		p := *e.Absolute
		c.Absolute = &p
	}
	return &c
}

type TouchAction int

const (
	TouchUp TouchAction = iota
	TouchDown
	TouchChange
)

type TouchContact struct {
	ID       int32           `json:"id"`
	Action   TouchAction     `json:"action"`
	Position geometry.PointF `json:"position"`
	Pressure float32         `json:"pressure"`
}

type TouchEvent struct {
	DeviceID  DeviceID       `json:"device"`
	Time      time.Duration  `json:"time"`
	Modifiers Modifiers      `json:"modifiers"`
	Contacts  []TouchContact `json:"contacts"`
}

func (e *TouchEvent) Device() DeviceID         { return e.DeviceID }
func (e *TouchEvent) EventTime() time.Duration { return e.Time }
func (e *TouchEvent) isEvent()                 {}

func (e *TouchEvent) Clone() Event {
	c := *e
	c.Contacts = slices.Clone(e.Contacts)
	return &c
}

// DeviceState is the held keys and buttons of one device.
type DeviceState struct {
	ID        DeviceID `json:"id"`
	ScanCodes []uint32 `json:"scan_codes"`
	Buttons   Buttons  `json:"buttons"`
}

// DeviceStateEvent is a snapshot of the whole seat, sent to clients that
// gain focus so they can reconstruct held keys.
type DeviceStateEvent struct {
	Time      time.Duration   `json:"time"`
	Buttons   Buttons         `json:"buttons"`
	Modifiers Modifiers       `json:"modifiers"`
	Cursor    geometry.PointF `json:"cursor"`
	Devices   []DeviceState   `json:"devices"`
}

func (e *DeviceStateEvent) Device() DeviceID         { return -1 }
func (e *DeviceStateEvent) EventTime() time.Duration { return e.Time }
func (e *DeviceStateEvent) isEvent()                 {}

func (e *DeviceStateEvent) Clone() Event {
	c := *e
	c.Devices = make([]DeviceState, len(e.Devices))
	for i, d := range e.Devices {
		c.Devices[i] = DeviceState{ID: d.ID, ScanCodes: slices.Clone(d.ScanCodes), Buttons: d.Buttons}
	}
	return &c
}

// Kind names the event variant, used for logs and the IPC stream.
func Kind(ev Event) string {
	switch ev.(type) {
	case *KeyEvent:
		return "key"
	case *PointerEvent:
		return "pointer"
	case *TouchEvent:
		return "touch"
	case *DeviceStateEvent:
		return "device_state"
	}
	return "unknown"
}
