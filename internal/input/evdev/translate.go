package evdev

import (
	"cmp"
	"encoding/binary"
	"slices"
	"time"

	"github.com/matjam/wlcore/internal/geometry"
	"github.com/matjam/wlcore/internal/input"
)

// input_event on 64-bit kernels
const rawEventSize = 24

// RawEvent is one struct input_event.
type RawEvent struct {
	Time  time.Duration
	Type  uint16
	Code  uint16
	Value int32
}

var buttonBits = map[uint16]input.Buttons{
	btnLeft:    input.ButtonPrimary,
	btnRight:   input.ButtonSecondary,
	btnMiddle:  input.ButtonTertiary,
	btnSide:    input.ButtonSide,
	btnExtra:   input.ButtonExtra,
	btnForward: input.ButtonForward,
	btnBack:    input.ButtonBack,
	btnTask:    input.ButtonTask,
}

type slot struct {
	trackingID int32
	x, y       int32
	pressure   int32
	action     input.TouchAction
	dirty      bool
}

// AbsMapper converts absolute device coordinates to seat coordinates.
type AbsMapper func(x, y int32) geometry.PointF

// Translator turns a device's raw event stream into seat events, one frame
// per SYN_REPORT. Key transitions are emitted immediately.
type Translator struct {
	id      input.DeviceID
	mapAbs  AbsMapper
	buttons input.Buttons

	motion       geometry.DisplacementF
	scroll       geometry.DisplacementF
	buttonAction input.PointerAction
	buttonDirty  bool

	absX, absY int32
	absDirty   bool

	slots   map[int32]*slot
	current int32
	// dropping is set after SYN_DROPPED until the next SYN_REPORT
	dropping bool
}

func NewTranslator(id input.DeviceID, mapAbs AbsMapper) *Translator {
	if mapAbs == nil {
		mapAbs = func(x, y int32) geometry.PointF { return geometry.PointF{X: float32(x), Y: float32(y)} }
	}
	return &Translator{id: id, mapAbs: mapAbs, slots: make(map[int32]*slot)}
}

func (t *Translator) Feed(raw RawEvent) []input.Event {
	if t.dropping {
		if raw.Type == evSyn && raw.Code == synReport {
			t.dropping = false
		}
		return nil
	}

	switch raw.Type {
	case evSyn:
		switch raw.Code {
		case synReport:
			return t.frame(raw.Time)
		case synDropped:
			t.dropping = true
			t.motion, t.scroll = geometry.DisplacementF{}, geometry.DisplacementF{}
		}

	case evKey:
		return t.key(raw)

	case evRel:
		switch raw.Code {
		case relX:
			t.motion.DX += float32(raw.Value)
		case relY:
			t.motion.DY += float32(raw.Value)
		case relWheel:
			t.scroll.DY -= float32(raw.Value)
		case relHWheel:
			t.scroll.DX += float32(raw.Value)
		}

	case evAbs:
		t.abs(raw)
	}
	return nil
}

func (t *Translator) key(raw RawEvent) []input.Event {
	if bit, ok := buttonBits[raw.Code]; ok {
		switch raw.Value {
		case keyPressed:
			t.buttons |= bit
			t.buttonAction = input.PointerButtonDown
		case keyReleased:
			t.buttons &^= bit
			t.buttonAction = input.PointerButtonUp
		default:
			return nil
		}
		t.buttonDirty = true
		return nil
	}
	if raw.Code >= btnMisc {
		return nil
	}

	var action input.KeyAction
	switch raw.Value {
	case keyPressed:
		action = input.KeyDown
	case keyReleased:
		action = input.KeyUp
	default:
		// kernel autorepeat; repeats are synthesized by the seat
		return nil
	}
	return []input.Event{&input.KeyEvent{
		DeviceID: t.id,
		Time:     raw.Time,
		Action:   action,
		ScanCode: uint32(raw.Code),
	}}
}

func (t *Translator) abs(raw RawEvent) {
	switch raw.Code {
	case absX:
		t.absX = raw.Value
		t.absDirty = true
	case absY:
		t.absY = raw.Value
		t.absDirty = true
	case absMTSlot:
		t.current = raw.Value
	case absMTTrackingID:
		s := t.slot()
		if raw.Value < 0 {
			s.action = input.TouchUp
		} else {
			s.trackingID = raw.Value
			s.action = input.TouchDown
		}
		s.dirty = true
	case absMTPositionX:
		s := t.slot()
		s.x = raw.Value
		s.dirty = true
	case absMTPositionY:
		s := t.slot()
		s.y = raw.Value
		s.dirty = true
	case absMTPressure:
		s := t.slot()
		s.pressure = raw.Value
		s.dirty = true
	}
}

func (t *Translator) slot() *slot {
	s, ok := t.slots[t.current]
	if !ok {
		s = &slot{trackingID: -1, action: input.TouchChange}
		t.slots[t.current] = s
	}
	return s
}

func (t *Translator) frame(ts time.Duration) []input.Event {
	var out []input.Event

	if t.touchFrame() {
		ev := &input.TouchEvent{DeviceID: t.id, Time: ts}
		for id, s := range t.slots {
			if s.trackingID < 0 {
				// position updates for a slot that never went down
				delete(t.slots, id)
				continue
			}
			ev.Contacts = append(ev.Contacts, input.TouchContact{
				ID:       s.trackingID,
				Action:   s.action,
				Position: t.mapAbs(s.x, s.y),
				Pressure: float32(s.pressure),
			})
			switch s.action {
			case input.TouchUp:
				delete(t.slots, id)
			case input.TouchDown:
				s.action = input.TouchChange
			}
			s.dirty = false
		}
		slices.SortFunc(ev.Contacts, func(a, b input.TouchContact) int { return cmp.Compare(a.ID, b.ID) })
		if len(ev.Contacts) > 0 {
			out = append(out, ev)
		}
		t.absDirty = false
	}

	if t.buttonDirty || t.motion != (geometry.DisplacementF{}) || t.scroll != (geometry.DisplacementF{}) || t.absDirty {
		ev := &input.PointerEvent{
			DeviceID: t.id,
			Time:     ts,
			Action:   input.PointerMotion,
			Buttons:  t.buttons,
			Motion:   t.motion,
			Scroll:   t.scroll,
		}
		if t.buttonDirty {
			ev.Action = t.buttonAction
		}
		if t.absDirty {
			p := t.mapAbs(t.absX, t.absY)
			ev.Absolute = &p
		}
		out = append(out, ev)
	}

	t.motion, t.scroll = geometry.DisplacementF{}, geometry.DisplacementF{}
	t.buttonDirty, t.absDirty = false, false
	return out
}

func (t *Translator) touchFrame() bool {
	for _, s := range t.slots {
		if s.dirty {
			return true
		}
	}
	return false
}

func decode(b []byte) RawEvent {
	sec := int64(binary.LittleEndian.Uint64(b[0:8]))
	usec := int64(binary.LittleEndian.Uint64(b[8:16]))
	return RawEvent{
		Time:  time.Duration(sec)*time.Second + time.Duration(usec)*time.Microsecond,
		Type:  binary.LittleEndian.Uint16(b[16:18]),
		Code:  binary.LittleEndian.Uint16(b[18:20]),
		Value: int32(binary.LittleEndian.Uint32(b[20:24])),
	}
}
