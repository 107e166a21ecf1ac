package input

import (
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/matjam/wlcore/internal/geometry"
)

var (
	ErrUnknownDevice           = errors.New("input device is not registered with the seat")
	ErrDeviceAlreadyRegistered = errors.New("input device is already registered with the seat")
	ErrUnsupportedEvent        = errors.New("event kind is not accepted from devices")
)

// TouchSpot is a contact shown by touch visualization.
type TouchSpot struct {
	Position geometry.PointF `json:"position"`
	Pressure float32         `json:"pressure"`
}

type TouchVisualizer interface {
	VisualizeTouches(spots []TouchSpot)
}

type CursorListener interface {
	CursorMovedTo(x, y float32)
	PointerUsable()
	PointerUnusable()
}

// SeatObserver is told about every change made to the seat.
type SeatObserver interface {
	SeatAddDevice(id DeviceID)
	SeatRemoveDevice(id DeviceID)
	SeatDispatchEvent(ev Event)
	SeatSetKeyState(id DeviceID, scanCodes []uint32)
	SeatSetPointerState(id DeviceID, buttons Buttons)
	SeatSetCursorPosition(x, y float32)
	SeatSetConfinementRegion(regions geometry.Rectangles)
	SeatResetConfinementRegions()
}

// deviceData is one device's contribution to the seat.
type deviceData struct {
	buttons   Buttons
	spots     []TouchSpot
	scanCodes []uint32
}

// allowKey rejects key transitions that contradict the held key set.
func (d *deviceData) allowKey(action KeyAction, scanCode uint32) bool {
	held := slices.Contains(d.scanCodes, scanCode)
	if action == KeyDown {
		return !held
	}
	return held
}

func (d *deviceData) updateKey(action KeyAction, scanCode uint32) {
	switch action {
	case KeyDown:
		d.scanCodes = append(d.scanCodes, scanCode)
	case KeyUp:
		d.scanCodes = slices.DeleteFunc(d.scanCodes, func(sc uint32) bool { return sc == scanCode })
	}
}

// updateSpots replaces the device's contacts and reports whether they changed.
func (d *deviceData) updateSpots(contacts []TouchContact) bool {
	spots := make([]TouchSpot, 0, len(contacts))
	for _, c := range contacts {
		if c.Action == TouchUp {
			continue
		}
		spots = append(spots, TouchSpot{Position: c.Position, Pressure: c.Pressure})
	}
	if slices.Equal(spots, d.spots) {
		return false
	}
	d.spots = spots
	return true
}

// Seat aggregates the state of every input device into one cursor, button
// mask, modifier mask and touch spot set, and forwards device events with
// that state filled in.
type Seat struct {
	mu sync.Mutex

	next       Dispatcher
	visualizer TouchVisualizer
	cursor     CursorListener
	mapper     *KeyMapper
	clock      clockwork.Clock
	logger     *log.Logger
	dropped    rate.Sometimes

	devices     map[DeviceID]*deviceData
	buttons     Buttons
	spots       []TouchSpot
	position    geometry.PointF
	inputRegion geometry.Rectangles
	confinement geometry.Rectangles
	pointers    int

	observersMu sync.RWMutex
	observers   []SeatObserver
}

// NewSeat creates a seat forwarding to next. visualizer and cursor may be nil.
func NewSeat(next Dispatcher, visualizer TouchVisualizer, cursor CursorListener, mapper *KeyMapper, clock clockwork.Clock) *Seat {
	if mapper == nil {
		mapper = NewKeyMapper()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Seat{
		next:       next,
		visualizer: visualizer,
		cursor:     cursor,
		mapper:     mapper,
		clock:      clock,
		logger:     log.WithPrefix("seat"),
		dropped:    rate.Sometimes{Interval: time.Second},
		devices:    make(map[DeviceID]*deviceData),
	}
}

func (s *Seat) AddObserver(o SeatObserver) {
	s.observersMu.Lock()
	defer s.observersMu.Unlock()
	s.observers = append(s.observers, o)
}

func (s *Seat) RemoveObserver(o SeatObserver) {
	s.observersMu.Lock()
	defer s.observersMu.Unlock()
	s.observers = slices.DeleteFunc(s.observers, func(x SeatObserver) bool { return x == o })
}

func (s *Seat) notify(f func(SeatObserver)) {
	s.observersMu.RLock()
	observers := slices.Clone(s.observers)
	s.observersMu.RUnlock()

	for _, o := range observers {
		f(o)
	}
}

func (s *Seat) AddDevice(id DeviceID) error {
	s.mu.Lock()
	if _, ok := s.devices[id]; ok {
		s.mu.Unlock()
		return errors.Wrapf(ErrDeviceAlreadyRegistered, "device %d", id)
	}
	s.devices[id] = &deviceData{}
	s.mu.Unlock()

	s.notify(func(o SeatObserver) { o.SeatAddDevice(id) })
	return nil
}

func (s *Seat) RemoveDevice(id DeviceID) error {
	s.mu.Lock()
	d, ok := s.devices[id]
	if !ok {
		s.mu.Unlock()
		return errors.Wrapf(ErrUnknownDevice, "removing device %d", id)
	}
	delete(s.devices, id)
	s.mapper.ClearDevice(id)

	if d.buttons != 0 {
		s.recomputeButtons()
	}
	var spots []TouchSpot
	spotsChanged := len(d.spots) > 0
	if spotsChanged {
		s.recomputeSpots()
		spots = slices.Clone(s.spots)
	}
	s.mu.Unlock()

	if spotsChanged && s.visualizer != nil {
		s.visualizer.VisualizeTouches(spots)
	}
	s.notify(func(o SeatObserver) { o.SeatRemoveDevice(id) })
	return nil
}

// Dispatch folds a device event into the seat state and forwards it with the
// seat-wide modifiers, buttons and cursor position. Key transitions that
// contradict the device's held keys are dropped without error.
func (s *Seat) Dispatch(ev Event) error {
	var (
		moved        bool
		spotsChanged bool
		pos          geometry.PointF
		spots        []TouchSpot
	)

	s.mu.Lock()
	d, ok := s.devices[ev.Device()]
	if !ok {
		s.mu.Unlock()
		return errors.Wrapf(ErrUnknownDevice, "%s event from device %d", Kind(ev), ev.Device())
	}

	switch e := ev.(type) {
	case *KeyEvent:
		if !d.allowKey(e.Action, e.ScanCode) {
			s.mu.Unlock()
			s.dropped.Do(func() {
				s.logger.Debugf("dropping inconsistent key %v of scan code %d on device %d", e.Action, e.ScanCode, e.DeviceID)
			})
			return nil
		}
		d.updateKey(e.Action, e.ScanCode)
		s.mapper.MapKey(e.DeviceID, e.Action, e.ScanCode)
		e.Modifiers = s.mapper.Modifiers()

	case *PointerEvent:
		if d.buttons != e.Buttons {
			d.buttons = e.Buttons
			s.recomputeButtons()
		}
		if e.Absolute != nil {
			s.position = *e.Absolute
		} else {
			s.position = s.position.Add(e.Motion)
		}
		s.confineCursor()
		pos = s.position
		moved = true

		e.Absolute = &pos
		e.Buttons = s.buttons
		e.Modifiers = s.mapper.Modifiers()

	case *TouchEvent:
		if d.updateSpots(e.Contacts) {
			old := s.spots
			s.recomputeSpots()
			if !slices.Equal(old, s.spots) {
				spotsChanged = true
				spots = slices.Clone(s.spots)
			}
		}
		e.Modifiers = s.mapper.Modifiers()

	default:
		s.mu.Unlock()
		return errors.Wrapf(ErrUnsupportedEvent, "%s", Kind(ev))
	}
	s.mu.Unlock()

	if moved && s.cursor != nil {
		s.cursor.CursorMovedTo(pos.X, pos.Y)
	}
	if spotsChanged && s.visualizer != nil {
		s.visualizer.VisualizeTouches(spots)
	}
	s.notify(func(o SeatObserver) { o.SeatDispatchEvent(ev) })

	if s.next != nil {
		s.next.Dispatch(ev)
	}
	return nil
}

func (s *Seat) recomputeButtons() {
	var b Buttons
	for _, d := range s.devices {
		b |= d.buttons
	}
	s.buttons = b
}

func (s *Seat) recomputeSpots() {
	var spots []TouchSpot
	for _, id := range s.sortedIDs() {
		spots = append(spots, s.devices[id].spots...)
	}
	s.spots = spots
}

func (s *Seat) sortedIDs() []DeviceID {
	ids := make([]DeviceID, 0, len(s.devices))
	for id := range s.devices {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Seat) confineCursor() {
	s.position = s.inputRegion.Confine(s.position)
	if len(s.confinement) > 0 {
		s.position = s.confinement.Confine(s.position)
	}
}

// CreateDeviceState snapshots the seat. Lock keys that are logically on
// without being held are reported as two presses of the lock key so that a
// client replaying the list ends up with the same lock state.
func (s *Seat) CreateDeviceState() *DeviceStateEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev := &DeviceStateEvent{
		Time:      time.Duration(s.clock.Now().UnixNano()),
		Buttons:   s.buttons,
		Modifiers: s.mapper.Modifiers(),
		Cursor:    s.position,
	}
	for _, id := range s.sortedIDs() {
		d := s.devices[id]
		state := DeviceState{ID: id, ScanCodes: slices.Clone(d.scanCodes), Buttons: d.buttons}

		locks := s.mapper.DeviceModifiers(id)
		for _, l := range []struct {
			bit Modifiers
			key uint32
		}{{ModCapsLock, KeyCapsLock}, {ModNumLock, KeyNumLock}, {ModScrollLock, KeyScrollLock}} {
			if locks&l.bit != 0 && !slices.Contains(d.scanCodes, l.key) {
				state.ScanCodes = append(state.ScanCodes, l.key, l.key)
			}
		}
		if state.ScanCodes == nil {
			state.ScanCodes = []uint32{}
		}
		ev.Devices = append(ev.Devices, state)
	}
	return ev
}

// SetKeyState replaces the held keys of a device, for example after a VT
// switch back.
func (s *Seat) SetKeyState(id DeviceID, scanCodes []uint32) error {
	s.mu.Lock()
	d, ok := s.devices[id]
	if !ok {
		s.mu.Unlock()
		return errors.Wrapf(ErrUnknownDevice, "setting key state of device %d", id)
	}
	d.scanCodes = slices.Clone(scanCodes)
	s.mapper.SetKeyState(id, scanCodes)
	s.mu.Unlock()

	s.notify(func(o SeatObserver) { o.SeatSetKeyState(id, scanCodes) })
	return nil
}

func (s *Seat) SetPointerState(id DeviceID, buttons Buttons) error {
	s.mu.Lock()
	d, ok := s.devices[id]
	if !ok {
		s.mu.Unlock()
		return errors.Wrapf(ErrUnknownDevice, "setting pointer state of device %d", id)
	}
	d.buttons = buttons
	s.recomputeButtons()
	s.mu.Unlock()

	s.notify(func(o SeatObserver) { o.SeatSetPointerState(id, buttons) })
	return nil
}

func (s *Seat) SetCursorPosition(x, y float32) {
	s.mu.Lock()
	s.position = geometry.PointF{X: x, Y: y}
	s.confineCursor()
	pos := s.position
	s.mu.Unlock()

	if s.cursor != nil {
		s.cursor.CursorMovedTo(pos.X, pos.Y)
	}
	s.notify(func(o SeatObserver) { o.SeatSetCursorPosition(pos.X, pos.Y) })
}

func (s *Seat) CursorPosition() geometry.PointF {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

func (s *Seat) ButtonState() Buttons {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buttons
}

func (s *Seat) Modifiers() Modifiers {
	return s.mapper.Modifiers()
}

func (s *Seat) Spots() []TouchSpot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.spots)
}

// UpdateOutputs replaces the input region with the output layout and pulls
// the cursor back inside it.
func (s *Seat) UpdateOutputs(outputs geometry.Rectangles) {
	s.mu.Lock()
	s.inputRegion = slices.Clone(outputs)
	s.confineCursor()
	pos := s.position
	s.mu.Unlock()

	if s.cursor != nil {
		s.cursor.CursorMovedTo(pos.X, pos.Y)
	}
}

func (s *Seat) InputRegion() geometry.Rectangles {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.inputRegion)
}

// SetConfinementRegions restricts the cursor further than the input region.
// The new bounds apply from the next pointer motion.
func (s *Seat) SetConfinementRegions(regions geometry.Rectangles) {
	s.mu.Lock()
	s.confinement = slices.Clone(regions)
	s.mu.Unlock()

	s.notify(func(o SeatObserver) { o.SeatSetConfinementRegion(regions) })
}

func (s *Seat) ResetConfinementRegions() {
	s.mu.Lock()
	s.confinement = nil
	s.mu.Unlock()

	s.notify(func(o SeatObserver) { o.SeatResetConfinementRegions() })
}

func (s *Seat) ConfinementRegions() geometry.Rectangles {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.confinement)
}

// AddPointingDevice and RemovePointingDevice count attached pointers so the
// cursor can be hidden when none remain.
func (s *Seat) AddPointingDevice() {
	s.mu.Lock()
	s.pointers++
	first := s.pointers == 1
	s.mu.Unlock()

	if first && s.cursor != nil {
		s.cursor.PointerUsable()
	}
}

func (s *Seat) RemovePointingDevice() {
	s.mu.Lock()
	if s.pointers == 0 {
		s.mu.Unlock()
		return
	}
	s.pointers--
	last := s.pointers == 0
	s.mu.Unlock()

	if last && s.cursor != nil {
		s.cursor.PointerUnusable()
	}
}

func (s *Seat) DeviceIDs() []DeviceID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedIDs()
}
