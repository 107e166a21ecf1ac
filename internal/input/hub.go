package input

import (
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

type Capabilities uint32

const (
	CapKeyboard Capabilities = 1 << iota
	CapAlphanumeric
	CapPointer
	CapTouchpad
	CapTouchscreen
	CapSwitch
)

func (c Capabilities) String() string {
	var parts []string
	for _, n := range []struct {
		bit  Capabilities
		name string
	}{
		{CapKeyboard, "keyboard"}, {CapAlphanumeric, "alphanumeric"}, {CapPointer, "pointer"},
		{CapTouchpad, "touchpad"}, {CapTouchscreen, "touchscreen"}, {CapSwitch, "switch"},
	} {
		if c&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

func (c Capabilities) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

type DeviceInfo struct {
	ID           DeviceID     `json:"id"`
	Name         string       `json:"name"`
	Path         string       `json:"path,omitempty"`
	Capabilities Capabilities `json:"capabilities"`
}

type DeviceObserver interface {
	DeviceAdded(info DeviceInfo)
	DeviceChanged(info DeviceInfo)
	DeviceRemoved(info DeviceInfo)
}

// DeviceHub owns device identity. It registers devices with the seat and
// tells observers about hot-plug.
type DeviceHub struct {
	seat   *Seat
	logger *log.Logger

	mu        sync.RWMutex
	nextID    DeviceID
	devices   map[DeviceID]DeviceInfo
	observers []DeviceObserver
}

func NewDeviceHub(seat *Seat) *DeviceHub {
	return &DeviceHub{
		seat:    seat,
		logger:  log.WithPrefix("hub"),
		nextID:  1,
		devices: make(map[DeviceID]DeviceInfo),
	}
}

// AddObserver registers o and replays the devices already present.
func (h *DeviceHub) AddObserver(o DeviceObserver) {
	h.mu.Lock()
	h.observers = append(h.observers, o)
	existing := h.sortedLocked()
	h.mu.Unlock()

	for _, d := range existing {
		o.DeviceAdded(d)
	}
}

func (h *DeviceHub) Add(name, path string, caps Capabilities) (DeviceInfo, error) {
	h.mu.Lock()
	info := DeviceInfo{ID: h.nextID, Name: name, Path: path, Capabilities: caps}
	h.nextID++
	if err := h.seat.AddDevice(info.ID); err != nil {
		h.mu.Unlock()
		return DeviceInfo{}, err
	}
	h.devices[info.ID] = info
	observers := slices.Clone(h.observers)
	h.mu.Unlock()

	if caps&(CapPointer|CapTouchpad) != 0 {
		h.seat.AddPointingDevice()
	}
	h.logger.Infof("added device %d %q (%v)", info.ID, name, caps)
	for _, o := range observers {
		o.DeviceAdded(info)
	}
	return info, nil
}

func (h *DeviceHub) Remove(id DeviceID) error {
	h.mu.Lock()
	info, ok := h.devices[id]
	if !ok {
		h.mu.Unlock()
		return errors.Wrapf(ErrUnknownDevice, "hub has no device %d", id)
	}
	delete(h.devices, id)
	observers := slices.Clone(h.observers)
	h.mu.Unlock()

	err := h.seat.RemoveDevice(id)
	if info.Capabilities&(CapPointer|CapTouchpad) != 0 {
		h.seat.RemovePointingDevice()
	}
	h.logger.Infof("removed device %d %q", id, info.Name)
	for _, o := range observers {
		o.DeviceRemoved(info)
	}
	return err
}

// Post hands a device event to the seat.
func (h *DeviceHub) Post(ev Event) error {
	return h.seat.Dispatch(ev)
}

func (h *DeviceHub) Device(id DeviceID) (DeviceInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	info, ok := h.devices[id]
	return info, ok
}

func (h *DeviceHub) Devices() []DeviceInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sortedLocked()
}

func (h *DeviceHub) sortedLocked() []DeviceInfo {
	out := make([]DeviceInfo, 0, len(h.devices))
	for _, d := range h.devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
