package input

import (
	"strings"
	"sync"
)

type Modifiers uint32

const (
	ModNone Modifiers = 1 << iota
	ModAlt
	ModAltLeft
	ModAltRight
	ModShift
	ModShiftLeft
	ModShiftRight
	ModSym
	ModFunction
	ModCtrl
	ModCtrlLeft
	ModCtrlRight
	ModMeta
	ModMetaLeft
	ModMetaRight
	ModCapsLock
	ModNumLock
	ModScrollLock
)

var modifierNames = []struct {
	bit  Modifiers
	name string
}{
	{ModAlt, "alt"}, {ModAltLeft, "alt_left"}, {ModAltRight, "alt_right"},
	{ModShift, "shift"}, {ModShiftLeft, "shift_left"}, {ModShiftRight, "shift_right"},
	{ModSym, "sym"}, {ModFunction, "function"},
	{ModCtrl, "ctrl"}, {ModCtrlLeft, "ctrl_left"}, {ModCtrlRight, "ctrl_right"},
	{ModMeta, "meta"}, {ModMetaLeft, "meta_left"}, {ModMetaRight, "meta_right"},
	{ModCapsLock, "caps_lock"}, {ModNumLock, "num_lock"}, {ModScrollLock, "scroll_lock"},
}

func (m Modifiers) String() string {
	var parts []string
	for _, n := range modifierNames {
		if m&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Expand sets the umbrella alt/shift/ctrl/meta bits whenever either side is
// held and clears them when neither is. ModNone is set on an otherwise empty
// mask.
func Expand(m Modifiers) Modifiers {
	m &^= ModNone | ModAlt | ModShift | ModCtrl | ModMeta
	if m&(ModAltLeft|ModAltRight) != 0 {
		m |= ModAlt
	}
	if m&(ModShiftLeft|ModShiftRight) != 0 {
		m |= ModShift
	}
	if m&(ModCtrlLeft|ModCtrlRight) != 0 {
		m |= ModCtrl
	}
	if m&(ModMetaLeft|ModMetaRight) != 0 {
		m |= ModMeta
	}
	if m == 0 {
		return ModNone
	}
	return m
}

type Buttons uint32

const (
	ButtonPrimary Buttons = 1 << iota
	ButtonSecondary
	ButtonTertiary
	ButtonBack
	ButtonForward
	ButtonSide
	ButtonExtra
	ButtonTask
)

// Linux input scan codes the seat cares about.
const (
	KeyEsc        uint32 = 1
	KeyA          uint32 = 30
	KeyLeftCtrl   uint32 = 29
	KeyLeftShift  uint32 = 42
	KeyRightShift uint32 = 54
	KeyLeftAlt    uint32 = 56
	KeyCapsLock   uint32 = 58
	KeyNumLock    uint32 = 69
	KeyScrollLock uint32 = 70
	KeyRightCtrl  uint32 = 97
	KeyRightAlt   uint32 = 100
	KeyLeftMeta   uint32 = 125
	KeyRightMeta  uint32 = 126
)

var heldModifierKeys = map[uint32]Modifiers{
	KeyLeftShift:  ModShiftLeft,
	KeyRightShift: ModShiftRight,
	KeyLeftCtrl:   ModCtrlLeft,
	KeyRightCtrl:  ModCtrlRight,
	KeyLeftAlt:    ModAltLeft,
	KeyRightAlt:   ModAltRight,
	KeyLeftMeta:   ModMetaLeft,
	KeyRightMeta:  ModMetaRight,
}

var lockModifierKeys = map[uint32]Modifiers{
	KeyCapsLock:   ModCapsLock,
	KeyNumLock:    ModNumLock,
	KeyScrollLock: ModScrollLock,
}

// IsModifierKey reports whether the scan code only changes modifier state.
func IsModifierKey(scanCode uint32) bool {
	_, held := heldModifierKeys[scanCode]
	_, lock := lockModifierKeys[scanCode]
	return held || lock
}

// KeyMapper tracks per-device modifier state from key transitions. Held
// modifiers follow the keys; lock modifiers toggle on key down.
type KeyMapper struct {
	mu      sync.Mutex
	devices map[DeviceID]Modifiers
}

func NewKeyMapper() *KeyMapper {
	return &KeyMapper{devices: make(map[DeviceID]Modifiers)}
}

// MapKey updates the device's state for a key transition and returns the
// device's modifiers afterwards.
func (k *KeyMapper) MapKey(id DeviceID, action KeyAction, scanCode uint32) Modifiers {
	k.mu.Lock()
	defer k.mu.Unlock()

	m := k.devices[id]
	if bit, ok := heldModifierKeys[scanCode]; ok {
		switch action {
		case KeyDown:
			m |= bit
		case KeyUp:
			m &^= bit
		}
	}
	if bit, ok := lockModifierKeys[scanCode]; ok && action == KeyDown {
		m ^= bit
	}
	k.devices[id] = m
	return m
}

// SetKeyState rebuilds the device's held modifiers from a set of pressed
// keys, keeping lock state.
func (k *KeyMapper) SetKeyState(id DeviceID, scanCodes []uint32) {
	k.mu.Lock()
	defer k.mu.Unlock()

	m := k.devices[id] & (ModCapsLock | ModNumLock | ModScrollLock)
	for _, sc := range scanCodes {
		m |= heldModifierKeys[sc]
	}
	k.devices[id] = m
}

func (k *KeyMapper) DeviceModifiers(id DeviceID) Modifiers {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.devices[id]
}

// Modifiers is the union over all devices, expanded.
func (k *KeyMapper) Modifiers() Modifiers {
	k.mu.Lock()
	defer k.mu.Unlock()

	var m Modifiers
	for _, dm := range k.devices {
		m |= dm
	}
	return Expand(m)
}

func (k *KeyMapper) ClearDevice(id DeviceID) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.devices, id)
}
