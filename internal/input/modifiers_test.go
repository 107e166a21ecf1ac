package input

import "testing"

func TestExpand(t *testing.T) {
	tests := []struct {
		in, want Modifiers
	}{
		{0, ModNone},
		{ModAltLeft, ModAlt | ModAltLeft},
		{ModAltRight | ModCtrlLeft, ModAlt | ModAltRight | ModCtrl | ModCtrlLeft},
		{ModAlt, ModNone},
		{ModNone | ModShiftRight, ModShift | ModShiftRight},
		{ModCapsLock, ModCapsLock},
		{ModMetaLeft | ModMetaRight, ModMeta | ModMetaLeft | ModMetaRight},
	}
	for _, tt := range tests {
		if got := Expand(tt.in); got != tt.want {
			t.Errorf("Expand(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestKeyMapperTracksDevicesSeparately(t *testing.T) {
	k := NewKeyMapper()

	k.MapKey(1, KeyDown, KeyLeftAlt)
	k.MapKey(2, KeyDown, KeyRightShift)
	if got := k.Modifiers(); got != ModAlt|ModAltLeft|ModShift|ModShiftRight {
		t.Errorf("Modifiers() = %v", got)
	}

	k.MapKey(1, KeyUp, KeyLeftAlt)
	if got := k.Modifiers(); got != ModShift|ModShiftRight {
		t.Errorf("after alt up Modifiers() = %v", got)
	}

	k.ClearDevice(2)
	if got := k.Modifiers(); got != ModNone {
		t.Errorf("after clear Modifiers() = %v", got)
	}
}

func TestKeyMapperLocksToggle(t *testing.T) {
	k := NewKeyMapper()

	k.MapKey(1, KeyDown, KeyCapsLock)
	k.MapKey(1, KeyUp, KeyCapsLock)
	if k.DeviceModifiers(1)&ModCapsLock == 0 {
		t.Fatalf("caps lock not latched")
	}

	k.MapKey(1, KeyDown, KeyCapsLock)
	if k.DeviceModifiers(1)&ModCapsLock != 0 {
		t.Errorf("caps lock not toggled off")
	}

	k.MapKey(1, KeyRepeat, KeyNumLock)
	if k.DeviceModifiers(1)&ModNumLock != 0 {
		t.Errorf("repeat toggled num lock")
	}
}

func TestKeyMapperSetKeyStateKeepsLocks(t *testing.T) {
	k := NewKeyMapper()
	k.MapKey(3, KeyDown, KeyNumLock)
	k.MapKey(3, KeyDown, KeyLeftShift)

	k.SetKeyState(3, []uint32{KeyRightCtrl, KeyA})
	if got := k.DeviceModifiers(3); got != ModNumLock|ModCtrlRight {
		t.Errorf("DeviceModifiers = %v", got)
	}
}

func TestModifiersString(t *testing.T) {
	if got := (ModAlt | ModAltLeft).String(); got != "alt|alt_left" {
		t.Errorf("String() = %q", got)
	}
	if got := Modifiers(0).String(); got != "none" {
		t.Errorf("String() = %q", got)
	}
}
