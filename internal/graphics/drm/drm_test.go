package drm

import "testing"

func TestFormatPairsRoundTrip(t *testing.T) {
	for _, f := range Known() {
		alpha, ok := f.AlphaEquivalent()
		if !ok {
			continue
		}
		opaque, ok := alpha.OpaqueEquivalent()
		if !ok {
			t.Fatalf("%s: alpha equivalent %s has no opaque equivalent", f, alpha)
		}
		own, _ := f.OpaqueEquivalent()
		if opaque != f && opaque != own {
			t.Errorf("%s: round trip gave %s", f, opaque)
		}
		if !alpha.HasAlpha() {
			t.Errorf("%s: alpha equivalent %s reports no alpha", f, alpha)
		}
		if opaque.HasAlpha() {
			t.Errorf("%s: opaque equivalent %s reports alpha", f, opaque)
		}
	}
}

func TestPairsShareDepth(t *testing.T) {
	for _, f := range Known() {
		alpha, ok := f.AlphaEquivalent()
		if !ok {
			continue
		}
		a, _ := f.BitsPerPixel()
		b, _ := alpha.BitsPerPixel()
		if a != b {
			t.Errorf("%s is %d bpp but %s is %d bpp", f, a, alpha, b)
		}
	}
}

func TestFormatInfo(t *testing.T) {
	tests := []struct {
		format Format
		bpp    int
		alpha  bool
		comps  Components
	}{
		{ARGB8888, 32, true, Components{8, 8, 8, 8}},
		{XRGB8888, 32, false, Components{8, 8, 8, 0}},
		{RGB565, 16, false, Components{5, 6, 5, 0}},
		{BGR888, 24, false, Components{8, 8, 8, 0}},
		{ABGR2101010, 32, true, Components{10, 10, 10, 2}},
		{RGBA5551, 16, true, Components{5, 5, 5, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.format.Name(), func(t *testing.T) {
			bpp, ok := tt.format.BitsPerPixel()
			if !ok || bpp != tt.bpp {
				t.Errorf("bpp = %d, %v; want %d", bpp, ok, tt.bpp)
			}
			if tt.format.HasAlpha() != tt.alpha {
				t.Errorf("HasAlpha = %v", !tt.alpha)
			}
			comps, ok := tt.format.Components()
			if !ok || comps != tt.comps {
				t.Errorf("components = %+v, want %+v", comps, tt.comps)
			}
		})
	}
}

func TestRGB565HasNoAlphaVariant(t *testing.T) {
	if f, ok := RGB565.AlphaEquivalent(); ok {
		t.Errorf("RGB565 alpha equivalent = %s", f)
	}
	if f, ok := RGB565.OpaqueEquivalent(); !ok || f != RGB565 {
		t.Errorf("RGB565 opaque equivalent = %s, %v", f, ok)
	}
}

func TestUnknownFormat(t *testing.T) {
	f := Format(0x31313131)
	if _, ok := InfoFor(f); ok {
		t.Fatal("unexpected info for unknown format")
	}
	if !f.HasAlpha() {
		t.Error("unknown formats should be treated as having alpha")
	}
	if f.Name() != "1111" {
		t.Errorf("Name = %q", f.Name())
	}
	// Repeated calls only record the format once.
	WarnUnknown(f)
	WarnUnknown(f)
	unknownMu.Lock()
	n := len(unknownSeen)
	unknownMu.Unlock()
	if n == 0 {
		t.Error("unknown format not recorded")
	}
}

func TestNames(t *testing.T) {
	if XRGB8888.Name() != "XRGB8888" {
		t.Errorf("Name = %q", XRGB8888.Name())
	}
	if uint32(ARGB8888) != 0x34325241 {
		t.Errorf("ARGB8888 = 0x%08x", uint32(ARGB8888))
	}
	tests := map[Modifier]string{
		ModLinear:       "LINEAR",
		ModInvalid:      "INVALID",
		1<<56 | 2:       "I915_Y_TILED",
		7<<56 | 6:       "BROADCOM_UIF",
		2<<56 | 0x12345: "AMD_0x00000000012345",
		42<<56 | 1:      "VENDOR_42_0x00000000000001",
	}
	for m, want := range tests {
		if got := ModifierName(m); got != want {
			t.Errorf("ModifierName(0x%x) = %q, want %q", uint64(m), got, want)
		}
	}
}

func TestFormatTextRoundTrip(t *testing.T) {
	for _, f := range []Format{ARGB8888, NV12, Format(0x31313131)} {
		text, err := f.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var back Format
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", text, err)
		}
		if back != f {
			t.Errorf("%q decoded to %s, want %s", text, back, f)
		}
	}
	var f Format
	if err := f.UnmarshalText([]byte("NOT_A_FORMAT")); err == nil {
		t.Error("bogus name accepted")
	}
}
