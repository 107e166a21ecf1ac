// Package drm describes the DRM pixel formats and buffer layout modifiers
// the compositor understands.
package drm

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// Format is a little-endian fourcc code as defined by drm_fourcc.h.
type Format uint32

// Modifier describes the tiling or compression layout of a buffer.
type Modifier uint64

const (
	ModLinear  Modifier = 0
	ModInvalid Modifier = 0x00ffffffffffffff
)

// Components holds the per-channel bit depths of an RGB format.
type Components struct {
	Red   int `json:"red"`
	Green int `json:"green"`
	Blue  int `json:"blue"`
	Alpha int `json:"alpha"`
}

// Info is the static description of a known format. Opaque and Alpha name
// the format with the alpha channel dropped or added; Alpha is zero when no
// such format exists.
type Info struct {
	Format       Format
	BitsPerPixel int
	HasAlpha     bool
	Opaque       Format
	Alpha        Format
	Components   *Components
}

var formats = func() map[Format]Info {
	m := make(map[Format]Info, len(formatTable))
	for _, info := range formatTable {
		m[info.Format] = info
	}
	return m
}()

// InfoFor looks up f in the format table.
func InfoFor(f Format) (Info, bool) {
	info, ok := formats[f]
	return info, ok
}

// Known returns every format in the table, in table order.
func Known() []Format {
	out := make([]Format, len(formatTable))
	for i, info := range formatTable {
		out[i] = info.Format
	}
	return out
}

// HasAlpha reports whether f carries an alpha channel. Unknown formats are
// assumed to have one.
func (f Format) HasAlpha() bool {
	info, ok := InfoFor(f)
	if !ok {
		WarnUnknown(f)
		return true
	}
	return info.HasAlpha
}

func (f Format) BitsPerPixel() (int, bool) {
	info, ok := InfoFor(f)
	if !ok {
		return 0, false
	}
	return info.BitsPerPixel, true
}

func (f Format) Components() (Components, bool) {
	info, ok := InfoFor(f)
	if !ok || info.Components == nil {
		return Components{}, false
	}
	return *info.Components, true
}

// OpaqueEquivalent returns the variant of f without alpha. A format that is
// already opaque is its own equivalent.
func (f Format) OpaqueEquivalent() (Format, bool) {
	info, ok := InfoFor(f)
	if !ok {
		return 0, false
	}
	return info.Opaque, true
}

// AlphaEquivalent returns the variant of f with an alpha channel, if one
// exists.
func (f Format) AlphaEquivalent() (Format, bool) {
	info, ok := InfoFor(f)
	if !ok || info.Alpha == 0 {
		return 0, false
	}
	return info.Alpha, true
}

// Name returns the symbolic name of f, or its fourcc characters when f is
// not in the name table.
func (f Format) Name() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return f.fourcc()
}

func (f Format) String() string {
	return f.Name()
}

func (f Format) fourcc() string {
	b := []byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)}
	for i, c := range b {
		if c < 0x20 || c > 0x7e {
			b[i] = '?'
		}
	}
	return string(b)
}

func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.Name()), nil
}

// UnmarshalText accepts a symbolic name or four fourcc characters.
func (f *Format) UnmarshalText(text []byte) error {
	s := string(text)
	for format, name := range formatNames {
		if name == s {
			*f = format
			return nil
		}
	}
	if len(s) != 4 {
		return fmt.Errorf("unknown DRM format %q", s)
	}
	*f = Format(uint32(s[0]) | uint32(s[1])<<8 | uint32(s[2])<<16 | uint32(s[3])<<24)
	return nil
}

var (
	unknownMu   sync.Mutex
	unknownSeen = make(map[Format]struct{})
)

// WarnUnknown logs a warning the first time f is seen.
func WarnUnknown(f Format) {
	unknownMu.Lock()
	_, seen := unknownSeen[f]
	if !seen {
		unknownSeen[f] = struct{}{}
	}
	unknownMu.Unlock()

	if !seen {
		log.Warnf("unknown DRM format %s (0x%08x), assuming it has alpha", f.fourcc(), uint32(f))
	}
}

const (
	vendorNone      = 0
	vendorIntel     = 1
	vendorAMD       = 2
	vendorNvidia    = 3
	vendorSamsung   = 4
	vendorQcom      = 5
	vendorVivante   = 6
	vendorBroadcom  = 7
	vendorARM       = 8
	vendorAllwinner = 9
	vendorAmlogic   = 10
)

var vendorNames = map[uint64]string{
	vendorNone:      "NONE",
	vendorIntel:     "INTEL",
	vendorAMD:       "AMD",
	vendorNvidia:    "NVIDIA",
	vendorSamsung:   "SAMSUNG",
	vendorQcom:      "QCOM",
	vendorVivante:   "VIVANTE",
	vendorBroadcom:  "BROADCOM",
	vendorARM:       "ARM",
	vendorAllwinner: "ALLWINNER",
	vendorAmlogic:   "AMLOGIC",
}

func modCode(vendor, val uint64) Modifier {
	return Modifier(vendor<<56 | val)
}

var modifierNames = map[Modifier]string{
	ModLinear:                   "LINEAR",
	ModInvalid:                  "INVALID",
	modCode(vendorIntel, 1):     "I915_X_TILED",
	modCode(vendorIntel, 2):     "I915_Y_TILED",
	modCode(vendorIntel, 3):     "I915_Yf_TILED",
	modCode(vendorIntel, 4):     "I915_Y_TILED_CCS",
	modCode(vendorIntel, 5):     "I915_Yf_TILED_CCS",
	modCode(vendorIntel, 6):     "I915_Y_TILED_GEN12_RC_CCS",
	modCode(vendorIntel, 7):     "I915_Y_TILED_GEN12_MC_CCS",
	modCode(vendorNvidia, 1):    "NVIDIA_TEGRA_TILED",
	modCode(vendorSamsung, 1):   "SAMSUNG_64_32_TILE",
	modCode(vendorSamsung, 2):   "SAMSUNG_16_16_TILE",
	modCode(vendorQcom, 1):      "QCOM_COMPRESSED",
	modCode(vendorVivante, 1):   "VIVANTE_TILED",
	modCode(vendorVivante, 2):   "VIVANTE_SUPER_TILED",
	modCode(vendorVivante, 3):   "VIVANTE_SPLIT_TILED",
	modCode(vendorVivante, 4):   "VIVANTE_SPLIT_SUPER_TILED",
	modCode(vendorBroadcom, 1):  "BROADCOM_VC4_T_TILED",
	modCode(vendorBroadcom, 6):  "BROADCOM_UIF",
	modCode(vendorAllwinner, 1): "ALLWINNER_TILED",
}

// Vendor returns the vendor field of m.
func (m Modifier) Vendor() string {
	if m == ModInvalid {
		return "NONE"
	}
	if name, ok := vendorNames[uint64(m)>>56]; ok {
		return name
	}
	return fmt.Sprintf("VENDOR_%d", uint64(m)>>56)
}

// ModifierName returns a readable name for m. Modifiers without a fixed
// name are printed as vendor plus raw value.
func ModifierName(m Modifier) string {
	if name, ok := modifierNames[m]; ok {
		return name
	}
	return fmt.Sprintf("%s_0x%014x", m.Vendor(), uint64(m)&(1<<56-1))
}

func (m Modifier) String() string {
	return ModifierName(m)
}
