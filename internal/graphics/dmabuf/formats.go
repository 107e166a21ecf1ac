package dmabuf

import (
	"slices"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/matjam/wlcore/internal/graphics/drm"
	"github.com/matjam/wlcore/internal/graphics/egl"
	"github.com/matjam/wlcore/internal/graphics/gl"
)

// TextureType says how a format/modifier pair has to be sampled.
type TextureType int

const (
	Tex2D TextureType = iota
	ExternalOES
)

// Target is the GL texture target for t.
func (t TextureType) Target() uint32 {
	if t == ExternalOES {
		return gl.TextureExternalOES
	}
	return gl.Texture2D
}

func (t TextureType) String() string {
	if t == ExternalOES {
		return "external"
	}
	return "2d"
}

// FormatDescriptor is one importable format and the modifiers it can be
// imported with.
type FormatDescriptor struct {
	Format    drm.Format         `json:"format"`
	Modifiers []egl.ModifierInfo `json:"modifiers"`
}

// FormatDescriptors is the table of importable formats. It is built once
// and never modified, so it can be read from any goroutine.
type FormatDescriptors struct {
	descs []FormatDescriptor
}

// QueryFormats asks the driver which formats and modifiers it can import.
// Formats whose modifier query fails are dropped. A format reporting no
// modifiers is listed with DRM_FORMAT_MOD_INVALID, meaning the driver picks
// the layout itself.
func QueryFormats(d egl.Driver, ext *egl.Extensions) (*FormatDescriptors, error) {
	if !ext.DmaBufModifiers {
		// Without the modifiers extension there is no way to ask; these two
		// are supported everywhere.
		return &FormatDescriptors{descs: []FormatDescriptor{
			{Format: drm.ARGB8888, Modifiers: []egl.ModifierInfo{{Modifier: drm.ModInvalid}}},
			{Format: drm.XRGB8888, Modifiers: []egl.ModifierInfo{{Modifier: drm.ModInvalid}}},
		}}, nil
	}

	formats, err := d.QueryDmaBufFormats()
	if err != nil {
		return nil, errors.Wrap(err, "query dma-buf formats")
	}
	slices.Sort(formats)

	out := &FormatDescriptors{}
	for _, f := range formats {
		mods, err := d.QueryDmaBufModifiers(f)
		if err != nil {
			log.Warnf("modifier query failed for format %s: %v", f, err)
			continue
		}
		if len(mods) == 0 {
			mods = []egl.ModifierInfo{{Modifier: drm.ModInvalid}}
		}
		out.descs = append(out.descs, FormatDescriptor{Format: f, Modifiers: mods})
	}
	if len(formats) > 0 && len(out.descs) == 0 {
		return nil, ErrUnsupportedFormats
	}
	return out, nil
}

// NewFormatDescriptors builds a table from an explicit list.
func NewFormatDescriptors(descs ...FormatDescriptor) *FormatDescriptors {
	return &FormatDescriptors{descs: slices.Clone(descs)}
}

func (f *FormatDescriptors) Len() int {
	return len(f.descs)
}

// All returns a copy of the table.
func (f *FormatDescriptors) All() []FormatDescriptor {
	out := make([]FormatDescriptor, len(f.descs))
	for i, d := range f.descs {
		out[i] = FormatDescriptor{Format: d.Format, Modifiers: slices.Clone(d.Modifiers)}
	}
	return out
}

// Modifiers returns the modifiers listed for format.
func (f *FormatDescriptors) Modifiers(format drm.Format) ([]drm.Modifier, bool) {
	for _, d := range f.descs {
		if d.Format != format {
			continue
		}
		out := make([]drm.Modifier, len(d.Modifiers))
		for i, m := range d.Modifiers {
			out[i] = m.Modifier
		}
		return out, true
	}
	return nil, false
}

// Lookup finds how to texture from a format/modifier pair.
// DRM_FORMAT_MOD_INVALID is accepted for every format because older
// clients send it without the format having been advertised with it.
func (f *FormatDescriptors) Lookup(format drm.Format, modifier drm.Modifier) (TextureType, bool) {
	for _, d := range f.descs {
		if d.Format != format {
			continue
		}
		for _, m := range d.Modifiers {
			if m.Modifier == modifier {
				if m.ExternalOnly {
					return ExternalOES, true
				}
				return Tex2D, true
			}
		}
	}
	if modifier == drm.ModInvalid {
		return Tex2D, true
	}
	return 0, false
}
