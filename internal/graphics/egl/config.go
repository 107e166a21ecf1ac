package egl

import (
	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/matjam/wlcore/internal/graphics/drm"
)

var ErrNoMatchingConfig = errors.New("no EGL config matches format")

func configAttribs(c drm.Components, surfaceType int32) []int32 {
	return []int32{
		SurfaceType, surfaceType,
		RenderableType, OpenGLES2Bit,
		RedSize, int32(c.Red),
		GreenSize, int32(c.Green),
		BlueSize, int32(c.Blue),
		AlphaSize, int32(c.Alpha),
		None,
	}
}

// eglChooseConfig returns configs with at least the requested channel
// sizes, so the exact match has to be picked out by hand.
func exactConfig(d Driver, c drm.Components, surfaceType int32) (Config, bool, error) {
	configs, err := d.ChooseConfigs(configAttribs(c, surfaceType))
	if err != nil {
		return 0, false, err
	}
	want := [...]struct {
		attr int32
		size int
	}{
		{RedSize, c.Red},
		{GreenSize, c.Green},
		{BlueSize, c.Blue},
		{AlphaSize, c.Alpha},
	}
next:
	for _, cfg := range configs {
		for _, w := range want {
			v, err := d.ConfigAttrib(cfg, w.attr)
			if err != nil {
				return 0, false, err
			}
			if int(v) != w.size {
				continue next
			}
		}
		return cfg, true, nil
	}
	return 0, false, nil
}

// ChooseConfig picks a config whose channel sizes match format exactly. If
// there is none, the format with the alpha channel added or dropped is
// tried instead. The format the config was actually chosen for is
// returned alongside it.
func ChooseConfig(d Driver, format drm.Format, surfaceType int32) (Config, drm.Format, error) {
	candidates := []drm.Format{format}
	if format.HasAlpha() {
		if f, ok := format.OpaqueEquivalent(); ok && f != format {
			candidates = append(candidates, f)
		}
	} else if f, ok := format.AlphaEquivalent(); ok {
		candidates = append(candidates, f)
	}

	for i, f := range candidates {
		comps, ok := f.Components()
		if !ok {
			continue
		}
		cfg, found, err := exactConfig(d, comps, surfaceType)
		if err != nil {
			return 0, 0, errors.Wrapf(err, "choose config for %s", f)
		}
		if found {
			if i > 0 {
				log.Debugf("no EGL config for %s, using %s", format, f)
			}
			return cfg, f, nil
		}
	}
	return 0, 0, errors.Wrapf(ErrNoMatchingConfig, "%s", format)
}
