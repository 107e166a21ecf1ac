package dmabuf

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/matjam/wlcore/internal/graphics"
	"github.com/matjam/wlcore/internal/graphics/drm"
	"github.com/matjam/wlcore/internal/graphics/egl"
	"github.com/matjam/wlcore/internal/graphics/egl/egltest"
	"github.com/matjam/wlcore/internal/graphics/gl"
)

func TestQueryFormats(t *testing.T) {
	d := egltest.New(1)
	d.Formats = map[drm.Format][]egl.ModifierInfo{
		drm.ARGB8888: {{Modifier: drm.ModLinear}, {Modifier: 1<<56 | 7, ExternalOnly: true}},
		drm.XRGB8888: nil,
		drm.NV12:     {{Modifier: drm.ModLinear}},
	}
	d.FailModifierQuery = map[drm.Format]bool{drm.NV12: true}
	ext, err := egl.Probe(d)
	if err != nil {
		t.Fatal(err)
	}

	formats, err := QueryFormats(d, ext)
	if err != nil {
		t.Fatal(err)
	}
	if formats.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (NV12 dropped)", formats.Len())
	}
	if mods, _ := formats.Modifiers(drm.XRGB8888); len(mods) != 1 || mods[0] != drm.ModInvalid {
		t.Errorf("XRGB8888 modifiers = %v, want [MOD_INVALID]", mods)
	}

	tests := []struct {
		format   drm.Format
		modifier drm.Modifier
		want     TextureType
		ok       bool
	}{
		{drm.ARGB8888, drm.ModLinear, Tex2D, true},
		{drm.ARGB8888, 1<<56 | 7, ExternalOES, true},
		{drm.ARGB8888, 1<<56 | 8, 0, false},
		{drm.NV12, drm.ModLinear, 0, false},
		{drm.NV12, drm.ModInvalid, Tex2D, true},
	}
	for _, tt := range tests {
		got, ok := formats.Lookup(tt.format, tt.modifier)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Lookup(%s, %s) = %s, %v; want %s, %v", tt.format, tt.modifier, got, ok, tt.want, tt.ok)
		}
	}
}

func TestQueryFormatsAllFailing(t *testing.T) {
	d := egltest.New(1)
	d.FailModifierQuery = map[drm.Format]bool{drm.ARGB8888: true, drm.XRGB8888: true}
	ext, _ := egl.Probe(d)
	if _, err := QueryFormats(d, ext); !errors.Is(err, ErrUnsupportedFormats) {
		t.Errorf("QueryFormats = %v, want ErrUnsupportedFormats", err)
	}
}

func TestQueryFormatsWithoutModifierExtension(t *testing.T) {
	d := egltest.New(1)
	d.ExtensionList = []string{"EGL_KHR_image_base", "EGL_EXT_image_dma_buf_import"}
	ext, err := egl.Probe(d)
	if err != nil {
		t.Fatal(err)
	}
	formats, err := QueryFormats(d, ext)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range []drm.Format{drm.ARGB8888, drm.XRGB8888} {
		mods, ok := formats.Modifiers(f)
		if !ok || len(mods) != 1 || mods[0] != drm.ModInvalid {
			t.Errorf("%s modifiers = %v, %v", f, mods, ok)
		}
	}
}

func TestImportDmaBuf(t *testing.T) {
	e := newEnv(t, 1, nil)
	buf := testBuffer(t, drm.ARGB8888, drm.ModLinear)

	var consumed, released int
	imported, err := e.provider.ImportDmaBuf(buf, func() { consumed++ }, func() { released++ })
	if err != nil {
		t.Fatal(err)
	}
	if imported.Target() != gl.Texture2D {
		t.Errorf("target = 0x%x", imported.Target())
	}
	if got := e.gl.Param(imported.ID(), gl.TextureWrapS); got != gl.ClampToEdge {
		t.Errorf("wrap = 0x%x", got)
	}
	if e.driver.LiveImages() != 0 {
		t.Error("EGLImage kept after texturing")
	}
	if m, ok := imported.Modifier(); !ok || m != drm.ModLinear {
		t.Errorf("modifier = %s, %v", m, ok)
	}

	// Sampling from the texture any number of times consumes it once.
	for range 3 {
		imported.Bind()
		if _, err := e.provider.AsTexture(imported); err != nil {
			t.Fatal(err)
		}
	}
	if consumed != 1 {
		t.Errorf("onConsumed ran %d times, want 1", consumed)
	}

	imported.Release()
	imported.Release()
	if released != 1 {
		t.Errorf("onRelease ran %d times, want 1", released)
	}
	if err := e.exec.Run(func() error { return nil }); err != nil {
		t.Fatal(err)
	}
	if n := e.gl.LiveTextures(); n != 0 {
		t.Errorf("%d textures left after release", n)
	}
}

func TestImportDmaBufExternalOnly(t *testing.T) {
	const mod = drm.Modifier(1<<56 | 3)
	e := newEnv(t, 1, func(d *egltest.Driver) {
		d.Formats[drm.NV12] = []egl.ModifierInfo{{Modifier: mod, ExternalOnly: true}}
	})
	imported, err := e.provider.ImportDmaBuf(testBuffer(t, drm.NV12, mod), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer imported.Release()
	if imported.Target() != gl.TextureExternalOES {
		t.Errorf("target = 0x%x, want TEXTURE_EXTERNAL_OES", imported.Target())
	}
}

func TestImportWaylandBuffer(t *testing.T) {
	e := newEnv(t, 1, func(d *egltest.Driver) {
		d.WaylandBuffers = map[uintptr]egl.WaylandBufferInfo{
			10: {Size: graphics.Size{Width: 32, Height: 16}, TextureFormat: egl.TextureRGB, YInverted: true},
			11: {Size: graphics.Size{Width: 8, Height: 8}, TextureFormat: egl.TextureExternalWL},
		}
	})

	tex, err := e.provider.ImportWaylandBuffer(10, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Release()
	if tex.Format() != drm.XRGB8888 || tex.Layout() != graphics.LayoutTopRowFirst {
		t.Errorf("format %s layout %s", tex.Format(), tex.Layout())
	}
	if tex.Size() != (graphics.Size{Width: 32, Height: 16}) {
		t.Errorf("size = %s", tex.Size())
	}

	ext, err := e.provider.ImportWaylandBuffer(11, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer ext.Release()
	if ext.Target() != gl.TextureExternalOES || ext.Format() != drm.ARGB8888 {
		t.Errorf("target 0x%x format %s", ext.Target(), ext.Format())
	}

	if _, err := e.provider.ImportWaylandBuffer(12, nil, nil); err == nil {
		t.Error("unknown wl_buffer imported")
	}
	if e.driver.LiveImages() != 0 {
		t.Error("EGLImage leaked")
	}
}

func TestImportWaylandBufferWithoutBind(t *testing.T) {
	e := newEnv(t, 1, func(d *egltest.Driver) {
		d.ExtensionList = []string{"EGL_KHR_image_base", "EGL_EXT_image_dma_buf_import"}
	})
	if _, err := e.provider.ImportWaylandBuffer(1, nil, nil); !errors.Is(err, ErrNoWaylandBind) {
		t.Errorf("err = %v, want ErrNoWaylandBind", err)
	}
}
