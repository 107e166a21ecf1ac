// Package egltest provides an in-memory egl.Driver for tests.
package egltest

import (
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/matjam/wlcore/internal/graphics"
	"github.com/matjam/wlcore/internal/graphics/drm"
	"github.com/matjam/wlcore/internal/graphics/egl"
)

// DefaultExtensions is a driver with every feature the compositor knows
// about.
var DefaultExtensions = []string{
	"EGL_KHR_image_base",
	"EGL_EXT_image_dma_buf_import",
	"EGL_EXT_image_dma_buf_import_modifiers",
	"EGL_MESA_image_dma_buf_export",
	"EGL_KHR_gl_texture_2D_image",
	"EGL_WL_bind_wayland_display",
	"EGL_KHR_fence_sync",
	"EGL_ANDROID_native_fence_sync",
}

// ImageCall records one CreateImage call.
type ImageCall struct {
	Target  int32
	Buffer  uintptr
	Attribs []int32
}

// ConfigSpec is a config offered by ChooseConfigs.
type ConfigSpec struct {
	Red, Green, Blue, Alpha int32
}

// Driver is a fake egl.Driver. Fields may be set before first use; after
// that they are read under the driver's lock.
type Driver struct {
	DisplayID     egl.Display
	ContextID     egl.Context
	ExtensionList []string

	// Formats maps each format to its modifiers. Formats listed in
	// FailModifierQuery report an error from QueryDmaBufModifiers.
	Formats           map[drm.Format][]egl.ModifierInfo
	FailModifierQuery map[drm.Format]bool

	Configs []ConfigSpec

	// ImportError, if set, is returned from CreateImage for dma-buf
	// targets.
	ImportError error
	// DestroyError is returned from every DestroyImage call.
	DestroyError error
	// ExportFormat and ExportModifier describe images exported by
	// ExportDmaBufImage.
	ExportFormat   drm.Format
	ExportModifier drm.Modifier
	ExportError    error

	// FenceDelay delays signalling of native fences.
	FenceDelay time.Duration
	FenceError error

	WaylandBuffers map[uintptr]egl.WaylandBufferInfo

	MakeCurrentError error

	mu            sync.Mutex
	nextImage     egl.Image
	live          map[egl.Image]ImageCall
	imageCalls    []ImageCall
	destroyed     []egl.Image
	targetCalls   []egl.Image
	fences        int
	current       bool
	boundDisplays []uintptr
}

// New returns a driver with all extensions and ARGB8888/XRGB8888 support
// for linear and invalid modifiers.
func New(display egl.Display) *Driver {
	return &Driver{
		DisplayID:     display,
		ContextID:     egl.Context(display) + 1,
		ExtensionList: append([]string(nil), DefaultExtensions...),
		Formats: map[drm.Format][]egl.ModifierInfo{
			drm.ARGB8888: {{Modifier: drm.ModLinear}},
			drm.XRGB8888: {{Modifier: drm.ModLinear}},
		},
		Configs: []ConfigSpec{
			{8, 8, 8, 8},
		},
		ExportFormat:   drm.ARGB8888,
		ExportModifier: drm.ModLinear,
	}
}

func (d *Driver) Display() egl.Display { return d.DisplayID }
func (d *Driver) Context() egl.Context { return d.ContextID }

func (d *Driver) Extensions() string {
	return strings.Join(d.ExtensionList, " ")
}

func (d *Driver) MakeCurrent() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.MakeCurrentError != nil {
		return d.MakeCurrentError
	}
	d.current = true
	return nil
}

func (d *Driver) ReleaseCurrent() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current = false
	return nil
}

// Current reports whether the context is current on some thread.
func (d *Driver) Current() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

func (d *Driver) ChooseConfigs(attribs []int32) ([]egl.Config, error) {
	want := map[int32]int32{}
	for i := 0; i+1 < len(attribs); i += 2 {
		want[attribs[i]] = attribs[i+1]
	}
	var out []egl.Config
	for i, c := range d.Configs {
		if c.Red >= want[egl.RedSize] && c.Green >= want[egl.GreenSize] &&
			c.Blue >= want[egl.BlueSize] && c.Alpha >= want[egl.AlphaSize] {
			out = append(out, egl.Config(i+1))
		}
	}
	return out, nil
}

func (d *Driver) ConfigAttrib(cfg egl.Config, attr int32) (int32, error) {
	i := int(cfg) - 1
	if i < 0 || i >= len(d.Configs) {
		return 0, &egl.Error{Op: "eglGetConfigAttrib", Code: egl.BadConfig}
	}
	c := d.Configs[i]
	switch attr {
	case egl.RedSize:
		return c.Red, nil
	case egl.GreenSize:
		return c.Green, nil
	case egl.BlueSize:
		return c.Blue, nil
	case egl.AlphaSize:
		return c.Alpha, nil
	}
	return 0, &egl.Error{Op: "eglGetConfigAttrib", Code: egl.BadAttribute}
}

func (d *Driver) CreateImage(target int32, buffer uintptr, attribs []int32) (egl.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	call := ImageCall{Target: target, Buffer: buffer, Attribs: append([]int32(nil), attribs...)}
	d.imageCalls = append(d.imageCalls, call)
	if target == egl.LinuxDmaBuf && d.ImportError != nil {
		return egl.NoImage, d.ImportError
	}
	if target == egl.WaylandBufferWL {
		if _, ok := d.WaylandBuffers[buffer]; !ok {
			return egl.NoImage, &egl.Error{Op: "eglCreateImageKHR", Code: egl.BadParameter}
		}
	}
	if d.live == nil {
		d.live = make(map[egl.Image]ImageCall)
	}
	d.nextImage++
	d.live[d.nextImage] = call
	return d.nextImage, nil
}

func (d *Driver) DestroyImage(img egl.Image) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.live[img]; !ok {
		return &egl.Error{Op: "eglDestroyImageKHR", Code: egl.BadParameter}
	}
	delete(d.live, img)
	d.destroyed = append(d.destroyed, img)
	return d.DestroyError
}

// ImageCalls returns every CreateImage call so far.
func (d *Driver) ImageCalls() []ImageCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]ImageCall(nil), d.imageCalls...)
}

// LiveImages is the number of images created and not destroyed.
func (d *Driver) LiveImages() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

func (d *Driver) Destroyed() []egl.Image {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]egl.Image(nil), d.destroyed...)
}

func (d *Driver) QueryDmaBufFormats() ([]drm.Format, error) {
	var out []drm.Format
	for f := range d.Formats {
		out = append(out, f)
	}
	return out, nil
}

func (d *Driver) QueryDmaBufModifiers(f drm.Format) ([]egl.ModifierInfo, error) {
	if d.FailModifierQuery[f] {
		return nil, &egl.Error{Op: "eglQueryDmaBufModifiersEXT", Code: egl.BadParameter}
	}
	return d.Formats[f], nil
}

func (d *Driver) ExportDmaBufImage(img egl.Image) (egl.ExportedImage, error) {
	if d.ExportError != nil {
		return egl.ExportedImage{}, d.ExportError
	}
	d.mu.Lock()
	_, ok := d.live[img]
	d.mu.Unlock()
	if !ok {
		return egl.ExportedImage{}, &egl.Error{Op: "eglExportDMABUFImageMESA", Code: egl.BadParameter}
	}
	fd, err := unix.MemfdCreate("egltest-export", unix.MFD_CLOEXEC)
	if err != nil {
		return egl.ExportedImage{}, errors.Wrap(err, "memfd_create")
	}
	if err := unix.Ftruncate(fd, 1<<16); err != nil {
		unix.Close(fd)
		return egl.ExportedImage{}, errors.Wrap(err, "ftruncate")
	}
	return egl.ExportedImage{
		Format:   d.ExportFormat,
		Modifier: d.ExportModifier,
		Planes:   []graphics.PlaneDescriptor{{Fd: graphics.NewFd(fd), Stride: 256}},
	}, nil
}

// CreateNativeFence returns the read end of a pipe that becomes readable
// after FenceDelay.
func (d *Driver) CreateNativeFence() (int, error) {
	if d.FenceError != nil {
		return -1, d.FenceError
	}
	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_CLOEXEC); err != nil {
		return -1, err
	}
	signal := func() {
		unix.Write(p[1], []byte{1})
		unix.Close(p[1])
	}
	if d.FenceDelay > 0 {
		time.AfterFunc(d.FenceDelay, signal)
	} else {
		signal()
	}
	d.mu.Lock()
	d.fences++
	d.mu.Unlock()
	return p[0], nil
}

func (d *Driver) Fences() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fences
}

func (d *Driver) BindWaylandDisplay(display uintptr) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.boundDisplays = append(d.boundDisplays, display)
	return nil
}

func (d *Driver) QueryWaylandBuffer(buffer uintptr) (egl.WaylandBufferInfo, error) {
	info, ok := d.WaylandBuffers[buffer]
	if !ok {
		return egl.WaylandBufferInfo{}, &egl.Error{Op: "eglQueryWaylandBufferWL", Code: egl.BadParameter}
	}
	return info, nil
}

func (d *Driver) ImageTargetTexture2D(_ uint32, img egl.Image) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.live[img]; !ok {
		return &egl.Error{Op: "glEGLImageTargetTexture2DOES", Code: egl.BadParameter}
	}
	d.targetCalls = append(d.targetCalls, img)
	return nil
}

func (d *Driver) Terminate() error { return nil }

// TextureTargets returns the images bound to textures so far.
func (d *Driver) TextureTargets() []egl.Image {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]egl.Image(nil), d.targetCalls...)
}

func (d *Driver) BoundDisplays() []uintptr {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]uintptr(nil), d.boundDisplays...)
}
