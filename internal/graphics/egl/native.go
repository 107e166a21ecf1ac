//go:build egl

package egl

/*
#cgo LDFLAGS: -lEGL
#include <stdlib.h>
#include <string.h>
#include <EGL/egl.h>
#include <EGL/eglext.h>

typedef void *EGLImageKHR_;
typedef void *EGLSyncKHR_;
typedef void *EGLDeviceEXT_;

typedef EGLDisplay (*get_platform_display_fn)(EGLenum, void *, const EGLint *);
typedef EGLBoolean (*query_devices_fn)(EGLint, EGLDeviceEXT_ *, EGLint *);
typedef const char *(*query_device_string_fn)(EGLDeviceEXT_, EGLint);
typedef EGLImageKHR_ (*create_image_fn)(EGLDisplay, EGLContext, EGLenum, EGLClientBuffer, const EGLint *);
typedef EGLBoolean (*destroy_image_fn)(EGLDisplay, EGLImageKHR_);
typedef EGLBoolean (*query_formats_fn)(EGLDisplay, EGLint, EGLint *, EGLint *);
typedef EGLBoolean (*query_modifiers_fn)(EGLDisplay, EGLint, EGLint, EGLuint64KHR *, EGLBoolean *, EGLint *);
typedef EGLBoolean (*export_query_fn)(EGLDisplay, EGLImageKHR_, int *, int *, EGLuint64KHR *);
typedef EGLBoolean (*export_fn)(EGLDisplay, EGLImageKHR_, int *, EGLint *, EGLint *);
typedef EGLSyncKHR_ (*create_sync_fn)(EGLDisplay, EGLenum, const EGLint *);
typedef EGLBoolean (*destroy_sync_fn)(EGLDisplay, EGLSyncKHR_);
typedef EGLint (*dup_fence_fn)(EGLDisplay, EGLSyncKHR_);
typedef EGLBoolean (*bind_wl_display_fn)(EGLDisplay, void *);
typedef EGLBoolean (*query_wl_buffer_fn)(EGLDisplay, void *, EGLint, EGLint *);
typedef void (*image_target_texture_fn)(unsigned int, void *);
typedef void (*gl_flush_fn)(void);

static get_platform_display_fn p_get_platform_display;
static query_devices_fn p_query_devices;
static query_device_string_fn p_query_device_string;
static create_image_fn p_create_image;
static destroy_image_fn p_destroy_image;
static query_formats_fn p_query_formats;
static query_modifiers_fn p_query_modifiers;
static export_query_fn p_export_query;
static export_fn p_export;
static create_sync_fn p_create_sync;
static destroy_sync_fn p_destroy_sync;
static dup_fence_fn p_dup_fence;
static bind_wl_display_fn p_bind_wl_display;
static query_wl_buffer_fn p_query_wl_buffer;
static image_target_texture_fn p_image_target_texture;
static gl_flush_fn p_gl_flush;

static void wlc_load_procs(void) {
	p_get_platform_display = (get_platform_display_fn)eglGetProcAddress("eglGetPlatformDisplayEXT");
	p_query_devices = (query_devices_fn)eglGetProcAddress("eglQueryDevicesEXT");
	p_query_device_string = (query_device_string_fn)eglGetProcAddress("eglQueryDeviceStringEXT");
	p_create_image = (create_image_fn)eglGetProcAddress("eglCreateImageKHR");
	p_destroy_image = (destroy_image_fn)eglGetProcAddress("eglDestroyImageKHR");
	p_query_formats = (query_formats_fn)eglGetProcAddress("eglQueryDmaBufFormatsEXT");
	p_query_modifiers = (query_modifiers_fn)eglGetProcAddress("eglQueryDmaBufModifiersEXT");
	p_export_query = (export_query_fn)eglGetProcAddress("eglExportDMABUFImageQueryMESA");
	p_export = (export_fn)eglGetProcAddress("eglExportDMABUFImageMESA");
	p_create_sync = (create_sync_fn)eglGetProcAddress("eglCreateSyncKHR");
	p_destroy_sync = (destroy_sync_fn)eglGetProcAddress("eglDestroySyncKHR");
	p_dup_fence = (dup_fence_fn)eglGetProcAddress("eglDupNativeFenceFDANDROID");
	p_bind_wl_display = (bind_wl_display_fn)eglGetProcAddress("eglBindWaylandDisplayWL");
	p_query_wl_buffer = (query_wl_buffer_fn)eglGetProcAddress("eglQueryWaylandBufferWL");
	p_image_target_texture = (image_target_texture_fn)eglGetProcAddress("glEGLImageTargetTexture2DOES");
	p_gl_flush = (gl_flush_fn)eglGetProcAddress("glFlush");
}

static EGLImageKHR_ wlc_create_image(EGLDisplay dpy, EGLContext ctx, EGLenum target, EGLClientBuffer buf, const EGLint *attribs) {
	return p_create_image(dpy, ctx, target, buf, attribs);
}

static EGLBoolean wlc_destroy_image(EGLDisplay dpy, EGLImageKHR_ img) {
	return p_destroy_image(dpy, img);
}

static EGLBoolean wlc_query_formats(EGLDisplay dpy, EGLint max, EGLint *formats, EGLint *n) {
	return p_query_formats(dpy, max, formats, n);
}

static EGLBoolean wlc_query_modifiers(EGLDisplay dpy, EGLint format, EGLint max, EGLuint64KHR *mods, EGLBoolean *external, EGLint *n) {
	return p_query_modifiers(dpy, format, max, mods, external, n);
}

static EGLBoolean wlc_export_query(EGLDisplay dpy, EGLImageKHR_ img, int *fourcc, int *planes, EGLuint64KHR *modifier) {
	return p_export_query(dpy, img, fourcc, planes, modifier);
}

static EGLBoolean wlc_export(EGLDisplay dpy, EGLImageKHR_ img, int *fds, EGLint *strides, EGLint *offsets) {
	return p_export(dpy, img, fds, strides, offsets);
}

static EGLBoolean wlc_bind_wl_display(EGLDisplay dpy, void *display) {
	return p_bind_wl_display(dpy, display);
}

static EGLBoolean wlc_query_wl_buffer(EGLDisplay dpy, void *buffer, EGLint attr, EGLint *value) {
	return p_query_wl_buffer(dpy, buffer, attr, value);
}

#define WLC_PLATFORM_DEVICE 0x313F
#define WLC_PLATFORM_SURFACELESS 0x31DD
#define WLC_DRM_RENDER_NODE_FILE 0x3377
#define WLC_SYNC_NATIVE_FENCE 0x3144
#define WLC_CONTEXT_MAJOR_VERSION 0x3098

// Opens the EGL device whose render node matches node, or the surfaceless
// platform when node is empty.
static EGLDisplay wlc_open_display(const char *node) {
	if (!p_get_platform_display)
		return EGL_NO_DISPLAY;
	if (node == NULL || node[0] == '\0')
		return p_get_platform_display(WLC_PLATFORM_SURFACELESS, EGL_DEFAULT_DISPLAY, NULL);
	if (!p_query_devices || !p_query_device_string)
		return EGL_NO_DISPLAY;

	EGLDeviceEXT_ devices[16];
	EGLint n = 0;
	if (!p_query_devices(16, devices, &n))
		return EGL_NO_DISPLAY;
	for (EGLint i = 0; i < n; i++) {
		const char *file = p_query_device_string(devices[i], WLC_DRM_RENDER_NODE_FILE);
		if (file && strcmp(file, node) == 0)
			return p_get_platform_display(WLC_PLATFORM_DEVICE, devices[i], NULL);
	}
	return EGL_NO_DISPLAY;
}

static EGLContext wlc_create_context(EGLDisplay dpy, EGLConfig cfg) {
	EGLint attribs[] = {WLC_CONTEXT_MAJOR_VERSION, 3, EGL_NONE};
	return eglCreateContext(dpy, cfg, EGL_NO_CONTEXT, attribs);
}

static EGLint wlc_native_fence(EGLDisplay dpy) {
	if (!p_create_sync || !p_dup_fence || !p_destroy_sync)
		return -1;
	EGLint attribs[] = {EGL_NONE};
	EGLSyncKHR_ sync = p_create_sync(dpy, WLC_SYNC_NATIVE_FENCE, attribs);
	if (sync == NULL)
		return -1;
	if (p_gl_flush)
		p_gl_flush();
	EGLint fd = p_dup_fence(dpy, sync);
	p_destroy_sync(dpy, sync);
	return fd;
}

static EGLint wlc_image_target(unsigned int target, void *img) {
	if (!p_image_target_texture)
		return EGL_BAD_PARAMETER;
	p_image_target_texture(target, img);
	return EGL_SUCCESS;
}
*/
import "C"

import (
	"strings"
	"unsafe"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/matjam/wlcore/internal/graphics"
	"github.com/matjam/wlcore/internal/graphics/drm"
)

type nativeDriver struct {
	display    C.EGLDisplay
	context    C.EGLContext
	config     C.EGLConfig
	extensions string
}

func lastError(op string) error {
	return &Error{Op: op, Code: int32(C.eglGetError())}
}

// Open initializes EGL on the render node (or the surfaceless platform if
// renderNode is empty) and creates the context the executor will own.
func Open(renderNode string) (Driver, error) {
	C.wlc_load_procs()

	cnode := C.CString(renderNode)
	defer C.free(unsafe.Pointer(cnode))

	dpy := C.wlc_open_display(cnode)
	if dpy == nil {
		return nil, errors.Errorf("no EGL display for render node %q", renderNode)
	}
	var major, minor C.EGLint
	if C.eglInitialize(dpy, &major, &minor) == C.EGL_FALSE {
		return nil, lastError("eglInitialize")
	}
	log.Debugf("EGL %d.%d initialized", major, minor)

	if C.eglBindAPI(C.EGL_OPENGL_ES_API) == C.EGL_FALSE {
		C.eglTerminate(dpy)
		return nil, lastError("eglBindAPI")
	}

	d := &nativeDriver{display: dpy}
	client := C.GoString(C.eglQueryString(nil, C.EGL_EXTENSIONS))
	display := C.GoString(C.eglQueryString(dpy, C.EGL_EXTENSIONS))
	d.extensions = strings.TrimSpace(client + " " + display)

	cfg, _, err := ChooseConfig(d, drm.ARGB8888, 0)
	if err != nil {
		C.eglTerminate(dpy)
		return nil, err
	}
	d.config = C.EGLConfig(unsafe.Pointer(cfg))

	d.context = C.wlc_create_context(dpy, d.config)
	if d.context == nil {
		C.eglTerminate(dpy)
		return nil, lastError("eglCreateContext")
	}
	return d, nil
}

func (d *nativeDriver) Display() Display   { return Display(unsafe.Pointer(d.display)) }
func (d *nativeDriver) Context() Context   { return Context(unsafe.Pointer(d.context)) }
func (d *nativeDriver) Extensions() string { return d.extensions }

func (d *nativeDriver) MakeCurrent() error {
	if C.eglMakeCurrent(d.display, nil, nil, d.context) == C.EGL_FALSE {
		return lastError("eglMakeCurrent")
	}
	return nil
}

func (d *nativeDriver) ReleaseCurrent() error {
	if C.eglMakeCurrent(d.display, nil, nil, nil) == C.EGL_FALSE {
		return lastError("eglMakeCurrent")
	}
	return nil
}

func cAttribs(attribs []int32) []C.EGLint {
	out := make([]C.EGLint, len(attribs))
	for i, a := range attribs {
		out[i] = C.EGLint(a)
	}
	return out
}

func (d *nativeDriver) ChooseConfigs(attribs []int32) ([]Config, error) {
	ca := cAttribs(attribs)
	var n C.EGLint
	if C.eglChooseConfig(d.display, &ca[0], nil, 0, &n) == C.EGL_FALSE {
		return nil, lastError("eglChooseConfig")
	}
	if n == 0 {
		return nil, nil
	}
	configs := make([]C.EGLConfig, n)
	if C.eglChooseConfig(d.display, &ca[0], &configs[0], n, &n) == C.EGL_FALSE {
		return nil, lastError("eglChooseConfig")
	}
	out := make([]Config, n)
	for i := range out {
		out[i] = Config(unsafe.Pointer(configs[i]))
	}
	return out, nil
}

func (d *nativeDriver) ConfigAttrib(cfg Config, attr int32) (int32, error) {
	var v C.EGLint
	if C.eglGetConfigAttrib(d.display, C.EGLConfig(unsafe.Pointer(cfg)), C.EGLint(attr), &v) == C.EGL_FALSE {
		return 0, lastError("eglGetConfigAttrib")
	}
	return int32(v), nil
}

func (d *nativeDriver) CreateImage(target int32, buffer uintptr, attribs []int32) (Image, error) {
	if C.p_create_image == nil {
		return NoImage, errors.Wrap(ErrMissingExtension, "eglCreateImageKHR")
	}
	ca := cAttribs(attribs)
	var ctx C.EGLContext
	if target == GLTexture2D {
		ctx = d.context
	}
	img := C.wlc_create_image(d.display, ctx, C.EGLenum(target), C.EGLClientBuffer(unsafe.Pointer(buffer)), &ca[0])
	if img == nil {
		return NoImage, lastError("eglCreateImageKHR")
	}
	return Image(unsafe.Pointer(img)), nil
}

func (d *nativeDriver) DestroyImage(img Image) error {
	if C.wlc_destroy_image(d.display, C.EGLImageKHR_(unsafe.Pointer(img))) == C.EGL_FALSE {
		return lastError("eglDestroyImageKHR")
	}
	return nil
}

func (d *nativeDriver) QueryDmaBufFormats() ([]drm.Format, error) {
	if C.p_query_formats == nil {
		return nil, errors.Wrap(ErrMissingExtension, "eglQueryDmaBufFormatsEXT")
	}
	var n C.EGLint
	if C.wlc_query_formats(d.display, 0, nil, &n) == C.EGL_FALSE {
		return nil, lastError("eglQueryDmaBufFormatsEXT")
	}
	if n == 0 {
		return nil, nil
	}
	formats := make([]C.EGLint, n)
	if C.wlc_query_formats(d.display, n, &formats[0], &n) == C.EGL_FALSE {
		return nil, lastError("eglQueryDmaBufFormatsEXT")
	}
	out := make([]drm.Format, n)
	for i := range out {
		out[i] = drm.Format(uint32(formats[i]))
	}
	return out, nil
}

func (d *nativeDriver) QueryDmaBufModifiers(f drm.Format) ([]ModifierInfo, error) {
	if C.p_query_modifiers == nil {
		return nil, errors.Wrap(ErrMissingExtension, "eglQueryDmaBufModifiersEXT")
	}
	var n C.EGLint
	if C.wlc_query_modifiers(d.display, C.EGLint(f), 0, nil, nil, &n) == C.EGL_FALSE {
		return nil, lastError("eglQueryDmaBufModifiersEXT")
	}
	if n == 0 {
		return nil, nil
	}
	mods := make([]C.EGLuint64KHR, n)
	external := make([]C.EGLBoolean, n)
	if C.wlc_query_modifiers(d.display, C.EGLint(f), n, &mods[0], &external[0], &n) == C.EGL_FALSE {
		return nil, lastError("eglQueryDmaBufModifiersEXT")
	}
	out := make([]ModifierInfo, n)
	for i := range out {
		out[i] = ModifierInfo{
			Modifier:     drm.Modifier(mods[i]),
			ExternalOnly: external[i] != C.EGL_FALSE,
		}
	}
	return out, nil
}

func (d *nativeDriver) ExportDmaBufImage(img Image) (ExportedImage, error) {
	if C.p_export_query == nil || C.p_export == nil {
		return ExportedImage{}, errors.Wrap(ErrMissingExtension, "EGL_MESA_image_dma_buf_export")
	}
	cimg := C.EGLImageKHR_(unsafe.Pointer(img))
	var fourcc, planes C.int
	var modifier C.EGLuint64KHR
	if C.wlc_export_query(d.display, cimg, &fourcc, &planes, &modifier) == C.EGL_FALSE {
		return ExportedImage{}, lastError("eglExportDMABUFImageQueryMESA")
	}
	if planes < 1 || planes > MaxPlanes {
		return ExportedImage{}, errors.Errorf("export reported %d planes", planes)
	}
	var fds [MaxPlanes]C.int
	var strides, offsets [MaxPlanes]C.EGLint
	if C.wlc_export(d.display, cimg, &fds[0], &strides[0], &offsets[0]) == C.EGL_FALSE {
		return ExportedImage{}, lastError("eglExportDMABUFImageMESA")
	}
	out := ExportedImage{
		Format:   drm.Format(uint32(fourcc)),
		Modifier: drm.Modifier(modifier),
		Planes:   make([]graphics.PlaneDescriptor, planes),
	}
	for i := range out.Planes {
		var fd *graphics.Fd
		switch {
		case fds[i] >= 0:
			fd = graphics.NewFd(int(fds[i]))
		case i > 0:
			// Planes sharing the previous plane's buffer are reported as -1.
			fd = out.Planes[i-1].Fd.Ref()
		default:
			return ExportedImage{}, errors.New("driver exported no fd for plane 0")
		}
		out.Planes[i] = graphics.PlaneDescriptor{
			Fd:     fd,
			Stride: uint32(strides[i]),
			Offset: uint32(offsets[i]),
		}
	}
	return out, nil
}

func (d *nativeDriver) CreateNativeFence() (int, error) {
	fd := C.wlc_native_fence(d.display)
	if fd < 0 {
		return -1, lastError("eglDupNativeFenceFDANDROID")
	}
	return int(fd), nil
}

func (d *nativeDriver) BindWaylandDisplay(display uintptr) error {
	if C.p_bind_wl_display == nil {
		return errors.Wrap(ErrMissingExtension, "EGL_WL_bind_wayland_display")
	}
	if C.wlc_bind_wl_display(d.display, unsafe.Pointer(display)) == C.EGL_FALSE {
		return lastError("eglBindWaylandDisplayWL")
	}
	return nil
}

func (d *nativeDriver) QueryWaylandBuffer(buffer uintptr) (WaylandBufferInfo, error) {
	if C.p_query_wl_buffer == nil {
		return WaylandBufferInfo{}, errors.Wrap(ErrMissingExtension, "EGL_WL_bind_wayland_display")
	}
	query := func(attr int32) (int32, error) {
		var v C.EGLint
		if C.wlc_query_wl_buffer(d.display, unsafe.Pointer(buffer), C.EGLint(attr), &v) == C.EGL_FALSE {
			return 0, lastError("eglQueryWaylandBufferWL")
		}
		return int32(v), nil
	}
	var info WaylandBufferInfo
	w, err := query(Width)
	if err != nil {
		return info, err
	}
	h, err := query(Height)
	if err != nil {
		return info, err
	}
	tf, err := query(TextureFormat)
	if err != nil {
		return info, err
	}
	info.Size = graphics.Size{Width: int(w), Height: int(h)}
	info.TextureFormat = tf
	// EGL_WAYLAND_Y_INVERTED_WL is optional; absent means inverted.
	inverted, err := query(0x31DB)
	info.YInverted = err != nil || inverted != 0
	return info, nil
}

func (d *nativeDriver) ImageTargetTexture2D(target uint32, img Image) error {
	if code := C.wlc_image_target(C.uint(target), unsafe.Pointer(img)); code != C.EGL_SUCCESS {
		return &Error{Op: "glEGLImageTargetTexture2DOES", Code: int32(code)}
	}
	return nil
}

func (d *nativeDriver) Terminate() error {
	C.eglDestroyContext(d.display, d.context)
	if C.eglTerminate(d.display) == C.EGL_FALSE {
		return lastError("eglTerminate")
	}
	return nil
}
