// Package egl wraps the parts of EGL the compositor uses to import client
// buffers. Everything driver specific sits behind Driver so the rest of
// the graphics stack can be exercised without a GPU.
package egl

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/matjam/wlcore/internal/graphics"
	"github.com/matjam/wlcore/internal/graphics/drm"
)

type (
	Display uintptr
	Context uintptr
	Config  uintptr
	Image   uintptr
)

const (
	NoDisplay Display = 0
	NoContext Context = 0
	NoImage   Image   = 0
)

// Attribute names and values, from egl.h and eglext.h.
const (
	None      int32 = 0x3038
	True      int32 = 1
	AlphaSize int32 = 0x3021
	BlueSize  int32 = 0x3022
	GreenSize int32 = 0x3023
	RedSize   int32 = 0x3024

	SurfaceType    int32 = 0x3033
	RenderableType int32 = 0x3040
	PbufferBit     int32 = 0x0001
	WindowBit      int32 = 0x0004
	OpenGLES2Bit   int32 = 0x0004

	Height int32 = 0x3056
	Width  int32 = 0x3057

	TextureFormat     int32 = 0x3080
	TextureRGB        int32 = 0x305D
	TextureRGBA       int32 = 0x305E
	TextureExternalWL int32 = 0x31DA

	ImagePreserved int32 = 0x30D2

	GLTexture2D      int32 = 0x30B1
	WaylandBufferWL  int32 = 0x31D5
	WaylandPlaneWL   int32 = 0x31D6
	LinuxDmaBuf      int32 = 0x3270
	LinuxDRMFourcc   int32 = 0x3271
	DmaBufPlane0Fd   int32 = 0x3272
	DmaBufPlane0Off  int32 = 0x3273
	DmaBufPlane0Pit  int32 = 0x3274
	DmaBufPlane1Fd   int32 = 0x3275
	DmaBufPlane1Off  int32 = 0x3276
	DmaBufPlane1Pit  int32 = 0x3277
	DmaBufPlane2Fd   int32 = 0x3278
	DmaBufPlane2Off  int32 = 0x3279
	DmaBufPlane2Pit  int32 = 0x327A
	DmaBufPlane3Fd   int32 = 0x3440
	DmaBufPlane3Off  int32 = 0x3441
	DmaBufPlane3Pit  int32 = 0x3442
	DmaBufPlane0ModL int32 = 0x3443
	DmaBufPlane0ModH int32 = 0x3444
	DmaBufPlane1ModL int32 = 0x3445
	DmaBufPlane1ModH int32 = 0x3446
	DmaBufPlane2ModL int32 = 0x3447
	DmaBufPlane2ModH int32 = 0x3448
	DmaBufPlane3ModL int32 = 0x3449
	DmaBufPlane3ModH int32 = 0x344A
)

// MaxPlanes is the number of planes EGL_EXT_image_dma_buf_import can
// describe.
const MaxPlanes = 4

// PlaneAttribs holds the fd, offset, pitch, modifier-low and modifier-high
// attribute names for one plane.
var PlaneAttribs = [MaxPlanes][5]int32{
	{DmaBufPlane0Fd, DmaBufPlane0Off, DmaBufPlane0Pit, DmaBufPlane0ModL, DmaBufPlane0ModH},
	{DmaBufPlane1Fd, DmaBufPlane1Off, DmaBufPlane1Pit, DmaBufPlane1ModL, DmaBufPlane1ModH},
	{DmaBufPlane2Fd, DmaBufPlane2Off, DmaBufPlane2Pit, DmaBufPlane2ModL, DmaBufPlane2ModH},
	{DmaBufPlane3Fd, DmaBufPlane3Off, DmaBufPlane3Pit, DmaBufPlane3ModL, DmaBufPlane3ModH},
}

// Error codes returned by eglGetError.
const (
	Success           int32 = 0x3000
	NotInitialized    int32 = 0x3001
	BadAccess         int32 = 0x3002
	BadAlloc          int32 = 0x3003
	BadAttribute      int32 = 0x3004
	BadConfig         int32 = 0x3005
	BadContext        int32 = 0x3006
	BadCurrentSurface int32 = 0x3007
	BadDisplay        int32 = 0x3008
	BadMatch          int32 = 0x3009
	BadNativePixmap   int32 = 0x300A
	BadNativeWindow   int32 = 0x300B
	BadParameter      int32 = 0x300C
	BadSurface        int32 = 0x300D
	ContextLost       int32 = 0x300E
)

var errorNames = map[int32]string{
	Success:           "EGL_SUCCESS",
	NotInitialized:    "EGL_NOT_INITIALIZED",
	BadAccess:         "EGL_BAD_ACCESS",
	BadAlloc:          "EGL_BAD_ALLOC",
	BadAttribute:      "EGL_BAD_ATTRIBUTE",
	BadConfig:         "EGL_BAD_CONFIG",
	BadContext:        "EGL_BAD_CONTEXT",
	BadCurrentSurface: "EGL_BAD_CURRENT_SURFACE",
	BadDisplay:        "EGL_BAD_DISPLAY",
	BadMatch:          "EGL_BAD_MATCH",
	BadNativePixmap:   "EGL_BAD_NATIVE_PIXMAP",
	BadNativeWindow:   "EGL_BAD_NATIVE_WINDOW",
	BadParameter:      "EGL_BAD_PARAMETER",
	BadSurface:        "EGL_BAD_SURFACE",
	ContextLost:       "EGL_CONTEXT_LOST",
}

// Error is a failure reported by the EGL implementation.
type Error struct {
	Op   string
	Code int32
}

func (e *Error) Error() string {
	name, ok := errorNames[e.Code]
	if !ok {
		name = "unknown EGL error"
	}
	return fmt.Sprintf("%s: %s (0x%04x)", e.Op, name, e.Code)
}

// IsError reports whether err was produced by the EGL implementation rather
// than by our own validation.
func IsError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// ModifierInfo is one modifier supported for a format. ExternalOnly
// modifiers can only be sampled through GL_TEXTURE_EXTERNAL_OES.
type ModifierInfo struct {
	Modifier     drm.Modifier `json:"modifier"`
	ExternalOnly bool         `json:"external_only"`
}

// ExportedImage describes a dma-buf exported from an EGLImage. The plane
// descriptors are owned by the caller.
type ExportedImage struct {
	Format   drm.Format
	Modifier drm.Modifier
	Planes   []graphics.PlaneDescriptor
}

// WaylandBufferInfo is what eglQueryWaylandBufferWL reports for a buffer.
type WaylandBufferInfo struct {
	Size          graphics.Size
	TextureFormat int32
	YInverted     bool
}

// Driver is the EGL surface used by the rest of the graphics stack. All
// methods except Extensions must be called on the thread that has the
// driver's context current, which in practice means from a
// ContextExecutor task.
type Driver interface {
	Display() Display
	Context() Context
	// Extensions returns the space separated client and display extension
	// strings.
	Extensions() string

	MakeCurrent() error
	ReleaseCurrent() error

	ChooseConfigs(attribs []int32) ([]Config, error)
	ConfigAttrib(cfg Config, attr int32) (int32, error)

	CreateImage(target int32, buffer uintptr, attribs []int32) (Image, error)
	DestroyImage(img Image) error

	QueryDmaBufFormats() ([]drm.Format, error)
	QueryDmaBufModifiers(f drm.Format) ([]ModifierInfo, error)
	ExportDmaBufImage(img Image) (ExportedImage, error)

	// CreateNativeFence inserts a fence into the command stream and returns
	// a file descriptor that becomes readable when it signals.
	CreateNativeFence() (int, error)

	BindWaylandDisplay(display uintptr) error
	QueryWaylandBuffer(buffer uintptr) (WaylandBufferInfo, error)

	// ImageTargetTexture2D is glEGLImageTargetTexture2DOES.
	ImageTargetTexture2D(target uint32, img Image) error

	Terminate() error
}
