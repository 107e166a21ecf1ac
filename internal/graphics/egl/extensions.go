package egl

import (
	"strings"

	"github.com/pkg/errors"
)

var ErrMissingExtension = errors.New("required EGL extension missing")

// Extensions records which optional EGL features the driver offers. It is
// filled once by Probe and never changes afterwards.
type Extensions struct {
	ImageBase       bool `json:"image_base"`
	DmaBufImport    bool `json:"dma_buf_import"`
	DmaBufModifiers bool `json:"dma_buf_import_modifiers"`
	DmaBufExport    bool `json:"dma_buf_export"`
	GLTextureImage  bool `json:"gl_texture_image"`
	WaylandBind     bool `json:"wayland_bind"`
	NativeFence     bool `json:"native_fence"`
}

// CanExport reports whether images can be turned back into dma-bufs, which
// the cross-GPU path needs on the source side.
func (e *Extensions) CanExport() bool {
	return e.DmaBufExport && e.GLTextureImage
}

func hasExtension(list []string, name string) bool {
	for _, ext := range list {
		if ext == name {
			return true
		}
	}
	return false
}

// Probe checks the driver's extension string. EGL_KHR_image_base and
// EGL_EXT_image_dma_buf_import are required; everything else is optional.
func Probe(d Driver) (*Extensions, error) {
	list := strings.Fields(d.Extensions())
	has := func(name string) bool { return hasExtension(list, name) }

	ext := &Extensions{
		ImageBase:       has("EGL_KHR_image_base"),
		DmaBufImport:    has("EGL_EXT_image_dma_buf_import"),
		DmaBufModifiers: has("EGL_EXT_image_dma_buf_import_modifiers"),
		DmaBufExport:    has("EGL_MESA_image_dma_buf_export"),
		GLTextureImage:  has("EGL_KHR_gl_texture_2D_image"),
		WaylandBind:     has("EGL_WL_bind_wayland_display"),
		NativeFence:     has("EGL_KHR_fence_sync") && has("EGL_ANDROID_native_fence_sync"),
	}

	if !ext.ImageBase {
		return nil, errors.Wrap(ErrMissingExtension, "EGL_KHR_image_base")
	}
	if !ext.DmaBufImport {
		return nil, errors.Wrap(ErrMissingExtension, "EGL_EXT_image_dma_buf_import")
	}
	return ext, nil
}
