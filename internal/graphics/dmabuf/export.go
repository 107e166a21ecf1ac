package dmabuf

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/matjam/wlcore/internal/graphics"
	"github.com/matjam/wlcore/internal/graphics/drm"
	"github.com/matjam/wlcore/internal/graphics/egl"
	"github.com/matjam/wlcore/internal/graphics/gl"
)

// ExportedBuffer is a dma-buf exported from one of our own EGLImages.
type ExportedBuffer struct {
	size     graphics.Size
	format   drm.Format
	modifier drm.Modifier
	planes   []graphics.PlaneDescriptor
}

func (b *ExportedBuffer) Size() graphics.Size                { return b.size }
func (b *ExportedBuffer) Format() drm.Format                 { return b.format }
func (b *ExportedBuffer) Layout() graphics.Layout            { return graphics.LayoutTopRowFirst }
func (b *ExportedBuffer) Planes() []graphics.PlaneDescriptor { return b.planes }

func (b *ExportedBuffer) Modifier() (drm.Modifier, bool) {
	return b.modifier, b.modifier != drm.ModInvalid
}

func (b *ExportedBuffer) Destroy() error {
	return graphics.ClosePlanes(b.planes)
}

// export must run on the executor.
func (p *Provider) export(img egl.Image, size graphics.Size) (*ExportedBuffer, error) {
	if !p.ext.DmaBufExport {
		return nil, errors.Wrap(egl.ErrMissingExtension, "EGL_MESA_image_dma_buf_export")
	}
	out, err := p.driver.ExportDmaBufImage(img)
	if err != nil {
		return nil, errors.Wrap(err, "export EGLImage to dma-buf")
	}
	return &ExportedBuffer{
		size:     size,
		format:   out.Format,
		modifier: out.Modifier,
		planes:   out.Planes,
	}, nil
}

// Export turns an EGLImage owned by this provider's display into a dma-buf.
func (p *Provider) Export(img egl.Image, size graphics.Size) (*ExportedBuffer, error) {
	var out *ExportedBuffer
	err := p.exec.Run(func() error {
		var err error
		out, err = p.export(img, size)
		return err
	})
	return out, err
}

// TextureAllocator allocates buffers by creating a GL texture and
// exporting it. The layout is whatever the driver picks for textures, so
// the requested modifiers are only a hint.
type TextureAllocator struct {
	provider *Provider
}

func NewTextureAllocator(p *Provider) *TextureAllocator {
	return &TextureAllocator{provider: p}
}

// Allocate must be called on the provider's executor.
func (a *TextureAllocator) Allocate(format drm.Format, _ []drm.Modifier, size graphics.Size) (graphics.DMABufBuffer, error) {
	p := a.provider
	if format != drm.ARGB8888 && format != drm.XRGB8888 {
		return nil, errors.Errorf("cannot allocate %s textures", format)
	}
	if !p.ext.GLTextureImage {
		return nil, errors.Wrap(egl.ErrMissingExtension, "EGL_KHR_gl_texture_2D_image")
	}

	tex := p.gl.GenTexture()
	defer p.gl.DeleteTexture(tex)
	p.gl.BindTexture(gl.Texture2D, tex)
	p.gl.TexImage2D(gl.Texture2D, int32(size.Width), int32(size.Height), gl.RGBA, gl.UnsignedByte, nil)
	p.gl.BindTexture(gl.Texture2D, 0)

	img, err := p.driver.CreateImage(egl.GLTexture2D, uintptr(tex), []int32{egl.ImagePreserved, egl.True, egl.None})
	if err != nil {
		return nil, errors.Wrap(err, "create image from texture")
	}
	out, err := p.export(img, size)
	err = multierr.Append(err, p.driver.DestroyImage(img))
	if err != nil {
		if out != nil {
			out.Destroy()
		}
		return nil, err
	}
	return out, nil
}
