// Package dmabuf imports client dma-bufs as GL textures and implements the
// linux-dmabuf protocol objects on top of that.
package dmabuf

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/matjam/wlcore/internal/graphics"
	"github.com/matjam/wlcore/internal/graphics/blit"
	"github.com/matjam/wlcore/internal/graphics/drm"
	"github.com/matjam/wlcore/internal/graphics/egl"
	"github.com/matjam/wlcore/internal/graphics/gl"
)

// FenceTimeout bounds how long the cross-GPU path waits for a blit.
const FenceTimeout = 2 * time.Second

// Allocator allocates a buffer the provider's own display can import.
// It is called on the allocating provider's executor thread.
type Allocator interface {
	Allocate(format drm.Format, modifiers []drm.Modifier, size graphics.Size) (graphics.DMABufBuffer, error)
}

// Provider imports dma-bufs on one EGL display.
type Provider struct {
	driver    egl.Driver
	gl        gl.Functions
	exec      egl.Executor
	ext       *egl.Extensions
	formats   *FormatDescriptors
	allocator Allocator
	copier    *blit.Copier
	logger    *log.Logger
}

type ProviderOptions struct {
	Driver     egl.Driver
	GL         gl.Functions
	Executor   egl.Executor
	Extensions *egl.Extensions
	// Allocator defaults to a TextureAllocator on this provider.
	Allocator Allocator
}

// NewProvider queries the importable formats once; the table does not
// change afterwards.
func NewProvider(opts ProviderOptions) (*Provider, error) {
	p := &Provider{
		driver:    opts.Driver,
		gl:        opts.GL,
		exec:      opts.Executor,
		ext:       opts.Extensions,
		allocator: opts.Allocator,
		logger:    log.WithPrefix("dmabuf"),
	}
	err := p.exec.Run(func() error {
		var err error
		p.formats, err = QueryFormats(p.driver, p.ext)
		return err
	})
	if err != nil {
		return nil, err
	}
	if p.allocator == nil {
		p.allocator = &TextureAllocator{provider: p}
	}
	p.copier = blit.NewCopier(p.exec, p.gl, p.driver, p.ext)
	p.logger.Debugf("%d importable formats", p.formats.Len())
	return p, nil
}

func (p *Provider) Formats() *FormatDescriptors {
	return p.formats
}

func (p *Provider) Extensions() *egl.Extensions {
	return p.ext
}

func (p *Provider) Display() egl.Display {
	return p.driver.Display()
}

// createImage must run on the executor.
func (p *Provider) createImage(buf graphics.DMABufBuffer) (egl.Image, error) {
	img, err := p.driver.CreateImage(egl.LinuxDmaBuf, 0, importAttribs(buf))
	if err != nil {
		msg := "failed to import supplied dmabuf"
		if len(buf.Planes()) > 1 {
			msg += "s"
		}
		return egl.NoImage, errors.Wrap(err, msg)
	}
	return img, nil
}

// ValidateImport checks that buf can be turned into an EGLImage and throws
// the image away again.
func (p *Provider) ValidateImport(buf graphics.DMABufBuffer) error {
	return p.exec.Run(func() error {
		img, err := p.createImage(buf)
		if err != nil {
			return err
		}
		return p.driver.DestroyImage(img)
	})
}

// importTexture must run on the executor. The texture keeps the buffer
// contents alive after the EGLImage is destroyed.
func (p *Provider) importTexture(buf graphics.DMABufBuffer, tt TextureType) (uint32, error) {
	img, err := p.createImage(buf)
	if err != nil {
		return 0, err
	}

	target := tt.Target()
	tex := p.gl.GenTexture()
	p.gl.BindTexture(target, tex)
	bindErr := p.driver.ImageTargetTexture2D(target, img)
	err = multierr.Append(bindErr, p.driver.DestroyImage(img))
	if bindErr != nil {
		p.gl.DeleteTexture(tex)
		return 0, err
	}
	if err != nil {
		p.logger.Warnf("failed to destroy EGLImage: %v", err)
	}
	gl.SetSamplingParams(p.gl, target)
	return tex, nil
}

func (p *Provider) lookup(buf graphics.DMABufBuffer) (TextureType, bool) {
	modifier, ok := buf.Modifier()
	if !ok {
		modifier = drm.ModInvalid
	}
	return p.formats.Lookup(buf.Format(), modifier)
}

// ImportDmaBuf imports a validated client buffer as a texture. onConsumed
// runs the first time the texture is used and onRelease when the returned
// buffer is released. The returned buffer holds its own references to the
// plane descriptors until it is released, so the wl_buffer may be
// destroyed first.
func (p *Provider) ImportDmaBuf(buf graphics.DMABufBuffer, onConsumed, onRelease func()) (*ImportedBuffer, error) {
	tt, ok := p.lookup(buf)
	if !ok {
		return nil, errors.Errorf("no import descriptor for %s/%s", buf.Format(), modifierOf(buf))
	}
	var tex uint32
	err := p.exec.Run(func() error {
		var err error
		tex, err = p.importTexture(buf, tt)
		return err
	})
	if err != nil {
		return nil, err
	}
	modifier, hasModifier := buf.Modifier()
	planes := graphics.RefPlanes(buf.Planes())
	release := func() {
		if onRelease != nil {
			onRelease()
		}
		if err := graphics.ClosePlanes(planes); err != nil {
			p.logger.Warnf("releasing imported dma-buf: %v", err)
		}
	}
	return &ImportedBuffer{
		TexBuffer: gl.NewTexBuffer(p.gl, p.exec, tex, gl.TexBufferOptions{
			Target:     tt.Target(),
			Size:       buf.Size(),
			Format:     buf.Format(),
			Layout:     buf.Layout(),
			OnConsumed: onConsumed,
			OnRelease:  release,
		}),
		provider:    p,
		display:     p.driver.Display(),
		modifier:    modifier,
		hasModifier: hasModifier,
		planes:      planes,
	}, nil
}

// textureFrom imports buf as a texture owned by the caller.
func (p *Provider) textureFrom(buf graphics.DMABufBuffer, tt TextureType, onConsumed, onRelease func()) (*gl.TexBuffer, error) {
	var tex uint32
	err := p.exec.Run(func() error {
		var err error
		tex, err = p.importTexture(buf, tt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return gl.NewTexBuffer(p.gl, p.exec, tex, gl.TexBufferOptions{
		Target:     tt.Target(),
		Size:       buf.Size(),
		Format:     buf.Format(),
		Layout:     buf.Layout(),
		OnConsumed: onConsumed,
		OnRelease:  onRelease,
	}), nil
}

// ImportWaylandBuffer textures from a wl_buffer handled by the driver's
// own Wayland buffer support (EGL_WL_bind_wayland_display).
func (p *Provider) ImportWaylandBuffer(resource uintptr, onConsumed, onRelease func()) (*gl.TexBuffer, error) {
	if !p.ext.WaylandBind {
		return nil, ErrNoWaylandBind
	}
	var (
		tex    uint32
		info   egl.WaylandBufferInfo
		target = gl.Texture2D
	)
	err := p.exec.Run(func() error {
		var err error
		info, err = p.driver.QueryWaylandBuffer(resource)
		if err != nil {
			return err
		}
		if info.TextureFormat == egl.TextureExternalWL {
			target = gl.TextureExternalOES
		}
		img, err := p.driver.CreateImage(egl.WaylandBufferWL, resource, []int32{egl.WaylandPlaneWL, 0, egl.None})
		if err != nil {
			return err
		}
		tex = p.gl.GenTexture()
		p.gl.BindTexture(target, tex)
		bindErr := p.driver.ImageTargetTexture2D(target, img)
		err = multierr.Append(bindErr, p.driver.DestroyImage(img))
		if bindErr != nil {
			p.gl.DeleteTexture(tex)
			return err
		}
		gl.SetSamplingParams(p.gl, target)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "import wayland buffer")
	}

	format := drm.ARGB8888
	if info.TextureFormat == egl.TextureRGB {
		format = drm.XRGB8888
	}
	layout := graphics.LayoutGL
	if info.YInverted {
		layout = graphics.LayoutTopRowFirst
	}
	return gl.NewTexBuffer(p.gl, p.exec, tex, gl.TexBufferOptions{
		Target:     target,
		Size:       info.Size,
		Format:     format,
		Layout:     layout,
		OnConsumed: onConsumed,
		OnRelease:  onRelease,
	}), nil
}

func modifierOf(buf graphics.DMABufBuffer) drm.Modifier {
	if m, ok := buf.Modifier(); ok {
		return m
	}
	return drm.ModInvalid
}
