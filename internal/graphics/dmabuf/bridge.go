package dmabuf

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/matjam/wlcore/internal/graphics"
	"github.com/matjam/wlcore/internal/graphics/blit"
	"github.com/matjam/wlcore/internal/graphics/drm"
	"github.com/matjam/wlcore/internal/graphics/egl"
	"github.com/matjam/wlcore/internal/graphics/gl"
)

// AsTexture returns a texture this provider's context can sample from.
//
// A buffer imported on this display is used directly. A buffer imported on
// another display is re-imported here if this display understands its
// format and modifier. Otherwise the importing GPU blits it into an
// ARGB8888 buffer we can import, and that copy is imported instead.
// Failures on that last path are reported as ErrCannotTexture so the
// caller can draw a placeholder.
func (p *Provider) AsTexture(buf graphics.Buffer) (gl.Texture, error) {
	return p.AsTextureWith(buf, nil, nil)
}

// AsTextureWith is AsTexture with callbacks for a texture created on this
// display. A buffer already imported here is returned as is and keeps the
// callbacks it was imported with.
func (p *Provider) AsTextureWith(buf graphics.Buffer, onConsumed, onRelease func()) (gl.Texture, error) {
	src, ok := buf.(*ImportedBuffer)
	if !ok {
		return nil, ErrNotDmaBuf
	}

	if src.onDisplay(p.driver.Display()) {
		src.MarkConsumed()
		return src, nil
	}

	if tt, ok := p.lookup(src); ok {
		tex, err := p.textureFrom(src, tt, onConsumed, onRelease)
		if err != nil {
			return nil, err
		}
		src.MarkConsumed()
		return tex, nil
	}

	tex, err := p.crossGPUImport(src, onConsumed, onRelease)
	if err != nil {
		return nil, err
	}
	src.MarkConsumed()
	return tex, nil
}

func (p *Provider) crossGPUImport(src *ImportedBuffer, onConsumed, onRelease func()) (*gl.TexBuffer, error) {
	importer := src.Provider()
	if !importer.ext.CanExport() {
		p.logger.Warn("EGL implementation does not handle cross-GPU buffer export")
		return nil, ErrNoCrossGPUExport
	}

	// TODO: pick a shared format matching the source depth; ARGB8888 loses
	// precision for 10 bit buffers.
	modifiers, ok := p.formats.Modifiers(drm.ARGB8888)
	if !ok {
		return nil, errors.Wrap(ErrCannotTexture, "ARGB8888 is not importable")
	}

	var common graphics.DMABufBuffer
	err := importer.exec.Run(func() error {
		var err error
		common, err = importer.allocator.Allocate(drm.ARGB8888, modifiers, src.Size())
		return err
	})
	if err != nil {
		p.logger.Warnf("failed to allocate common-format buffer for cross-GPU import: %v", err)
		return nil, errors.Wrap(ErrCannotTexture, err.Error())
	}
	defer graphics.ClosePlanes(common.Planes())

	exported, err := importer.copyVia(src, common)
	if err != nil {
		return nil, errors.Wrap(ErrCannotTexture, err.Error())
	}
	defer exported.Destroy()

	tt, ok := p.lookup(exported)
	if !ok {
		return nil, errors.Wrapf(ErrCannotTexture, "exported buffer %s/%s is not importable",
			exported.Format(), modifierOf(exported))
	}
	tex, err := p.textureFrom(exported, tt, onConsumed, onRelease)
	if err != nil {
		return nil, errors.Wrap(ErrCannotTexture, err.Error())
	}
	return tex, nil
}

// copyVia runs on the provider that owns src. It imports src and dst,
// blits between them, waits for the GPU and exports dst. Both images are
// destroyed whatever happens.
func (p *Provider) copyVia(src, dst graphics.DMABufBuffer) (exported *ExportedBuffer, err error) {
	var srcImg, dstImg egl.Image
	defer func() {
		cleanup := p.exec.Run(func() error {
			var err error
			for _, img := range []egl.Image{srcImg, dstImg} {
				if img != egl.NoImage {
					err = multierr.Append(err, p.driver.DestroyImage(img))
				}
			}
			return err
		})
		err = multierr.Append(err, cleanup)
		if err != nil && exported != nil {
			exported.Destroy()
			exported = nil
		}
	}()

	err = p.exec.Run(func() error {
		var err error
		if srcImg, err = p.createImage(src); err != nil {
			return err
		}
		dstImg, err = p.createImage(dst)
		return err
	})
	if err != nil {
		return nil, err
	}

	fence, err := p.copier.Blit(srcImg, dstImg, src.Size())
	if err != nil {
		return nil, errors.Wrap(err, "blit")
	}
	ctx, cancel := context.WithTimeout(context.Background(), FenceTimeout)
	defer cancel()
	if err := blit.WaitAndClose(ctx, fence); err != nil {
		return nil, errors.Wrap(err, "wait for blit")
	}

	err = p.exec.Run(func() error {
		var err error
		exported, err = p.export(dstImg, dst.Size())
		return err
	})
	return exported, err
}
