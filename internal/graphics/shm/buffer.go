package shm

import (
	"github.com/pkg/errors"

	"github.com/matjam/wlcore/internal/graphics"
	"github.com/matjam/wlcore/internal/graphics/drm"
	"github.com/matjam/wlcore/internal/graphics/egl"
	"github.com/matjam/wlcore/internal/graphics/gl"
)

// Format is a wl_shm format. The two mandatory formats have their own
// codes; every other format uses its fourcc.
type Format uint32

const (
	FormatARGB8888 Format = 0
	FormatXRGB8888 Format = 1
)

func (f Format) DRM() drm.Format {
	switch f {
	case FormatARGB8888:
		return drm.ARGB8888
	case FormatXRGB8888:
		return drm.XRGB8888
	}
	return drm.Format(f)
}

// FormatFromDRM is the wl_shm code for a drm format.
func FormatFromDRM(f drm.Format) Format {
	switch f {
	case drm.ARGB8888:
		return FormatARGB8888
	case drm.XRGB8888:
		return FormatXRGB8888
	}
	return Format(f)
}

// Every uploadable format is 32 bit.
const bytesPerPixel = 4

// uploadFormats is the GL format for the pixel data of each drm format.
// Little-endian ARGB8888 is BGRA in memory.
var uploadFormats = map[drm.Format]uint32{
	drm.ARGB8888: gl.BGRAExt,
	drm.XRGB8888: gl.BGRAExt,
	drm.ABGR8888: gl.RGBA,
	drm.XBGR8888: gl.RGBA,
}

// SupportedFormats are the formats advertised on wl_shm.
func SupportedFormats() []Format {
	return []Format{FormatARGB8888, FormatXRGB8888, FormatFromDRM(drm.ABGR8888), FormatFromDRM(drm.XBGR8888)}
}

// Buffer is a wl_buffer carved out of a Pool.
type Buffer struct {
	pool           *Pool
	offset, stride int32
	width, height  int32
	format         drm.Format
}

// CreateBuffer validates a wl_shm_pool.create_buffer request.
func (p *Pool) CreateBuffer(offset, width, height, stride int32, format Format) (*Buffer, error) {
	df := format.DRM()
	if _, ok := uploadFormats[df]; !ok {
		return nil, errors.Wrapf(ErrInvalidFormat, "%s", df)
	}
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrInvalidStride, "invalid size %dx%d", width, height)
	}
	const bpp = bytesPerPixel
	if offset < 0 || stride <= 0 || int64(stride) < int64(width)*bpp || int64(stride)%bpp != 0 {
		return nil, errors.Wrapf(ErrInvalidStride, "stride %d for width %d", stride, width)
	}
	if int64(offset)+int64(stride)*int64(height) > int64(p.Size()) {
		return nil, errors.Wrapf(ErrInvalidStride, "buffer of %d rows at offset %d overruns pool of %d bytes",
			height, offset, p.Size())
	}
	return &Buffer{
		pool:   p,
		offset: offset,
		stride: stride,
		width:  width,
		height: height,
		format: df,
	}, nil
}

func (b *Buffer) Size() graphics.Size {
	return graphics.Size{Width: int(b.width), Height: int(b.height)}
}

func (b *Buffer) Format() drm.Format      { return b.format }
func (b *Buffer) Layout() graphics.Layout { return graphics.LayoutTopRowFirst }
func (b *Buffer) Stride() int32           { return b.stride }

// Upload copies the buffer contents into a new texture on exec's context.
func (b *Buffer) Upload(f gl.Functions, exec egl.Executor, onConsumed, onRelease func()) (*gl.TexBuffer, error) {
	const bpp = bytesPerPixel
	var tex uint32
	err := b.pool.Access(func(data []byte) error {
		end := int(b.offset) + int(b.stride)*int(b.height-1) + int(b.width*bpp)
		pixels := data[b.offset:end]
		return exec.Run(func() error {
			tex = f.GenTexture()
			f.BindTexture(gl.Texture2D, tex)
			gl.SetSamplingParams(f, gl.Texture2D)
			f.PixelStorei(gl.UnpackAlignment, 4)
			f.PixelStorei(gl.UnpackRowLength, b.stride/bpp)
			f.TexImage2D(gl.Texture2D, b.width, b.height, uploadFormats[b.format], gl.UnsignedByte, pixels)
			f.PixelStorei(gl.UnpackRowLength, 0)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "upload shm buffer")
	}
	return gl.NewTexBuffer(f, exec, tex, gl.TexBufferOptions{
		Target:     gl.Texture2D,
		Size:       b.Size(),
		Format:     b.format,
		Layout:     graphics.LayoutTopRowFirst,
		OnConsumed: onConsumed,
		OnRelease:  onRelease,
	}), nil
}

var _ graphics.Buffer = (*Buffer)(nil)
