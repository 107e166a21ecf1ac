package dmabuf

import (
	"github.com/matjam/wlcore/internal/graphics"
	"github.com/matjam/wlcore/internal/graphics/drm"
	"github.com/matjam/wlcore/internal/graphics/egl"
)

// Flags are the zwp_linux_buffer_params_v1 create flags.
type Flags uint32

const (
	FlagYInvert     Flags = 1
	FlagInterlaced  Flags = 2
	FlagBottomFirst Flags = 4
)

// ResourceID names a wl_buffer created through the dma-buf global.
type ResourceID uint32

// Buffer is a client dma-buf that passed validation. It owns its plane
// descriptors until Destroy.
type Buffer struct {
	id       ResourceID
	size     graphics.Size
	format   drm.Format
	flags    Flags
	modifier drm.Modifier
	planes   []graphics.PlaneDescriptor
}

func (b *Buffer) ID() ResourceID                     { return b.id }
func (b *Buffer) Size() graphics.Size                { return b.size }
func (b *Buffer) Format() drm.Format                 { return b.format }
func (b *Buffer) Flags() Flags                       { return b.flags }
func (b *Buffer) Planes() []graphics.PlaneDescriptor { return b.planes }

// Modifier returns the explicit modifier, if the client gave one.
func (b *Buffer) Modifier() (drm.Modifier, bool) {
	return b.modifier, b.modifier != drm.ModInvalid
}

func (b *Buffer) Layout() graphics.Layout {
	if b.flags&FlagYInvert != 0 {
		return graphics.LayoutTopRowFirst
	}
	return graphics.LayoutGL
}

func (b *Buffer) Destroy() error {
	return graphics.ClosePlanes(b.planes)
}

// importAttribs builds the eglCreateImageKHR attribute list for a
// dma-buf.
func importAttribs(buf graphics.DMABufBuffer) []int32 {
	size := buf.Size()
	attribs := []int32{
		egl.Width, int32(size.Width),
		egl.Height, int32(size.Height),
		egl.LinuxDRMFourcc, int32(buf.Format()),
	}
	modifier, hasModifier := buf.Modifier()
	for i, plane := range buf.Planes() {
		names := egl.PlaneAttribs[i]
		attribs = append(attribs,
			names[0], int32(plane.Fd.Int()),
			names[1], int32(plane.Offset),
			names[2], int32(plane.Stride),
		)
		if hasModifier {
			attribs = append(attribs,
				names[3], int32(uint32(modifier)),
				names[4], int32(uint32(modifier>>32)),
			)
		}
	}
	return append(attribs, egl.None)
}
