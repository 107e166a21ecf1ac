package dmabuf

import (
	"github.com/matjam/wlcore/internal/graphics"
	"github.com/matjam/wlcore/internal/graphics/drm"
	"github.com/matjam/wlcore/internal/graphics/egl"
	"github.com/matjam/wlcore/internal/graphics/gl"
)

// ImportedBuffer is a client dma-buf imported as a texture on one
// provider's display. It holds references to the original planes until it
// is released, so another provider can import it again.
type ImportedBuffer struct {
	*gl.TexBuffer

	provider    *Provider
	display     egl.Display
	modifier    drm.Modifier
	hasModifier bool
	planes      []graphics.PlaneDescriptor
}

func (b *ImportedBuffer) Modifier() (drm.Modifier, bool) {
	return b.modifier, b.hasModifier
}

func (b *ImportedBuffer) Planes() []graphics.PlaneDescriptor {
	return b.planes
}

// Provider is the provider that imported the buffer.
func (b *ImportedBuffer) Provider() *Provider {
	return b.provider
}

func (b *ImportedBuffer) onDisplay(d egl.Display) bool {
	return b.display == d
}

var (
	_ graphics.DMABufBuffer = (*ImportedBuffer)(nil)
	_ graphics.DMABufBuffer = (*Buffer)(nil)
	_ gl.Texture            = (*ImportedBuffer)(nil)
)
