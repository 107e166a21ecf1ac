//go:build egl

package server

import (
	"github.com/matjam/wlcore/internal/graphics/egl"
	"github.com/matjam/wlcore/internal/graphics/gl"
)

// OpenGraphics opens the EGL display on renderNode.
func OpenGraphics(renderNode string) (*Graphics, error) {
	d, err := egl.Open(renderNode)
	if err != nil {
		return nil, err
	}
	return NewGraphics(d, gl.Native)
}
