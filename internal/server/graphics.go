package server

import (
	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/matjam/wlcore/internal/graphics"
	"github.com/matjam/wlcore/internal/graphics/dmabuf"
	"github.com/matjam/wlcore/internal/graphics/egl"
	"github.com/matjam/wlcore/internal/graphics/gl"
	"github.com/matjam/wlcore/internal/graphics/shm"
)

var ErrGraphicsUnavailable = errors.New("graphics support not built in (build with -tags egl)")

// Graphics is the buffer import side of one EGL display.
type Graphics struct {
	driver   egl.Driver
	gl       gl.Functions
	exec     *egl.ContextExecutor
	provider *dmabuf.Provider
	dmabuf   *dmabuf.LinuxDmaBuf
}

// NewGraphics starts the context executor for d and builds the dma-buf
// provider on it. loadGL is called on the executor thread.
func NewGraphics(d egl.Driver, loadGL func() (gl.Functions, error)) (*Graphics, error) {
	ext, err := egl.Probe(d)
	if err != nil {
		return nil, multierr.Append(err, d.Terminate())
	}
	exec, err := egl.NewContextExecutor(d)
	if err != nil {
		return nil, multierr.Append(err, d.Terminate())
	}
	g := &Graphics{driver: d, exec: exec}

	err = exec.Run(func() error {
		var err error
		g.gl, err = loadGL()
		return err
	})
	if err == nil {
		g.provider, err = dmabuf.NewProvider(dmabuf.ProviderOptions{
			Driver:     d,
			GL:         g.gl,
			Executor:   exec,
			Extensions: ext,
		})
	}
	if err != nil {
		return nil, multierr.Combine(err, exec.Close(), d.Terminate())
	}
	g.dmabuf = dmabuf.NewLinuxDmaBuf(g.provider)

	log.Infof("graphics ready: %d dma-buf formats, cross-GPU export %v, native fences %v",
		g.provider.Formats().Len(), ext.CanExport(), ext.NativeFence)
	return g, nil
}

func (g *Graphics) Provider() *dmabuf.Provider     { return g.provider }
func (g *Graphics) DmaBuf() *dmabuf.LinuxDmaBuf    { return g.dmabuf }
func (g *Graphics) Executor() *egl.ContextExecutor { return g.exec }

// BindWaylandDisplay lets the driver handle its own wl_buffers.
func (g *Graphics) BindWaylandDisplay(display uintptr) error {
	if !g.provider.Extensions().WaylandBind {
		return dmabuf.ErrNoWaylandBind
	}
	return g.exec.Run(func() error { return g.driver.BindWaylandDisplay(display) })
}

// Texture returns something the compositor can sample for a client
// buffer. An *dmabuf.ImportedBuffer already on this display is returned
// unchanged with its original callbacks.
func (g *Graphics) Texture(buf graphics.Buffer, onConsumed, onRelease func()) (gl.Texture, error) {
	var (
		tex gl.Texture
		err error
	)
	switch b := buf.(type) {
	case *shm.Buffer:
		tex, err = b.Upload(g.gl, g.exec, onConsumed, onRelease)
	case *dmabuf.Buffer:
		tex, err = g.provider.ImportDmaBuf(b, onConsumed, onRelease)
	case *dmabuf.ImportedBuffer:
		tex, err = g.provider.AsTextureWith(b, onConsumed, onRelease)
	default:
		return nil, errors.Errorf("cannot texture from %T", buf)
	}
	if err != nil {
		return nil, err
	}
	return tex, nil
}

// Close stops the executor, then tears down EGL.
func (g *Graphics) Close() error {
	return multierr.Combine(g.exec.Close(), g.driver.Terminate())
}
