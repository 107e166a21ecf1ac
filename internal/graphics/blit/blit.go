// Package blit copies one EGLImage into another on the GPU.
package blit

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sys/unix"

	"github.com/matjam/wlcore/internal/graphics"
	"github.com/matjam/wlcore/internal/graphics/egl"
	"github.com/matjam/wlcore/internal/graphics/gl"
)

var ErrIncompleteFramebuffer = errors.New("framebuffer incomplete")

// Copier blits between images on the executor's context.
type Copier struct {
	exec   egl.Executor
	gl     gl.Functions
	driver egl.Driver
	fences bool
	logger *log.Logger
}

func NewCopier(exec egl.Executor, f gl.Functions, d egl.Driver, ext *egl.Extensions) *Copier {
	return &Copier{
		exec:   exec,
		gl:     f,
		driver: d,
		fences: ext.NativeFence,
		logger: log.WithPrefix("blit"),
	}
}

// Blit copies size pixels from the image from into the image to. If the
// driver supports native fences, the returned fd signals when the copy is
// complete and must be closed by the caller; otherwise the copy has already
// finished and the fd is -1.
func (c *Copier) Blit(from, to egl.Image, size graphics.Size) (int, error) {
	fence := -1
	err := c.exec.Run(func() error {
		var err error
		fence, err = c.blit(from, to, size)
		return err
	})
	return fence, err
}

func (c *Copier) attach(target uint32, img egl.Image) (tex, fb uint32, err error) {
	tex = c.gl.GenTexture()
	c.gl.BindTexture(gl.Texture2D, tex)
	if err := c.driver.ImageTargetTexture2D(gl.Texture2D, img); err != nil {
		c.gl.DeleteTexture(tex)
		return 0, 0, err
	}
	c.gl.TexParameteri(gl.Texture2D, gl.TextureMinFilter, gl.Nearest)
	c.gl.TexParameteri(gl.Texture2D, gl.TextureMagFilter, gl.Nearest)

	fb = c.gl.GenFramebuffer()
	c.gl.BindFramebuffer(target, fb)
	c.gl.FramebufferTexture2D(target, gl.ColorAttachment0, gl.Texture2D, tex)
	if status := c.gl.CheckFramebufferStatus(target); status != gl.FramebufferComplete {
		c.gl.BindFramebuffer(target, 0)
		c.gl.DeleteFramebuffer(fb)
		c.gl.DeleteTexture(tex)
		return 0, 0, errors.Wrapf(ErrIncompleteFramebuffer, "status 0x%x", status)
	}
	return tex, fb, nil
}

func (c *Copier) blit(from, to egl.Image, size graphics.Size) (int, error) {
	srcTex, srcFB, err := c.attach(gl.ReadFramebuffer, from)
	if err != nil {
		return -1, errors.Wrap(err, "attach source")
	}
	defer func() {
		c.gl.BindFramebuffer(gl.ReadFramebuffer, 0)
		c.gl.DeleteFramebuffer(srcFB)
		c.gl.DeleteTexture(srcTex)
	}()

	dstTex, dstFB, err := c.attach(gl.DrawFramebuffer, to)
	if err != nil {
		return -1, errors.Wrap(err, "attach destination")
	}
	defer func() {
		c.gl.BindFramebuffer(gl.DrawFramebuffer, 0)
		c.gl.DeleteFramebuffer(dstFB)
		c.gl.DeleteTexture(dstTex)
	}()

	w, h := int32(size.Width), int32(size.Height)
	c.gl.BlitFramebuffer(0, 0, w, h, 0, 0, w, h, gl.ColorBufferBit, gl.Nearest)
	c.gl.BindTexture(gl.Texture2D, 0)

	if c.fences {
		fd, err := c.driver.CreateNativeFence()
		if err == nil {
			return fd, nil
		}
		c.logger.Debugf("native fence unavailable, finishing instead: %v", err)
	}
	c.gl.Finish()
	return -1, nil
}

// WaitFence blocks until the fence fd becomes readable or ctx is done. It
// does not close fd.
func WaitFence(ctx context.Context, fd int) error {
	const slice = 100 * time.Millisecond

	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		timeout := slice
		if deadline, ok := ctx.Deadline(); ok {
			if left := time.Until(deadline); left < timeout {
				timeout = max(left, time.Millisecond)
			}
		}
		n, err := unix.Poll(fds, int(timeout/time.Millisecond))
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case err != nil:
			return errors.Wrap(err, "poll fence")
		case n > 0 && fds[0].Revents&(unix.POLLERR|unix.POLLNVAL) != 0:
			return errors.Errorf("fence fd %d: revents 0x%x", fd, fds[0].Revents)
		case n > 0:
			return nil
		}
	}
}

// WaitAndClose waits for fence and closes it. A negative fence means there
// is nothing to wait for.
func WaitAndClose(ctx context.Context, fence int) error {
	if fence < 0 {
		return nil
	}
	return multierr.Append(WaitFence(ctx, fence), unix.Close(fence))
}
