package blit

import (
	"context"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/matjam/wlcore/internal/graphics"
	"github.com/matjam/wlcore/internal/graphics/egl"
	"github.com/matjam/wlcore/internal/graphics/egl/egltest"
	"github.com/matjam/wlcore/internal/graphics/gl/gltest"
)

func setup(t *testing.T, extensions []string) (*Copier, *egltest.Driver, *gltest.Functions) {
	t.Helper()
	d := egltest.New(1)
	if extensions != nil {
		d.ExtensionList = extensions
	}
	ext, err := egl.Probe(d)
	if err != nil {
		t.Fatal(err)
	}
	exec, err := egl.NewContextExecutor(d)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { exec.Close() })
	f := &gltest.Functions{}
	return NewCopier(exec, f, d, ext), d, f
}

func images(t *testing.T, d *egltest.Driver) (egl.Image, egl.Image) {
	t.Helper()
	a, err := d.CreateImage(egl.LinuxDmaBuf, 0, []int32{egl.None})
	if err != nil {
		t.Fatal(err)
	}
	b, err := d.CreateImage(egl.LinuxDmaBuf, 0, []int32{egl.None})
	if err != nil {
		t.Fatal(err)
	}
	return a, b
}

func TestBlitWithFence(t *testing.T) {
	c, d, f := setup(t, nil)
	from, to := images(t, d)

	fence, err := c.Blit(from, to, graphics.Size{Width: 64, Height: 32})
	if err != nil {
		t.Fatal(err)
	}
	if fence < 0 {
		t.Fatal("expected a native fence")
	}
	if err := WaitAndClose(context.Background(), fence); err != nil {
		t.Errorf("wait: %v", err)
	}

	blits := f.Blits()
	if len(blits) != 1 {
		t.Fatalf("blits = %d", len(blits))
	}
	b := blits[0]
	if b.Src != [4]int32{0, 0, 64, 32} || b.Dst != [4]int32{0, 0, 64, 32} {
		t.Errorf("blit rects = %v -> %v", b.Src, b.Dst)
	}
	if b.ReadFB == b.DrawFB || b.ReadFB == 0 {
		t.Errorf("framebuffers read=%d draw=%d", b.ReadFB, b.DrawFB)
	}
	if f.Finishes() != 0 {
		t.Error("glFinish called despite native fence")
	}
	if n := f.LiveTextures(); n != 0 {
		t.Errorf("%d textures leaked", n)
	}
	if n := f.LiveFramebuffers(); n != 0 {
		t.Errorf("%d framebuffers leaked", n)
	}
	if got := d.TextureTargets(); len(got) != 2 || got[0] != from || got[1] != to {
		t.Errorf("texture targets = %v", got)
	}
}

func TestBlitWithoutFenceFinishes(t *testing.T) {
	c, d, f := setup(t, []string{"EGL_KHR_image_base", "EGL_EXT_image_dma_buf_import"})
	from, to := images(t, d)

	fence, err := c.Blit(from, to, graphics.Size{Width: 1, Height: 1})
	if err != nil {
		t.Fatal(err)
	}
	if fence != -1 {
		t.Errorf("fence = %d, want -1", fence)
	}
	if f.Finishes() != 1 {
		t.Errorf("finishes = %d", f.Finishes())
	}
	if d.Fences() != 0 {
		t.Error("fence created without extension")
	}
}

func TestBlitIncompleteFramebuffer(t *testing.T) {
	c, d, f := setup(t, nil)
	f.FramebufferStatus = 0x8CD6
	from, to := images(t, d)

	if _, err := c.Blit(from, to, graphics.Size{Width: 1, Height: 1}); err == nil {
		t.Fatal("expected an error")
	}
	if n := f.LiveTextures(); n != 0 {
		t.Errorf("%d textures leaked", n)
	}
	if len(f.Blits()) != 0 {
		t.Error("blit issued against incomplete framebuffer")
	}
}

func TestBlitBadImage(t *testing.T) {
	c, _, f := setup(t, nil)
	if _, err := c.Blit(99, 100, graphics.Size{Width: 1, Height: 1}); !egl.IsError(err) {
		t.Errorf("Blit = %v, want EGL error", err)
	}
	if n := f.LiveTextures(); n != 0 {
		t.Errorf("%d textures leaked", n)
	}
}

func TestWaitFenceBlocksUntilSignalled(t *testing.T) {
	d := egltest.New(1)
	d.FenceDelay = 30 * time.Millisecond
	fd, err := d.CreateNativeFence()
	if err != nil {
		t.Fatal(err)
	}
	defer unix.Close(fd)

	start := time.Now()
	if err := WaitFence(context.Background(), fd); err != nil {
		t.Fatal(err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("WaitFence returned before the fence signalled")
	}
}

func TestWaitFenceContext(t *testing.T) {
	var p [2]int
	if err := unix.Pipe(p[:]); err != nil {
		t.Fatal(err)
	}
	defer unix.Close(p[0])
	defer unix.Close(p[1])

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := WaitFence(ctx, p[0]); err != context.DeadlineExceeded {
		t.Errorf("WaitFence = %v, want deadline exceeded", err)
	}
}
