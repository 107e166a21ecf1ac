package dmabuf

import (
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/matjam/wlcore/internal/graphics"
	"github.com/matjam/wlcore/internal/graphics/drm"
	"github.com/matjam/wlcore/internal/graphics/egl"
	"github.com/matjam/wlcore/internal/graphics/egl/egltest"
	"github.com/matjam/wlcore/internal/graphics/gl"
	"github.com/matjam/wlcore/internal/graphics/gl/gltest"
)

// twoGPUs returns a source provider that understands NV12 and a
// destination provider that does not.
func twoGPUs(t *testing.T, configureSrc func(*egltest.Driver)) (src, dst *env) {
	t.Helper()
	src = newEnv(t, 1, func(d *egltest.Driver) {
		d.Formats[drm.NV12] = []egl.ModifierInfo{{Modifier: drm.ModLinear}}
		if configureSrc != nil {
			configureSrc(d)
		}
	})
	dst = newEnv(t, 2, nil)
	return src, dst
}

func TestAsTextureRejectsPlainBuffers(t *testing.T) {
	e := newEnv(t, 1, nil)
	if _, err := e.provider.AsTexture(testBuffer(t, drm.ARGB8888, drm.ModLinear)); !errors.Is(err, ErrNotDmaBuf) {
		t.Errorf("err = %v, want ErrNotDmaBuf", err)
	}
}

func TestAsTextureSameDisplay(t *testing.T) {
	e := newEnv(t, 1, nil)
	imported, err := e.provider.ImportDmaBuf(testBuffer(t, drm.ARGB8888, drm.ModLinear), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer imported.Release()
	tex, err := e.provider.AsTexture(imported)
	if err != nil {
		t.Fatal(err)
	}
	if tex != gl.Texture(imported) {
		t.Error("same-display buffer was copied")
	}
}

func TestAsTextureReimport(t *testing.T) {
	src, dst := twoGPUs(t, nil)
	var consumed int
	imported, err := src.provider.ImportDmaBuf(testBuffer(t, drm.ARGB8888, drm.ModLinear), func() { consumed++ }, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer imported.Release()

	tex, err := dst.provider.AsTexture(imported)
	if err != nil {
		t.Fatal(err)
	}
	defer tex.(*gl.TexBuffer).Release()
	if len(dst.driver.ImageCalls()) != 1 {
		t.Errorf("destination imported %d images, want 1", len(dst.driver.ImageCalls()))
	}
	if src.driver.Fences() != 0 {
		t.Error("re-import went through the blit path")
	}
	if consumed != 1 {
		t.Errorf("consumed = %d", consumed)
	}
}

func TestAsTextureCrossGPU(t *testing.T) {
	const delay = 50 * time.Millisecond
	src, dst := twoGPUs(t, func(d *egltest.Driver) { d.FenceDelay = delay })
	imported, err := src.provider.ImportDmaBuf(testBuffer(t, drm.NV12, drm.ModLinear), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer imported.Release()

	start := time.Now()
	tex, err := dst.provider.AsTexture(imported)
	if err != nil {
		t.Fatal(err)
	}
	defer tex.(*gl.TexBuffer).Release()

	if elapsed := time.Since(start); elapsed < delay {
		t.Errorf("returned after %s, before the fence signalled", elapsed)
	}
	if src.driver.Fences() != 1 {
		t.Errorf("fences = %d, want 1", src.driver.Fences())
	}
	if blits := src.gl.Blits(); len(blits) != 1 || blits[0].Src != [4]int32{0, 0, 64, 64} {
		t.Errorf("blits = %+v", blits)
	}
	if n := src.driver.LiveImages(); n != 0 {
		t.Errorf("%d images left on the source display", n)
	}
	if n := dst.driver.LiveImages(); n != 0 {
		t.Errorf("%d images left on the destination display", n)
	}
	if tex.Format() != drm.ARGB8888 || tex.Layout() != graphics.LayoutTopRowFirst {
		t.Errorf("copy is %s %s", tex.Format(), tex.Layout())
	}
	if tex.Size() != imported.Size() {
		t.Errorf("copy size %s", tex.Size())
	}
}

func TestAsTextureCrossGPUBlitFailure(t *testing.T) {
	src, dst := twoGPUs(t, nil)
	src.gl.FramebufferStatus = 0x8CDD // GL_FRAMEBUFFER_UNSUPPORTED
	imported, err := src.provider.ImportDmaBuf(testBuffer(t, drm.NV12, drm.ModLinear), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer imported.Release()

	_, err = dst.provider.AsTexture(imported)
	if !errors.Is(err, ErrCannotTexture) {
		t.Fatalf("err = %v, want ErrCannotTexture", err)
	}
	if n := src.driver.LiveImages(); n != 0 {
		t.Errorf("%d images left after a failed blit", n)
	}
	if n := src.gl.LiveFramebuffers(); n != 0 {
		t.Errorf("%d framebuffers left", n)
	}
}

func TestAsTextureCrossGPUExportFailure(t *testing.T) {
	src, dst := twoGPUs(t, nil)
	imported, err := src.provider.ImportDmaBuf(testBuffer(t, drm.NV12, drm.ModLinear), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer imported.Release()
	src.driver.ExportError = &egl.Error{Op: "eglExportDMABUFImageMESA", Code: egl.BadAlloc}

	_, err = dst.provider.AsTexture(imported)
	if !errors.Is(err, ErrCannotTexture) {
		t.Fatalf("err = %v, want ErrCannotTexture", err)
	}
	if n := src.driver.LiveImages(); n != 0 {
		t.Errorf("%d images left", n)
	}
}

func TestAsTextureNoExport(t *testing.T) {
	src, dst := twoGPUs(t, func(d *egltest.Driver) {
		d.ExtensionList = []string{
			"EGL_KHR_image_base",
			"EGL_EXT_image_dma_buf_import",
			"EGL_EXT_image_dma_buf_import_modifiers",
		}
	})
	imported, err := src.provider.ImportDmaBuf(testBuffer(t, drm.NV12, drm.ModLinear), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer imported.Release()

	if _, err := dst.provider.AsTexture(imported); !errors.Is(err, ErrNoCrossGPUExport) {
		t.Errorf("err = %v, want ErrNoCrossGPUExport", err)
	}
}

type failingAllocator struct{ calls int }

func (a *failingAllocator) Allocate(drm.Format, []drm.Modifier, graphics.Size) (graphics.DMABufBuffer, error) {
	a.calls++
	return nil, errors.New("out of memory")
}

func TestAsTextureAllocatorFailure(t *testing.T) {
	d := egltest.New(1)
	d.Formats[drm.NV12] = []egl.ModifierInfo{{Modifier: drm.ModLinear}}
	ext, _ := egl.Probe(d)
	exec, err := egl.NewContextExecutor(d)
	if err != nil {
		t.Fatal(err)
	}
	defer exec.Close()
	alloc := &failingAllocator{}
	src, err := NewProvider(ProviderOptions{Driver: d, GL: &gltest.Functions{}, Executor: exec, Extensions: ext, Allocator: alloc})
	if err != nil {
		t.Fatal(err)
	}
	dst := newEnv(t, 2, nil)

	imported, err := src.ImportDmaBuf(testBuffer(t, drm.NV12, drm.ModLinear), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer imported.Release()
	if _, err := dst.provider.AsTexture(imported); !errors.Is(err, ErrCannotTexture) {
		t.Errorf("err = %v, want ErrCannotTexture", err)
	}
	if alloc.calls != 1 {
		t.Errorf("allocator called %d times", alloc.calls)
	}
}
