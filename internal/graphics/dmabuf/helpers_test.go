package dmabuf

import (
	"testing"

	"golang.org/x/sys/unix"

	"github.com/matjam/wlcore/internal/graphics"
	"github.com/matjam/wlcore/internal/graphics/drm"
	"github.com/matjam/wlcore/internal/graphics/egl"
	"github.com/matjam/wlcore/internal/graphics/egl/egltest"
	"github.com/matjam/wlcore/internal/graphics/gl/gltest"
)

type env struct {
	driver   *egltest.Driver
	gl       *gltest.Functions
	exec     *egl.ContextExecutor
	provider *Provider
}

func newEnv(t *testing.T, display egl.Display, configure func(*egltest.Driver)) *env {
	t.Helper()
	d := egltest.New(display)
	if configure != nil {
		configure(d)
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
	p, err := NewProvider(ProviderOptions{Driver: d, GL: f, Executor: exec, Extensions: ext})
	if err != nil {
		t.Fatal(err)
	}
	return &env{driver: d, gl: f, exec: exec, provider: p}
}

func memfd(t *testing.T, size int64) *graphics.Fd {
	t.Helper()
	fd, err := unix.MemfdCreate("dmabuf-test", unix.MFD_CLOEXEC)
	if err != nil {
		t.Skipf("memfd_create: %v", err)
	}
	if err := unix.Ftruncate(fd, size); err != nil {
		t.Fatal(err)
	}
	return graphics.NewFd(fd)
}

type paramsEvents struct {
	created []*Buffer
	failed  int
}

func (e *paramsEvents) Created(buf *Buffer) { e.created = append(e.created, buf) }
func (e *paramsEvents) Failed()             { e.failed++ }

// testBuffer is a validated single plane buffer.
func testBuffer(t *testing.T, format drm.Format, modifier drm.Modifier) *Buffer {
	t.Helper()
	fd := memfd(t, 1<<16)
	t.Cleanup(func() { fd.Close() })
	return &Buffer{
		size:     graphics.Size{Width: 64, Height: 64},
		format:   format,
		modifier: modifier,
		planes:   []graphics.PlaneDescriptor{{Fd: fd, Stride: 256}},
	}
}

type feedback struct {
	formats   []drm.Format
	modifiers map[drm.Format][]drm.Modifier
}

func (f *feedback) Format(format drm.Format) {
	f.formats = append(f.formats, format)
}

func (f *feedback) Modifier(format drm.Format, hi, lo uint32) {
	if f.modifiers == nil {
		f.modifiers = make(map[drm.Format][]drm.Modifier)
	}
	f.modifiers[format] = append(f.modifiers[format], drm.Modifier(uint64(hi)<<32|uint64(lo)))
}
