// Package graphics holds the buffer model shared by the dma-buf, shm and
// blit packages.
package graphics

import (
	"fmt"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sys/unix"

	"github.com/matjam/wlcore/internal/graphics/drm"
)

var ErrFdClosed = errors.New("file descriptor already closed")

type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Layout is the row order of buffer contents.
type Layout int

const (
	// LayoutGL stores the bottom row first.
	LayoutGL Layout = iota
	LayoutTopRowFirst
)

func (l Layout) String() string {
	if l == LayoutGL {
		return "gl"
	}
	return "top-row-first"
}

// Fd is a shared, reference counted file descriptor. The descriptor is
// closed when the last reference is released.
type Fd struct {
	fd   int
	refs atomic.Int32
}

// NewFd takes ownership of fd.
func NewFd(fd int) *Fd {
	f := &Fd{fd: fd}
	f.refs.Store(1)
	return f
}

// DupFd duplicates fd so the caller keeps ownership of the original.
func DupFd(fd int) (*Fd, error) {
	nfd, err := unix.FcntlInt(uintptr(fd), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "dup fd %d", fd)
	}
	return NewFd(nfd), nil
}

func (f *Fd) Int() int {
	return f.fd
}

// Ref adds a reference and returns f.
func (f *Fd) Ref() *Fd {
	f.refs.Add(1)
	return f
}

// Close drops a reference.
func (f *Fd) Close() error {
	switch n := f.refs.Add(-1); {
	case n == 0:
		return unix.Close(f.fd)
	case n < 0:
		return ErrFdClosed
	}
	return nil
}

// Size returns the size of the object behind the descriptor. Regular
// files and memfds report it through fstat. A dma-buf reports a zero
// st_size on older kernels and only supports lseek to SEEK_END and back to
// 0; it has no read position, so moving the shared offset is harmless.
func (f *Fd) Size() (int64, error) {
	var st unix.Stat_t
	if err := unix.Fstat(f.fd, &st); err != nil {
		return 0, err
	}
	if st.Size > 0 || st.Mode&unix.S_IFMT == unix.S_IFREG {
		return st.Size, nil
	}
	end, err := unix.Seek(f.fd, 0, unix.SEEK_END)
	if err != nil {
		return 0, err
	}
	_, err = unix.Seek(f.fd, 0, unix.SEEK_SET)
	return end, err
}

type PlaneDescriptor struct {
	Fd     *Fd
	Stride uint32
	Offset uint32
}

// Buffer is anything a client attached to a surface.
type Buffer interface {
	Size() Size
	Format() drm.Format
	Layout() Layout
}

// DMABufBuffer is a buffer backed by one or more dma-buf planes.
type DMABufBuffer interface {
	Buffer
	Modifier() (drm.Modifier, bool)
	Planes() []PlaneDescriptor
}

// RefPlanes returns a copy of planes holding its own descriptor references.
func RefPlanes(planes []PlaneDescriptor) []PlaneDescriptor {
	out := make([]PlaneDescriptor, len(planes))
	for i, p := range planes {
		out[i] = p
		if p.Fd != nil {
			out[i].Fd = p.Fd.Ref()
		}
	}
	return out
}

// ClosePlanes releases the descriptors of planes.
func ClosePlanes(planes []PlaneDescriptor) error {
	var err error
	for _, p := range planes {
		if p.Fd != nil {
			err = multierr.Append(err, p.Fd.Close())
		}
	}
	return errors.Wrap(err, "close planes")
}
