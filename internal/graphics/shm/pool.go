// Package shm textures from wl_shm client buffers.
package shm

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
	"golang.org/x/time/rate"

	"github.com/matjam/wlcore/internal/graphics"
)

var (
	ErrPoolShrunk    = errors.New("client shrank the shm pool")
	ErrInvalidSize   = errors.New("invalid shm pool size")
	ErrInvalidStride = errors.New("invalid shm buffer stride")
	ErrInvalidFormat = errors.New("unsupported shm format")
	ErrPoolClosed    = errors.New("shm pool closed")
)

var shrunkWarning = rate.Sometimes{Interval: 10 * time.Second}

// Pool is a client wl_shm_pool mapped read-only into the compositor.
//
// A client can truncate the file behind the pool at any time, and touching
// the missing pages would kill the compositor with SIGBUS. If the client
// sealed the file against shrinking the mapping is trusted; otherwise the
// file size is checked before every access.
type Pool struct {
	fd     *graphics.Fd
	sealed bool

	mu   sync.RWMutex
	data []byte
}

// NewPool maps size bytes of fd. The pool takes ownership of fd.
func NewPool(fd *graphics.Fd, size int32) (*Pool, error) {
	if size <= 0 {
		fd.Close()
		return nil, errors.Wrapf(ErrInvalidSize, "%d", size)
	}
	data, err := unix.Mmap(fd.Int(), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		fd.Close()
		return nil, errors.Wrap(err, "mmap shm pool")
	}
	seals, err := unix.FcntlInt(uintptr(fd.Int()), unix.F_GET_SEALS, 0)
	return &Pool{
		fd:     fd,
		sealed: err == nil && seals&unix.F_SEAL_SHRINK != 0,
		data:   data,
	}, nil
}

// Sealed reports whether the client can no longer shrink the pool.
func (p *Pool) Sealed() bool {
	return p.sealed
}

func (p *Pool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.data)
}

// Resize grows the mapping. Pools can only grow.
func (p *Pool) Resize(size int32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data == nil {
		return ErrPoolClosed
	}
	if int(size) < len(p.data) {
		return errors.Wrapf(ErrInvalidSize, "shrinking pool from %d to %d", len(p.data), size)
	}
	if int(size) == len(p.data) {
		return nil
	}
	data, err := unix.Mremap(p.data, int(size), unix.MREMAP_MAYMOVE)
	if err != nil {
		return errors.Wrap(err, "mremap shm pool")
	}
	p.data = data
	return nil
}

func (p *Pool) checkSize() error {
	if p.sealed {
		return nil
	}
	var st unix.Stat_t
	if err := unix.Fstat(p.fd.Int(), &st); err != nil {
		return errors.Wrap(err, "fstat shm pool")
	}
	if st.Size < int64(len(p.data)) {
		shrunkWarning.Do(func() {
			log.Warnf("shm pool is %d bytes but %d are mapped; refusing access", st.Size, len(p.data))
		})
		return errors.Wrapf(ErrPoolShrunk, "%d < %d", st.Size, len(p.data))
	}
	return nil
}

// Access calls fn with the pool contents. The slice must not be kept after
// fn returns.
func (p *Pool) Access(fn func(data []byte) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.data == nil {
		return ErrPoolClosed
	}
	if err := p.checkSize(); err != nil {
		return err
	}
	return fn(p.data)
}

func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data == nil {
		return nil
	}
	err := unix.Munmap(p.data)
	p.data = nil
	if cerr := p.fd.Close(); err == nil {
		err = cerr
	}
	return err
}
