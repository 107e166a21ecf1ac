package gl

import (
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/matjam/wlcore/internal/graphics"
	"github.com/matjam/wlcore/internal/graphics/drm"
)

// Spawner queues work onto the thread that owns the GL context.
type Spawner interface {
	Spawn(task func()) error
}

// Texture is a client buffer that has been turned into a GL texture.
type Texture interface {
	graphics.Buffer
	ID() uint32
	Target() uint32
	// Bind binds the texture for sampling. It must be called on the
	// context thread.
	Bind()
}

// TexBuffer is a texture owned by the compositor on behalf of a client
// buffer. The consumed callback runs once, the first time the texture is
// bound; the release callback runs once when the compositor is done with
// it, and the texture itself is deleted on the context thread.
type TexBuffer struct {
	gl      Functions
	spawner Spawner

	id     uint32
	target uint32
	size   graphics.Size
	format drm.Format
	layout graphics.Layout

	consumed   sync.Once
	onConsumed func()
	released   sync.Once
	onRelease  func()
	deleted    atomic.Bool
}

type TexBufferOptions struct {
	Target     uint32
	Size       graphics.Size
	Format     drm.Format
	Layout     graphics.Layout
	OnConsumed func()
	OnRelease  func()
}

func NewTexBuffer(f Functions, spawner Spawner, id uint32, opts TexBufferOptions) *TexBuffer {
	if opts.Target == 0 {
		opts.Target = Texture2D
	}
	return &TexBuffer{
		gl:         f,
		spawner:    spawner,
		id:         id,
		target:     opts.Target,
		size:       opts.Size,
		format:     opts.Format,
		layout:     opts.Layout,
		onConsumed: opts.OnConsumed,
		onRelease:  opts.OnRelease,
	}
}

func (t *TexBuffer) ID() uint32              { return t.id }
func (t *TexBuffer) Target() uint32          { return t.target }
func (t *TexBuffer) Size() graphics.Size     { return t.size }
func (t *TexBuffer) Format() drm.Format      { return t.format }
func (t *TexBuffer) Layout() graphics.Layout { return t.layout }

func (t *TexBuffer) Bind() {
	t.gl.BindTexture(t.target, t.id)
	t.MarkConsumed()
}

// MarkConsumed tells the client its buffer contents have been read.
func (t *TexBuffer) MarkConsumed() {
	t.consumed.Do(func() {
		if t.onConsumed != nil {
			t.onConsumed()
		}
	})
}

// Release hands the buffer back to the client and schedules the texture
// for deletion. Further calls do nothing.
func (t *TexBuffer) Release() {
	t.released.Do(func() {
		if t.onRelease != nil {
			t.onRelease()
		}
		t.destroy()
	})
}

func (t *TexBuffer) destroy() {
	if t.deleted.Swap(true) {
		return
	}
	id := t.id
	err := t.spawner.Spawn(func() { t.gl.DeleteTexture(id) })
	if err != nil {
		// The context is gone, and the texture with it.
		log.Debugf("not deleting texture %d: %v", id, err)
	}
}
