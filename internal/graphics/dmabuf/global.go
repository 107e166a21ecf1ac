package dmabuf

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/matjam/wlcore/internal/graphics/drm"
)

// MaxVersion is the highest zwp_linux_dmabuf_v1 version implemented.
const MaxVersion = 3

var ErrUnknownBuffer = errors.New("unknown dma-buf wl_buffer")

// FeedbackSink receives the format advertisement sent on bind.
type FeedbackSink interface {
	Format(format drm.Format)
	Modifier(format drm.Format, hi, lo uint32)
}

// LinuxDmaBuf is the zwp_linux_dmabuf_v1 global. It keeps the buffers
// created through it so wl_buffer resources can be resolved later.
type LinuxDmaBuf struct {
	provider *Provider

	mu      sync.Mutex
	nextID  ResourceID
	buffers map[ResourceID]*Buffer
}

func NewLinuxDmaBuf(p *Provider) *LinuxDmaBuf {
	return &LinuxDmaBuf{
		provider: p,
		buffers:  make(map[ResourceID]*Buffer),
	}
}

// Bind advertises every importable format. Modifier events only exist
// from version 3.
func (g *LinuxDmaBuf) Bind(version uint32, sink FeedbackSink) {
	for _, desc := range g.provider.Formats().All() {
		sink.Format(desc.Format)
		if version < 3 {
			continue
		}
		for _, m := range desc.Modifiers {
			sink.Modifier(desc.Format, uint32(uint64(m.Modifier)>>32), uint32(m.Modifier))
		}
	}
}

// CreateParams starts a new buffer. Buffers made by Create are registered
// with the global.
func (g *LinuxDmaBuf) CreateParams(events ParamsEvents) *Params {
	return NewParams(g.provider, events, g.register)
}

func (g *LinuxDmaBuf) register(buf *Buffer) ResourceID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	for g.buffers[g.nextID] != nil || g.nextID == 0 {
		g.nextID++
	}
	g.buffers[g.nextID] = buf
	return g.nextID
}

// CreateImmed creates a buffer under the client-chosen id.
func (g *LinuxDmaBuf) CreateImmed(params *Params, id ResourceID, width, height int32, format drm.Format, flags Flags) (*Buffer, error) {
	g.mu.Lock()
	_, taken := g.buffers[id]
	g.mu.Unlock()
	if taken {
		return nil, protocolErrorf(ErrorInvalidWlBuffer, "wl_buffer %d already exists", id)
	}

	buf, err := params.CreateImmed(id, width, height, format, flags)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.buffers[id] = buf
	g.mu.Unlock()
	return buf, nil
}

// Buffer looks up a dma-buf wl_buffer.
func (g *LinuxDmaBuf) Buffer(id ResourceID) (*Buffer, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	buf, ok := g.buffers[id]
	return buf, ok
}

// BufferFromResource imports the dma-buf behind a wl_buffer for
// compositing.
func (g *LinuxDmaBuf) BufferFromResource(id ResourceID, onConsumed, onRelease func()) (*ImportedBuffer, error) {
	buf, ok := g.Buffer(id)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownBuffer, "id %d", id)
	}
	return g.provider.ImportDmaBuf(buf, onConsumed, onRelease)
}

// DestroyBuffer handles wl_buffer.destroy.
func (g *LinuxDmaBuf) DestroyBuffer(id ResourceID) error {
	g.mu.Lock()
	buf, ok := g.buffers[id]
	delete(g.buffers, id)
	g.mu.Unlock()
	if !ok {
		return errors.Wrapf(ErrUnknownBuffer, "id %d", id)
	}
	return buf.Destroy()
}

// Len is the number of live dma-buf wl_buffers.
func (g *LinuxDmaBuf) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.buffers)
}
