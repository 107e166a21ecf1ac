package dmabuf

import (
	"math"

	"github.com/charmbracelet/log"

	"github.com/matjam/wlcore/internal/graphics"
	"github.com/matjam/wlcore/internal/graphics/drm"
	"github.com/matjam/wlcore/internal/graphics/egl"
)

// ParamsEvents receives the outcome of Params.Create.
type ParamsEvents interface {
	Created(buf *Buffer)
	Failed()
}

// Validator checks that a buffer can actually be imported.
type Validator interface {
	Formats() *FormatDescriptors
	ValidateImport(buf graphics.DMABufBuffer) error
}

type plane struct {
	set bool
	graphics.PlaneDescriptor
}

// Params collects the planes of a dma-buf before a wl_buffer is created
// from them. A Params can create at most one buffer.
type Params struct {
	validator Validator
	events    ParamsEvents
	register  func(*Buffer) ResourceID

	planes      [egl.MaxPlanes]plane
	modifier    drm.Modifier
	hasModifier bool
	used        bool
}

// NewParams returns params that validate against v. register, if not nil,
// assigns the resource ID of buffers made by Create.
func NewParams(v Validator, events ParamsEvents, register func(*Buffer) ResourceID) *Params {
	return &Params{validator: v, events: events, register: register}
}

// Add sets plane idx. Ownership of fd passes to the params, which close it
// if the call fails.
func (p *Params) Add(fd *graphics.Fd, idx, offset, stride, modifierHi, modifierLo uint32) error {
	fail := func(err error) error {
		fd.Close()
		return err
	}
	if p.used {
		return fail(protocolErrorf(ErrorAlreadyUsed, "params already used to create a buffer"))
	}
	if idx >= egl.MaxPlanes {
		return fail(protocolErrorf(ErrorPlaneIdx, "plane index %d higher than maximum number of planes, %d", idx, egl.MaxPlanes))
	}
	if p.planes[idx].set {
		return fail(protocolErrorf(ErrorPlaneSet, "plane %d already has a dmabuf", idx))
	}

	modifier := drm.Modifier(uint64(modifierHi)<<32 | uint64(modifierLo))
	if p.hasModifier && modifier != p.modifier {
		return fail(protocolErrorf(ErrorInvalidFormat,
			"modifier %s for plane %d doesn't match previously set modifier %s; all planes must use the same modifier",
			modifier, idx, p.modifier))
	}
	p.modifier, p.hasModifier = modifier, true
	p.planes[idx] = plane{set: true, PlaneDescriptor: graphics.PlaneDescriptor{Fd: fd, Offset: offset, Stride: stride}}
	return nil
}

func (p *Params) validateParams(width, height int32, format drm.Format) error {
	if width < 1 || height < 1 {
		return protocolErrorf(ErrorInvalidDimensions, "width %d or height %d invalid; both must be >= 1", width, height)
	}
	modifier := drm.ModInvalid
	if p.hasModifier {
		modifier = p.modifier
	}
	if _, ok := p.validator.Formats().Lookup(format, modifier); !ok {
		return protocolErrorf(ErrorInvalidFormat,
			"unsupported format/modifier combination %s/%s (%d/%d,%d)",
			format, modifier, uint32(format), uint32(modifier>>32), uint32(modifier))
	}
	return nil
}

// validatePlanes returns the set planes, requiring that they start at
// index 0 with no gaps.
func (p *Params) validatePlanes(height int32) ([]graphics.PlaneDescriptor, error) {
	last := -1
	for i, pl := range p.planes {
		if pl.set {
			last = i
		}
	}
	if last < 0 {
		return nil, protocolErrorf(ErrorIncomplete, "no dmabuf has been added to the params")
	}
	planes := make([]graphics.PlaneDescriptor, 0, last+1)
	for i := 0; i <= last; i++ {
		if !p.planes[i].set {
			return nil, protocolErrorf(ErrorIncomplete, "missing dmabuf for plane %d", i)
		}
		planes = append(planes, p.planes[i].PlaneDescriptor)
	}
	for i, pl := range planes {
		if err := checkBounds(i, pl, height); err != nil {
			return nil, err
		}
	}
	return planes, nil
}

func checkBounds(i int, pl graphics.PlaneDescriptor, height int32) error {
	offset, stride := uint64(pl.Offset), uint64(pl.Stride)
	if offset+stride > math.MaxUint32 {
		return protocolErrorf(ErrorOutOfBounds, "size overflow for plane %d", i)
	}
	if i == 0 && offset+stride*uint64(height) > math.MaxUint32 {
		return protocolErrorf(ErrorOutOfBounds, "size overflow for plane %d", i)
	}

	// Not every dma-buf can report its size; skip the check if it cannot.
	size, err := pl.Fd.Size()
	if err != nil {
		return nil
	}
	end := uint64(size)
	if offset >= end {
		return protocolErrorf(ErrorOutOfBounds, "invalid offset %d for plane %d", offset, i)
	}
	if offset+stride > end {
		return protocolErrorf(ErrorOutOfBounds, "invalid stride %d for plane %d", stride, i)
	}
	if i == 0 && offset+stride*uint64(height) > end {
		return protocolErrorf(ErrorOutOfBounds, "invalid buffer stride or height for plane %d", i)
	}
	return nil
}

func (p *Params) build(width, height int32, format drm.Format, flags Flags) (*Buffer, error) {
	if p.used {
		return nil, protocolErrorf(ErrorAlreadyUsed, "params already used to create a buffer")
	}
	if err := p.validateParams(width, height, format); err != nil {
		return nil, err
	}
	planes, err := p.validatePlanes(height)
	if err != nil {
		return nil, err
	}
	modifier := drm.ModInvalid
	if p.hasModifier {
		modifier = p.modifier
	}
	return &Buffer{
		size:     graphics.Size{Width: int(width), Height: int(height)},
		format:   format,
		flags:    flags,
		modifier: modifier,
		planes:   planes,
	}, nil
}

// take marks the params used and hands plane ownership to the buffer.
func (p *Params) take() {
	p.used = true
	p.planes = [egl.MaxPlanes]plane{}
}

// Create validates the params and tries to import them. Protocol
// violations are returned as *ProtocolError. If the driver refuses the
// import the client gets a failed event instead.
func (p *Params) Create(width, height int32, format drm.Format, flags Flags) error {
	buf, err := p.build(width, height, format, flags)
	if err != nil {
		return err
	}

	if err := p.validator.ValidateImport(buf); err != nil {
		if !egl.IsError(err) {
			return err
		}
		log.Debugf("failed to import client dma-buf: %v", err)
		p.used = true
		p.events.Failed()
		return nil
	}

	p.take()
	if p.register != nil {
		buf.id = p.register(buf)
	}
	p.events.Created(buf)
	return nil
}

// CreateImmed is Create for a wl_buffer the client already allocated. An
// import failure here is fatal to the client, since it was promised a
// usable buffer.
func (p *Params) CreateImmed(id ResourceID, width, height int32, format drm.Format, flags Flags) (*Buffer, error) {
	buf, err := p.build(width, height, format, flags)
	if err != nil {
		return nil, err
	}
	if err := p.validator.ValidateImport(buf); err != nil {
		if !egl.IsError(err) {
			return nil, err
		}
		return nil, protocolErrorf(ErrorInvalidWlBuffer, "failed to import dmabuf: %v", err)
	}
	p.take()
	buf.id = id
	return buf, nil
}

// Destroy releases any planes not handed to a buffer.
func (p *Params) Destroy() error {
	var planes []graphics.PlaneDescriptor
	for _, pl := range p.planes {
		if pl.set {
			planes = append(planes, pl.PlaneDescriptor)
		}
	}
	p.planes = [egl.MaxPlanes]plane{}
	return graphics.ClosePlanes(planes)
}
