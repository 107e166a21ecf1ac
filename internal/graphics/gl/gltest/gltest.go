// Package gltest provides a recording gl.Functions for tests.
package gltest

import (
	"sync"

	"github.com/matjam/wlcore/internal/graphics/gl"
)

type Blit struct {
	ReadFB, DrawFB uint32
	Src, Dst       [4]int32
	Filter         int32
}

type TexImage struct {
	Tex           uint32
	Width, Height int32
	Format        uint32
	Pixels        []byte
	RowLength     int32
}

// Functions records GL calls. The zero value is ready to use.
type Functions struct {
	// FramebufferStatus is returned from CheckFramebufferStatus when set.
	FramebufferStatus uint32

	mu          sync.Mutex
	next        uint32
	textures    map[uint32]bool
	fbs         map[uint32]bool
	boundTex    uint32
	boundRead   uint32
	boundDraw   uint32
	attachments map[uint32]uint32
	params      map[uint32]map[uint32]int32
	pixelStore  map[uint32]int32
	blits       []Blit
	uploads     []TexImage
	finishes    int
	flushes     int
}

func (f *Functions) init() {
	if f.textures == nil {
		f.textures = make(map[uint32]bool)
		f.fbs = make(map[uint32]bool)
		f.attachments = make(map[uint32]uint32)
		f.params = make(map[uint32]map[uint32]int32)
		f.pixelStore = make(map[uint32]int32)
	}
}

func (f *Functions) GenTexture() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	f.next++
	f.textures[f.next] = true
	return f.next
}

func (f *Functions) DeleteTexture(tex uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	delete(f.textures, tex)
}

func (f *Functions) BindTexture(_ uint32, tex uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.boundTex = tex
}

func (f *Functions) TexParameteri(_ uint32, pname uint32, param int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	if f.params[f.boundTex] == nil {
		f.params[f.boundTex] = make(map[uint32]int32)
	}
	f.params[f.boundTex][pname] = param
}

func (f *Functions) PixelStorei(pname uint32, param int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	f.pixelStore[pname] = param
}

func (f *Functions) TexImage2D(_ uint32, width, height int32, format, _ uint32, pixels []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	f.uploads = append(f.uploads, TexImage{
		Tex:       f.boundTex,
		Width:     width,
		Height:    height,
		Format:    format,
		Pixels:    append([]byte(nil), pixels...),
		RowLength: f.pixelStore[gl.UnpackRowLength],
	})
}

func (f *Functions) GenFramebuffer() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	f.next++
	f.fbs[f.next] = true
	return f.next
}

func (f *Functions) DeleteFramebuffer(fb uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	delete(f.fbs, fb)
}

func (f *Functions) BindFramebuffer(target, fb uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch target {
	case gl.ReadFramebuffer:
		f.boundRead = fb
	case gl.DrawFramebuffer:
		f.boundDraw = fb
	default:
		f.boundRead, f.boundDraw = fb, fb
	}
}

func (f *Functions) FramebufferTexture2D(target, _, _ uint32, tex uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	fb := f.boundDraw
	if target == gl.ReadFramebuffer {
		fb = f.boundRead
	}
	f.attachments[fb] = tex
}

func (f *Functions) CheckFramebufferStatus(uint32) uint32 {
	if f.FramebufferStatus != 0 {
		return f.FramebufferStatus
	}
	return gl.FramebufferComplete
}

func (f *Functions) BlitFramebuffer(srcX0, srcY0, srcX1, srcY1, dstX0, dstY0, dstX1, dstY1 int32, _ uint32, filter int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blits = append(f.blits, Blit{
		ReadFB: f.boundRead,
		DrawFB: f.boundDraw,
		Src:    [4]int32{srcX0, srcY0, srcX1, srcY1},
		Dst:    [4]int32{dstX0, dstY0, dstX1, dstY1},
		Filter: filter,
	})
}

func (f *Functions) Flush() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
}

func (f *Functions) Finish() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finishes++
}

func (f *Functions) GetError() uint32 { return gl.NoError }

// LiveTextures is the number of textures generated and not deleted.
func (f *Functions) LiveTextures() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.textures)
}

func (f *Functions) LiveFramebuffers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fbs)
}

// Attachment returns the texture attached to fb.
func (f *Functions) Attachment(fb uint32) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attachments[fb]
}

func (f *Functions) Param(tex, pname uint32) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.params[tex][pname]
}

func (f *Functions) Blits() []Blit {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Blit(nil), f.blits...)
}

func (f *Functions) Uploads() []TexImage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]TexImage(nil), f.uploads...)
}

func (f *Functions) Finishes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finishes
}
