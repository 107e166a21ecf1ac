//go:build egl

package gl

import (
	"unsafe"

	"github.com/go-gl/gl/v3.1/gles2"
	"github.com/pkg/errors"
)

type native struct{}

// Native loads the GLES entry points for the context current on the
// calling thread.
func Native() (Functions, error) {
	if err := gles2.Init(); err != nil {
		return nil, errors.Wrap(err, "init GLES")
	}
	return native{}, nil
}

func (native) GenTexture() uint32 {
	var tex uint32
	gles2.GenTextures(1, &tex)
	return tex
}

func (native) DeleteTexture(tex uint32) {
	gles2.DeleteTextures(1, &tex)
}

func (native) BindTexture(target, tex uint32) {
	gles2.BindTexture(target, tex)
}

func (native) TexParameteri(target, pname uint32, param int32) {
	gles2.TexParameteri(target, pname, param)
}

func (native) PixelStorei(pname uint32, param int32) {
	gles2.PixelStorei(pname, param)
}

func (native) TexImage2D(target uint32, width, height int32, format, xtype uint32, pixels []byte) {
	var ptr unsafe.Pointer
	if len(pixels) > 0 {
		ptr = unsafe.Pointer(&pixels[0])
	}
	gles2.TexImage2D(target, 0, int32(format), width, height, 0, format, xtype, ptr)
}

func (native) GenFramebuffer() uint32 {
	var fb uint32
	gles2.GenFramebuffers(1, &fb)
	return fb
}

func (native) DeleteFramebuffer(fb uint32) {
	gles2.DeleteFramebuffers(1, &fb)
}

func (native) BindFramebuffer(target, fb uint32) {
	gles2.BindFramebuffer(target, fb)
}

func (native) FramebufferTexture2D(target, attachment, textarget, tex uint32) {
	gles2.FramebufferTexture2D(target, attachment, textarget, tex, 0)
}

func (native) CheckFramebufferStatus(target uint32) uint32 {
	return gles2.CheckFramebufferStatus(target)
}

func (native) BlitFramebuffer(srcX0, srcY0, srcX1, srcY1, dstX0, dstY0, dstX1, dstY1 int32, mask uint32, filter int32) {
	gles2.BlitFramebuffer(srcX0, srcY0, srcX1, srcY1, dstX0, dstY0, dstX1, dstY1, mask, uint32(filter))
}

func (native) Flush()           { gles2.Flush() }
func (native) Finish()          { gles2.Finish() }
func (native) GetError() uint32 { return gles2.GetError() }
