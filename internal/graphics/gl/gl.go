// Package gl is the small slice of OpenGL ES the buffer import and blit
// paths need.
package gl

// Enumerants from gl2.h, gl2ext.h and gl3.h.
const (
	Texture2D          uint32 = 0x0DE1
	TextureExternalOES uint32 = 0x8D65

	TextureMagFilter uint32 = 0x2800
	TextureMinFilter uint32 = 0x2801
	TextureWrapS     uint32 = 0x2802
	TextureWrapT     uint32 = 0x2803
	Nearest          int32  = 0x2600
	Linear           int32  = 0x2601
	ClampToEdge      int32  = 0x812F

	RGBA         uint32 = 0x1908
	BGRAExt      uint32 = 0x80E1
	UnsignedByte uint32 = 0x1401

	UnpackAlignment uint32 = 0x0CF5
	UnpackRowLength uint32 = 0x0CF2

	Framebuffer         uint32 = 0x8D40
	ReadFramebuffer     uint32 = 0x8CA8
	DrawFramebuffer     uint32 = 0x8CA9
	ColorAttachment0    uint32 = 0x8CE0
	FramebufferComplete uint32 = 0x8CD5
	ColorBufferBit      uint32 = 0x00004000

	NoError uint32 = 0
)

// Functions is the GL entry points used by this module. Implementations are
// only valid on the thread that owns the current context.
type Functions interface {
	GenTexture() uint32
	DeleteTexture(tex uint32)
	BindTexture(target, tex uint32)
	TexParameteri(target, pname uint32, param int32)
	PixelStorei(pname uint32, param int32)
	TexImage2D(target uint32, width, height int32, format, xtype uint32, pixels []byte)

	GenFramebuffer() uint32
	DeleteFramebuffer(fb uint32)
	BindFramebuffer(target, fb uint32)
	FramebufferTexture2D(target, attachment, textarget, tex uint32)
	CheckFramebufferStatus(target uint32) uint32
	BlitFramebuffer(srcX0, srcY0, srcX1, srcY1, dstX0, dstY0, dstX1, dstY1 int32, mask uint32, filter int32)

	Flush()
	Finish()
	GetError() uint32
}

// SetSamplingParams sets the clamp and filter state every imported texture
// uses.
func SetSamplingParams(f Functions, target uint32) {
	f.TexParameteri(target, TextureWrapS, ClampToEdge)
	f.TexParameteri(target, TextureWrapT, ClampToEdge)
	f.TexParameteri(target, TextureMinFilter, Linear)
	f.TexParameteri(target, TextureMagFilter, Linear)
}
