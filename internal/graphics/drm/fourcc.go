package drm

// Fourcc codes from drm_fourcc.h.
const (
	XRGB4444    Format = 0x32315258 // XR12
	XBGR4444    Format = 0x32314258 // XB12
	RGBX4444    Format = 0x32315852 // RX12
	BGRX4444    Format = 0x32315842 // BX12
	ARGB4444    Format = 0x32315241 // AR12
	ABGR4444    Format = 0x32314241 // AB12
	RGBA4444    Format = 0x32314152 // RA12
	BGRA4444    Format = 0x32314142 // BA12
	XRGB1555    Format = 0x35315258 // XR15
	XBGR1555    Format = 0x35314258 // XB15
	RGBX5551    Format = 0x35315852 // RX15
	BGRX5551    Format = 0x35315842 // BX15
	ARGB1555    Format = 0x35315241 // AR15
	ABGR1555    Format = 0x35314241 // AB15
	RGBA5551    Format = 0x35314152 // RA15
	BGRA5551    Format = 0x35314142 // BA15
	RGB565      Format = 0x36314752 // RG16
	BGR565      Format = 0x36314742 // BG16
	RGB888      Format = 0x34324752 // RG24
	BGR888      Format = 0x34324742 // BG24
	XRGB8888    Format = 0x34325258 // XR24
	XBGR8888    Format = 0x34324258 // XB24
	RGBX8888    Format = 0x34325852 // RX24
	BGRX8888    Format = 0x34325842 // BX24
	ARGB8888    Format = 0x34325241 // AR24
	ABGR8888    Format = 0x34324241 // AB24
	RGBA8888    Format = 0x34324152 // RA24
	BGRA8888    Format = 0x34324142 // BA24
	XRGB2101010 Format = 0x30335258 // XR30
	XBGR2101010 Format = 0x30334258 // XB30
	RGBX1010102 Format = 0x30335852 // RX30
	BGRX1010102 Format = 0x30335842 // BX30
	ARGB2101010 Format = 0x30335241 // AR30
	ABGR2101010 Format = 0x30334241 // AB30
	RGBA1010102 Format = 0x30334152 // RA30
	BGRA1010102 Format = 0x30334142 // BA30
	R8          Format = 0x20203852 // R8
	GR88        Format = 0x38385247 // GR88
	YUYV        Format = 0x56595559 // YUYV
	NV12        Format = 0x3231564e // NV12
	NV21        Format = 0x3132564e // NV21
	YUV420      Format = 0x32315559 // YU12
	P010        Format = 0x30313050 // P010
)

var formatTable = []Info{
	{Format: XRGB4444, BitsPerPixel: 16, HasAlpha: false, Opaque: XRGB4444, Alpha: ARGB4444, Components: &Components{Red: 4, Green: 4, Blue: 4, Alpha: 0}},
	{Format: XBGR4444, BitsPerPixel: 16, HasAlpha: false, Opaque: XBGR4444, Alpha: ABGR4444, Components: &Components{Red: 4, Green: 4, Blue: 4, Alpha: 0}},
	{Format: RGBX4444, BitsPerPixel: 16, HasAlpha: false, Opaque: RGBX4444, Alpha: RGBA4444, Components: &Components{Red: 4, Green: 4, Blue: 4, Alpha: 0}},
	{Format: BGRX4444, BitsPerPixel: 16, HasAlpha: false, Opaque: BGRX4444, Alpha: BGRA4444, Components: &Components{Red: 4, Green: 4, Blue: 4, Alpha: 0}},
	{Format: ARGB4444, BitsPerPixel: 16, HasAlpha: true, Opaque: XRGB4444, Alpha: ARGB4444, Components: &Components{Red: 4, Green: 4, Blue: 4, Alpha: 4}},
	{Format: ABGR4444, BitsPerPixel: 16, HasAlpha: true, Opaque: XBGR4444, Alpha: ABGR4444, Components: &Components{Red: 4, Green: 4, Blue: 4, Alpha: 4}},
	{Format: RGBA4444, BitsPerPixel: 16, HasAlpha: true, Opaque: RGBX4444, Alpha: RGBA4444, Components: &Components{Red: 4, Green: 4, Blue: 4, Alpha: 4}},
	{Format: BGRA4444, BitsPerPixel: 16, HasAlpha: true, Opaque: BGRX4444, Alpha: BGRA4444, Components: &Components{Red: 4, Green: 4, Blue: 4, Alpha: 4}},
	{Format: XRGB1555, BitsPerPixel: 16, HasAlpha: false, Opaque: XRGB1555, Alpha: ARGB1555, Components: &Components{Red: 5, Green: 5, Blue: 5, Alpha: 0}},
	{Format: XBGR1555, BitsPerPixel: 16, HasAlpha: false, Opaque: XBGR1555, Alpha: ABGR1555, Components: &Components{Red: 5, Green: 5, Blue: 5, Alpha: 0}},
	{Format: RGBX5551, BitsPerPixel: 16, HasAlpha: false, Opaque: RGBX5551, Alpha: RGBA5551, Components: &Components{Red: 5, Green: 5, Blue: 5, Alpha: 0}},
	{Format: BGRX5551, BitsPerPixel: 16, HasAlpha: false, Opaque: BGRX5551, Alpha: BGRA5551, Components: &Components{Red: 5, Green: 5, Blue: 5, Alpha: 0}},
	{Format: ARGB1555, BitsPerPixel: 16, HasAlpha: true, Opaque: XRGB1555, Alpha: ARGB1555, Components: &Components{Red: 5, Green: 5, Blue: 5, Alpha: 1}},
	{Format: ABGR1555, BitsPerPixel: 16, HasAlpha: true, Opaque: XBGR1555, Alpha: ABGR1555, Components: &Components{Red: 5, Green: 5, Blue: 5, Alpha: 1}},
	{Format: RGBA5551, BitsPerPixel: 16, HasAlpha: true, Opaque: RGBX5551, Alpha: RGBA5551, Components: &Components{Red: 5, Green: 5, Blue: 5, Alpha: 1}},
	{Format: BGRA5551, BitsPerPixel: 16, HasAlpha: true, Opaque: BGRX5551, Alpha: BGRA5551, Components: &Components{Red: 5, Green: 5, Blue: 5, Alpha: 1}},
	{Format: RGB565, BitsPerPixel: 16, HasAlpha: false, Opaque: RGB565, Alpha: 0, Components: &Components{Red: 5, Green: 6, Blue: 5, Alpha: 0}},
	{Format: BGR565, BitsPerPixel: 16, HasAlpha: false, Opaque: BGR565, Alpha: 0, Components: &Components{Red: 5, Green: 6, Blue: 5, Alpha: 0}},
	{Format: RGB888, BitsPerPixel: 24, HasAlpha: false, Opaque: RGB888, Alpha: 0, Components: &Components{Red: 8, Green: 8, Blue: 8, Alpha: 0}},
	{Format: BGR888, BitsPerPixel: 24, HasAlpha: false, Opaque: BGR888, Alpha: 0, Components: &Components{Red: 8, Green: 8, Blue: 8, Alpha: 0}},
	{Format: XRGB8888, BitsPerPixel: 32, HasAlpha: false, Opaque: XRGB8888, Alpha: ARGB8888, Components: &Components{Red: 8, Green: 8, Blue: 8, Alpha: 0}},
	{Format: XBGR8888, BitsPerPixel: 32, HasAlpha: false, Opaque: XBGR8888, Alpha: ABGR8888, Components: &Components{Red: 8, Green: 8, Blue: 8, Alpha: 0}},
	{Format: RGBX8888, BitsPerPixel: 32, HasAlpha: false, Opaque: RGBX8888, Alpha: RGBA8888, Components: &Components{Red: 8, Green: 8, Blue: 8, Alpha: 0}},
	{Format: BGRX8888, BitsPerPixel: 32, HasAlpha: false, Opaque: BGRX8888, Alpha: BGRA8888, Components: &Components{Red: 8, Green: 8, Blue: 8, Alpha: 0}},
	{Format: ARGB8888, BitsPerPixel: 32, HasAlpha: true, Opaque: XRGB8888, Alpha: ARGB8888, Components: &Components{Red: 8, Green: 8, Blue: 8, Alpha: 8}},
	{Format: ABGR8888, BitsPerPixel: 32, HasAlpha: true, Opaque: XBGR8888, Alpha: ABGR8888, Components: &Components{Red: 8, Green: 8, Blue: 8, Alpha: 8}},
	{Format: RGBA8888, BitsPerPixel: 32, HasAlpha: true, Opaque: RGBX8888, Alpha: RGBA8888, Components: &Components{Red: 8, Green: 8, Blue: 8, Alpha: 8}},
	{Format: BGRA8888, BitsPerPixel: 32, HasAlpha: true, Opaque: BGRX8888, Alpha: BGRA8888, Components: &Components{Red: 8, Green: 8, Blue: 8, Alpha: 8}},
	{Format: XRGB2101010, BitsPerPixel: 32, HasAlpha: false, Opaque: XRGB2101010, Alpha: ARGB2101010, Components: &Components{Red: 10, Green: 10, Blue: 10, Alpha: 0}},
	{Format: XBGR2101010, BitsPerPixel: 32, HasAlpha: false, Opaque: XBGR2101010, Alpha: ABGR2101010, Components: &Components{Red: 10, Green: 10, Blue: 10, Alpha: 0}},
	{Format: RGBX1010102, BitsPerPixel: 32, HasAlpha: false, Opaque: RGBX1010102, Alpha: RGBA1010102, Components: &Components{Red: 10, Green: 10, Blue: 10, Alpha: 0}},
	{Format: BGRX1010102, BitsPerPixel: 32, HasAlpha: false, Opaque: BGRX1010102, Alpha: BGRA1010102, Components: &Components{Red: 10, Green: 10, Blue: 10, Alpha: 0}},
	{Format: ARGB2101010, BitsPerPixel: 32, HasAlpha: true, Opaque: XRGB2101010, Alpha: ARGB2101010, Components: &Components{Red: 10, Green: 10, Blue: 10, Alpha: 2}},
	{Format: ABGR2101010, BitsPerPixel: 32, HasAlpha: true, Opaque: XBGR2101010, Alpha: ABGR2101010, Components: &Components{Red: 10, Green: 10, Blue: 10, Alpha: 2}},
	{Format: RGBA1010102, BitsPerPixel: 32, HasAlpha: true, Opaque: RGBX1010102, Alpha: RGBA1010102, Components: &Components{Red: 10, Green: 10, Blue: 10, Alpha: 2}},
	{Format: BGRA1010102, BitsPerPixel: 32, HasAlpha: true, Opaque: BGRX1010102, Alpha: BGRA1010102, Components: &Components{Red: 10, Green: 10, Blue: 10, Alpha: 2}},
}

var formatNames = map[Format]string{
	XRGB4444:    "XRGB4444",
	XBGR4444:    "XBGR4444",
	RGBX4444:    "RGBX4444",
	BGRX4444:    "BGRX4444",
	ARGB4444:    "ARGB4444",
	ABGR4444:    "ABGR4444",
	RGBA4444:    "RGBA4444",
	BGRA4444:    "BGRA4444",
	XRGB1555:    "XRGB1555",
	XBGR1555:    "XBGR1555",
	RGBX5551:    "RGBX5551",
	BGRX5551:    "BGRX5551",
	ARGB1555:    "ARGB1555",
	ABGR1555:    "ABGR1555",
	RGBA5551:    "RGBA5551",
	BGRA5551:    "BGRA5551",
	RGB565:      "RGB565",
	BGR565:      "BGR565",
	RGB888:      "RGB888",
	BGR888:      "BGR888",
	XRGB8888:    "XRGB8888",
	XBGR8888:    "XBGR8888",
	RGBX8888:    "RGBX8888",
	BGRX8888:    "BGRX8888",
	ARGB8888:    "ARGB8888",
	ABGR8888:    "ABGR8888",
	RGBA8888:    "RGBA8888",
	BGRA8888:    "BGRA8888",
	XRGB2101010: "XRGB2101010",
	XBGR2101010: "XBGR2101010",
	RGBX1010102: "RGBX1010102",
	BGRX1010102: "BGRX1010102",
	ARGB2101010: "ARGB2101010",
	ABGR2101010: "ABGR2101010",
	RGBA1010102: "RGBA1010102",
	BGRA1010102: "BGRA1010102",
	R8:          "R8",
	GR88:        "GR88",
	YUYV:        "YUYV",
	NV12:        "NV12",
	NV21:        "NV21",
	YUV420:      "YUV420",
	P010:        "P010",
}
