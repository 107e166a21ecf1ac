package evdev

// Event types and codes from linux/input-event-codes.h.
const (
	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02
	evAbs = 0x03
	evSw  = 0x05
	evMax = 0x1f

	synReport  = 0
	synDropped = 3

	relX      = 0x00
	relY      = 0x01
	relHWheel = 0x06
	relWheel  = 0x08
	relMax    = 0x0f

	absX            = 0x00
	absY            = 0x01
	absMTSlot       = 0x2f
	absMTPositionX  = 0x35
	absMTPositionY  = 0x36
	absMTTrackingID = 0x39
	absMTPressure   = 0x3a
	absMax          = 0x3f

	keyA          = 30
	btnMisc       = 0x100
	btnLeft       = 0x110
	btnRight      = 0x111
	btnMiddle     = 0x112
	btnSide       = 0x113
	btnExtra      = 0x114
	btnForward    = 0x115
	btnBack       = 0x116
	btnTask       = 0x117
	btnToolFinger = 0x145
	btnTouch      = 0x14a
	keyMax        = 0x2ff

	keyReleased   = 0
	keyPressed    = 1
	keyAutoRepeat = 2
)
