package evdev

import (
	"bytes"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/matjam/wlcore/internal/input"
)

const (
	iocRead = 2
	iocType = 'E'
)

func ioc(dir, nr, size uintptr) uintptr {
	return dir<<30 | size<<16 | iocType<<8 | nr
}

func ioctl(fd uintptr, req uintptr, ptr unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, uintptr(ptr))
	if errno != 0 {
		return errno
	}
	return nil
}

func deviceName(fd uintptr) (string, error) {
	buf := make([]byte, 256)
	if err := ioctl(fd, ioc(iocRead, 0x06, uintptr(len(buf))), unsafe.Pointer(&buf[0])); err != nil {
		return "", err
	}
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf), nil
}

func eventBits(fd uintptr, ev, max int) ([]byte, error) {
	buf := make([]byte, max/8+1)
	if err := ioctl(fd, ioc(iocRead, uintptr(0x20+ev), uintptr(len(buf))), unsafe.Pointer(&buf[0])); err != nil {
		return nil, err
	}
	return buf, nil
}

func hasBit(bits []byte, n int) bool {
	return n/8 < len(bits) && bits[n/8]&(1<<(n%8)) != 0
}

type absInfo struct {
	Value, Minimum, Maximum, Fuzz, Flat, Resolution int32
}

func absRange(fd uintptr, code int) (absInfo, error) {
	var info absInfo
	err := ioctl(fd, ioc(iocRead, uintptr(0x40+code), unsafe.Sizeof(info)), unsafe.Pointer(&info))
	return info, err
}

func probeCapabilities(fd uintptr) (input.Capabilities, error) {
	types, err := eventBits(fd, 0, evMax)
	if err != nil {
		return 0, err
	}

	var caps input.Capabilities
	var keys []byte
	if hasBit(types, evKey) {
		if keys, err = eventBits(fd, evKey, keyMax); err != nil {
			return 0, err
		}
		for code := 1; code < btnMisc; code++ {
			if hasBit(keys, code) {
				caps |= input.CapKeyboard
				break
			}
		}
		if hasBit(keys, keyA) {
			caps |= input.CapAlphanumeric
		}
	}
	if hasBit(types, evRel) {
		rel, err := eventBits(fd, evRel, relMax)
		if err != nil {
			return 0, err
		}
		if hasBit(rel, relX) && hasBit(rel, relY) {
			caps |= input.CapPointer
		}
	}
	if hasBit(types, evAbs) {
		abs, err := eventBits(fd, evAbs, absMax)
		if err != nil {
			return 0, err
		}
		if hasBit(abs, absMTPositionX) || hasBit(abs, absX) {
			switch {
			case hasBit(keys, btnToolFinger):
				caps |= input.CapTouchpad
			case hasBit(keys, btnTouch):
				caps |= input.CapTouchscreen
			default:
				caps |= input.CapPointer
			}
		}
	}
	if hasBit(types, evSw) {
		caps |= input.CapSwitch
	}
	return caps, nil
}
