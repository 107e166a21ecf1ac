package evdev

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/matjam/wlcore/internal/geometry"
	"github.com/matjam/wlcore/internal/input"
)

// Device is an open /dev/input/event* node.
type Device struct {
	Path string
	Name string
	Caps input.Capabilities

	file *os.File
	absX absInfo
	absY absInfo
}

func Open(path string) (*Device, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}

	d := &Device{Path: path, file: f}
	fd := f.Fd()
	if d.Name, err = deviceName(fd); err != nil {
		f.Close()
		return nil, fmt.Errorf("reading name of %s: %w", path, err)
	}
	if d.Caps, err = probeCapabilities(fd); err != nil {
		f.Close()
		return nil, fmt.Errorf("probing %s: %w", path, err)
	}
	if d.Caps&(input.CapTouchscreen|input.CapTouchpad) != 0 {
		d.absX, _ = absRange(fd, absMTPositionX)
		d.absY, _ = absRange(fd, absMTPositionY)
	}
	return d, nil
}

// AbsMapper scales the device's absolute axes onto region.
func (d *Device) AbsMapper(region geometry.Rectangle) AbsMapper {
	scale := func(v int32, info absInfo, origin, extent int) float32 {
		span := info.Maximum - info.Minimum
		if span <= 0 || extent <= 0 {
			return float32(v)
		}
		return float32(origin) + float32(v-info.Minimum)*float32(extent-1)/float32(span)
	}
	return func(x, y int32) geometry.PointF {
		return geometry.PointF{
			X: scale(x, d.absX, region.X, region.Width),
			Y: scale(y, d.absY, region.Y, region.Height),
		}
	}
}

// Run reads events until the device goes away or is closed, posting each
// translated event to post.
func (d *Device) Run(t *Translator, post func(input.Event) error) error {
	buf := make([]byte, rawEventSize*64)
	for {
		n, err := d.file.Read(buf)
		if err != nil {
			if errors.Is(err, os.ErrClosed) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		for off := 0; off+rawEventSize <= n; off += rawEventSize {
			for _, ev := range t.Feed(decode(buf[off : off+rawEventSize])) {
				if err := post(ev); err != nil {
					return err
				}
			}
		}
	}
}

func (d *Device) Close() error {
	return d.file.Close()
}
