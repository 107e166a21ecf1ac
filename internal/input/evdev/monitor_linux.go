package evdev

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/sourcegraph/conc"
	"go.uber.org/multierr"
	"golang.org/x/time/rate"

	"github.com/matjam/wlcore/internal/geometry"
	"github.com/matjam/wlcore/internal/input"
)

// Sink receives devices and their events. *input.DeviceHub implements it.
type Sink interface {
	Add(name, path string, caps input.Capabilities) (input.DeviceInfo, error)
	Remove(id input.DeviceID) error
	Post(ev input.Event) error
}

// attached is a device node the monitor owns. dev is nil while the node is
// still being opened.
type attached struct {
	dev  *Device
	info input.DeviceInfo
}

// Monitor attaches every event node in a directory to a sink and follows
// hot-plug with fsnotify.
type Monitor struct {
	dir    string
	sink   Sink
	open   func(path string) (*Device, error)
	region func() geometry.Rectangle
	logger *log.Logger
	errs   rate.Sometimes

	watcher *fsnotify.Watcher
	readers conc.WaitGroup
	done    chan struct{}

	mu      sync.Mutex
	devices map[string]*attached
}

// NewMonitor watches dir. region supplies the area touchscreens are mapped
// onto.
func NewMonitor(dir string, sink Sink, region func() geometry.Rectangle) (*Monitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Monitor{
		dir:     dir,
		sink:    sink,
		open:    Open,
		region:  region,
		logger:  log.WithPrefix("evdev"),
		errs:    rate.Sometimes{Interval: 10 * time.Second},
		watcher: watcher,
		done:    make(chan struct{}),
		devices: make(map[string]*attached),
	}, nil
}

func (m *Monitor) Start() error {
	if err := m.watcher.Add(m.dir); err != nil {
		return err
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return err
	}
	var paths []string
	for _, e := range entries {
		if isEventNode(e.Name()) {
			paths = append(paths, filepath.Join(m.dir, e.Name()))
		}
	}
	sort.Strings(paths)
	for _, p := range paths {
		m.attach(p)
	}
	m.logger.Infof("watching %s, %d devices attached", m.dir, len(paths))

	go m.watch()
	return nil
}

func (m *Monitor) watch() {
	for {
		select {
		case <-m.done:
			return
		case ev, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if !isEventNode(filepath.Base(ev.Name)) {
				continue
			}
			switch {
			case ev.Has(fsnotify.Create):
				// udev may not have fixed permissions yet
				time.Sleep(50 * time.Millisecond)
				m.attach(ev.Name)
			case ev.Has(fsnotify.Remove):
				m.detach(ev.Name)
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Warnf("watch error: %v", err)
		}
	}
}

func (m *Monitor) attach(path string) {
	// Reserve the path so a rescan and a Create event for the same node
	// cannot both register it.
	slot := &attached{}
	m.mu.Lock()
	if _, ok := m.devices[path]; ok {
		m.mu.Unlock()
		return
	}
	m.devices[path] = slot
	m.mu.Unlock()

	release := func() {
		m.mu.Lock()
		if m.devices[path] == slot {
			delete(m.devices, path)
		}
		m.mu.Unlock()
	}

	dev, err := m.open(path)
	if err != nil {
		release()
		m.errs.Do(func() { m.logger.Warnf("skipping %s: %v", path, err) })
		return
	}
	if dev.Caps == 0 {
		release()
		dev.Close()
		return
	}

	info, err := m.sink.Add(dev.Name, path, dev.Caps)
	if err != nil {
		release()
		m.logger.Errorf("registering %s: %v", path, err)
		dev.Close()
		return
	}

	var mapper AbsMapper
	if m.region != nil {
		mapper = dev.AbsMapper(m.region())
	}
	t := NewTranslator(info.ID, mapper)

	m.mu.Lock()
	if m.devices[path] != slot || m.closed() {
		// removed or shut down while opening
		if m.devices[path] == slot {
			delete(m.devices, path)
		}
		m.mu.Unlock()
		dev.Close()
		if err := m.sink.Remove(info.ID); err != nil {
			m.logger.Warnf("removing %s: %v", path, err)
		}
		return
	}
	slot.dev, slot.info = dev, info
	// Started under the lock so Close cannot miss the reader.
	m.readers.Go(func() {
		err := dev.Run(t, m.sink.Post)
		if err != nil && !errors.Is(err, os.ErrClosed) {
			m.logger.Debugf("reader for %s stopped: %v", path, err)
		}
		m.detach(path)
	})
	m.mu.Unlock()
}

func (m *Monitor) detach(path string) {
	m.mu.Lock()
	a, ok := m.devices[path]
	delete(m.devices, path)
	m.mu.Unlock()
	if !ok || a.dev == nil {
		return
	}

	a.dev.Close()
	if err := m.sink.Remove(a.info.ID); err != nil {
		m.logger.Warnf("removing %s: %v", path, err)
	}
}

// Close stops watching, detaches every device and waits for the readers.
func (m *Monitor) Close() error {
	close(m.done)
	err := m.watcher.Close()

	m.mu.Lock()
	paths := make([]string, 0, len(m.devices))
	for p := range m.devices {
		paths = append(paths, p)
	}
	m.mu.Unlock()

	for _, p := range paths {
		m.mu.Lock()
		a, ok := m.devices[p]
		m.mu.Unlock()
		if ok && a.dev != nil {
			err = multierr.Append(err, a.dev.Close())
		}
	}
	m.readers.Wait()
	return err
}

func (m *Monitor) closed() bool {
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}

func isEventNode(name string) bool {
	return strings.HasPrefix(name, "event")
}
