// Package server wires the input pipeline, graphics and IPC together for
// `wlcore serve`.
package server

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/sourcegraph/conc"
	"go.uber.org/multierr"

	"github.com/matjam/wlcore/internal/alarm"
	"github.com/matjam/wlcore/internal/config"
	"github.com/matjam/wlcore/internal/geometry"
	"github.com/matjam/wlcore/internal/graphics/dmabuf"
	"github.com/matjam/wlcore/internal/input"
	"github.com/matjam/wlcore/internal/input/evdev"
	"github.com/matjam/wlcore/internal/ipc"
)

const shutdownTimeout = 5 * time.Second

type Options struct {
	Clock clockwork.Clock
	// OpenGraphics defaults to OpenGraphics.
	OpenGraphics func(renderNode string) (*Graphics, error)
	// Scene receives events that get through the filters. Defaults to a
	// debug log sink.
	Scene input.Dispatcher
	// Filters are offered events before the scene.
	Filters []input.EventFilter
}

type Server struct {
	cfg    *config.Config
	logger *log.Logger

	seat     *input.Seat
	hub      *input.DeviceHub
	chain    *input.Chain
	stream   *ipc.Broadcaster
	graphics *Graphics

	stopOnce sync.Once
	stop     chan struct{}
}

func New(cfg *config.Config, opts Options) (*Server, error) {
	outputs, err := cfg.Outputs()
	if err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.OpenGraphics == nil {
		opts.OpenGraphics = OpenGraphics
	}
	if opts.Scene == nil {
		opts.Scene = input.NewLogSink()
	}

	s := &Server{
		cfg:    cfg,
		logger: log.WithPrefix("server"),
		stream: ipc.NewBroadcaster(),
		stop:   make(chan struct{}),
	}

	s.chain = input.NewChain(input.Tee{opts.Scene, s.stream},
		alarm.NewFactory(opts.Clock), opts.Clock, cfg.KeyRepeat(), opts.Filters...)
	s.seat = input.NewSeat(s.chain, nil, nil, nil, opts.Clock)
	s.seat.UpdateOutputs(outputs)
	s.seat.AddObserver(s.stream)
	s.hub = input.NewDeviceHub(s.seat)
	s.hub.AddObserver(s.chain.Repeat)

	if cfg.Graphics.Enabled {
		g, err := opts.OpenGraphics(cfg.Graphics.RenderNode)
		if err != nil {
			s.logger.Warnf("graphics disabled: %v", err)
		} else {
			s.graphics = g
		}
	}
	return s, nil
}

func (s *Server) Seat() *input.Seat           { return s.seat }
func (s *Server) Hub() *input.DeviceHub       { return s.hub }
func (s *Server) Stream() *ipc.Broadcaster    { return s.stream }
func (s *Server) Graphics() *Graphics         { return s.graphics }
func (s *Server) Devices() []input.DeviceInfo { return s.hub.Devices() }

func (s *Server) DeviceState() *input.DeviceStateEvent {
	return s.seat.CreateDeviceState()
}

func (s *Server) GraphicsEnabled() bool {
	return s.graphics != nil
}

func (s *Server) Formats() []dmabuf.FormatDescriptor {
	if s.graphics == nil {
		return nil
	}
	return s.graphics.provider.Formats().All()
}

func (s *Server) InputRegion() geometry.Rectangles { return s.seat.InputRegion() }
func (s *Server) Confinement() geometry.Rectangles { return s.seat.ConfinementRegions() }

func (s *Server) SetConfinement(regions geometry.Rectangles) {
	s.logger.Infof("confining cursor to %s", regions)
	s.seat.SetConfinementRegions(regions)
}

func (s *Server) ResetConfinement() {
	s.logger.Info("cursor confinement reset")
	s.seat.ResetConfinementRegions()
}

// Stop makes Run return.
func (s *Server) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Run serves until ctx is done or Stop is called.
func (s *Server) Run(ctx context.Context) error {
	s.chain.Start()

	srv, err := ipc.Listen(s.cfg.SocketPath(), s, s.stream)
	if err != nil {
		s.chain.Stop()
		return err
	}

	monitor, err := evdev.NewMonitor(config.CanonicalPath(s.cfg.Input.DeviceDir), s.hub, func() geometry.Rectangle {
		return s.seat.InputRegion().BoundingRectangle()
	})
	if err == nil {
		if err = monitor.Start(); err != nil {
			monitor.Close()
		}
	}
	if err != nil {
		s.chain.Stop()
		return multierr.Append(errors.Wrap(err, "start input monitor"), srv.Shutdown(context.Background()))
	}

	var wg conc.WaitGroup
	served := make(chan error, 1)
	wg.Go(func() { served <- srv.Serve() })

	select {
	case <-ctx.Done():
		s.logger.Info("context done, shutting down")
	case <-s.stop:
		s.logger.Info("stop requested, shutting down")
	case err = <-served:
		s.logger.Errorf("IPC server failed: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = multierr.Combine(
		err,
		srv.Shutdown(shutdownCtx),
		monitor.Close(),
	)
	s.chain.Stop()
	if s.graphics != nil {
		err = multierr.Append(err, s.graphics.Close())
	}
	wg.Wait()
	s.logger.Info("wlcore exited")
	return err
}
