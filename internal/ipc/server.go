package ipc

import (
	"context"
	"net"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Server answers IPC requests on a unix socket.
type Server struct {
	echo   *echo.Echo
	path   string
	stream *Broadcaster
}

// Listen binds the socket at path, replacing a stale one. It fails if
// another instance is answering on it.
func Listen(path string, b Backend, stream *Broadcaster) (*Server, error) {
	if _, err := os.Stat(path); err == nil {
		if _, err := NewClient(path).Status(); err == nil {
			return nil, errors.Errorf("another instance is listening on %s", path)
		}
		_ = os.Remove(path)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, errors.Wrap(err, "listen on IPC socket")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Listener = listener

	e.Use(CharmLog())

	RegisterRoutes(e, b, stream, path)

	return &Server{echo: e, path: path, stream: stream}, nil
}

func (s *Server) Path() string { return s.path }

// Serve blocks until Shutdown.
func (s *Server) Serve() error {
	log.Infof("IPC listening on %s", s.path)
	server := new(http.Server)
	if err := s.echo.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "IPC server")
	}
	return nil
}

// Shutdown ends event streams, stops the server and removes the socket.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stream.Stop()
	err := s.echo.Shutdown(ctx)
	os.Remove(s.path)
	return err
}
