package ipc

import (
	"time"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, b Backend, stream *Broadcaster, socket string) {
	started := time.Now()
	e.GET("/status", statusHandler(b, socket, started))
	e.GET("/devices", devicesHandler(b))
	e.GET("/formats", formatsHandler(b))
	e.POST("/confinement", setConfinementHandler(b))
	e.DELETE("/confinement", resetConfinementHandler(b))
	e.POST("/stop", stopHandler(b))
	e.GET("/events", eventsHandler(stream))
}
