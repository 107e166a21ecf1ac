package ipc

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"

	"github.com/matjam/wlcore"
	"github.com/matjam/wlcore/internal/geometry"
)

// GET /status
func statusHandler(b Backend, socket string, started time.Time) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSONPretty(http.StatusOK, StatusResponse{
			Status:      "ok",
			Message:     "wlcore is running",
			Version:     strings.Trim(wlcore.Version, "\n\r "),
			PID:         os.Getpid(),
			Socket:      socket,
			Config:      viper.ConfigFileUsed(),
			Uptime:      time.Since(started).Round(time.Second).String(),
			Graphics:    b.GraphicsEnabled(),
			Devices:     len(b.Devices()),
			InputRegion: b.InputRegion(),
			Confinement: b.Confinement(),
		}, "  ")
	}
}

// GET /devices
func devicesHandler(b Backend) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSONPretty(http.StatusOK, DevicesResponse{
			Devices: b.Devices(),
			State:   b.DeviceState(),
		}, "  ")
	}
}

// GET /formats
func formatsHandler(b Backend) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSONPretty(http.StatusOK, FormatsResponse{
			Graphics: b.GraphicsEnabled(),
			Formats:  b.Formats(),
		}, "  ")
	}
}

// POST /confinement
func setConfinementHandler(b Backend) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req ConfinementRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, Response{Status: "error", Error: "invalid confinement request"})
		}
		if len(req.Regions) == 0 {
			return c.JSON(http.StatusBadRequest, Response{Status: "error", Error: "no regions given"})
		}
		regions := make(geometry.Rectangles, 0, len(req.Regions))
		for _, s := range req.Regions {
			r, err := geometry.ParseRectangle(s)
			if err != nil {
				return c.JSON(http.StatusBadRequest, Response{Status: "error", Error: err.Error()})
			}
			regions = append(regions, r)
		}
		b.SetConfinement(regions)
		return c.JSON(http.StatusOK, Response{Status: "ok", Message: regions.String()})
	}
}

// DELETE /confinement
func resetConfinementHandler(b Backend) echo.HandlerFunc {
	return func(c echo.Context) error {
		b.ResetConfinement()
		return c.JSON(http.StatusOK, Response{Status: "ok"})
	}
}

// POST /stop
func stopHandler(b Backend) echo.HandlerFunc {
	return func(c echo.Context) error {
		// Respond before the server starts shutting down underneath us.
		defer b.Stop()
		return c.JSON(http.StatusOK, Response{Status: "ok"})
	}
}
