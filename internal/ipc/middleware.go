package ipc

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
)

// CharmLog logs each request at debug level, and failed ones at warn.
func CharmLog() echo.MiddlewareFunc {
	logger := log.WithPrefix("ipc")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req, res := c.Request(), c.Response()
			fields := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"status", res.Status,
				"took", time.Since(start).Round(time.Microsecond),
			}
			if err != nil || res.Status >= 400 {
				logger.Warn("request", append(fields, "err", err)...)
			} else {
				logger.Debug("request", fields...)
			}
			return nil
		}
	}
}
