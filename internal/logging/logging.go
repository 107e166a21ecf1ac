// Package logging configures the charmbracelet/log default logger.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/pkg/errors"
)

// Setup sets the level of the default logger.
func Setup(debug bool) {
	log.SetReportTimestamp(true)
	log.SetTimeFormat(time.TimeOnly)
	if debug {
		log.SetLevel(log.DebugLevel)
		log.Debug("debug logging enabled")
		return
	}
	log.SetLevel(log.InfoLevel)
}

// Dir is where background instances write their logs.
func Dir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "wlcore")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "wlcore")
}

// RotatingWriter opens a daily rotated log file in dir, linked from
// dir/wlcore.log.
func RotatingWriter(dir string) (io.Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "create log directory")
	}
	logPath := filepath.Join(dir, "wlcore.log")
	writer, err := rotatelogs.New(
		logPath+".%Y%m%d%H%M",
		rotatelogs.WithLinkName(logPath),
		rotatelogs.WithMaxAge(7*24*time.Hour),
		rotatelogs.WithRotationSize(10*1024*1024),
		rotatelogs.WithRotationTime(24*time.Hour),
	)
	if err != nil {
		return nil, errors.Wrap(err, "configure log rotation")
	}
	return writer, nil
}

// SetupRotating sends the default logger to a rotating file in dir.
func SetupRotating(dir string, debug bool) error {
	w, err := RotatingWriter(dir)
	if err != nil {
		return err
	}
	log.SetOutput(w)
	Setup(debug)
	return nil
}
