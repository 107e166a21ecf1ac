package dmabuf

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCode is a zwp_linux_buffer_params_v1 protocol error.
type ErrorCode uint32

const (
	ErrorAlreadyUsed       ErrorCode = 0
	ErrorPlaneIdx          ErrorCode = 1
	ErrorPlaneSet          ErrorCode = 2
	ErrorIncomplete        ErrorCode = 3
	ErrorInvalidFormat     ErrorCode = 4
	ErrorInvalidDimensions ErrorCode = 5
	ErrorOutOfBounds       ErrorCode = 6
	ErrorInvalidWlBuffer   ErrorCode = 7
)

var errorCodeNames = [...]string{
	ErrorAlreadyUsed:       "already_used",
	ErrorPlaneIdx:          "plane_idx",
	ErrorPlaneSet:          "plane_set",
	ErrorIncomplete:        "incomplete",
	ErrorInvalidFormat:     "invalid_format",
	ErrorInvalidDimensions: "invalid_dimensions",
	ErrorOutOfBounds:       "out_of_bounds",
	ErrorInvalidWlBuffer:   "invalid_wl_buffer",
}

func (c ErrorCode) String() string {
	if int(c) < len(errorCodeNames) {
		return errorCodeNames[c]
	}
	return fmt.Sprintf("error_%d", uint32(c))
}

// ProtocolError is posted on the params resource and disconnects the
// client.
type ProtocolError struct {
	Code    ErrorCode
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("zwp_linux_buffer_params_v1 error %s: %s", e.Code, e.Message)
}

func protocolErrorf(code ErrorCode, format string, args ...any) error {
	return &ProtocolError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsProtocolError reports whether err carries code.
func IsProtocolError(err error, code ErrorCode) bool {
	var pe *ProtocolError
	return errors.As(err, &pe) && pe.Code == code
}

var (
	ErrNotDmaBuf          = errors.New("buffer is not an imported dma-buf")
	ErrNoCrossGPUExport   = errors.New("EGL implementation does not handle cross-GPU buffer export")
	ErrCannotTexture      = errors.New("buffer cannot be used as a texture")
	ErrNoWaylandBind      = errors.New("EGL_WL_bind_wayland_display not supported")
	ErrUnsupportedFormats = errors.New("EGL claimed dma-buf modifier support but every query failed")
)
