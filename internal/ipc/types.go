package ipc

import (
	"time"

	"github.com/matjam/wlcore/internal/geometry"
	"github.com/matjam/wlcore/internal/graphics/dmabuf"
	"github.com/matjam/wlcore/internal/input"
)

// Backend is the running compositor core as seen by the IPC server.
type Backend interface {
	Devices() []input.DeviceInfo
	DeviceState() *input.DeviceStateEvent
	// Formats is nil when graphics are disabled.
	Formats() []dmabuf.FormatDescriptor
	GraphicsEnabled() bool
	InputRegion() geometry.Rectangles
	Confinement() geometry.Rectangles
	SetConfinement(regions geometry.Rectangles)
	ResetConfinement()
	Stop()
}

type StatusResponse struct {
	Status      string              `json:"status"`
	Message     string              `json:"message"`
	Version     string              `json:"version"`
	PID         int                 `json:"pid"`
	Socket      string              `json:"socket"`
	Config      string              `json:"config"`
	Uptime      string              `json:"uptime"`
	Graphics    bool                `json:"graphics"`
	Devices     int                 `json:"devices"`
	InputRegion geometry.Rectangles `json:"input_region"`
	Confinement geometry.Rectangles `json:"confinement"`
}

type DevicesResponse struct {
	Devices []input.DeviceInfo      `json:"devices"`
	State   *input.DeviceStateEvent `json:"state"`
}

type FormatsResponse struct {
	Graphics bool                      `json:"graphics"`
	Formats  []dmabuf.FormatDescriptor `json:"formats"`
}

// ConfinementRequest lists regions as "WxH+X+Y".
type ConfinementRequest struct {
	Regions []string `json:"regions"`
}

type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// StreamEvent is one message on the /events websocket.
type StreamEvent struct {
	Kind   string         `json:"kind"`
	Device input.DeviceID `json:"device"`
	Time   time.Duration  `json:"time"`
	Event  any            `json:"event,omitempty"`
}
