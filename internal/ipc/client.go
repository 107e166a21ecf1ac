package ipc

import (
	"context"
	"net"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"resty.dev/v3"
)

// Client talks to a running instance over its unix socket.
type Client struct {
	path   string
	client *resty.Client
}

func NewClient(path string) *Client {
	client := resty.NewWithClient(&http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", path)
			},
		},
	})

	client.SetBaseURL("http://wlcore")
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Accept", "application/json")
	client.SetHeader("User-Agent", "wlcore")

	return &Client{path: path, client: client}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) do(method, url string, body, result any) error {
	req := c.client.R()
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	failure := &Response{}
	req.SetError(failure)

	res, err := req.Execute(method, url)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, url)
	}
	if res.StatusCode() != http.StatusOK {
		if failure.Error != "" {
			return errors.Errorf("%s %s: %s", method, url, failure.Error)
		}
		return errors.Errorf("%s %s: %s", method, url, res.Status())
	}
	return nil
}

func (c *Client) Status() (*StatusResponse, error) {
	var out StatusResponse
	if err := c.do(http.MethodGet, "/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Devices() (*DevicesResponse, error) {
	var out DevicesResponse
	if err := c.do(http.MethodGet, "/devices", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Formats() (*FormatsResponse, error) {
	var out FormatsResponse
	if err := c.do(http.MethodGet, "/formats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Confine(regions []string) error {
	return c.do(http.MethodPost, "/confinement", ConfinementRequest{Regions: regions}, &Response{})
}

func (c *Client) ResetConfinement() error {
	return c.do(http.MethodDelete, "/confinement", nil, &Response{})
}

func (c *Client) Stop() error {
	return c.do(http.MethodPost, "/stop", nil, &Response{})
}

// Monitor streams events to fn until ctx is done or the server goes away.
func (c *Client) Monitor(ctx context.Context, fn func(StreamEvent)) error {
	dialer := websocket.Dialer{
		NetDialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", c.path)
		},
	}
	conn, _, err := dialer.DialContext(ctx, "ws://wlcore/events", nil)
	if err != nil {
		return errors.Wrap(err, "connect to event stream")
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		var ev StreamEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return nil
			}
			return errors.Wrap(err, "read event stream")
		}
		fn(ev)
	}
}
