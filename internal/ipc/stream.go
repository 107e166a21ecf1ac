package ipc

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/matjam/wlcore/internal/geometry"
	"github.com/matjam/wlcore/internal/input"
)

const (
	subscriberBuffer = 256
	writeTimeout     = 5 * time.Second
)

// Broadcaster streams input to websocket subscribers. It sits at the end
// of the dispatch chain and also observes the seat, so both dispatched
// events and seat changes show up on the stream. Slow subscribers lose
// events rather than stalling input.
type Broadcaster struct {
	logger  *log.Logger
	dropped rate.Sometimes

	mu     sync.Mutex
	subs   map[chan StreamEvent]struct{}
	closed bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		logger:  log.WithPrefix("stream"),
		dropped: rate.Sometimes{Interval: 10 * time.Second},
		subs:    make(map[chan StreamEvent]struct{}),
	}
}

// Subscribe returns a channel of events and a function that ends the
// subscription. The channel is closed when the subscription ends.
func (b *Broadcaster) Subscribe() (<-chan StreamEvent, func()) {
	ch := make(chan StreamEvent, subscriberBuffer)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[ch]; ok {
				delete(b.subs, ch)
				close(ch)
			}
		})
	}
}

func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Broadcaster) publish(ev StreamEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.dropped.Do(func() { b.logger.Warn("event stream subscriber is too slow, dropping events") })
		}
	}
}

func (b *Broadcaster) Dispatch(ev input.Event) bool {
	b.publish(StreamEvent{
		Kind:   input.Kind(ev),
		Device: ev.Device(),
		Time:   ev.EventTime(),
		Event:  ev.Clone(),
	})
	return false
}

func (b *Broadcaster) Start() {}

// Stop ends every subscription.
func (b *Broadcaster) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}

func (b *Broadcaster) SeatAddDevice(id input.DeviceID) {
	b.publish(StreamEvent{Kind: "device_added", Device: id})
}

func (b *Broadcaster) SeatRemoveDevice(id input.DeviceID) {
	b.publish(StreamEvent{Kind: "device_removed", Device: id})
}

// SeatDispatchEvent is not streamed; the event reaches Dispatch once the
// rest of the chain has seen it.
func (b *Broadcaster) SeatDispatchEvent(input.Event) {}

func (b *Broadcaster) SeatSetKeyState(id input.DeviceID, scanCodes []uint32) {
	b.publish(StreamEvent{Kind: "key_state", Device: id, Event: append([]uint32(nil), scanCodes...)})
}

func (b *Broadcaster) SeatSetPointerState(id input.DeviceID, buttons input.Buttons) {
	b.publish(StreamEvent{Kind: "pointer_state", Device: id, Event: buttons})
}

func (b *Broadcaster) SeatSetCursorPosition(x, y float32) {
	b.publish(StreamEvent{Kind: "cursor", Device: -1, Event: geometry.PointF{X: x, Y: y}})
}

func (b *Broadcaster) SeatSetConfinementRegion(regions geometry.Rectangles) {
	b.publish(StreamEvent{Kind: "confinement", Device: -1, Event: regions})
}

func (b *Broadcaster) SeatResetConfinementRegions() {
	b.publish(StreamEvent{Kind: "confinement_reset", Device: -1})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// GET /events
func eventsHandler(b *Broadcaster) echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return err
		}
		defer conn.Close()

		events, cancel := b.Subscribe()
		defer cancel()

		// The client never sends anything; reading only notices it going away.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
						b.logger.Debugf("event stream read: %v", err)
					}
					return
				}
			}
		}()

		for {
			select {
			case <-gone:
				return nil
			case ev, ok := <-events:
				if !ok {
					conn.SetWriteDeadline(time.Now().Add(writeTimeout))
					conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping"))
					return nil
				}
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteJSON(ev); err != nil {
					b.logger.Debugf("event stream write: %v", err)
					return nil
				}
			}
		}
	}
}

var (
	_ input.Dispatcher   = (*Broadcaster)(nil)
	_ input.SeatObserver = (*Broadcaster)(nil)
)
