package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// defaultWriteWait bounds each websocket send so a half-open connection is
// detected and dropped instead of stalling the broadcast.
const defaultWriteWait = 10 * time.Second

// Channel wraps one live websocket connection. gorilla/websocket permits at
// most one concurrent writer per connection, so all writes go through the
// channel's own lock; broadcasts to different channels stay independent.
type Channel struct {
	ws *websocket.Conn
	mu sync.Mutex
}

// NewChannel wraps an upgraded websocket connection.
func NewChannel(ws *websocket.Conn) *Channel {
	return &Channel{ws: ws}
}

// WriteJSON sends v as one JSON frame, failing if the peer does not accept
// it within writeWait.
func (c *Channel) WriteJSON(v any, writeWait time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteJSON(v)
}

// WritePing sends a ping control frame. gorilla/websocket allows control
// writes concurrently with data writes, so the channel lock is not taken.
func (c *Channel) WritePing(writeWait time.Duration) error {
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// SetLiveness arms the read deadline and extends it on every pong, so a
// peer that stops answering pings fails the next read within pongWait.
func (c *Channel) SetLiveness(pongWait time.Duration) error {
	if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return err
	}
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	return nil
}

// ReadMessage blocks for the next frame from the peer.
func (c *Channel) ReadMessage() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	return data, err
}

// Close closes the underlying connection. Safe to call more than once;
// closing also unblocks a pending ReadMessage.
func (c *Channel) Close() error {
	return c.ws.Close()
}

// Hub is the registry of live channels. Membership changes on connect and
// disconnect; broadcast order across channels is irrelevant because each
// delivery is independent.
type Hub struct {
	log       zerolog.Logger
	writeWait time.Duration

	mu       sync.Mutex
	channels map[*Channel]struct{}
}

// NewHub creates an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log:       log,
		writeWait: defaultWriteWait,
		channels:  make(map[*Channel]struct{}),
	}
}

// Register adds a channel to the live set. Idempotent.
func (h *Hub) Register(ch *Channel) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.channels[ch] = struct{}{}
}

// Unregister removes a channel. A no-op if the channel was already removed.
func (h *Hub) Unregister(ch *Channel) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.channels, ch)
}

// Count returns the number of registered channels.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.channels)
}

// Broadcast delivers v to every registered channel. Sends run concurrently,
// one goroutine per channel, so a slow peer stalls only its own delivery.
// Delivery is at-most-once: a failed send unregisters and closes that
// channel without affecting the rest, and nothing is retried.
func (h *Hub) Broadcast(v any) {
	h.mu.Lock()
	snapshot := make([]*Channel, 0, len(h.channels))
	for ch := range h.channels {
		snapshot = append(snapshot, ch)
	}
	h.mu.Unlock()

	var (
		wg     sync.WaitGroup
		failMu sync.Mutex
		failed []*Channel
	)
	for _, ch := range snapshot {
		wg.Add(1)
		go func(ch *Channel) {
			defer wg.Done()
			if err := ch.WriteJSON(v, h.writeWait); err != nil {
				h.log.Warn().Err(err).Msg("dropping unresponsive channel")
				failMu.Lock()
				failed = append(failed, ch)
				failMu.Unlock()
			}
		}(ch)
	}
	wg.Wait()

	for _, ch := range failed {
		h.Unregister(ch)
		ch.Close()
	}
}

// CloseAll closes every registered channel and empties the registry. Used
// on server shutdown to unblock the per-channel read loops.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	channels := make([]*Channel, 0, len(h.channels))
	for ch := range h.channels {
		channels = append(channels, ch)
	}
	h.channels = make(map[*Channel]struct{})
	h.mu.Unlock()

	for _, ch := range channels {
		ch.Close()
	}
}
