// Package agent implements the client side of clipboard sync: a push loop
// that polls the local clipboard and sends changes to the server, and a
// receive loop that applies broadcast updates from other devices. Both loops
// share the fingerprint state used for echo suppression.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/suvarnak/gop/internal/clipboard"
	"github.com/suvarnak/gop/internal/protocol"
)

const (
	// DefaultInterval is the clipboard poll interval when none is configured.
	DefaultInterval = 5 * time.Second

	// sendBackoff is how long the push loop waits after a failed send
	// before polling again.
	sendBackoff = time.Second

	// writeWait bounds each outbound send so a half-open connection is
	// detected instead of stalling the push loop.
	writeWait = 10 * time.Second

	// pongWait is how long the server may stay silent before the receive
	// loop's read fails; the agent pings often enough for a healthy
	// server to answer well inside it.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Agent mirrors the local clipboard with the server's clipboard record over
// one long-lived websocket connection.
type Agent struct {
	clip     clipboard.Accessor
	device   string
	interval time.Duration
	log      zerolog.Logger

	// lastSent and lastReceived are fingerprints, not content. They start
	// empty and are only ever advanced after a successful send or a
	// successful clipboard write, so a transient failure never masks a
	// later real change.
	mu           sync.Mutex
	lastSent     string
	lastReceived string
}

// New creates an agent for the named device. interval is the clipboard poll
// interval; zero selects DefaultInterval.
func New(clip clipboard.Accessor, device string, interval time.Duration, log zerolog.Logger) *Agent {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Agent{
		clip:     clip,
		device:   device,
		interval: interval,
		log:      log,
	}
}

// Run connects to the server's live endpoint and runs the push and receive
// loops until ctx is cancelled or the connection breaks. A broken connection
// returns an error so the caller can decide whether to reconnect; a
// cancelled context returns nil.
func (a *Agent) Run(ctx context.Context, liveURL string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, liveURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", liveURL, err)
	}
	defer conn.Close()

	a.log.Info().Str("url", liveURL).Str("device", a.device).Msg("sync channel connected")

	// Pong-extended read deadline plus a ping ticker, so a half-open
	// server connection fails the receive loop instead of hanging it.
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return fmt.Errorf("failed to arm read deadline: %w", err)
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Closing the connection is the only way to unblock a pending read,
	// so tie its lifetime to the loop context.
	go func() {
		<-loopCtx.Done()
		conn.Close()
	}()

	go a.pingLoop(loopCtx, conn)

	recvErr := make(chan error, 1)
	go func() {
		recvErr <- a.receiveLoop(conn)
		cancel()
	}()

	a.pushLoop(loopCtx, conn)

	err = <-recvErr
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// pushLoop polls the clipboard on the configured interval and pushes content
// whose fingerprint the server has not seen from this agent. It returns when
// ctx is cancelled; send failures only delay the next poll.
func (a *Agent) pushLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.pushOnce(conn); err != nil {
				a.log.Warn().Err(err).Msg("clipboard push failed")
				select {
				case <-ctx.Done():
					return
				case <-time.After(sendBackoff):
				}
			}
		}
	}
}

// pushOnce reads the clipboard and sends it when it carries something new.
// Clipboard read failures are logged and skipped without touching the
// fingerprint state; only transport failures are returned.
func (a *Agent) pushOnce(conn *websocket.Conn) error {
	content, err := a.clip.Read()
	if err != nil {
		a.log.Warn().Err(err).Msg("clipboard read failed")
		return nil
	}
	if content == "" {
		return nil
	}

	fp := protocol.Fingerprint(content)

	a.mu.Lock()
	// Content this agent already pushed, or content just applied from the
	// network, is not news: re-pushing the latter would claim another
	// device's update as our own.
	suppressed := fp == a.lastSent || fp == a.lastReceived
	a.mu.Unlock()
	if suppressed {
		return nil
	}

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := conn.WriteJSON(protocol.NewPush(a.device, content)); err != nil {
		return err
	}

	a.mu.Lock()
	a.lastSent = fp
	a.mu.Unlock()

	a.log.Debug().Str("hash", fp).Int("bytes", len(content)).Msg("clipboard pushed")
	return nil
}

// pingLoop pings the server until ctx is cancelled. Control writes are safe
// alongside the push loop's data writes. A failed ping closes the
// connection, which surfaces through the receive loop.
func (a *Agent) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			if err != nil {
				conn.Close()
				return
			}
		}
	}
}

// receiveLoop applies inbound clipboard updates until the connection breaks,
// which is terminal for this connection.
func (a *Agent) receiveLoop(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("sync channel closed: %w", err)
		}

		frame, err := protocol.DecodeServerFrame(data)
		if err != nil {
			a.log.Warn().Err(err).Msg("ignoring malformed frame")
			continue
		}
		if frame.Kind != protocol.ServerFrameClipboardUpdate {
			continue
		}

		a.applyUpdate(frame.Update.Content)
	}
}

// applyUpdate writes a broadcast update to the local clipboard unless it is
// an echo. The last-sent check runs before the last-received check: a
// self-echo must never be treated as a fresh remote update, even when the
// same content was also received earlier.
func (a *Agent) applyUpdate(content string) {
	fp := protocol.Fingerprint(content)

	a.mu.Lock()
	if fp == a.lastSent {
		a.mu.Unlock()
		a.log.Debug().Str("hash", fp).Msg("discarding self-echo")
		return
	}
	if fp == a.lastReceived {
		a.mu.Unlock()
		a.log.Debug().Str("hash", fp).Msg("discarding duplicate update")
		return
	}
	a.mu.Unlock()

	if err := a.clip.Write(content); err != nil {
		// State stays untouched so the next broadcast of this content
		// gets another chance to apply.
		a.log.Error().Err(err).Msg("failed to write local clipboard")
		return
	}

	a.mu.Lock()
	a.lastReceived = fp
	a.mu.Unlock()

	a.log.Debug().Str("hash", fp).Int("bytes", len(content)).Msg("applied remote clipboard")
}
