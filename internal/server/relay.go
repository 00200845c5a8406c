package server

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/suvarnak/gop/internal/protocol"
	"github.com/suvarnak/gop/internal/store"
)

const (
	// defaultPongWait is how long a channel may stay silent before its
	// read fails; pings go out often enough for a healthy peer to answer
	// well inside it.
	defaultPongWait   = 60 * time.Second
	defaultPingPeriod = (defaultPongWait * 9) / 10
)

// Relay handles the live clipboard channel on the server side: every
// inbound clipboard push is persisted to the store and then fanned out to
// all registered channels, including the one that sent it. Echo suppression
// is the receiving agent's job; keeping no per-channel state here means the
// relay needs nothing beyond the durable clipboard record.
type Relay struct {
	store *store.Store
	hub   *Hub
	log   zerolog.Logger

	pingPeriod time.Duration
	pongWait   time.Duration
}

// NewRelay wires a relay to its store and hub.
func NewRelay(st *store.Store, hub *Hub, log zerolog.Logger) *Relay {
	return &Relay{
		store:      st,
		hub:        hub,
		log:        log,
		pingPeriod: defaultPingPeriod,
		pongWait:   defaultPongWait,
	}
}

// HandleChannel runs the read loop for one connected channel until the peer
// disconnects or the channel is closed. A ping ticker plus pong-extended
// read deadline detects half-open connections, so a dead peer is dropped
// without waiting for a broadcast to fail. Each inbound message is handled
// independently; messages from one channel are processed strictly in
// arrival order.
func (r *Relay) HandleChannel(ctx context.Context, ch *Channel) {
	if err := ch.SetLiveness(r.pongWait); err != nil {
		ch.Close()
		return
	}

	r.hub.Register(ch)
	stopPing := make(chan struct{})
	go r.pingLoop(ch, stopPing)
	defer func() {
		close(stopPing)
		r.hub.Unregister(ch)
		ch.Close()
	}()

	for {
		data, err := ch.ReadMessage()
		if err != nil {
			r.log.Debug().Err(err).Msg("channel disconnected")
			return
		}

		r.handleFrame(ctx, data)
	}
}

// pingLoop pings the peer until the channel's read loop winds down. A
// failed ping closes the channel, which unblocks the read loop.
func (r *Relay) pingLoop(ch *Channel, stop <-chan struct{}) {
	ticker := time.NewTicker(r.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := ch.WritePing(defaultWriteWait); err != nil {
				ch.Close()
				return
			}
		}
	}
}

// handleFrame processes one inbound frame. Unknown message types are
// dropped, not rejected, so older servers tolerate newer clients.
func (r *Relay) handleFrame(ctx context.Context, data []byte) {
	frame, err := protocol.DecodeClientFrame(data)
	if err != nil {
		r.log.Warn().Err(err).Msg("ignoring malformed frame")
		return
	}

	switch frame.Kind {
	case protocol.ClientFrameClipboard:
		r.handleClipboardPush(ctx, frame.Clipboard)
	default:
		// Forward compatibility: skip silently.
	}
}

// handleClipboardPush persists the update and notifies every connected
// channel. If the store write fails nothing is broadcast: unpersisted state
// must not propagate. The channel stays open for further messages.
func (r *Relay) handleClipboardPush(ctx context.Context, push protocol.Push) {
	clip, err := r.store.UpsertClipboard(ctx, push.Content, push.Device)
	if err != nil {
		r.log.Error().Err(err).Str("device", push.Device).
			Msg("clipboard upsert failed, skipping broadcast")
		return
	}

	r.log.Info().
		Str("device", clip.Device).
		Str("hash", clip.Fingerprint).
		Int("bytes", len(clip.Content)).
		Msg("clipboard updated")

	r.hub.Broadcast(protocol.NewUpdate(clip.Content))
}
