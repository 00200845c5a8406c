// Package protocol defines the JSON messages exchanged over the live
// clipboard channel between the gop server and connected agents, and the
// content fingerprint used for change detection on both sides.
//
// Clients push {"type": "clipboard", ...} frames; the server fans out
// {"event": "clipboard_update", ...} frames to every connected channel.
// Unrecognized type/event values are ignored by the receiving side, never
// rejected, so either end can be upgraded independently.
package protocol

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Message type tags on the wire.
const (
	// TypeClipboard tags a client → server clipboard push.
	TypeClipboard = "clipboard"

	// EventClipboardUpdate tags a server → client fan-out notification.
	EventClipboardUpdate = "clipboard_update"
)

// Fingerprint returns the SHA-256 hex digest of content. It is pure and
// deterministic: the same content always fingerprints identically on every
// device, so fingerprints are comparable across the network without
// shipping the content itself.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Push is a client → server clipboard update.
type Push struct {
	Type    string `json:"type"`
	Device  string `json:"device"`
	Content string `json:"content"`
	Hash    string `json:"hash"`
}

// NewPush builds a clipboard push for content from the named device,
// computing the fingerprint.
func NewPush(device, content string) Push {
	return Push{
		Type:    TypeClipboard,
		Device:  device,
		Content: content,
		Hash:    Fingerprint(content),
	}
}

// Update is a server → client clipboard change notification.
type Update struct {
	Event   string `json:"event"`
	Content string `json:"content"`
}

// NewUpdate builds the fan-out notification for content.
func NewUpdate(content string) Update {
	return Update{Event: EventClipboardUpdate, Content: content}
}

// ClientFrameKind discriminates decoded client → server frames.
type ClientFrameKind int

const (
	// ClientFrameUnknown marks a frame with an unrecognized type tag.
	// The relay drops these without error.
	ClientFrameUnknown ClientFrameKind = iota

	// ClientFrameClipboard marks a clipboard push.
	ClientFrameClipboard
)

// ClientFrame is one decoded client → server message. Clipboard is only
// meaningful when Kind is ClientFrameClipboard.
type ClientFrame struct {
	Kind      ClientFrameKind
	Clipboard Push
}

// DecodeClientFrame decodes one frame received from a client channel.
// Malformed JSON is an error; a well-formed frame with an unrecognized
// type decodes to ClientFrameUnknown so callers can skip it.
func DecodeClientFrame(data []byte) (ClientFrame, error) {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return ClientFrame{}, fmt.Errorf("malformed frame: %w", err)
	}

	switch tag.Type {
	case TypeClipboard:
		var push Push
		if err := json.Unmarshal(data, &push); err != nil {
			return ClientFrame{}, fmt.Errorf("malformed clipboard push: %w", err)
		}
		return ClientFrame{Kind: ClientFrameClipboard, Clipboard: push}, nil
	default:
		return ClientFrame{Kind: ClientFrameUnknown}, nil
	}
}

// ServerFrameKind discriminates decoded server → client frames.
type ServerFrameKind int

const (
	// ServerFrameUnknown marks a frame with an unrecognized event tag.
	ServerFrameUnknown ServerFrameKind = iota

	// ServerFrameClipboardUpdate marks a clipboard change notification.
	ServerFrameClipboardUpdate
)

// ServerFrame is one decoded server → client message. Update is only
// meaningful when Kind is ServerFrameClipboardUpdate.
type ServerFrame struct {
	Kind   ServerFrameKind
	Update Update
}

// DecodeServerFrame decodes one frame received from the server.
// Malformed JSON is an error; an unrecognized event decodes to
// ServerFrameUnknown.
func DecodeServerFrame(data []byte) (ServerFrame, error) {
	var tag struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return ServerFrame{}, fmt.Errorf("malformed frame: %w", err)
	}

	switch tag.Event {
	case EventClipboardUpdate:
		var update Update
		if err := json.Unmarshal(data, &update); err != nil {
			return ServerFrame{}, fmt.Errorf("malformed clipboard update: %w", err)
		}
		return ServerFrame{Kind: ServerFrameClipboardUpdate, Update: update}, nil
	default:
		return ServerFrame{Kind: ServerFrameUnknown}, nil
	}
}
