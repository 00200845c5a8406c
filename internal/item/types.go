// Package item defines the record types shared by the gop server, store,
// and CLI. An item is one synced unit: a file, a text snippet, or the
// singleton clipboard record.
package item

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type classifies an item. The clipboard type is special: at most one
// clipboard item exists per server and writes to it replace the existing
// record instead of appending.
type Type string

const (
	// TypeFile is a file pushed from a device (content plus origin path).
	TypeFile Type = "file"

	// TypeText is a free-standing text snippet.
	TypeText Type = "text"

	// TypeClipboard is the singleton shared clipboard record.
	TypeClipboard Type = "clipboard"
)

// Validate checks if the Type is a valid enum value.
func (t Type) Validate() error {
	switch t {
	case TypeFile, TypeText, TypeClipboard:
		return nil
	default:
		return fmt.Errorf("unknown item type: %q", t)
	}
}

// Item represents one stored record.
type Item struct {
	ID        string    `json:"id"`                   // UUID - unique identifier for this item
	Device    string    `json:"device"`               // Display name of the device that produced it
	Type      Type      `json:"type"`                 // file, text, or clipboard
	Name      string    `json:"name"`                 // Display name (file name or generated)
	Content   string    `json:"content,omitempty"`    // Main content (file body, snippet, clipboard text)
	Path      string    `json:"path,omitempty"`       // Origin path on the source device (files only)
	CreatedAt time.Time `json:"created_at,omitempty"` // Set by the store on insert
}

// Clipboard is the singleton clipboard record together with the content
// fingerprint recomputed on every read and write. The fingerprint lets
// clients detect changes without comparing full content.
type Clipboard struct {
	Item
	Fingerprint string `json:"hash"`
}

// Validate checks if the Item has valid field values.
// Returns an error if any validation fails.
func (i *Item) Validate() error {
	if !isValidUUID(i.ID) {
		return fmt.Errorf("invalid item ID: not a valid UUID")
	}

	if i.Device == "" {
		return fmt.Errorf("device cannot be empty")
	}

	if err := i.Type.Validate(); err != nil {
		return fmt.Errorf("invalid item type: %w", err)
	}

	if i.Name == "" {
		return fmt.Errorf("item name cannot be empty")
	}

	return nil
}

// NewID returns a fresh item identifier.
func NewID() string {
	return uuid.New().String()
}

// ShortName returns a generated display name for unnamed items, e.g.
// "text-3fa09c" or "clipboard-8b12de".
func ShortName(t Type) string {
	return fmt.Sprintf("%s-%s", t, uuid.New().String()[:6])
}

// isValidUUID checks if a string is a valid UUID format.
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
