// Package clipboard abstracts access to the OS clipboard so the sync agent
// can be tested without a display server.
package clipboard

import (
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
)

// Accessor reads and writes a clipboard. Implementations must be safe for
// concurrent use: the agent's push and receive loops touch the clipboard
// from different goroutines.
type Accessor interface {
	Read() (string, error)
	Write(content string) error
}

// System accesses the real OS clipboard (xclip/xsel on Linux, pbcopy/pbpaste
// on macOS, the Windows clipboard API on Windows).
type System struct{}

// NewSystem returns the OS clipboard accessor, or an error when no
// clipboard mechanism is available (e.g. a headless Linux host without
// xclip or xsel installed).
func NewSystem() (*System, error) {
	if clipboard.Unsupported {
		return nil, fmt.Errorf("no clipboard utility available on this system (install xclip or xsel on Linux)")
	}
	return &System{}, nil
}

// Read returns the current clipboard content.
func (s *System) Read() (string, error) {
	content, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	return content, nil
}

// Write replaces the clipboard content.
func (s *System) Write(content string) error {
	if err := clipboard.WriteAll(content); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

// Memory is an in-memory Accessor for tests. It records how many writes
// occurred so tests can assert echo suppression.
type Memory struct {
	mu      sync.Mutex
	content string
	writes  int
	readErr error
}

// NewMemory returns a Memory accessor holding content.
func NewMemory(content string) *Memory {
	return &Memory{content: content}
}

// Read returns the stored content, or the injected read error.
func (m *Memory) Read() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return "", m.readErr
	}
	return m.content, nil
}

// Write replaces the stored content.
func (m *Memory) Write(content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content = content
	m.writes++
	return nil
}

// Set replaces the content without counting as a sync write, simulating the
// user copying something locally.
func (m *Memory) Set(content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content = content
}

// Writes reports how many times Write was called.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// FailReads makes subsequent Read calls return err (nil restores normal
// behavior).
func (m *Memory) FailReads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}
