// Package client talks to a gop server's HTTP API on behalf of the CLI
// commands.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/suvarnak/gop/internal/item"
)

// ErrNotFound indicates the server has no such item (or no clipboard
// content yet).
var ErrNotFound = errors.New("not found")

// IsNotFound reports whether err means the requested resource is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Client is a gop API client. Requests carry a short timeout because the
// server is expected to be on the local network.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for server, given as "host:port" or a full http URL.
func New(server string) *Client {
	base := strings.TrimRight(server, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// LiveURL returns the websocket endpoint for the sync agent.
func (c *Client) LiveURL() string {
	ws := strings.Replace(c.baseURL, "http", "ws", 1)
	return ws + "/live"
}

// AddItem creates an item and returns it as stored, with the server-assigned
// ID, name, and timestamp.
func (c *Client) AddItem(ctx context.Context, i *item.Item) (*item.Item, error) {
	var created item.Item
	if err := c.do(ctx, http.MethodPost, "/items", i, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListItems fetches all items, newest first.
func (c *Client) ListItems(ctx context.Context) ([]*item.Item, error) {
	var items []*item.Item
	if err := c.do(ctx, http.MethodGet, "/items", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetItem fetches one item by full ID or short prefix.
func (c *Client) GetItem(ctx context.Context, id string) (*item.Item, error) {
	var i item.Item
	if err := c.do(ctx, http.MethodGet, "/items/"+id, nil, &i); err != nil {
		return nil, err
	}
	return &i, nil
}

// DeleteItem deletes one item by full ID or short prefix.
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/items/"+id, nil, nil)
}

// GetClipboard fetches the current clipboard record. ErrNotFound means no
// device has pushed yet.
func (c *Client) GetClipboard(ctx context.Context) (*item.Clipboard, error) {
	var clip item.Clipboard
	if err := c.do(ctx, http.MethodGet, "/clipboard", nil, &clip); err != nil {
		return nil, err
	}
	return &clip, nil
}

// PushClipboard replaces the server's clipboard record with content from the
// named device.
func (c *Client) PushClipboard(ctx context.Context, device, content string) (*item.Clipboard, error) {
	push := &item.Item{
		Device:  device,
		Type:    item.TypeClipboard,
		Content: content,
	}

	var clip item.Clipboard
	if err := c.do(ctx, http.MethodPost, "/items", push, &clip); err != nil {
		return nil, err
	}
	return &clip, nil
}

// do performs one API request, decoding the JSON response into out when out
// is non-nil and turning error responses into errors.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach server at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.apiError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// apiError turns an error response into a Go error, preserving the server's
// message.
func (c *Client) apiError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	msg := resp.Status
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		msg = payload.Error
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", msg, ErrNotFound)
	}
	return fmt.Errorf("server error: %s", msg)
}
