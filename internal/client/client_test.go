package client

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suvarnak/gop/internal/item"
	"github.com/suvarnak/gop/internal/protocol"
	"github.com/suvarnak/gop/internal/server"
	"github.com/suvarnak/gop/internal/store"
)

// setupTestClient runs a real server over a fresh store and returns a client
// pointed at it.
func setupTestClient(t *testing.T) *Client {
	t.Helper()

	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	srv := server.New(st, "test", zerolog.Nop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return New(ts.URL)
}

func TestNewNormalizesServer(t *testing.T) {
	t.Run("bare host:port gets a scheme", func(t *testing.T) {
		c := New("192.168.1.10:8000")
		assert.Equal(t, "http://192.168.1.10:8000", c.baseURL)
	})

	t.Run("trailing slash is trimmed", func(t *testing.T) {
		c := New("http://192.168.1.10:8000/")
		assert.Equal(t, "http://192.168.1.10:8000", c.baseURL)
	})

	t.Run("live URL uses the websocket scheme", func(t *testing.T) {
		c := New("192.168.1.10:8000")
		assert.Equal(t, "ws://192.168.1.10:8000/live", c.LiveURL())
	})
}

func TestItemRoundTrip(t *testing.T) {
	c := setupTestClient(t)
	ctx := context.Background()

	created, err := c.AddItem(ctx, &item.Item{
		Device:  "laptop",
		Type:    item.TypeText,
		Content: "a note",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, strings.HasPrefix(created.Name, "text-"))

	t.Run("list includes the item", func(t *testing.T) {
		items, err := c.ListItems(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, created.ID, items[0].ID)
	})

	t.Run("get by short prefix", func(t *testing.T) {
		got, err := c.GetItem(ctx, created.ID[:8])
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "a note", got.Content)
	})

	t.Run("delete then get reports not found", func(t *testing.T) {
		require.NoError(t, c.DeleteItem(ctx, created.ID))

		_, err := c.GetItem(ctx, created.ID)
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
	})
}

func TestClipboard(t *testing.T) {
	c := setupTestClient(t)
	ctx := context.Background()

	t.Run("empty clipboard reports not found", func(t *testing.T) {
		_, err := c.GetClipboard(ctx)
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
	})

	t.Run("push then pull round-trips", func(t *testing.T) {
		pushed, err := c.PushClipboard(ctx, "laptop", "copied text")
		require.NoError(t, err)
		assert.Equal(t, protocol.Fingerprint("copied text"), pushed.Fingerprint)

		clip, err := c.GetClipboard(ctx)
		require.NoError(t, err)
		assert.Equal(t, "copied text", clip.Content)
		assert.Equal(t, "laptop", clip.Device)
	})

	t.Run("push replaces, never appends", func(t *testing.T) {
		_, err := c.PushClipboard(ctx, "desktop", "newer text")
		require.NoError(t, err)

		clip, err := c.GetClipboard(ctx)
		require.NoError(t, err)
		assert.Equal(t, "newer text", clip.Content)
		assert.Equal(t, "desktop", clip.Device)

		items, err := c.ListItems(ctx)
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})
}

func TestServerErrors(t *testing.T) {
	c := setupTestClient(t)
	ctx := context.Background()

	t.Run("invalid type surfaces the server message", func(t *testing.T) {
		_, err := c.AddItem(ctx, &item.Item{
			Device:  "laptop",
			Type:    "hologram",
			Content: "x",
		})
		require.Error(t, err)
		assert.False(t, IsNotFound(err))
	})

	t.Run("unreachable server fails with context", func(t *testing.T) {
		dead := New("127.0.0.1:1")
		_, err := dead.ListItems(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to reach server")
	})
}
