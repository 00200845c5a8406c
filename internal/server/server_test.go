package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suvarnak/gop/internal/item"
	"github.com/suvarnak/gop/internal/protocol"
	"github.com/suvarnak/gop/internal/store"
)

// setupTestServer creates a server over a fresh on-disk store and exposes it
// through httptest.
func setupTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	srv := New(st, "test", zerolog.Nop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return srv, ts
}

// dialLive connects a websocket client to the test server's /live endpoint.
func dialLive(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// waitForChannels blocks until the hub has registered n channels.
func waitForChannels(t *testing.T, srv *Server, n int) {
	t.Helper()

	require.Eventually(t, func() bool {
		return srv.Hub().Count() == n
	}, 2*time.Second, 10*time.Millisecond)
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body any) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getJSON(t *testing.T, ts *httptest.Server, path string, v any) int {
	t.Helper()

	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func doDelete(t *testing.T, ts *httptest.Server, path string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodDelete, ts.URL+path, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// readUpdate reads the next server frame from a live connection and asserts
// it is a clipboard update.
func readUpdate(t *testing.T, conn *websocket.Conn) protocol.Update {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	frame, err := protocol.DecodeServerFrame(data)
	require.NoError(t, err)
	require.Equal(t, protocol.ServerFrameClipboardUpdate, frame.Kind)
	return frame.Update
}

// expectNoFrame asserts no frame arrives within a short window.
func expectNoFrame(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
}

func TestRootAndHealth(t *testing.T) {
	_, ts := setupTestServer(t)

	var root map[string]any
	require.Equal(t, http.StatusOK, getJSON(t, ts, "/", &root))
	assert.Equal(t, "test", root["version"])
	assert.EqualValues(t, 0, root["items"])

	var health map[string]string
	require.Equal(t, http.StatusOK, getJSON(t, ts, "/healthz", &health))
	assert.Equal(t, "ok", health["status"])
}

func TestItemLifecycle(t *testing.T) {
	_, ts := setupTestServer(t)

	t.Run("add assigns id and name", func(t *testing.T) {
		resp := postJSON(t, ts, "/items", map[string]string{
			"device":  "laptop",
			"type":    "text",
			"content": "a note",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var created item.Item
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
		assert.NotEmpty(t, created.ID)
		assert.True(t, strings.HasPrefix(created.Name, "text-"))
		assert.False(t, created.CreatedAt.IsZero())
	})

	t.Run("list returns added items", func(t *testing.T) {
		var items []*item.Item
		require.Equal(t, http.StatusOK, getJSON(t, ts, "/items", &items))
		require.Len(t, items, 1)
		assert.Equal(t, "a note", items[0].Content)
	})

	t.Run("get by short prefix", func(t *testing.T) {
		var items []*item.Item
		getJSON(t, ts, "/items", &items)
		prefix := items[0].ID[:8]

		var got item.Item
		require.Equal(t, http.StatusOK, getJSON(t, ts, "/items/"+prefix, &got))
		assert.Equal(t, items[0].ID, got.ID)
	})

	t.Run("get unknown id returns 404", func(t *testing.T) {
		status := getJSON(t, ts, "/items/"+item.NewID(), nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("too-short prefix returns 400", func(t *testing.T) {
		status := getJSON(t, ts, "/items/ab", nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("delete removes the item", func(t *testing.T) {
		var items []*item.Item
		getJSON(t, ts, "/items", &items)
		require.Len(t, items, 1)

		resp := doDelete(t, ts, "/items/"+items[0].ID)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = doDelete(t, ts, "/items/"+items[0].ID)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid type is rejected", func(t *testing.T) {
		resp := postJSON(t, ts, "/items", map[string]string{
			"device":  "laptop",
			"type":    "hologram",
			"content": "x",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("invalid JSON is rejected", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/items", "application/json",
			strings.NewReader("{not json"))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestClipboardEndpoint(t *testing.T) {
	_, ts := setupTestServer(t)

	t.Run("empty clipboard returns 404", func(t *testing.T) {
		status := getJSON(t, ts, "/clipboard", nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("REST push fills the singleton", func(t *testing.T) {
		resp := postJSON(t, ts, "/items", map[string]string{
			"device":  "laptop",
			"type":    "clipboard",
			"content": "copied text",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var clip item.Clipboard
		require.Equal(t, http.StatusOK, getJSON(t, ts, "/clipboard", &clip))
		assert.Equal(t, "copied text", clip.Content)
		assert.Equal(t, protocol.Fingerprint("copied text"), clip.Fingerprint)
	})

	t.Run("REST push notifies live channels", func(t *testing.T) {
		srv, ts := setupTestServer(t)
		conn := dialLive(t, ts)
		waitForChannels(t, srv, 1)

		postJSON(t, ts, "/items", map[string]string{
			"device":  "laptop",
			"type":    "clipboard",
			"content": "from rest",
		})

		update := readUpdate(t, conn)
		assert.Equal(t, "from rest", update.Content)
	})
}

func TestRelay(t *testing.T) {
	t.Run("push persists and fans out to all channels", func(t *testing.T) {
		srv, ts := setupTestServer(t)

		connA := dialLive(t, ts)
		connB := dialLive(t, ts)
		waitForChannels(t, srv, 2)

		require.NoError(t, connA.WriteJSON(protocol.NewPush("laptop", "hello world")))

		// Broadcast reaches every channel, including the sender; the
		// sender relies on its own echo suppression.
		assert.Equal(t, "hello world", readUpdate(t, connA).Content)
		assert.Equal(t, "hello world", readUpdate(t, connB).Content)

		var clip item.Clipboard
		require.Equal(t, http.StatusOK, getJSON(t, ts, "/clipboard", &clip))
		assert.Equal(t, "hello world", clip.Content)
		assert.Equal(t, "laptop", clip.Device)
	})

	t.Run("last push wins", func(t *testing.T) {
		srv, ts := setupTestServer(t)

		connA := dialLive(t, ts)
		connB := dialLive(t, ts)
		waitForChannels(t, srv, 2)

		require.NoError(t, connA.WriteJSON(protocol.NewPush("laptop", "first")))
		readUpdate(t, connA)
		readUpdate(t, connB)

		require.NoError(t, connB.WriteJSON(protocol.NewPush("desktop", "second")))
		readUpdate(t, connA)
		readUpdate(t, connB)

		var clip item.Clipboard
		require.Equal(t, http.StatusOK, getJSON(t, ts, "/clipboard", &clip))
		assert.Equal(t, "second", clip.Content)
		assert.Equal(t, "desktop", clip.Device)
	})

	t.Run("unknown message types are dropped", func(t *testing.T) {
		srv, ts := setupTestServer(t)

		conn := dialLive(t, ts)
		waitForChannels(t, srv, 1)

		// An unrecognised frame followed by a real push: the first frame
		// delivered back must be the push, proving the unknown one was
		// skipped and the channel survived it.
		require.NoError(t, conn.WriteJSON(map[string]string{"type": "presence"}))
		require.NoError(t, conn.WriteJSON(protocol.NewPush("laptop", "still alive")))
		assert.Equal(t, "still alive", readUpdate(t, conn).Content)
	})

	t.Run("malformed frames are dropped", func(t *testing.T) {
		srv, ts := setupTestServer(t)

		conn := dialLive(t, ts)
		waitForChannels(t, srv, 1)

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
		expectNoFrame(t, conn)
	})

	t.Run("disconnect unregisters the channel", func(t *testing.T) {
		srv, ts := setupTestServer(t)

		conn := dialLive(t, ts)
		waitForChannels(t, srv, 1)

		conn.Close()
		waitForChannels(t, srv, 0)
	})
}

func TestChannelLiveness(t *testing.T) {
	// A relay with aggressive ping/pong timing so liveness is observable
	// within test time.
	newLivenessServer := func(t *testing.T) (*Hub, *httptest.Server) {
		t.Helper()

		st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "sync.db"))
		require.NoError(t, err)
		t.Cleanup(func() { st.Close() })

		hub := NewHub(zerolog.Nop())
		relay := NewRelay(st, hub, zerolog.Nop())
		relay.pingPeriod = 20 * time.Millisecond
		relay.pongWait = 80 * time.Millisecond

		upgrader := websocket.Upgrader{}
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ws, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			relay.HandleChannel(r.Context(), NewChannel(ws))
		}))
		t.Cleanup(ts.Close)
		return hub, ts
	}

	t.Run("idle but responsive peer stays registered", func(t *testing.T) {
		hub, ts := newLivenessServer(t)

		conn := dialLive(t, ts)
		// Keep reading so the client answers pings with pongs.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		require.Eventually(t, func() bool {
			return hub.Count() == 1
		}, 2*time.Second, 10*time.Millisecond)

		// Several pong windows pass without any data traffic.
		time.Sleep(400 * time.Millisecond)
		assert.Equal(t, 1, hub.Count())
	})

	t.Run("silent peer is dropped after the pong deadline", func(t *testing.T) {
		hub, ts := newLivenessServer(t)

		// Dial but never read: pings go unanswered, so the read deadline
		// must fire and unregister the channel without any broadcast.
		dialLive(t, ts)

		require.Eventually(t, func() bool {
			return hub.Count() == 1
		}, 2*time.Second, 10*time.Millisecond)
		require.Eventually(t, func() bool {
			return hub.Count() == 0
		}, 2*time.Second, 10*time.Millisecond)
	})
}

func TestGracefulShutdown(t *testing.T) {
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	srv := New(st, "test", zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.ListenAndServe(ctx, "127.0.0.1:0")
	}()

	// Give the listener a moment to come up before cancelling.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestAmbiguousPrefix(t *testing.T) {
	_, ts := setupTestServer(t)

	// Two items whose IDs share a six character prefix.
	for _, id := range []string{
		"11111111-aaaa-4aaa-8aaa-aaaaaaaaaaaa",
		"11111111-bbbb-4bbb-8bbb-bbbbbbbbbbbb",
	} {
		resp := postJSON(t, ts, "/items", map[string]string{
			"id":      id,
			"device":  "laptop",
			"type":    "text",
			"content": fmt.Sprintf("note %s", id),
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, err := http.Get(ts.URL + "/items/11111111")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(body), "ambiguous")
}
