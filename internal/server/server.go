// Package server implements the gop HTTP API and the live clipboard
// channel: item CRUD over REST, a websocket endpoint feeding the sync
// relay, and broadcast fan-out to every connected agent.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/suvarnak/gop/internal/store"
)

// Server ties the item store, the broadcast hub, and the sync relay behind
// one HTTP listener.
type Server struct {
	version string
	store   *store.Store
	hub     *Hub
	relay   *Relay
	log     zerolog.Logger

	mux      *http.ServeMux
	upgrader websocket.Upgrader
}

// New creates a server around an open store.
func New(st *store.Store, version string, log zerolog.Logger) *Server {
	hub := NewHub(log)

	s := &Server{
		version: version,
		store:   st,
		hub:     hub,
		relay:   NewRelay(st, hub, log),
		log:     log,
		mux:     http.NewServeMux(),
		upgrader: websocket.Upgrader{
			// The service is LAN-only and unauthenticated by design;
			// origin checks would only break non-browser agents.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /items", s.handleListItems)
	s.mux.HandleFunc("POST /items", s.handleAddItem)
	s.mux.HandleFunc("GET /items/{id}", s.handleGetItem)
	s.mux.HandleFunc("DELETE /items/{id}", s.handleDeleteItem)
	s.mux.HandleFunc("GET /clipboard", s.handleGetClipboard)
	s.mux.HandleFunc("GET /live", s.handleLive)
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Hub exposes the broadcast hub, mainly for tests.
func (s *Server) Hub() *Hub {
	return s.hub
}

// ListenAndServe serves HTTP on addr until ctx is cancelled, then shuts
// down gracefully: the listener closes, in-flight requests get a grace
// period, and every live channel is closed so its relay loop unblocks.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	httpSrv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.Serve(listener)
	}()

	s.log.Info().Str("addr", listener.Addr().String()).Msg("server listening")

	select {
	case <-ctx.Done():
		s.log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.hub.CloseAll()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down cleanly: %w", err)
		}
		return nil

	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	}
}

// handleLive upgrades the connection and hands it to the relay, which
// blocks until the peer disconnects.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	s.relay.HandleChannel(r.Context(), NewChannel(ws))
}
