package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/suvarnak/gop/internal/item"
	"github.com/suvarnak/gop/internal/protocol"
	"github.com/suvarnak/gop/internal/store"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.CountItems(r.Context())
	if err != nil {
		s.storageError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "gop local sync server",
		"version": s.version,
		"items":   count,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.storageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListItems(r.Context())
	if err != nil {
		s.storageError(w, err)
		return
	}

	if items == nil {
		items = []*item.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var i item.Item
	if err := json.NewDecoder(r.Body).Decode(&i); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// Server fills what the client omitted.
	if i.ID == "" {
		i.ID = item.NewID()
	}
	if i.Name == "" && i.Type != "" {
		i.Name = item.ShortName(i.Type)
	}

	if err := i.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Clipboard items route through the singleton upsert and notify the
	// live channels, so a REST push converges with websocket pushes.
	if i.Type == item.TypeClipboard {
		clip, err := s.store.UpsertClipboard(r.Context(), i.Content, i.Device)
		if err != nil {
			s.storageError(w, err)
			return
		}
		s.hub.Broadcast(protocol.NewUpdate(clip.Content))
		writeJSON(w, http.StatusCreated, clip)
		return
	}

	if err := s.store.AddItem(r.Context(), &i); err != nil {
		s.storageError(w, err)
		return
	}

	created, err := s.store.GetItem(r.Context(), i.ID)
	if err != nil {
		s.storageError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.resolveID(w, r)
	if !ok {
		return
	}

	i, err := s.store.GetItem(r.Context(), id)
	if err != nil {
		if store.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "item not found")
			return
		}
		s.storageError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, i)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.resolveID(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteItem(r.Context(), id); err != nil {
		if store.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "item not found")
			return
		}
		s.storageError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

func (s *Server) handleGetClipboard(w http.ResponseWriter, r *http.Request) {
	clip, err := s.store.GetClipboard(r.Context())
	if err != nil {
		if store.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "no clipboard content available")
			return
		}
		s.storageError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, clip)
}

// resolveID turns the {id} path segment, possibly a short prefix, into a
// full item ID, writing the appropriate error response when it cannot.
func (s *Server) resolveID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := s.store.ResolveItemID(r.Context(), r.PathValue("id"))
	if err != nil {
		var notFound *store.NotFoundError
		var ambiguous *store.AmbiguousError
		switch {
		case errors.As(err, &notFound):
			writeError(w, http.StatusNotFound, notFound.Error())
		case errors.As(err, &ambiguous):
			writeError(w, http.StatusConflict, ambiguous.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return "", false
	}
	return id, true
}

// storageError reports a failed store operation without leaking internals
// to the client.
func (s *Server) storageError(w http.ResponseWriter, err error) {
	s.log.Error().Err(err).Msg("storage unavailable")
	writeError(w, http.StatusInternalServerError, "storage unavailable")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
