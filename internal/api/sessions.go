package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"knouxart/internal/session"
	"knouxart/internal/storage"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

func sessionResponse(s *session.Session) SessionResponse {
	return SessionResponse{
		ID:        s.ID,
		ProjectID: s.ProjectID,
		Type:      s.Kind,
		StreamURL: "/api/v1/sessions/" + s.ID + "/stream",
		State:     s.Snapshot(),
	}
}

func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	p := h.ownedProject(w, r, chi.URLParam(r, "id"))
	if p == nil {
		return
	}

	s, err := h.sessions.Open(p, p.UserID)
	if errors.Is(err, storage.ErrProjectNotFound) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", msgProjectForbidden)
		return
	}
	if errors.Is(err, session.ErrClosed) {
		writeError(w, http.StatusServiceUnavailable, "SHUTTING_DOWN", "Server is shutting down")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("project", p.ID).Msg("failed to open session")
		writeError(w, http.StatusUnprocessableEntity, "INVALID_PROJECT_DATA", "Project data could not be loaded")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(s))
}

// liveSession resolves the {sid} parameter to a session of the caller.
func (h *Handler) liveSession(w http.ResponseWriter, r *http.Request) *session.Session {
	u := UserFrom(r.Context())

	s, err := h.sessions.Get(chi.URLParam(r, "sid"))
	if err != nil || s.OwnerID != u.ID {
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found")
		return nil
	}
	return s
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s := h.liveSession(w, r)
	if s == nil {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(s))
}

func (h *Handler) SaveSession(w http.ResponseWriter, r *http.Request) {
	s := h.liveSession(w, r)
	if s == nil {
		return
	}
	if err := h.sessions.Save(s); err != nil {
		switch {
		case errors.Is(err, session.ErrClosed):
			h.sessionError(w, err)
			return
		case errors.Is(err, storage.ErrProjectNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", msgProjectNotFound)
			return
		}
		h.logger.Error().Err(err).Str("session", s.ID).Msg("failed to save session")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", msgUpdateFailed)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(s))
}

func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	s := h.liveSession(w, r)
	if s == nil {
		return
	}
	if err := h.sessions.Close(s.ID); err != nil && !errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to close session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sessionError maps errors from session access to responses.
func (h *Handler) sessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrWrongKind):
		writeError(w, http.StatusConflict, "WRONG_SESSION_TYPE", err.Error())
	case errors.Is(err, session.ErrClosed):
		writeError(w, http.StatusGone, "SESSION_CLOSED", err.Error())
	default:
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
	}
}

// StreamSession upgrades to a WebSocket and forwards every session event.
// The first message carries the full state.
func (h *Handler) StreamSession(w http.ResponseWriter, r *http.Request) {
	s := h.liveSession(w, r)
	if s == nil {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sub, unsubscribe := s.Subscribe()
	defer unsubscribe()

	log := h.logger.With().Str("session", s.ID).Logger()
	log.Debug().Int("subscribers", s.Subscribers()).Msg("stream opened")

	// Reads only serve to notice the client going away and to take pongs.
	gone := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(ev session.Event) error {
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(ev)
	}

	if err := send(session.Event{Type: "state", Data: s.Snapshot()}); err != nil {
		return
	}

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"))
				return
			}
			if err := send(ev); err != nil {
				log.Debug().Err(err).Msg("stream write failed")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-gone:
			log.Debug().Msg("stream closed by client")
			return
		}
	}
}
