package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AHGGG/nce-english-practices-sub006/internal/config"
	"github.com/AHGGG/nce-english-practices-sub006/internal/hydrate"
	"github.com/AHGGG/nce-english-practices-sub006/internal/models"
)

// SessionsHandler opens and inspects hydration sessions. Each open
// session follows one upstream tutor stream and relays committed
// snapshots to UI clients over the websocket hub.
type SessionsHandler struct {
	manager *hydrate.Manager
	cfg     *config.Config
}

func NewSessionsHandler(manager *hydrate.Manager, cfg *config.Config) *SessionsHandler {
	return &SessionsHandler{manager: manager, cfg: cfg}
}

// Open dials the tutor stream and starts a hydration session. The
// request may override the configured stream URL.
func (h *SessionsHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StreamURL string `json:"stream_url"`
	}
	// Empty body means open against the configured stream URL.
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	url := req.StreamURL
	if url == "" {
		url = h.cfg.StreamURL
	}

	sess, err := h.manager.Open(r.Context(), url)
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to open stream: "+err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, models.WSStreamOpened{
		SessionID: sess.ID,
		Topic:     "stream:" + sess.ID,
	})
}

// Snapshot returns the current committed state of a session.
func (h *SessionsHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess := h.manager.Get(id)
	if sess == nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sess.ID,
		"status":     sess.Status().String(),
		"error":      sess.Err(),
		"snapshot":   sess.Snapshot(),
	})
}

// Close stops a session and releases its channel.
func (h *SessionsHandler) Close(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.manager.Close(id) {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}
