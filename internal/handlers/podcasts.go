package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AHGGG/nce-english-practices-sub006/internal/podcast"
)

// PodcastsHandler exposes subscription, episode, and playback endpoints.
type PodcastsHandler struct {
	podcasts *podcast.Manager
}

func NewPodcastsHandler(podcasts *podcast.Manager) *PodcastsHandler {
	return &PodcastsHandler{podcasts: podcasts}
}

func (h *PodcastsHandler) List(w http.ResponseWriter, r *http.Request) {
	podcasts, err := h.podcasts.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list podcasts")
		return
	}
	writeJSON(w, http.StatusOK, podcasts)
}

func (h *PodcastsHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FeedURL string `json:"feed_url"`
	}
	if err := decodeJSON(r, &req); err != nil || req.FeedURL == "" {
		writeError(w, http.StatusBadRequest, "feed_url is required")
		return
	}

	p, err := h.podcasts.Subscribe(r.Context(), req.FeedURL)
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to subscribe: "+err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PodcastsHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.podcasts.Unsubscribe(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unsubscribed"})
}

func (h *PodcastsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	added, err := h.podcasts.Refresh(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to refresh: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"new_episodes": added})
}

func (h *PodcastsHandler) Episodes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	episodes, err := h.podcasts.Episodes(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list episodes")
		return
	}
	writeJSON(w, http.StatusOK, episodes)
}

func (h *PodcastsHandler) SavePosition(w http.ResponseWriter, r *http.Request) {
	episodeID := chi.URLParam(r, "id")
	var req struct {
		PositionSec float64 `json:"position_sec"`
		Finished    bool    `json:"finished"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.podcasts.SavePosition(episodeID, req.PositionSec, req.Finished); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save position")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (h *PodcastsHandler) Position(w http.ResponseWriter, r *http.Request) {
	episodeID := chi.URLParam(r, "id")
	pos, err := h.podcasts.Position(episodeID)
	if err != nil {
		writeError(w, http.StatusNotFound, "No saved position")
		return
	}
	writeJSON(w, http.StatusOK, pos)
}
