package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/AHGGG/nce-english-practices-sub006/internal/review"
)

// ReviewHandler exposes the spaced-repetition deck.
type ReviewHandler struct {
	review *review.Service
}

func NewReviewHandler(svc *review.Service) *ReviewHandler {
	return &ReviewHandler{review: svc}
}

func (h *ReviewHandler) AddCard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Word            string `json:"word"`
		Context         string `json:"context"`
		SourceEpisodeID string `json:"source_episode_id"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Word == "" {
		writeError(w, http.StatusBadRequest, "word is required")
		return
	}

	card, err := h.review.AddCard(req.Word, req.Context, req.SourceEpisodeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to add card")
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

func (h *ReviewHandler) Due(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	cards, err := h.review.Due(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list due cards")
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (h *ReviewHandler) Grade(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "id")
	var req struct {
		Grade string `json:"grade"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	card, err := h.review.GradeCard(cardID, review.Grade(req.Grade))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "id")
	if err := h.review.DeleteCard(cardID); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
