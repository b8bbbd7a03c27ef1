package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AHGGG/nce-english-practices-sub006/internal/dict"
)

// DictionaryHandler serves word lookups.
type DictionaryHandler struct {
	dict *dict.Client
}

func NewDictionaryHandler(client *dict.Client) *DictionaryHandler {
	return &DictionaryHandler{dict: client}
}

func (h *DictionaryHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	word := chi.URLParam(r, "word")
	entry, err := h.dict.Lookup(r.Context(), word)
	if err != nil {
		if errors.Is(err, dict.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No entry for "+word)
			return
		}
		writeError(w, http.StatusBadGateway, "Dictionary lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
