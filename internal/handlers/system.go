package handlers

import (
	"net/http"

	"github.com/AHGGG/nce-english-practices-sub006/internal/widget"
)

// SystemHandler serves health and capability endpoints.
type SystemHandler struct {
	version string
}

func NewSystemHandler(version string) *SystemHandler {
	return &SystemHandler{version: version}
}

func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.version,
	})
}

// Widgets lists the component kinds the UI can render.
func (h *SystemHandler) Widgets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"widgets":  widget.Known(),
		"fallback": widget.KindFallback,
	})
}
