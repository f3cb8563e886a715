package handlers

import (
	"net/http"
)

func (h *Handler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Get(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, stats)
}
