package api

import (
	"context"
	"net/http"
	"time"
)

// Health handles GET /health with a storage connectivity check
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body := map[string]interface{}{
		"status":     "ok",
		"database":   "connected",
		"supervisor": h.supervisor.Running(),
		"timestamp":  h.now().UTC(),
	}

	if h.db == nil {
		body["database"] = "none"
		writeJSON(w, http.StatusOK, body)
		return
	}
	if err := h.db.Ping(ctx); err != nil {
		body["status"] = "error"
		body["database"] = "disconnected"
		body["error"] = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	writeJSON(w, http.StatusOK, body)
}
