package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/supervisor"
)

// GetSupervisorState handles GET /api/supervisor
func (h *Handler) GetSupervisorState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.supervisor.State())
}

// ClearSupervisorLogs handles DELETE /api/supervisor/logs
func (h *Handler) ClearSupervisorLogs(w http.ResponseWriter, r *http.Request) {
	h.supervisor.ClearLogs()
	w.WriteHeader(http.StatusNoContent)
}

// StreamSupervisorEvents handles GET /api/supervisor/events
// Streams diagnostics, auto-fixes and ticks as server-sent events. The
// current state is sent first so clients need no separate fetch.
func (h *Handler) StreamSupervisorEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported", nil)
		return
	}

	events, release := h.supervisor.Subscribe()
	defer release()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	state := h.supervisor.State()
	if err := writeEvent(w, "state", state); err != nil {
		return
	}
	flusher.Flush()

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, string(ev.Type), eventPayload(ev)); err != nil {
				h.logger.Debug("event stream closed", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func eventPayload(ev supervisor.Event) any {
	switch ev.Type {
	case supervisor.EventLog:
		return ev.Log
	case supervisor.EventAutoFix:
		return ev.AutoFix
	default:
		return ev.State
	}
}

func writeEvent(w http.ResponseWriter, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", name, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}
