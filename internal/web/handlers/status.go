package handlers

import (
	"net/http"

	"github.com/kozaktomas/face-console/internal/poller"
)

// StatusHandler serves the polled appliance status
type StatusHandler struct {
	poller *poller.Poller
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(p *poller.Poller) *StatusHandler {
	return &StatusHandler{poller: p}
}

// StatusResponse is the polled state plus whether any poll has succeeded yet.
type StatusResponse struct {
	poller.Snapshot
	Valid     bool   `json:"valid"`
	Announced string `json:"announced,omitempty"`
}

func (h *StatusHandler) current() StatusResponse {
	snap := h.poller.Snapshot()
	return StatusResponse{Snapshot: snap, Valid: snap.Valid(), Announced: h.poller.Announced()}
}

// Get returns the last applied snapshot. It never calls the appliance.
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.current())
}

// Refresh runs an immediate poll and returns the resulting snapshot.
func (h *StatusHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.poller.Refresh(r.Context()); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.current())
}

// Events streams snapshots, announcements and session changes via SSE.
func (h *StatusHandler) Events(w http.ResponseWriter, r *http.Request) {
	streamSSEEvents(w, r, h.poller, h.current())
}
