package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/kozaktomas/face-console/internal/recognition"
)

// Refresher re-reads appliance state after a command changed it.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// CameraHandler handles camera start/stop
type CameraHandler struct {
	trigger *recognition.Trigger
	status  Refresher
}

// NewCameraHandler creates a new camera handler
func NewCameraHandler(trigger *recognition.Trigger, status Refresher) *CameraHandler {
	return &CameraHandler{trigger: trigger, status: status}
}

// Start turns the camera on.
func (h *CameraHandler) Start(w http.ResponseWriter, r *http.Request) {
	if err := h.trigger.StartCamera(r.Context()); err != nil {
		respondServiceError(w, err)
		return
	}
	h.refresh(r.Context())
	respondJSON(w, http.StatusOK, map[string]bool{"camera_active": true})
}

// Stop turns the camera off and clears the last recognition result.
func (h *CameraHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.trigger.StopCamera(r.Context()); err != nil {
		respondServiceError(w, err)
		return
	}
	h.refresh(r.Context())
	respondJSON(w, http.StatusOK, map[string]bool{"camera_active": false})
}

func (h *CameraHandler) refresh(ctx context.Context) {
	if err := h.status.Refresh(ctx); err != nil {
		slog.WarnContext(ctx, "status refresh after camera command failed", "error", err)
	}
}
