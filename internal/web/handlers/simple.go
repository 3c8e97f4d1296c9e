package handlers

import (
	"context"
	"net/http"

	"github.com/kozaktomas/face-console/internal/appliance"
	"github.com/kozaktomas/face-console/internal/poller"
	"github.com/kozaktomas/face-console/internal/recognition"
)

// SimpleStatusSource reads the simple-mode status.
type SimpleStatusSource interface {
	SimpleStatus(ctx context.Context) (*appliance.SimpleStatus, error)
}

// SimpleHandler handles the single-frame recognition and enrollment mode
type SimpleHandler struct {
	trigger *recognition.Trigger
	status  SimpleStatusSource
	events  Broadcaster
}

// NewSimpleHandler creates a new simple-mode handler
func NewSimpleHandler(trigger *recognition.Trigger, status SimpleStatusSource, events Broadcaster) *SimpleHandler {
	return &SimpleHandler{trigger: trigger, status: status, events: events}
}

// Recognize runs a simple-mode recognition; the result carries the face crop.
func (h *SimpleHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	result, err := h.trigger.SimpleRecognize(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	h.events.Broadcast(poller.Event{Type: poller.EventRecognition, Data: result})
	respondJSON(w, http.StatusOK, result)
}

// SimpleEnrollRequest is the body of a simple enroll call.
type SimpleEnrollRequest struct {
	Name string `json:"name"`
}

// Enroll enrolls a name from a single frame.
func (h *SimpleHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req SimpleEnrollRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	msg, err := h.trigger.SimpleEnroll(r.Context(), req.Name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": msg})
}

// Status reads the simple-mode status straight from the appliance.
func (h *SimpleHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.status.SimpleStatus(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	h.trigger.SetCameraActive(status.CameraActive)
	respondJSON(w, http.StatusOK, status)
}
