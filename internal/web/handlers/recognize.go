package handlers

import (
	"net/http"

	"github.com/kozaktomas/face-console/internal/poller"
	"github.com/kozaktomas/face-console/internal/recognition"
)

// Broadcaster publishes console events to SSE listeners.
type Broadcaster interface {
	Broadcast(event poller.Event)
}

// RecognitionHandler handles on-demand recognition
type RecognitionHandler struct {
	trigger *recognition.Trigger
	events  Broadcaster
}

// NewRecognitionHandler creates a new recognition handler
func NewRecognitionHandler(trigger *recognition.Trigger, events Broadcaster) *RecognitionHandler {
	return &RecognitionHandler{trigger: trigger, events: events}
}

// Recognize runs one recognition. A negative result is a 200 response with
// matched=false; only hard failures are errors.
func (h *RecognitionHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	result, err := h.trigger.Recognize(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	h.events.Broadcast(poller.Event{Type: poller.EventRecognition, Data: result})
	respondJSON(w, http.StatusOK, result)
}

// Last returns the result of the last recognition, or 204 when there is none.
func (h *RecognitionHandler) Last(w http.ResponseWriter, r *http.Request) {
	result := h.trigger.LastResult()
	if result == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
