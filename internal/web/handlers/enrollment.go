package handlers

import (
	"net/http"

	"github.com/kozaktomas/face-console/internal/enrollment"
)

// EnrollmentHandler drives the console's enrollment session
type EnrollmentHandler struct {
	session *enrollment.Session
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(session *enrollment.Session) *EnrollmentHandler {
	return &EnrollmentHandler{session: session}
}

// EnrollmentErrorResponse carries the failure and the session state after it.
type EnrollmentErrorResponse struct {
	Error   string              `json:"error"`
	Session enrollment.Snapshot `json:"session"`
}

func (h *EnrollmentHandler) respond(w http.ResponseWriter, snap enrollment.Snapshot, err error) {
	if err != nil {
		status := statusForError(err)
		respondJSON(w, status, EnrollmentErrorResponse{Error: errorText(status, err), Session: snap})
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// Get returns the session state.
func (h *EnrollmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// StartRequest is the body of a start-enrollment call.
type StartRequest struct {
	Name string `json:"name"`
}

// Start opens an enrollment for the given name.
func (h *EnrollmentHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	snap, err := h.session.Start(r.Context(), req.Name)
	h.respond(w, snap, err)
}

// Capture records the current pose.
func (h *EnrollmentHandler) Capture(w http.ResponseWriter, r *http.Request) {
	snap, err := h.session.Capture(r.Context())
	h.respond(w, snap, err)
}

// Cancel drops the enrollment on the appliance and resets the session.
func (h *EnrollmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	snap, err := h.session.Cancel(r.Context())
	h.respond(w, snap, err)
}

// Abandon resets the local session without contacting the appliance.
func (h *EnrollmentHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.session.Abandon())
}
