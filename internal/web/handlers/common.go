package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kozaktomas/face-console/internal/appliance"
	"github.com/kozaktomas/face-console/internal/constants"
	"github.com/kozaktomas/face-console/internal/directory"
	"github.com/kozaktomas/face-console/internal/enrollment"
	"github.com/kozaktomas/face-console/internal/recognition"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a size-limited JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return false
	}
	return true
}

// statusForError maps a console or appliance error to an HTTP status.
func statusForError(err error) int {
	var apiErr *appliance.APIError
	switch {
	case errors.Is(err, enrollment.ErrBlankName),
		errors.Is(err, directory.ErrBlankName),
		errors.Is(err, directory.ErrSameName),
		errors.Is(err, recognition.ErrBlankName):
		return http.StatusBadRequest
	case errors.Is(err, directory.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, enrollment.ErrBusy),
		errors.Is(err, enrollment.ErrAlreadyActive),
		errors.Is(err, enrollment.ErrNotActive),
		errors.Is(err, enrollment.ErrStale),
		errors.Is(err, enrollment.ErrSessionLost),
		errors.Is(err, recognition.ErrCameraInactive):
		return http.StatusConflict
	case errors.Is(err, appliance.ErrTransport),
		errors.Is(err, appliance.ErrUnexpectedShape),
		errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorText is the message shown for err. Appliance failures carry the
// appliance's own message.
func errorText(status int, err error) string {
	if status == http.StatusBadGateway || status == http.StatusNotFound {
		return appliance.ServerMessage(err)
	}
	return err.Error()
}

// respondServiceError writes err with its mapped status.
func respondServiceError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	respondError(w, status, errorText(status, err))
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
