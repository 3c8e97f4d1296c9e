package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-console/internal/directory"
)

// UsersHandler handles the enrolled-user directory
type UsersHandler struct {
	directory *directory.Directory
}

// NewUsersHandler creates a new users handler
func NewUsersHandler(dir *directory.Directory) *UsersHandler {
	return &UsersHandler{directory: dir}
}

// UsersResponse is the directory listing.
type UsersResponse struct {
	Users []directory.Entry `json:"users"`
	Count int               `json:"count"`
	Shape string            `json:"shape,omitempty"`
}

func (h *UsersHandler) listing() UsersResponse {
	entries := h.directory.Entries()
	return UsersResponse{Users: entries, Count: len(entries), Shape: string(h.directory.Shape())}
}

// List returns the cached directory, fetching it first if it was never loaded.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.directory.FetchedAt().IsZero() {
		if _, err := h.directory.Refresh(r.Context()); err != nil {
			respondServiceError(w, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, h.listing())
}

// Refresh re-fetches the directory from the appliance.
func (h *UsersHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if _, err := h.directory.Refresh(r.Context()); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.listing())
}

// Delete removes a user by name.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	msg, err := h.directory.Delete(r.Context(), name)
	if err != nil {
		slog.WarnContext(r.Context(), "delete user failed", "name", sanitizeForLog(name), "error", err)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": msg, "users": h.directory.Entries()})
}

// RenameRequest is the body of a rename call.
type RenameRequest struct {
	Name string `json:"name"`
}

// Rename changes a user's name.
func (h *UsersHandler) Rename(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req RenameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.directory.Rename(r.Context(), name, req.Name)
	if err != nil {
		slog.WarnContext(r.Context(), "rename user failed", "name", sanitizeForLog(name), "error", err)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": msg, "users": h.directory.Entries()})
}
