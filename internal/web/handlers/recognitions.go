package handlers

import (
	"net/http"
	"strconv"

	"github.com/kozaktomas/face-console/internal/database"
)

// maxJournalLimit caps the limit query parameter.
const maxJournalLimit = 500

// JournalHandler serves the recognition journal
type JournalHandler struct {
	journal database.RecognitionReader
}

// NewJournalHandler creates a new journal handler
func NewJournalHandler(journal database.RecognitionReader) *JournalHandler {
	return &JournalHandler{journal: journal}
}

// JournalResponse is a page of recent recognitions.
type JournalResponse struct {
	Recognitions []database.StoredRecognition `json:"recognitions"`
	Total        int                          `json:"total"`
}

// List returns recent recognitions, newest first. ?limit= bounds the count.
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := database.DefaultRecentLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxJournalLimit)
	}

	recs, err := h.journal.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read recognitions")
		return
	}
	total, err := h.journal.Count(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to count recognitions")
		return
	}
	if recs == nil {
		recs = []database.StoredRecognition{}
	}

	respondJSON(w, http.StatusOK, JournalResponse{Recognitions: recs, Total: total})
}
