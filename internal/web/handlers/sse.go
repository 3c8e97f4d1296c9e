package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/kozaktomas/face-console/internal/poller"
)

// EventSource is anything listeners can subscribe to for console events.
type EventSource interface {
	AddListener() chan poller.Event
	RemoveListener(ch chan poller.Event)
}

// setupSSEConnection sets SSE headers and lifts the server write deadline.
// On failure it writes an error response and returns false.
func setupSSEConnection(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return nil, false
	}

	// Streams outlive the server's WriteTimeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return flusher, true
}

// streamSSEEvents sends initial as a "status" event and then relays events
// from source until the client disconnects or the channel closes.
func streamSSEEvents(w http.ResponseWriter, r *http.Request, source EventSource, initial any) {
	flusher, ok := setupSSEConnection(w)
	if !ok {
		return
	}

	eventCh := source.AddListener()
	defer source.RemoveListener(eventCh)

	sendSSEEvent(w, flusher, "status", initial)

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, event.Type, event)
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: ")
	_, _ = io.Copy(w, bytes.NewReader(jsonData))
	_, _ = io.WriteString(w, "\n\n")
	flusher.Flush()
}
