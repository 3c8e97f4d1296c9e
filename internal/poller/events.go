package poller

import (
	"sync"

	"github.com/kozaktomas/face-console/internal/constants"
)

// Event types delivered to listeners.
const (
	EventSnapshot     = "snapshot"
	EventAnnouncement = "announcement"
	EventPollError    = "poll_error"
	EventEnrollment   = "enrollment"
	EventRecognition  = "recognition"
	EventUsers        = "users"
)

// Event is one message fanned out to listeners.
type Event struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Broadcaster provides listener management and non-blocking event delivery.
// Embed it to get AddListener, RemoveListener and Broadcast.
type Broadcaster struct {
	listeners []chan Event
	mu        sync.RWMutex
}

// AddListener adds an event listener.
func (b *Broadcaster) AddListener() chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, constants.EventChannelBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener removes an event listener and closes its channel.
func (b *Broadcaster) RemoveListener(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// Broadcast sends an event to all listeners.
func (b *Broadcaster) Broadcast(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
			// Listener buffer full, skip.
		}
	}
}

// ListenerCount returns the number of attached listeners.
func (b *Broadcaster) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}
