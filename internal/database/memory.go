package database

import (
	"context"
	"sync"
)

// MemoryJournal keeps the most recent recognitions in a fixed-size ring.
// It is the journal used when no database is configured.
type MemoryJournal struct {
	mu      sync.RWMutex
	entries []StoredRecognition
	next    int
	full    bool
}

// NewMemoryJournal creates a ring holding at most capacity entries.
func NewMemoryJournal(capacity int) *MemoryJournal {
	capacity = max(capacity, 1)
	return &MemoryJournal{entries: make([]StoredRecognition, capacity)}
}

// Record stores rec, overwriting the oldest entry once the ring is full.
func (m *MemoryJournal) Record(_ context.Context, rec StoredRecognition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.next] = rec
	m.next = (m.next + 1) % len(m.entries)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (m *MemoryJournal) Recent(_ context.Context, limit int) ([]StoredRecognition, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	n := m.size()
	limit = min(limit, n)
	result := make([]StoredRecognition, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (m.next - i + len(m.entries)) % len(m.entries)
		result = append(result, m.entries[idx])
	}
	return result, nil
}

// Count returns the number of entries currently held.
func (m *MemoryJournal) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size(), nil
}

func (m *MemoryJournal) size() int {
	if m.full {
		return len(m.entries)
	}
	return m.next
}
