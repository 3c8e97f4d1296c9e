// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"sync"

	"github.com/kozaktomas/face-console/internal/database"
)

// MockRecognitionWriter is a mock implementation of database.RecognitionWriter
type MockRecognitionWriter struct {
	mu      sync.RWMutex
	entries []database.StoredRecognition

	// Error injection
	RecordError error
	RecentError error
	CountError  error
}

// NewMockRecognitionWriter creates a new mock recognition journal
func NewMockRecognitionWriter() *MockRecognitionWriter {
	return &MockRecognitionWriter{}
}

// Record appends an entry
func (m *MockRecognitionWriter) Record(ctx context.Context, rec database.StoredRecognition) error {
	if m.RecordError != nil {
		return m.RecordError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, rec)
	return nil
}

// Recent returns up to limit entries, newest first
func (m *MockRecognitionWriter) Recent(ctx context.Context, limit int) ([]database.StoredRecognition, error) {
	if m.RecentError != nil {
		return nil, m.RecentError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > len(m.entries) {
		limit = len(m.entries)
	}
	result := make([]database.StoredRecognition, 0, limit)
	for i := len(m.entries) - 1; i >= len(m.entries)-limit; i-- {
		result = append(result, m.entries[i])
	}
	return result, nil
}

// Count returns the number of recorded entries
func (m *MockRecognitionWriter) Count(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

// Entries returns a copy of all recorded entries in insertion order
func (m *MockRecognitionWriter) Entries() []database.StoredRecognition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]database.StoredRecognition, len(m.entries))
	copy(result, m.entries)
	return result
}
