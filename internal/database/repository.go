package database

import (
	"context"
)

// RecognitionReader provides read-only access to the recognition journal
type RecognitionReader interface {
	// Recent returns up to limit entries, newest first
	Recent(ctx context.Context, limit int) ([]StoredRecognition, error)
	// Count returns the total number of entries stored
	Count(ctx context.Context) (int, error)
}

// RecognitionWriter provides write access to the recognition journal
type RecognitionWriter interface {
	RecognitionReader

	// Record appends an entry
	Record(ctx context.Context, rec StoredRecognition) error
}
