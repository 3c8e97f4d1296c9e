package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kozaktomas/face-console/internal/database"
)

// RecognitionRepository provides PostgreSQL-backed journal storage
type RecognitionRepository struct {
	pool *Pool
}

// NewRecognitionRepository creates a new PostgreSQL recognition repository
func NewRecognitionRepository(pool *Pool) *RecognitionRepository {
	return &RecognitionRepository{pool: pool}
}

// Record stores a recognition
func (r *RecognitionRepository) Record(ctx context.Context, rec database.StoredRecognition) error {
	query := `
		INSERT INTO recognitions (id, identity, confidence, source, recognized_at, observed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`

	var recognizedAt sql.NullTime
	if !rec.RecognizedAt.IsZero() {
		recognizedAt = sql.NullTime{Time: rec.RecognizedAt, Valid: true}
	}

	_, err := r.pool.Exec(ctx, query, rec.ID, rec.Identity, rec.Confidence, string(rec.Source), recognizedAt, rec.ObservedAt)
	if err != nil {
		return fmt.Errorf("record recognition: %w", err)
	}
	return nil
}

// Recent returns up to limit recognitions, newest first
func (r *RecognitionRepository) Recent(ctx context.Context, limit int) ([]database.StoredRecognition, error) {
	if limit <= 0 {
		limit = database.DefaultRecentLimit
	}

	query := `
		SELECT id, identity, confidence, source, recognized_at, observed_at
		FROM recognitions
		ORDER BY observed_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent recognitions: %w", err)
	}
	defer rows.Close()

	var result []database.StoredRecognition
	for rows.Next() {
		var rec database.StoredRecognition
		var source string
		var recognizedAt sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.Identity, &rec.Confidence, &source, &recognizedAt, &rec.ObservedAt); err != nil {
			return nil, fmt.Errorf("scan recognition: %w", err)
		}
		rec.Source = database.Source(source)
		if recognizedAt.Valid {
			rec.RecognizedAt = recognizedAt.Time.UTC()
		}
		rec.ObservedAt = rec.ObservedAt.UTC()
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recognitions: %w", err)
	}
	return result, nil
}

// Count returns the total number of recognitions stored
func (r *RecognitionRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM recognitions").Scan(&count); err != nil {
		return 0, fmt.Errorf("count recognitions: %w", err)
	}
	return count, nil
}

var _ database.RecognitionWriter = (*RecognitionRepository)(nil)
