package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-console/internal/config"
	"github.com/kozaktomas/face-console/internal/constants"
	"github.com/kozaktomas/face-console/internal/database"
	"github.com/kozaktomas/face-console/internal/database/postgres"
)

// openJournal returns the recognition journal: PostgreSQL when DATABASE_URL
// is set, otherwise an in-memory ring. The returned func releases it.
func openJournal(ctx context.Context, cfg *config.Config) (database.RecognitionWriter, func(), error) {
	if cfg.Database.URL == "" {
		return database.NewMemoryJournal(constants.MemoryJournalCapacity), func() {}, nil
	}

	pool, err := postgres.Open(ctx, &cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open recognition journal: %w", err)
	}
	return postgres.NewRecognitionRepository(pool), func() { pool.Close() }, nil
}
