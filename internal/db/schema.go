package db

import (
	"context"
	"fmt"
)

// TableInsights holds one row per extracted insight.
const TableInsights = "insights"

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS insights (
		id          UUID PRIMARY KEY,
		batch_id    UUID NOT NULL,
		goal        TEXT NOT NULL,
		source_url  TEXT NOT NULL,
		fields      JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS insights_batch_id_idx ON insights (batch_id)`,
	`CREATE INDEX IF NOT EXISTS insights_created_at_idx ON insights (created_at DESC)`,
}

// EnsureSchema creates the insights table and its indexes when missing.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
