package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/insight-scraper/internal/types"
)

// DefaultListLimit caps List when the caller passes a non-positive limit.
const DefaultListLimit = 100

// MaxListLimit is the largest page List will return.
const MaxListLimit = 1000

var insightColumns = []string{"id", "batch_id", "goal", "source_url", "fields", "created_at"}

// WriteBatch stores all insights in one COPY. Either every row lands or none do.
func (db *DB) WriteBatch(ctx context.Context, insights []types.Insight) (int64, error) {
	if len(insights) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(insights))
	for _, ins := range insights {
		fields := ins.Fields
		if fields == nil {
			fields = map[string]any{}
		}
		fieldsJSON, err := json.Marshal(fields)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal fields for insight %s: %w", ins.ID, err)
		}
		rows = append(rows, []any{ins.ID, ins.BatchID, ins.Goal, ins.SourceURL, fieldsJSON, ins.CreatedAt})
	}

	n, err := db.pool.CopyFrom(ctx, pgx.Identifier{TableInsights}, insightColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("failed to write insight batch: %w", err)
	}
	return n, nil
}

// ListByBatch returns every insight written by one run, in write order.
func (db *DB) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]types.Insight, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, batch_id, goal, source_url, fields, created_at
		 FROM insights
		 WHERE batch_id = $1
		 ORDER BY created_at, id`,
		batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list insights for batch %s: %w", batchID, err)
	}
	return scanInsights(rows)
}

// List returns the newest insights first, optionally restricted to one goal.
func (db *DB) List(ctx context.Context, goal string, limit int) ([]types.Insight, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, batch_id, goal, source_url, fields, created_at
		 FROM insights
		 WHERE ($1 = '' OR goal = $1)
		 ORDER BY created_at DESC, id
		 LIMIT $2`,
		goal, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list insights: %w", err)
	}
	return scanInsights(rows)
}

func scanInsights(rows pgx.Rows) ([]types.Insight, error) {
	defer rows.Close()

	out := []types.Insight{}
	for rows.Next() {
		var (
			ins        types.Insight
			fieldsJSON []byte
		)
		if err := rows.Scan(&ins.ID, &ins.BatchID, &ins.Goal, &ins.SourceURL, &fieldsJSON, &ins.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan insight: %w", err)
		}
		if len(fieldsJSON) > 0 {
			if err := json.Unmarshal(fieldsJSON, &ins.Fields); err != nil {
				return nil, fmt.Errorf("failed to decode fields for insight %s: %w", ins.ID, err)
			}
		}
		out = append(out, ins)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate insights: %w", err)
	}
	return out, nil
}
