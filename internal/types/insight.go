// Package types provides type definitions for structured data used throughout the insight pipeline.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Field names the pipeline owns. They are written on top of whatever the LLM returned.
const (
	FieldID        = "id"
	FieldBatchID   = "batch_id"
	FieldGoal      = "goal"
	FieldSourceURL = "source_url"
	FieldTimestamp = "timestamp"
)

// Field names every extraction template asks the LLM for.
const (
	FieldInsight  = "insight"
	FieldCategory = "category"
	FieldQuote    = "quote"
)

// Insight is one structured finding extracted from one source.
type Insight struct {
	ID        uuid.UUID
	BatchID   uuid.UUID
	Goal      string
	SourceURL string
	Fields    map[string]any // LLM output, as parsed
	CreatedAt time.Time
}

// Text returns a string-valued LLM field, or "" when missing or not a string.
func (i Insight) Text(field string) string {
	if s, ok := i.Fields[field].(string); ok {
		return s
	}
	return ""
}

// Row flattens the insight into a single map keyed by column id.
// Pipeline-owned fields win over LLM fields with the same name.
func (i Insight) Row() map[string]any {
	row := make(map[string]any, len(i.Fields)+5)
	for k, v := range i.Fields {
		row[k] = v
	}
	row[FieldID] = i.ID.String()
	row[FieldBatchID] = i.BatchID.String()
	row[FieldGoal] = i.Goal
	row[FieldSourceURL] = i.SourceURL
	if i.CreatedAt.IsZero() {
		row[FieldTimestamp] = nil
	} else {
		row[FieldTimestamp] = i.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return row
}

// MarshalJSON renders the flat row form so callers can build tables from column ids.
func (i Insight) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.Row())
}

// Column is one presentation column: a human label and the record field it reads.
type Column struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// SourceURLColumn is appended to every goal's columns by the pipeline.
var SourceURLColumn = Column{Name: "Source URL", ID: FieldSourceURL}
