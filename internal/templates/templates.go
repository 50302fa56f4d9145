// Package templates holds the catalog of analysis goals and their extraction instructions.
package templates

import (
	"github.com/jonathan/insight-scraper/internal/types"
	"github.com/xeipuuv/gojsonschema"
)

// Template is one analysis goal: the instruction sent to the LLM and the
// columns used to present its records. Templates are immutable.
type Template struct {
	ID          string
	Label       string
	Group       string
	Instruction string

	columns []types.Column
	schema  *gojsonschema.Schema
}

// Columns returns the goal's presentation columns followed by the Source URL
// column. The returned slice is a fresh copy.
func (t Template) Columns() []types.Column {
	cols := make([]types.Column, 0, len(t.columns)+1)
	cols = append(cols, t.columns...)
	return append(cols, types.SourceURLColumn)
}

// FieldIDs returns the record field ids this goal asks the LLM for, in column order.
func (t Template) FieldIDs() []string {
	ids := make([]string, len(t.columns))
	for i, c := range t.columns {
		ids[i] = c.ID
	}
	return ids
}

// CheckRecord reports whether record carries the goal's fields as strings.
// It never rejects a record outright; callers use the result only to warn.
func (t Template) CheckRecord(record map[string]any) error {
	if t.schema == nil {
		return nil
	}
	return validate(t.schema, record)
}
