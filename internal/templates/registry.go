package templates

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/jonathan/insight-scraper/internal/types"
)

//go:embed goals.json
var defaultCatalog []byte

type catalogFile struct {
	Goals []catalogGoal `json:"goals"`
}

type catalogGoal struct {
	ID          string         `json:"id"`
	Label       string         `json:"label"`
	Group       string         `json:"group"`
	Instruction string         `json:"instruction"`
	Columns     []types.Column `json:"columns"`
}

// Registry is the read-only set of analysis goals. It is built once and safe
// for concurrent use.
type Registry struct {
	byID  map[string]Template
	order []string
}

// LoadDefault builds a Registry from the embedded goal catalog.
func LoadDefault() (*Registry, error) {
	return NewRegistry(defaultCatalog)
}

// NewRegistry parses a JSON goal catalog. Goal ids must be unique and every
// goal needs an instruction and at least one column.
func NewRegistry(data []byte) (*Registry, error) {
	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse goal catalog: %w", err)
	}
	if len(file.Goals) == 0 {
		return nil, fmt.Errorf("goal catalog is empty")
	}

	r := &Registry{
		byID:  make(map[string]Template, len(file.Goals)),
		order: make([]string, 0, len(file.Goals)),
	}
	for _, g := range file.Goals {
		if g.ID == "" {
			return nil, fmt.Errorf("goal with label %q has no id", g.Label)
		}
		if _, dup := r.byID[g.ID]; dup {
			return nil, fmt.Errorf("duplicate goal id %q", g.ID)
		}
		if g.Instruction == "" {
			return nil, fmt.Errorf("goal %q has no instruction", g.ID)
		}
		if len(g.Columns) == 0 {
			return nil, fmt.Errorf("goal %q has no columns", g.ID)
		}
		for _, c := range g.Columns {
			if c.ID == "" || c.Name == "" {
				return nil, fmt.Errorf("goal %q has a column without name or id", g.ID)
			}
			if c.ID == types.FieldSourceURL {
				return nil, fmt.Errorf("goal %q must not declare the %s column", g.ID, types.FieldSourceURL)
			}
		}

		t := Template{
			ID:          g.ID,
			Label:       g.Label,
			Group:       g.Group,
			Instruction: g.Instruction,
			columns:     append([]types.Column(nil), g.Columns...),
		}
		schema, err := compileRecordSchema(g.ID, t.FieldIDs())
		if err != nil {
			return nil, err
		}
		t.schema = schema

		r.byID[g.ID] = t
		r.order = append(r.order, g.ID)
	}
	return r, nil
}

// Lookup returns the template for goalID.
func (r *Registry) Lookup(goalID string) (Template, bool) {
	t, ok := r.byID[goalID]
	return t, ok
}

// List returns all templates in catalog order.
func (r *Registry) List() []Template {
	out := make([]Template, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// IDs returns all goal ids in catalog order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}
