package templates

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationError represents a record shape mismatch with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("record does not match goal shape:")
	for _, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf(" %s: %s;", err.Field, err.Message))
	}
	return strings.TrimSuffix(sb.String(), ";")
}

// SchemaLoadError represents errors compiling a goal's record schema
type SchemaLoadError struct {
	GoalID string
	Cause  error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("failed to compile record schema for goal %s: %v", e.GoalID, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// compileRecordSchema builds a JSON Schema requiring every field id as a string.
func compileRecordSchema(goalID string, fieldIDs []string) (*gojsonschema.Schema, error) {
	props := make(map[string]any, len(fieldIDs))
	for _, id := range fieldIDs {
		props[id] = map[string]any{"type": "string"}
	}
	doc := map[string]any{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"type":       "object",
		"properties": props,
		"required":   fieldIDs,
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, &SchemaLoadError{GoalID: goalID, Cause: err}
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, &SchemaLoadError{GoalID: goalID, Cause: err}
	}
	return schema, nil
}

func validate(schema *gojsonschema.Schema, record map[string]any) error {
	result, err := schema.Validate(gojsonschema.NewGoLoader(record))
	if err != nil {
		return fmt.Errorf("validate record: %w", err)
	}
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
