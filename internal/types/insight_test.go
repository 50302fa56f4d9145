package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsight_Row(t *testing.T) {
	id := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	batch := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	ins := Insight{
		ID:        id,
		BatchID:   batch,
		Goal:      "pain_points",
		SourceURL: "https://example.com",
		Fields: map[string]any{
			"insight":    "wants dark mode",
			"category":   "Usability",
			"source_url": "https://spoofed.example",
		},
		CreatedAt: created,
	}

	row := ins.Row()
	assert.Equal(t, "wants dark mode", row[FieldInsight])
	assert.Equal(t, "https://example.com", row[FieldSourceURL], "pipeline-owned field must win")
	assert.Equal(t, id.String(), row[FieldID])
	assert.Equal(t, batch.String(), row[FieldBatchID])
	assert.Equal(t, "2024-05-01T12:00:00Z", row[FieldTimestamp])
}

func TestInsight_RowZeroTimestamp(t *testing.T) {
	row := Insight{}.Row()
	assert.Nil(t, row[FieldTimestamp])
}

func TestInsight_MarshalJSONIsFlat(t *testing.T) {
	ins := Insight{
		Goal:      "feature_requests",
		SourceURL: "https://example.com/forum",
		Fields:    map[string]any{"quote": "please add export"},
	}

	data, err := json.Marshal(ins)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "please add export", decoded["quote"])
	assert.Equal(t, "feature_requests", decoded["goal"])
	assert.NotContains(t, decoded, "Fields")
}

func TestInsight_Text(t *testing.T) {
	ins := Insight{Fields: map[string]any{"insight": "x", "score": 3.0}}
	assert.Equal(t, "x", ins.Text(FieldInsight))
	assert.Equal(t, "", ins.Text("score"))
	assert.Equal(t, "", ins.Text("missing"))
}
