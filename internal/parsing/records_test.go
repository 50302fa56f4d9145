package parsing

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecords_List(t *testing.T) {
	raw := `[
  {"insight": "Too expensive", "category": "Pricing", "quote": "It costs too much."},
  {"insight": "Slow support", "category": "Customer Support", "quote": "Nobody answers."}
]`

	res := ParseRecords(raw)
	require.Len(t, res.Records, 2)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, "Too expensive", res.Records[0]["insight"])
	assert.Equal(t, "Slow support", res.Records[1]["insight"])
}

func TestParseRecords_PreservesOrder(t *testing.T) {
	for n := 0; n <= 12; n++ {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			var sb strings.Builder
			sb.WriteString("Here you go:\n")
			for i := 0; i < n; i++ {
				fmt.Fprintf(&sb, "{\"insight\": \"item %d\", \"n\": %d}\n", i, i)
			}
			sb.WriteString("Hope that helps.")

			res := ParseRecords(sb.String())
			require.Len(t, res.Records, n)
			for i, rec := range res.Records {
				assert.Equal(t, fmt.Sprintf("item %d", i), rec["insight"])
				assert.Equal(t, float64(i), rec["n"])
			}
		})
	}
}

func TestParseRecords_NoJSON(t *testing.T) {
	for _, raw := range []string{"", "   ", "[]", "I found nothing relevant in this text.", "no braces ] ["} {
		res := ParseRecords(raw)
		assert.NotNil(t, res.Records, raw)
		assert.Empty(t, res.Records, raw)
		assert.Empty(t, res.Skipped, raw)
	}
}

func TestParseRecords_SkipsMalformed(t *testing.T) {
	raw := `{"insight": "good one"} {"insight": broken} {"insight": "another"}`

	res := ParseRecords(raw)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "good one", res.Records[0]["insight"])
	assert.Equal(t, "another", res.Records[1]["insight"])

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 1, res.Skipped[0].Index)
	assert.Contains(t, res.Skipped[0].Fragment, "broken")
	assert.Error(t, res.Skipped[0].Unwrap())
	assert.Contains(t, res.Skipped[0].Error(), "malformed JSON object #1")
}

func TestParseRecords_MultilineObject(t *testing.T) {
	raw := "{\n  \"insight\": \"spans\",\n  \"quote\": \"lines\"\n}"

	res := ParseRecords(raw)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "lines", res.Records[0]["quote"])
}

func TestParseRecords_NestedObjectIsSplit(t *testing.T) {
	raw := `{"insight": "x", "meta": {"k": "v"}, "quote": "q"}`

	res := ParseRecords(raw)
	assert.Empty(t, res.Records)
	assert.Len(t, res.Skipped, 1)
}

func TestParseRecords_TruncatesFragment(t *testing.T) {
	raw := "{" + strings.Repeat("x", 500) + "}"

	res := ParseRecords(raw)
	require.Len(t, res.Skipped, 1)
	assert.LessOrEqual(t, len(res.Skipped[0].Fragment), maxFragmentLen+3)
	assert.True(t, strings.HasSuffix(res.Skipped[0].Fragment, "..."))
}
