// Package parsing turns free-form LLM replies into flat JSON records.
package parsing

import (
	"encoding/json"
	"regexp"
)

// objectPattern is a non-greedy scan for brace-delimited spans. It does not
// balance braces, so a record containing a nested object is split at the first
// closing brace and both halves end up malformed or partial.
var objectPattern = regexp.MustCompile(`(?s)\{.*?\}`)

// maxFragmentLen bounds how much of a bad candidate is kept in a FragmentError.
const maxFragmentLen = 120

// Result is the outcome of parsing one reply.
type Result struct {
	Records []map[string]any
	Skipped []*FragmentError
}

// ParseRecords extracts every JSON object found in raw, in encounter order.
// Text around and between objects (list brackets, commas, prose) is ignored.
// Candidates that fail to decode land in Skipped; parsing never fails as a whole.
func ParseRecords(raw string) Result {
	res := Result{Records: []map[string]any{}}
	for i, candidate := range objectPattern.FindAllString(raw, -1) {
		var record map[string]any
		if err := json.Unmarshal([]byte(candidate), &record); err != nil {
			res.Skipped = append(res.Skipped, &FragmentError{
				Index:    i,
				Fragment: truncate(candidate, maxFragmentLen),
				Cause:    err,
			})
			continue
		}
		res.Records = append(res.Records, record)
	}
	return res
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
