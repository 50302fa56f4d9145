package llm

import (
	"regexp"
	"strings"
)

// fenceMarker matches a Markdown code fence together with an optional language tag.
var fenceMarker = regexp.MustCompile("(?i)```[a-z]*")

// CleanJSONBlock removes markdown code block markers from LLM responses.
// Every fence is dropped, not only the outer pair, because extraction replies
// often hold several fenced objects in a row.
func CleanJSONBlock(text string) string {
	text = fenceMarker.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
