package pipeline

import (
	"fmt"
	"net/url"
	"strings"
)

// DirectivePrefix marks a source list that should be expanded by search.
// Matching is case-insensitive.
const DirectivePrefix = "#google"

// SourceList is a parsed source list: either a discovery query or literal sources.
type SourceList struct {
	HasDirective bool
	Query        string
	Sources      []string
}

// ParseSourceList splits newline-separated input. When the first non-blank
// line is a discovery directive the remaining lines are ignored and Sources
// stays empty; otherwise every non-blank, trimmed line is one source.
func ParseSourceList(text string) SourceList {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return SourceList{}
	}

	if query, ok := parseDirective(lines[0]); ok {
		return SourceList{HasDirective: true, Query: query}
	}
	return SourceList{Sources: lines}
}

func parseDirective(line string) (string, bool) {
	if len(line) < len(DirectivePrefix) || !strings.EqualFold(line[:len(DirectivePrefix)], DirectivePrefix) {
		return "", false
	}
	rest := line[len(DirectivePrefix):]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		// "#googlefoo" is not a directive.
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// ValidateSourceURL checks that raw is an absolute http(s) URL with a host.
func ValidateSourceURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("unparseable URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must start with http:// or https://")
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	return nil
}
