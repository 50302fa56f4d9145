// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/insight-scraper/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of insights to display
	maxItemsToShow = 10
)

// Printer handles formatted output for human-readable CLI mode
type Printer struct {
	out      io.Writer
	maxItems int
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out, maxItems: maxItemsToShow}
}

// WithMaxItems sets how many insights PrintInsights shows. n <= 0 shows all.
func (p *Printer) WithMaxItems(n int) *Printer {
	p.maxItems = n
	return p
}

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", inner, truncate(title, inner))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		line = truncate(line, inner)
		// %-*s pads by bytes; pad by runes so multi-byte text lines up.
		pad := inner - utf8.RuneCountInString(line)
		fmt.Fprintf(p.out, "│ %s%s │\n", line, strings.Repeat(" ", pad))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// RunSummary is what PrintRunSummary reports about one run.
type RunSummary struct {
	Goal           string
	Status         string
	BatchID        string
	RecordsWritten int64
	Log            []string
}

// PrintRunSummary outputs the status of a run and the warnings from its log.
func (p *Printer) PrintRunSummary(s RunSummary) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Goal:     %s\n", s.Goal))
	sb.WriteString(fmt.Sprintf("Status:   %s\n", s.Status))
	if s.BatchID != "" {
		sb.WriteString(fmt.Sprintf("Batch:    %s\n", s.BatchID))
	}
	sb.WriteString(fmt.Sprintf("Insights: %d\n", s.RecordsWritten))

	var skipped []string
	for _, line := range s.Log {
		if strings.HasPrefix(line, "Failed to scrape") ||
			strings.HasPrefix(line, "Analysis failed") ||
			strings.HasPrefix(line, "Skipping") {
			skipped = append(skipped, line)
		}
	}
	if len(skipped) > 0 {
		sb.WriteString(fmt.Sprintf("\nProblems (%d):\n", len(skipped)))
		for _, line := range skipped {
			sb.WriteString(fmt.Sprintf("  • %s\n", line))
		}
	}

	p.printBox("ANALYSIS RUN", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintInsights outputs one block per insight, labelled by the goal's columns.
func (p *Printer) PrintInsights(columns []types.Column, insights []types.Insight) {
	if len(insights) == 0 {
		return
	}

	labelWidth := 0
	for _, c := range columns {
		labelWidth = max(labelWidth, utf8.RuneCountInString(c.Name))
	}

	count := len(insights)
	if p.maxItems > 0 {
		count = min(count, p.maxItems)
	}

	var sb strings.Builder
	for i := 0; i < count; i++ {
		row := insights[i].Row()
		sb.WriteString(fmt.Sprintf("#%d\n", i+1))
		for _, c := range columns {
			val := ""
			if v, ok := row[c.ID]; ok && v != nil {
				val = fmt.Sprint(v)
			}
			sb.WriteString(fmt.Sprintf("  %-*s  %s\n", labelWidth, c.Name, strings.Join(strings.Fields(val), " ")))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(insights) > count {
		sb.WriteString(fmt.Sprintf("\n... and %d more\n", len(insights)-count))
	}

	p.printBox(fmt.Sprintf("INSIGHTS (%d)", len(insights)), strings.TrimSuffix(sb.String(), "\n"))
}
