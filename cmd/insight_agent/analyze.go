package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/insight-scraper/internal/observability"
	"github.com/jonathan/insight-scraper/internal/pipeline"
	"github.com/jonathan/insight-scraper/internal/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [url...]",
	Short: "Run one analysis and print the stored insights as JSON",
	Long: `Fetch every source, extract insights for --goal and store them as one batch.

Sources are taken from the arguments, from --sites (newline or comma separated)
or from --sites-file (a file, or "-" for stdin). A first line of the form
"#google <query>" discovers sources through Google Custom Search instead.`,
	RunE: runAnalyze,
}

var (
	analyzeGoal      string
	analyzeSites     string
	analyzeSitesFile string
	analyzeAPIKey  string
	analyzeQuiet   bool
	analyzeFormat  string
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeGoal, "goal", "g", "", "Analysis goal id (run 'insight_agent goals' for the list)")
	analyzeCmd.Flags().StringVarP(&analyzeSites, "sites", "s", "", "Sources, newline or comma separated")
	analyzeCmd.Flags().StringVar(&analyzeSitesFile, "sites-file", "", "File with one source per line, or - for stdin")
	analyzeCmd.Flags().StringVar(&analyzeAPIKey, "api-key", "", "Gemini API key (defaults to the configured secret)")
	analyzeCmd.Flags().BoolVarP(&analyzeQuiet, "quiet", "q", false, "Do not print the run log to stderr")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "json", "Output format: json or table")
	analyzeCmd.Flags().String("tier", "standard", "Model tier used for extraction: lite, standard or advanced")
	analyzeCmd.Flags().Bool("use-browser", false, "Render thin pages in headless Chrome")
	_ = v.BindPFlag("llm.tier", analyzeCmd.Flags().Lookup("tier"))
	_ = v.BindPFlag("fetch.use_browser", analyzeCmd.Flags().Lookup("use-browser"))
	_ = analyzeCmd.MarkFlagRequired("goal")
	rootCmd.AddCommand(analyzeCmd)
}

// readSources builds the newline-separated source list from exactly one of
// args, the inline --sites value or the --sites-file input.
func readSources(args []string, inline, path string, stdin io.Reader) (string, error) {
	given := 0
	for _, set := range []bool{len(args) > 0, inline != "", path != ""} {
		if set {
			given++
		}
	}
	if given > 1 {
		return "", fmt.Errorf("pass sources with only one of arguments, --sites or --sites-file")
	}
	if inline != "" {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(inline)), "#google") {
			return inline, nil
		}
		return strings.ReplaceAll(inline, ",", "\n"), nil
	}
	switch path {
	case "":
		return strings.Join(args, "\n"), nil
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read sources from stdin: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read sources file: %w", err)
		}
		return string(data), nil
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if analyzeFormat != "json" && analyzeFormat != "table" {
		return fmt.Errorf("unknown --format %q (want json or table)", analyzeFormat)
	}

	sources, err := readSources(args, analyzeSites, analyzeSitesFile, cmd.InOrStdin())
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.openDatabase(ctx); err != nil {
		return err
	}
	if err := a.openDiscovery(ctx); err != nil {
		return err
	}
	if err := a.openSearchIndex(); err != nil {
		return err
	}
	orchestrator, err := a.newOrchestrator()
	if err != nil {
		return err
	}

	credential := analyzeAPIKey
	if credential == "" {
		credential = a.creds.GeminiAPIKey
	}

	stderr := cmd.ErrOrStderr()
	req := pipeline.RunRequest{
		Credential: credential,
		GoalID:     analyzeGoal,
		Sources:    sources,
	}
	if !analyzeQuiet {
		req.OnProgress = func(e pipeline.ProgressEvent) {
			fmt.Fprintln(stderr, e.Message)
		}
	}

	res := orchestrator.Run(ctx, req)
	if err := res.Err(); err != nil {
		return err
	}

	var stored []types.Insight
	if res.Status == pipeline.StatusSuccess {
		if stored, err = a.db.ListByBatch(ctx, res.BatchID); err != nil {
			return err
		}
	}

	if analyzeFormat == "table" {
		printer := observability.NewPrinter(cmd.OutOrStdout())
		printer.PrintRunSummary(observability.RunSummary{
			Goal:           analyzeGoal,
			Status:         string(res.Status),
			BatchID:        res.BatchID.String(),
			RecordsWritten: res.RecordsWritten,
			Log:            res.Log,
		})
		printer.PrintInsights(res.Columns, stored)
		return nil
	}
	if res.Status == pipeline.StatusNoResults {
		fmt.Fprintln(stderr, "no insights found")
		return nil
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"status":   res.Status,
		"batch_id": res.BatchID.String(),
		"columns":  res.Columns,
		"logs":     res.Log,
		"data":     stored,
	})
}
