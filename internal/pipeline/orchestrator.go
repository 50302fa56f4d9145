// Package pipeline runs one analysis: resolve sources, fetch and extract each
// one, parse the replies into records and store them as one batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/insight-scraper/internal/llm"
	"github.com/jonathan/insight-scraper/internal/logging"
	"github.com/jonathan/insight-scraper/internal/metrics"
	"github.com/jonathan/insight-scraper/internal/parsing"
	"github.com/jonathan/insight-scraper/internal/templates"
	"github.com/jonathan/insight-scraper/internal/types"
)

// TemplateSource resolves analysis goals.
type TemplateSource interface {
	Lookup(goalID string) (templates.Template, bool)
}

// TextFetcher returns the visible text of a page.
type TextFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// Discoverer expands a search query into candidate URLs.
type Discoverer interface {
	Discover(ctx context.Context, query string) ([]string, error)
}

// Store persists a batch of insights atomically.
type Store interface {
	WriteBatch(ctx context.Context, insights []types.Insight) (int64, error)
}

// Indexer mirrors stored insights into a search index.
type Indexer interface {
	IndexInsights(ctx context.Context, insights []types.Insight) error
}

// Dependencies wires an Orchestrator. Templates, Fetcher, NewClient and Store
// are required; the rest are optional.
type Dependencies struct {
	Templates  TemplateSource
	Fetcher    TextFetcher
	NewClient  llm.Factory
	Store      Store
	Discoverer Discoverer
	Indexer    Indexer
	Logger     *zap.Logger
	Tier       llm.ModelTier
	Now        func() time.Time
	NewID      func() uuid.UUID
}

// RunRequest is the input of one run.
type RunRequest struct {
	Credential string
	GoalID     string
	Sources    string
	OnProgress ProgressCallback
}

// RunResult is the outcome of one run. It is never persisted.
type RunResult struct {
	Status         Status
	Columns        []types.Column
	Log            []string
	BatchID        uuid.UUID
	RecordsWritten int64
}

// Err returns a *RunError for error statuses and nil otherwise.
func (r *RunResult) Err() error {
	if !r.Status.IsError() {
		return nil
	}
	msg := string(r.Status)
	if len(r.Log) > 0 {
		msg = r.Log[len(r.Log)-1]
	}
	return &RunError{Status: r.Status, Message: msg}
}

// Orchestrator runs analyses. It holds no per-run state and is safe for
// concurrent use; runs are isolated by their batch id.
type Orchestrator struct {
	deps Dependencies
}

// New validates deps and returns an Orchestrator.
func New(deps Dependencies) (*Orchestrator, error) {
	switch {
	case deps.Templates == nil:
		return nil, errors.New("pipeline: templates are required")
	case deps.Fetcher == nil:
		return nil, errors.New("pipeline: fetcher is required")
	case deps.NewClient == nil:
		return nil, errors.New("pipeline: LLM client factory is required")
	case deps.Store == nil:
		return nil, errors.New("pipeline: store is required")
	}
	deps.Logger = logging.OrNop(deps.Logger).Named("pipeline")
	if deps.Tier == "" {
		deps.Tier = llm.TierStandard
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.New
	}
	return &Orchestrator{deps: deps}, nil
}

// run carries the state of one Run call.
type run struct {
	o      *Orchestrator
	req    RunRequest
	result *RunResult
	logger *zap.Logger
}

func (r *run) emit(level, sourceURL, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.result.Log = append(r.result.Log, msg)

	fields := []zap.Field{zap.String("batch_id", r.result.BatchID.String())}
	if sourceURL != "" {
		fields = append(fields, zap.String("url", sourceURL))
	}
	switch level {
	case LevelError:
		r.logger.Error(msg, fields...)
	case LevelWarn:
		r.logger.Warn(msg, fields...)
	default:
		r.logger.Info(msg, fields...)
	}

	if r.req.OnProgress != nil {
		r.req.OnProgress(ProgressEvent{
			BatchID:   r.result.BatchID.String(),
			Level:     level,
			Message:   msg,
			SourceURL: sourceURL,
			Time:      r.o.deps.Now(),
		})
	}
}

func (r *run) finish(status Status, started time.Time) *RunResult {
	r.result.Status = status
	metrics.ObserveRun(string(status), r.o.deps.Now().Sub(started))
	return r.result
}

// Run executes one analysis. It never panics on bad input or failing
// dependencies; every failure is reflected in the returned status and log.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) *RunResult {
	started := o.deps.Now()
	r := &run{
		o:      o,
		req:    req,
		result: &RunResult{BatchID: o.deps.NewID(), Log: []string{}},
	}
	r.logger = o.deps.Logger.With(zap.String("goal", req.GoalID))

	client, err := o.deps.NewClient(ctx, req.Credential)
	if err != nil {
		r.emit(LevelError, "", "Error configuring Gemini API: %v", err)
		return r.finish(StatusConfigurationError, started)
	}
	defer func() { _ = client.Close() }()

	tmpl, ok := o.deps.Templates.Lookup(req.GoalID)
	if !ok {
		r.emit(LevelError, "", "Error: Invalid analysis goal '%s'", req.GoalID)
		return r.finish(StatusInvalidGoal, started)
	}
	r.result.Columns = tmpl.Columns()

	sources, ok := r.resolveSources(ctx)
	if !ok {
		return r.finish(StatusInvalidDirective, started)
	}

	extractor := llm.NewExtractor(client, o.deps.Tier)
	var collected []types.Insight
	for _, src := range sources {
		collected = append(collected, r.processSource(ctx, extractor, tmpl, src)...)
	}

	if len(collected) == 0 {
		r.emit(LevelInfo, "", "Analysis complete, but no new insights were found.")
		return r.finish(StatusNoResults, started)
	}

	createdAt := o.deps.Now().UTC()
	for i := range collected {
		collected[i].ID = o.deps.NewID()
		collected[i].CreatedAt = createdAt
	}

	written, err := o.deps.Store.WriteBatch(ctx, collected)
	if err != nil {
		r.emit(LevelError, "", "Error saving insights to the database: %v", err)
		return r.finish(StatusStorageError, started)
	}
	r.result.RecordsWritten = written
	r.emit(LevelInfo, "", "--- Success! %d insights saved to the database ---", written)

	if o.deps.Indexer != nil {
		if err := o.deps.Indexer.IndexInsights(ctx, collected); err != nil {
			r.emit(LevelWarn, "", "Warning: insights saved but search indexing failed: %v", err)
		}
	}

	return r.finish(StatusSuccess, started)
}

// resolveSources returns the sources to process. ok is false only for a
// directive without a query.
func (r *run) resolveSources(ctx context.Context) ([]string, bool) {
	list := ParseSourceList(r.req.Sources)
	if !list.HasDirective {
		return list.Sources, true
	}

	if list.Query == "" {
		r.emit(LevelError, "", "Error: %s directive requires a search query.", DirectivePrefix)
		return nil, false
	}

	r.emit(LevelInfo, "", "Discovering sources for query: '%s'", list.Query)
	if r.o.deps.Discoverer == nil {
		r.emit(LevelWarn, "", "Source discovery is not configured; no sources to process.")
		return nil, true
	}

	urls, err := r.o.deps.Discoverer.Discover(ctx, list.Query)
	if err != nil {
		r.emit(LevelError, "", "Error during source discovery: %v", err)
		return nil, true
	}
	r.emit(LevelInfo, "", "Found %d URLs to analyze.", len(urls))
	return urls, true
}

// processSource runs one source through fetch, extract and parse. Every
// failure is logged and yields no records.
func (r *run) processSource(ctx context.Context, extractor *llm.Extractor, tmpl templates.Template, src string) []types.Insight {
	if err := ValidateSourceURL(src); err != nil {
		r.emit(LevelWarn, src, "Skipping invalid URL: %s", src)
		metrics.ObserveSource(src, metrics.OutcomeInvalidURL)
		return nil
	}

	r.emit(LevelInfo, src, "--- Processing: %s ---", src)
	text, err := r.o.deps.Fetcher.FetchText(ctx, src)
	if err != nil {
		r.emit(LevelWarn, src, "Failed to scrape text from %s. Skipping. (%v)", src, err)
		metrics.ObserveSource(src, metrics.OutcomeFetchError)
		return nil
	}

	r.emit(LevelInfo, src, "Text scraped. Analyzing with goal: %s...", tmpl.ID)
	raw, err := extractor.Extract(ctx, tmpl.Instruction, text)
	if err != nil {
		r.emit(LevelWarn, src, "Analysis failed for %s. No data extracted. (%v)", src, err)
		metrics.ObserveSource(src, metrics.OutcomeExtractError)
		return nil
	}
	r.emit(LevelInfo, src, "Analysis complete for this URL.")

	parsed := parsing.ParseRecords(raw)
	for _, skipped := range parsed.Skipped {
		r.emit(LevelWarn, src, "Skipping malformed JSON object: %v", skipped)
	}
	metrics.ObserveMalformedFragments(len(parsed.Skipped))

	if len(parsed.Records) == 0 {
		r.emit(LevelInfo, src, "No insights found in %s.", src)
		metrics.ObserveSource(src, metrics.OutcomeNoRecords)
		return nil
	}

	out := make([]types.Insight, 0, len(parsed.Records))
	for _, rec := range parsed.Records {
		if err := tmpl.CheckRecord(rec); err != nil {
			r.logger.Warn("record does not match goal shape",
				zap.String("url", src), zap.Error(err))
		}
		out = append(out, types.Insight{
			BatchID:   r.result.BatchID,
			Goal:      tmpl.ID,
			SourceURL: src,
			Fields:    rec,
		})
	}
	r.emit(LevelInfo, src, "Extracted %d insights from %s.", len(out), src)
	metrics.ObserveSource(src, metrics.OutcomeOK)
	metrics.ObserveRecords(tmpl.ID, len(out))
	return out
}
