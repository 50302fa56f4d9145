package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/insight-scraper/internal/config"
	"github.com/jonathan/insight-scraper/internal/db"
	"github.com/jonathan/insight-scraper/internal/discovery"
	"github.com/jonathan/insight-scraper/internal/fetch"
	"github.com/jonathan/insight-scraper/internal/llm"
	"github.com/jonathan/insight-scraper/internal/logging"
	"github.com/jonathan/insight-scraper/internal/pipeline"
	"github.com/jonathan/insight-scraper/internal/search"
	"github.com/jonathan/insight-scraper/internal/secrets"
	"github.com/jonathan/insight-scraper/internal/templates"
)

// app holds the components shared by the subcommands. Optional parts stay nil
// when they are not configured.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	secrets   secrets.Source
	templates *templates.Registry
	creds     credentials

	db         *db.DB
	discoverer *discovery.GoogleSearch
	index      *search.Index

	closers []func()
}

// credentials are the secrets resolved at startup. Missing ones are "".
type credentials struct {
	GeminiAPIKey    string
	SearchAPIKey    string
	SearchEngineID  string
	JWTSigningToken string
}

// newApp loads configuration, builds the logger and resolves credentials.
// Storage and search backends are opened separately by the commands that need them.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(v, configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log.Development)
	if err != nil {
		return nil, err
	}
	reg, err := templates.LoadDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to load goal catalog: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, templates: reg}
	a.closers = append(a.closers, func() { _ = logger.Sync() })

	if err := a.openSecrets(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.resolveCredentials(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases everything the app opened, newest first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) openSecrets(ctx context.Context) error {
	if a.cfg.Secrets.GCPProject == "" {
		a.secrets = secrets.Env{}
		return nil
	}
	gcp, err := secrets.NewGCP(ctx, a.cfg.Secrets.GCPProject)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() { _ = gcp.Close() })
	// The environment still wins so local overrides work against a real project.
	a.secrets = secrets.Chain{secrets.Env{}, gcp}
	return nil
}

// resolveCredentials looks up every configured secret concurrently.
func (a *app) resolveCredentials(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	lookup := func(name string, dst *string) {
		g.Go(func() error {
			val, err := secrets.Lookup(gctx, a.secrets, name)
			if err != nil {
				return fmt.Errorf("failed to read secret %s: %w", name, err)
			}
			*dst = val
			return nil
		})
	}

	lookup(a.cfg.Gemini.APIKeySecret, &a.creds.GeminiAPIKey)
	lookup(a.cfg.Discovery.APIKeySecret, &a.creds.SearchAPIKey)
	lookup(a.cfg.Discovery.EngineIDSecret, &a.creds.SearchEngineID)
	if a.cfg.Auth.Enabled {
		lookup(a.cfg.Auth.JWTSecretName, &a.creds.JWTSigningToken)
	}
	return g.Wait()
}

// openDatabase connects to PostgreSQL and makes sure the insights table exists.
func (a *app) openDatabase(ctx context.Context) error {
	if a.cfg.Database.URL == "" {
		return fmt.Errorf("database.url is required (set INSIGHT_DATABASE_URL)")
	}
	database, err := db.Connect(ctx, a.cfg.Database.URL, a.cfg.Database.MaxConns)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, database.Close)
	if err := database.EnsureSchema(ctx); err != nil {
		return err
	}
	a.db = database
	return nil
}

// openDiscovery enables #google directives when search credentials are present.
func (a *app) openDiscovery(ctx context.Context) error {
	if a.creds.SearchAPIKey == "" || a.creds.SearchEngineID == "" {
		a.logger.Info("source discovery disabled: search credentials not set")
		return nil
	}
	d, err := discovery.NewGoogleSearch(ctx, discovery.Config{
		APIKey:       a.creds.SearchAPIKey,
		EngineID:     a.creds.SearchEngineID,
		NumResults:   a.cfg.Discovery.NumResults,
		DateRestrict: a.cfg.Discovery.DateRestrict,
	})
	if err != nil {
		return err
	}
	a.discoverer = d
	return nil
}

// openSearchIndex enables keyword search when OpenSearch addresses are configured.
func (a *app) openSearchIndex() error {
	if len(a.cfg.OpenSearch.Addresses) == 0 {
		return nil
	}
	idx, err := search.New(search.Config{
		Addresses: a.cfg.OpenSearch.Addresses,
		Username:  a.cfg.OpenSearch.Username,
		Password:  a.cfg.OpenSearch.Password,
		Index:     a.cfg.OpenSearch.Index,
	})
	if err != nil {
		return err
	}
	a.index = idx
	return nil
}

// newFetcher builds the page fetcher with the optional cache and browser fallback.
func (a *app) newFetcher() *fetch.TextFetcher {
	opts := fetch.DefaultOptions()
	opts.Timeout = a.cfg.Fetch.Timeout
	if a.cfg.Fetch.UserAgent != "" {
		opts.UserAgent = a.cfg.Fetch.UserAgent
	}

	var options []fetch.Option
	if a.cfg.Redis.Addr != "" {
		client := fetch.NewRedisClient(a.cfg.Redis.Addr, a.cfg.Redis.Password, a.cfg.Redis.DB)
		a.closers = append(a.closers, func() { _ = client.Close() })
		options = append(options, fetch.WithCache(fetch.NewRedisCache(client, a.cfg.Fetch.CacheTTL)))
	}
	if a.cfg.Fetch.UseBrowser {
		options = append(options, fetch.WithRenderer(fetch.NewChromeRenderer(a.cfg.Fetch.BrowserTimeout, opts.UserAgent)))
	}
	return fetch.NewTextFetcher(opts, options...)
}

// newOrchestrator wires a pipeline over the opened backends. openDatabase must have succeeded.
func (a *app) newOrchestrator() (*pipeline.Orchestrator, error) {
	tier, err := llm.ParseTier(a.cfg.LLM.Tier)
	if err != nil {
		return nil, err
	}
	deps := pipeline.Dependencies{
		Templates: a.templates,
		Fetcher:   a.newFetcher(),
		NewClient: llm.NewFactory(llm.ConfigFromModels(a.cfg.LLM.Models)),
		Store:     a.db,
		Logger:    a.logger,
		Tier:      tier,
	}
	if a.discoverer != nil {
		deps.Discoverer = a.discoverer
	}
	if a.index != nil {
		deps.Indexer = a.index
	}
	return pipeline.New(deps)
}
