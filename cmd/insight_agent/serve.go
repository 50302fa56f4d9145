package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/insight-scraper/internal/config"
	"github.com/jonathan/insight-scraper/internal/metrics"
	"github.com/jonathan/insight-scraper/internal/server"
	"github.com/jonathan/insight-scraper/internal/server/ratelimit"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the goal catalog, analysis runs (plain and streamed), source discovery, search and stored insights.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 5001, "Port to listen on")
	serveCmd.Flags().Bool("auth", false, "Require bearer tokens on /api routes")
	_ = v.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = v.BindPFlag("auth.enabled", serveCmd.Flags().Lookup("auth"))
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	metrics.Init()

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

	srvCfg := server.Config{
		Port:         a.cfg.Server.Port,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		APIKey:       a.creds.GeminiAPIKey,
		Runner:       orchestrator,
		Goals:        a.templates,
		Insights:     a.db,
		Database:     a.db,
		Logger:       a.logger,
	}
	if a.discoverer != nil {
		srvCfg.Discoverer = a.discoverer
	}
	if a.index != nil {
		srvCfg.Searcher = a.index
	}
	if a.cfg.Auth.Enabled {
		jwtCfg, err := config.NewJWTConfig(a.creds.JWTSigningToken, a.cfg.Auth.TokenTTL)
		if err != nil {
			return fmt.Errorf("failed to create JWT config: %w", err)
		}
		srvCfg.JWT = server.NewJWTService(jwtCfg)
	}
	if a.cfg.RateLimit.Enabled {
		srvCfg.RateLimiter = ratelimit.NewLimiter(ratelimit.DefaultConfig(a.cfg.RateLimit.AnalyzePerHour, a.cfg.RateLimit.Burst))
	}
	if a.creds.GeminiAPIKey == "" {
		a.logger.Warn("no server Gemini key configured; requests must send apiKey")
	}

	srv, err := server.New(srvCfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			a.logger.Info("shutdown signal received", zap.Error(context.Cause(ctx)))
		}
		return nil
	})
	return g.Wait()
}
