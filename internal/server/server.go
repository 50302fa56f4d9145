package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/insight-scraper/internal/logging"
	"github.com/jonathan/insight-scraper/internal/metrics"
	"github.com/jonathan/insight-scraper/internal/pipeline"
	"github.com/jonathan/insight-scraper/internal/server/middleware"
	"github.com/jonathan/insight-scraper/internal/server/ratelimit"
	"github.com/jonathan/insight-scraper/internal/templates"
	"github.com/jonathan/insight-scraper/internal/types"
)

// Runner executes analysis runs.
type Runner interface {
	Run(ctx context.Context, req pipeline.RunRequest) *pipeline.RunResult
}

// GoalCatalog lists the analysis goals offered to clients.
type GoalCatalog interface {
	List() []templates.Template
}

// InsightReader reads stored insights back.
type InsightReader interface {
	ListByBatch(ctx context.Context, batchID uuid.UUID) ([]types.Insight, error)
	List(ctx context.Context, goal string, limit int) ([]types.Insight, error)
}

// Searcher runs keyword queries over indexed insights.
type Searcher interface {
	Search(ctx context.Context, term string, limit int) ([]map[string]any, error)
}

// Pinger reports whether a backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds server configuration. Runner, Goals and Insights are required;
// Discoverer, Searcher, JWT and RateLimiter enable optional features.
type Config struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// APIKey is the Gemini key used when a request does not bring its own.
	APIKey string

	Runner      Runner
	Goals       GoalCatalog
	Insights    InsightReader
	Database    Pinger
	Discoverer  pipeline.Discoverer
	Searcher    Searcher
	JWT         *JWTService
	RateLimiter *ratelimit.Limiter
	Logger      *zap.Logger
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	router      chi.Router
	apiKey      string
	runner      Runner
	goals       GoalCatalog
	insights    InsightReader
	database    Pinger
	discoverer  pipeline.Discoverer
	searcher    Searcher
	jwtService  *JWTService
	rateLimiter *ratelimit.Limiter
	validator   *validator.Validate
	logger      *zap.Logger
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	switch {
	case cfg.Runner == nil:
		return nil, errors.New("server: runner is required")
	case cfg.Goals == nil:
		return nil, errors.New("server: goal catalog is required")
	case cfg.Insights == nil:
		return nil, errors.New("server: insight reader is required")
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Minute // runs fetch and analyze every source inline
	}

	s := &Server{
		apiKey:      cfg.APIKey,
		runner:      cfg.Runner,
		goals:       cfg.Goals,
		insights:    cfg.Insights,
		database:    cfg.Database,
		discoverer:  cfg.Discoverer,
		searcher:    cfg.Searcher,
		jwtService:  cfg.JWT,
		rateLimiter: cfg.RateLimiter,
		validator:   validator.New(),
		logger:      logging.OrNop(cfg.Logger).Named("server"),
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(s.withCORS)
	if s.rateLimiter != nil {
		r.Use(s.withRateLimit)
	}

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		if s.jwtService != nil {
			r.Use(middleware.AuthMiddleware(s.jwtService.AsTokenValidator()))
		}
		r.Get("/goals", s.handleListGoals)
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/analyze/stream", s.handleAnalyzeStream)
		r.Post("/discover", s.handleDiscover)
		r.Post("/search", s.handleSearch)
		r.Get("/insights", s.handleListInsights)
		r.Get("/batches/{batch_id}/insights", s.handleBatchInsights)
	})
	s.router = r

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the router for use in tests or a custom http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.database != nil {
		if err := s.database.Ping(r.Context()); err != nil {
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("error encoding JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; X-Forwarded-For is not trusted.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.logger.Warn("rate limit exceeded",
		zap.Int("limit", info.Limit),
		zap.Duration("retry_after", info.RetryAfter))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
