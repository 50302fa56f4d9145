// Package metrics exposes Prometheus collectors for the insight service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Source outcomes recorded by ObserveSource.
const (
	OutcomeOK           = "ok"
	OutcomeInvalidURL   = "invalid_url"
	OutcomeFetchError   = "fetch_error"
	OutcomeExtractError = "extract_error"
	OutcomeNoRecords    = "no_records"
)

var (
	sourcesTotal               *prometheus.CounterVec
	recordsTotal               *prometheus.CounterVec
	malformedFragmentsTotal    prometheus.Counter
	runsTotal                  *prometheus.CounterVec
	runDurationSeconds         prometheus.Histogram
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		sourcesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insight_sources_total",
				Help: "Total number of sources processed, labeled by site and outcome.",
			},
			[]string{"site", "outcome"},
		)

		recordsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insight_records_total",
				Help: "Total number of insight records extracted, labeled by goal.",
			},
			[]string{"goal"},
		)

		malformedFragmentsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "insight_malformed_fragments_total",
				Help: "Total number of JSON fragments dropped from LLM replies.",
			},
		)

		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insight_runs_total",
				Help: "Total number of pipeline runs, labeled by final status.",
			},
			[]string{"status"},
		)

		runDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "insight_run_duration_seconds",
				Help:    "Histogram of end-to-end pipeline run durations.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 30, 120},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveSource counts one processed source.
func ObserveSource(site, outcome string) {
	Init()
	sourcesTotal.WithLabelValues(SanitizeSite(site), outcome).Inc()
}

// ObserveRecords adds n extracted records for goal.
func ObserveRecords(goal string, n int) {
	Init()
	if n > 0 {
		recordsTotal.WithLabelValues(goal).Add(float64(n))
	}
}

// ObserveMalformedFragments adds n dropped fragments.
func ObserveMalformedFragments(n int) {
	Init()
	if n > 0 {
		malformedFragmentsTotal.Add(float64(n))
	}
}

// ObserveRun records a finished run.
func ObserveRun(status string, duration time.Duration) {
	Init()
	runsTotal.WithLabelValues(status).Inc()
	runDurationSeconds.Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
