// Package discovery finds candidate source URLs for a search query.
package discovery

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// DefaultNumResults is the Custom Search page size and the API's upper bound.
const DefaultNumResults = 10

// DefaultDateRestrict limits results to the past week.
const DefaultDateRestrict = "d7"

// Config holds Custom Search settings.
type Config struct {
	APIKey       string
	EngineID     string
	NumResults   int64
	DateRestrict string
}

// GoogleSearch discovers URLs through the Google Custom Search JSON API.
type GoogleSearch struct {
	svc          *customsearch.Service
	cx           string
	numResults   int64
	dateRestrict string
}

// NewGoogleSearch creates a GoogleSearch. Extra client options are appended
// after the API key, which lets tests point the service at a local endpoint.
func NewGoogleSearch(ctx context.Context, cfg Config, opts ...option.ClientOption) (*GoogleSearch, error) {
	if cfg.APIKey == "" || cfg.EngineID == "" {
		return nil, fmt.Errorf("search API key and engine id are required")
	}
	if cfg.NumResults <= 0 || cfg.NumResults > DefaultNumResults {
		cfg.NumResults = DefaultNumResults
	}
	if cfg.DateRestrict == "" {
		cfg.DateRestrict = DefaultDateRestrict
	}

	svc, err := customsearch.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	return &GoogleSearch{
		svc:          svc,
		cx:           cfg.EngineID,
		numResults:   cfg.NumResults,
		dateRestrict: cfg.DateRestrict,
	}, nil
}

// Discover returns result links for query in rank order, without duplicates.
// A query with no results yields an empty slice and no error.
func (g *GoogleSearch) Discover(ctx context.Context, query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is empty")
	}

	resp, err := g.svc.Cse.List().
		Cx(g.cx).
		Q(query).
		Num(g.numResults).
		DateRestrict(g.dateRestrict).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	seen := make(map[string]struct{}, len(resp.Items))
	urls := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil || item.Link == "" {
			continue
		}
		if _, dup := seen[item.Link]; dup {
			continue
		}
		seen[item.Link] = struct{}{}
		urls = append(urls, item.Link)
	}
	return urls, nil
}
