// Package search keeps a keyword index of insights in OpenSearch.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jonathan/insight-scraper/internal/types"
	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// DefaultLimit is the number of hits returned when the caller passes none.
const DefaultLimit = 50

// searchFields are the row fields a keyword query matches against.
var searchFields = []string{"insight^3", "quote^2", "category", "goal", "source_url"}

// Config holds OpenSearch connection settings.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
	Transport http.RoundTripper
}

// Index reads and writes insight rows in one OpenSearch index.
type Index struct {
	client *opensearch.Client
	index  string
}

// New creates an Index client. No request is made until first use.
func New(cfg Config) (*Index, error) {
	if cfg.Index == "" {
		return nil, fmt.Errorf("opensearch index name is required")
	}
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create opensearch client: %w", err)
	}
	return &Index{client: client, index: cfg.Index}, nil
}

// IndexInsights bulk-indexes insights by id. Re-indexing the same insight overwrites it.
func (x *Index) IndexInsights(ctx context.Context, insights []types.Insight) error {
	if len(insights) == 0 {
		return nil
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, ins := range insights {
		meta := map[string]any{"index": map[string]any{"_index": x.index, "_id": ins.ID.String()}}
		if err := enc.Encode(meta); err != nil {
			return fmt.Errorf("failed to encode bulk action: %w", err)
		}
		if err := enc.Encode(ins.Row()); err != nil {
			return fmt.Errorf("failed to encode insight %s: %w", ins.ID, err)
		}
	}

	req := opensearchapi.BulkRequest{
		Index: x.index,
		Body:  &body,
	}
	res, err := req.Do(ctx, x.client)
	if err != nil {
		return fmt.Errorf("failed to execute bulk request: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("error indexing insights: %s", res.String())
	}

	var bulk struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulk); err != nil && err != io.EOF {
		return fmt.Errorf("failed to decode bulk response: %w", err)
	}
	if bulk.Errors {
		return fmt.Errorf("bulk request reported item errors")
	}
	return nil
}

// Search runs a keyword query across insight text fields and returns the
// matching rows, best match first.
func (x *Index) Search(ctx context.Context, term string, limit int) ([]map[string]any, error) {
	if term == "" {
		return nil, fmt.Errorf("search term is required")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := map[string]any{
		"size": limit,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  term,
				"fields": searchFields,
			},
		},
	}
	payload, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req := opensearchapi.SearchRequest{
		Index: []string{x.index},
		Body:  bytes.NewReader(payload),
	}
	res, err := req.Do(ctx, x.client)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search request: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, fmt.Errorf("error searching insights: %s", res.String())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	rows := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		rows = append(rows, hit.Source)
	}
	return rows, nil
}
