package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/insight-scraper/internal/llm"
	"github.com/jonathan/insight-scraper/internal/types"
)

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakeFetcher) FetchText(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return "", err
	}
	if text, ok := f.pages[url]; ok {
		return text, nil
	}
	return "", errors.New("connection refused")
}

// fakeClient answers with the reply registered for a marker found in the page text of the prompt.
type fakeClient struct {
	mu      sync.Mutex
	replies map[string]string
	errs    map[string]error
	prompts []string
	closed  bool
}

func (c *fakeClient) GenerateContent(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	text := prompt[strings.Index(prompt, llm.TextDelimiter)+len(llm.TextDelimiter):]
	for marker, err := range c.errs {
		if strings.Contains(text, marker) {
			return "", err
		}
	}
	for marker, reply := range c.replies {
		if strings.Contains(text, marker) {
			return reply, nil
		}
	}
	return "[]", nil
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

type fakeStore struct {
	mu      sync.Mutex
	batches [][]types.Insight
	err     error
}

func (s *fakeStore) WriteBatch(_ context.Context, insights []types.Insight) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	cp := append([]types.Insight(nil), insights...)
	s.batches = append(s.batches, cp)
	return int64(len(insights)), nil
}

type fakeDiscoverer struct {
	urls    []string
	err     error
	queries []string
}

func (d *fakeDiscoverer) Discover(_ context.Context, query string) ([]string, error) {
	d.queries = append(d.queries, query)
	return d.urls, d.err
}

type fakeIndexer struct {
	indexed []types.Insight
	err     error
}

func (x *fakeIndexer) IndexInsights(_ context.Context, insights []types.Insight) error {
	x.indexed = append(x.indexed, insights...)
	return x.err
}

var fixedNow = time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)

func sequentialIDs() func() uuid.UUID {
	var mu sync.Mutex
	n := 0
	return func() uuid.UUID {
		mu.Lock()
		defer mu.Unlock()
		n++
		var id uuid.UUID
		id[15] = byte(n)
		id[14] = byte(n >> 8)
		return id
	}
}
