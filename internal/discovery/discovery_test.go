package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newTestSearch(t *testing.T, handler http.HandlerFunc) *GoogleSearch {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	g, err := NewGoogleSearch(context.Background(), Config{
		APIKey:   "test-key",
		EngineID: "test-cx",
	}, option.WithEndpoint(server.URL+"/"), option.WithHTTPClient(server.Client()))
	require.NoError(t, err)
	return g
}

func TestDiscover(t *testing.T) {
	var query url.Values
	g := newTestSearch(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": [
			{"link": "https://a.example.com/post"},
			{"link": "https://b.example.com/thread"},
			{"link": "https://a.example.com/post"},
			{"link": ""}
		]}`))
	})

	urls, err := g.Discover(context.Background(), "  saas onboarding complaints ")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com/post", "https://b.example.com/thread"}, urls)

	assert.Equal(t, "saas onboarding complaints", query.Get("q"))
	assert.Equal(t, "test-cx", query.Get("cx"))
	assert.Equal(t, "10", query.Get("num"))
	assert.Equal(t, "d7", query.Get("dateRestrict"))
}

func TestDiscover_NoResults(t *testing.T) {
	g := newTestSearch(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})

	urls, err := g.Discover(context.Background(), "nothing matches")
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestDiscover_APIError(t *testing.T) {
	g := newTestSearch(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"code": 403, "message": "quota exceeded"}}`))
	})

	_, err := g.Discover(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search failed")
}

func TestDiscover_EmptyQuery(t *testing.T) {
	g := newTestSearch(t, func(http.ResponseWriter, *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := g.Discover(context.Background(), "   ")
	require.Error(t, err)
}

func TestNewGoogleSearch_RequiresCredentials(t *testing.T) {
	_, err := NewGoogleSearch(context.Background(), Config{APIKey: "k"})
	require.Error(t, err)

	_, err = NewGoogleSearch(context.Background(), Config{EngineID: "cx"})
	require.Error(t, err)
}

func TestNewGoogleSearch_ClampsNumResults(t *testing.T) {
	g, err := NewGoogleSearch(context.Background(), Config{APIKey: "k", EngineID: "cx", NumResults: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultNumResults), g.numResults)
}
