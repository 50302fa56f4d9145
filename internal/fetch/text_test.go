package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	data   map[string]string
	getErr error
	sets   int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string]string{}}
}

func (m *memoryCache) Get(_ context.Context, url string) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	text, ok := m.data[url]
	return text, ok, nil
}

func (m *memoryCache) Set(_ context.Context, url, text string) error {
	m.sets++
	m.data[url] = text
	return nil
}

func htmlServer(t *testing.T, body string, hits *int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits != nil {
			*hits++
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestTextFetcher_FetchText(t *testing.T) {
	server := htmlServer(t, "<html><body><p>Customers hate the price.</p></body></html>", nil)

	text, err := NewTextFetcher(nil).FetchText(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Customers hate the price.", text)
}

func TestTextFetcher_PropagatesFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := NewTextFetcher(nil).FetchText(context.Background(), server.URL)
	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusForbidden, fetchErr.StatusCode)
}

func TestTextFetcher_EmptyPage(t *testing.T) {
	server := htmlServer(t, "<html><body><script>app()</script></body></html>", nil)

	_, err := NewTextFetcher(nil).FetchText(context.Background(), server.URL)
	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, fetchErr.Message, "no text")
}

func TestTextFetcher_CacheHitSkipsRequest(t *testing.T) {
	hits := 0
	server := htmlServer(t, "<p>fresh</p>", &hits)
	cache := newMemoryCache()
	cache.data[server.URL] = "cached"

	text, err := NewTextFetcher(nil, WithCache(cache)).FetchText(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "cached", text)
	assert.Equal(t, 0, hits)
}

func TestTextFetcher_CacheMissStores(t *testing.T) {
	hits := 0
	server := htmlServer(t, "<p>fresh</p>", &hits)
	cache := newMemoryCache()
	f := NewTextFetcher(nil, WithCache(cache))

	text, err := f.FetchText(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "fresh", text)
	assert.Equal(t, "fresh", cache.data[server.URL])

	_, err = f.FetchText(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
}

func TestTextFetcher_CacheErrorIsMiss(t *testing.T) {
	server := htmlServer(t, "<p>fresh</p>", nil)
	cache := newMemoryCache()
	cache.getErr = errors.New("redis down")

	text, err := NewTextFetcher(nil, WithCache(cache)).FetchText(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "fresh", text)
}

func TestTextFetcher_RendererFallback(t *testing.T) {
	server := htmlServer(t, "<div id=\"root\">Loading</div>", nil)
	rendered := "<html><body><p>" + strings.Repeat("rendered content ", 40) + "</p></body></html>"

	calls := 0
	renderer := RendererFunc(func(_ context.Context, _ string) (string, error) {
		calls++
		return rendered, nil
	})

	text, err := NewTextFetcher(nil, WithRenderer(renderer)).FetchText(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, text, "rendered content")
}

func TestTextFetcher_RendererFailureKeepsHTTPText(t *testing.T) {
	server := htmlServer(t, "<p>thin page</p>", nil)
	renderer := RendererFunc(func(context.Context, string) (string, error) {
		return "", errors.New("chrome not installed")
	})

	text, err := NewTextFetcher(nil, WithRenderer(renderer)).FetchText(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "thin page", text)
}

func TestTextFetcher_LongPageSkipsRenderer(t *testing.T) {
	server := htmlServer(t, "<p>"+strings.Repeat("word ", 200)+"</p>", nil)
	renderer := RendererFunc(func(context.Context, string) (string, error) {
		t.Fatal("renderer should not be called for long pages")
		return "", nil
	})

	_, err := NewTextFetcher(nil, WithRenderer(renderer)).FetchText(context.Background(), server.URL)
	require.NoError(t, err)
}
