package fetch

import (
	"context"
)

// TextFetcher fetches a URL and returns its visible text. The page cache and
// the browser renderer are optional.
type TextFetcher struct {
	options  *Options
	cache    PageCache
	renderer Renderer
}

// Option configures a TextFetcher.
type Option func(*TextFetcher)

// WithCache enables the page-text cache.
func WithCache(cache PageCache) Option {
	return func(f *TextFetcher) { f.cache = cache }
}

// WithRenderer enables the headless-browser fallback for thin pages.
func WithRenderer(r Renderer) Option {
	return func(f *TextFetcher) { f.renderer = r }
}

// NewTextFetcher returns a TextFetcher using opts for plain HTTP requests.
func NewTextFetcher(opts *Options, options ...Option) *TextFetcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	f := &TextFetcher{options: opts}
	for _, o := range options {
		o(f)
	}
	return f
}

// FetchText returns the visible text of url. Failures come back as *Error.
// Cache errors are treated as misses and never fail the fetch.
func (f *TextFetcher) FetchText(ctx context.Context, url string) (string, error) {
	if f.cache != nil {
		if text, ok, err := f.cache.Get(ctx, url); err == nil && ok {
			return text, nil
		}
	}

	result, err := URL(ctx, url, f.options)
	if err != nil {
		return "", err
	}

	text, err := ExtractText(result.HTML)
	if err != nil {
		return "", &Error{URL: url, Message: "failed to extract text", Cause: err}
	}

	if f.renderer != nil && ShouldUseBrowser(text) {
		if html, rerr := f.renderer.Render(ctx, url); rerr == nil {
			if rendered, xerr := ExtractText(html); xerr == nil && len(rendered) > len(text) {
				text = rendered
			}
		}
	}

	if text == "" {
		return "", &Error{URL: url, Message: "page has no text content"}
	}

	if f.cache != nil {
		_ = f.cache.Set(ctx, url, text)
	}
	return text, nil
}
