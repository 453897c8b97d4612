package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pfrederiksen/fixtures-ics/internal/match"
)

const (
	BaseURL   = "https://onefootball.com/en"
	UserAgent = "fixtures-ics/1.0 (github.com/pfrederiksen/fixtures-ics)"
	Timeout   = 30 * time.Second

	// maxPageSize bounds how much of a fixtures page is read into memory
	maxPageSize = 8 << 20
)

// Fetcher downloads fixtures pages
type Fetcher struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithBaseURL points the fetcher at another host, e.g. a test server
func WithBaseURL(u string) Option {
	return func(f *Fetcher) {
		if u != "" {
			f.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithTimeout sets the HTTP client timeout
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithHTTPClient replaces the underlying client
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// New creates a new Fetcher instance
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{
			Timeout: Timeout,
		},
		baseURL:   BaseURL,
		userAgent: UserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// URL returns the fixtures page address for a subject
func (f *Fetcher) URL(s match.Subject) string {
	return fmt.Sprintf("%s/%s/fixtures", f.baseURL, s.Path())
}

// Fetch downloads the fixtures page for the subject.
// It makes exactly one request and never retries.
func (f *Fetcher) Fetch(ctx context.Context, s match.Subject) ([]byte, error) {
	url := f.URL(s)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("fetching page: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize+1))
	if err != nil {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading body: %w", err)}
	}
	if len(body) > maxPageSize {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: ErrPageTooLarge}
	}

	return body, nil
}
