package webfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/leofalp/agentloop/internal/utils"
	"github.com/leofalp/agentloop/providers/tool"
)

const (
	// DefaultTimeout bounds a single fetch.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxChars is the Markdown length returned to the model.
	DefaultMaxChars = 8000
	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "agentloop-webfetch/1.0"
	// MaxBodySize caps the downloaded HTML.
	MaxBodySize = 10 * 1024 * 1024
	maxRedirects = 10
)

// Input is what the model passes to fetch_url.
type Input struct {
	URL string `json:"url" jsonschema:"the page to fetch; a missing scheme defaults to https"`
}

// Output is returned to the model as JSON.
type Output struct {
	URL       string `json:"url"`
	Markdown  string `json:"markdown"`
	Truncated bool   `json:"truncated,omitempty"`
}

// Fetcher downloads pages and converts them to Markdown.
type Fetcher struct {
	client    *http.Client
	maxChars  int
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client. Its redirect policy is kept as is.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) { f.client = client }
}

// WithMaxChars sets how many characters of Markdown are returned.
func WithMaxChars(n int) Option {
	return func(f *Fetcher) { f.maxChars = n }
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(userAgent string) Option {
	return func(f *Fetcher) { f.userAgent = userAgent }
}

// NewFetcher creates a Fetcher with DefaultTimeout and DefaultMaxChars.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects (>%d)", maxRedirects)
				}
				return nil
			},
		},
		maxChars:  DefaultMaxChars,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// New returns the fetch_url tool.
func New(opts ...Option) *tool.Tool[Input, Output] {
	return tool.NewTool("fetch_url", NewFetcher(opts...).Fetch,
		tool.WithDescription("Fetch a web page and return its content as Markdown."),
	)
}

// Fetch downloads input.URL and converts the HTML body to Markdown.
func (f *Fetcher) Fetch(ctx context.Context, input Input) (Output, error) {
	url := strings.TrimSpace(input.URL)
	if url == "" {
		return Output{}, errors.New("webfetch: URL cannot be empty")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Output{}, fmt.Errorf("webfetch: create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return Output{}, fmt.Errorf("webfetch: fetch %s: %w", url, err)
	}
	defer utils.CloseWithLog(resp.Body, url)

	if resp.StatusCode != http.StatusOK {
		return Output{}, fmt.Errorf("webfetch: unexpected status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return Output{}, fmt.Errorf("webfetch: read body: %w", err)
	}
	if len(body) > MaxBodySize {
		return Output{}, fmt.Errorf("webfetch: body exceeds %d bytes", MaxBodySize)
	}

	markdown, err := htmltomarkdown.ConvertString(string(body))
	if err != nil {
		return Output{}, fmt.Errorf("webfetch: convert to markdown: %w", err)
	}

	out := Output{URL: resp.Request.URL.String(), Markdown: strings.TrimSpace(markdown)}
	if f.maxChars > 0 && utf8.RuneCountInString(out.Markdown) > f.maxChars {
		out.Markdown = string([]rune(out.Markdown)[:f.maxChars])
		out.Truncated = true
	}
	return out, nil
}
