package webfetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const page = `<!DOCTYPE html>
<html>
<head><title>Test</title></head>
<body>
	<h1>Welcome</h1>
	<p>This is a <strong>test</strong> paragraph.</p>
</body>
</html>`

func newPageServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, page)
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/page", http.StatusFound)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_ConvertsToMarkdown(t *testing.T) {
	srv := newPageServer(t)

	out, err := NewFetcher().Fetch(context.Background(), Input{URL: srv.URL + "/page"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.Markdown, "# Welcome") || !strings.Contains(out.Markdown, "**test**") {
		t.Fatalf("unexpected markdown:\n%s", out.Markdown)
	}
	if out.Truncated {
		t.Fatal("short page should not be truncated")
	}
}

func TestFetch_FollowsRedirects(t *testing.T) {
	srv := newPageServer(t)

	out, err := NewFetcher().Fetch(context.Background(), Input{URL: srv.URL + "/moved"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.URL != srv.URL+"/page" {
		t.Fatalf("expected final URL after redirect, got %s", out.URL)
	}
}

func TestFetch_Truncates(t *testing.T) {
	srv := newPageServer(t)

	out, err := NewFetcher(WithMaxChars(5)).Fetch(context.Background(), Input{URL: srv.URL + "/page"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Truncated || len([]rune(out.Markdown)) != 5 {
		t.Fatalf("expected 5 chars truncated, got %q", out.Markdown)
	}
}

func TestFetch_Errors(t *testing.T) {
	srv := newPageServer(t)
	fetcher := NewFetcher()

	if _, err := fetcher.Fetch(context.Background(), Input{URL: "  "}); err == nil {
		t.Fatal("expected error for empty URL")
	}
	if _, err := fetcher.Fetch(context.Background(), Input{URL: srv.URL + "/missing"}); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
}

func TestNew_ToolRoundTrip(t *testing.T) {
	srv := newPageServer(t)
	fetchURL := New(WithHTTPClient(srv.Client()))

	if fetchURL.ToolInfo().Name != "fetch_url" {
		t.Fatalf("unexpected name %q", fetchURL.ToolInfo().Name)
	}

	raw, err := fetchURL.Call(context.Background(), `{"url":"`+srv.URL+`/page"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out Output
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("tool output is not JSON: %v", err)
	}
	if !strings.Contains(out.Markdown, "Welcome") {
		t.Fatalf("unexpected markdown %q", out.Markdown)
	}
}
