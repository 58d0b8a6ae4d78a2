package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/leofalp/agentloop/providers/observability"
)

// StatusError is returned by DoJSON for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("non-2xx status %d: %s", e.StatusCode, TruncateString(e.Body, 200))
}

// CloseWithLog closes a response body, logging a failure instead of
// returning it.
func CloseWithLog(closer io.Closer, url string) {
	if err := closer.Close(); err != nil {
		slog.Warn("failed to close response body", "error", err.Error(), "url", url)
	}
}

// DoJSON performs an HTTP request with an optional JSON body and decodes a
// JSON response into Out. A nil body sends no payload. When the context
// carries a span, the response status and latency are recorded on it.
//
// Non-2xx responses return *StatusError; when the body still decodes into Out
// the decoded value is returned alongside the error, so callers can read
// structured error payloads.
func DoJSON[Out any](ctx context.Context, client *http.Client, method, url string, body any) (*Out, error) {
	if client == nil {
		client = http.DefaultClient
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("error marshaling body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer CloseWithLog(res.Body, url)

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	observability.AddEvent(ctx, observability.EventHTTPResponse,
		observability.String(observability.AttrHTTPMethod, method),
		observability.String(observability.AttrHTTPURL, url),
		observability.Int(observability.AttrHTTPStatusCode, res.StatusCode),
		observability.Duration("http.request.duration", time.Since(start)),
	)

	var out Out
	decodeErr := json.Unmarshal(raw, &out)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: res.StatusCode, Body: string(raw)}
		if decodeErr == nil {
			return &out, statusErr
		}
		return nil, statusErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("error unmarshaling response body (status %d): %w", res.StatusCode, decodeErr)
	}
	return &out, nil
}
