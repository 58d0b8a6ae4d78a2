package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/leofalp/agentloop/providers/ai"
)

// sequenceProvider returns errs[i] on the i-th call, then a default response.
type sequenceProvider struct {
	calls int
	errs  []error
}

func (s *sequenceProvider) SendMessage(_ context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
	index := s.calls
	s.calls++
	if index < len(s.errs) && s.errs[index] != nil {
		return nil, s.errs[index]
	}
	return &ai.ChatResponse{Model: "m", Content: "ok", FinishReason: "stop", Usage: &ai.Usage{TotalTokens: 3}}, nil
}

func fastRetry(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries:     maxRetries,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

func transient() error {
	return &ai.ProviderError{Provider: "test", StatusCode: http.StatusServiceUnavailable, Err: errors.New("unavailable")}
}

func TestChain_OrderOutermostFirst(t *testing.T) {
	var order []string
	record := func(name string) Middleware {
		return func(next SendFunc) SendFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				order = append(order, name)
				return next(ctx, request)
			}
		}
	}

	provider := Chain(&sequenceProvider{}, record("a"), nil, record("b"))
	if _, err := provider.SendMessage(context.Background(), ai.ChatRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(order, ",") != "a,b" {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestRetry_RecoversFromTransientError(t *testing.T) {
	inner := &sequenceProvider{errs: []error{transient(), transient()}}
	provider := Chain(inner, Retry(fastRetry(3)))

	resp, err := provider.SendMessage(context.Background(), ai.ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "ok" || inner.calls != 3 {
		t.Fatalf("expected success on third call, got %d calls", inner.calls)
	}
}

func TestRetry_Exhausted(t *testing.T) {
	inner := &sequenceProvider{errs: []error{transient(), transient(), transient()}}
	provider := Chain(inner, Retry(fastRetry(2)))

	_, err := provider.SendMessage(context.Background(), ai.ChatRequest{})
	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("expected ErrRetryExhausted, got %v", err)
	}
	var providerErr *ai.ProviderError
	if !errors.As(err, &providerErr) || providerErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
	if inner.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", inner.calls)
	}
}

func TestRetry_PermanentErrorNotRetried(t *testing.T) {
	permanent := &ai.ProviderError{Provider: "test", StatusCode: http.StatusBadRequest, Err: errors.New("bad")}
	inner := &sequenceProvider{errs: []error{permanent}}
	provider := Chain(inner, Retry(fastRetry(3)))

	_, err := provider.SendMessage(context.Background(), ai.ChatRequest{})
	if !errors.Is(err, permanent) || inner.calls != 1 {
		t.Fatalf("expected single failing call, got %d calls, err %v", inner.calls, err)
	}
}

func TestRetry_ContextCanceledDuringBackoff(t *testing.T) {
	inner := &sequenceProvider{errs: []error{transient(), transient()}}
	provider := Chain(inner, Retry(RetryConfig{MaxRetries: 3, InitialBackoff: time.Hour, MaxBackoff: time.Hour}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := provider.SendMessage(ctx, ai.ChatRequest{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestDefaultRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"429", &ai.ProviderError{StatusCode: http.StatusTooManyRequests}, true},
		{"401", &ai.ProviderError{StatusCode: http.StatusUnauthorized}, false},
		{"plain", errors.New("x"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultRetryable(tt.err); got != tt.want {
				t.Fatalf("DefaultRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestTimeout_SetsDeadline(t *testing.T) {
	var deadlineSet bool
	probe := ai.ProviderFunc(func(ctx context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
		_, deadlineSet = ctx.Deadline()
		return &ai.ChatResponse{}, nil
	})

	if _, err := Chain(probe, Timeout(time.Second)).SendMessage(context.Background(), ai.ChatRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deadlineSet {
		t.Fatal("expected a deadline on the inner context")
	}
}

func TestLogging_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	provider := Chain(&sequenceProvider{}, Logging(logger, LogLevelVerbose))
	_, err := provider.SendMessage(context.Background(), ai.ChatRequest{
		Model:    "m",
		Messages: []ai.Message{ai.NewUserMessage("what is the weather in sf")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"llm send", "llm send completed", "message_count=1", "total_tokens=3", "finish_reason=stop", "weather in sf"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestLogging_Failure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	provider := Chain(&sequenceProvider{errs: []error{errors.New("boom")}}, Logging(logger, LogLevelMinimal))
	if _, err := provider.SendMessage(context.Background(), ai.ChatRequest{}); err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(buf.String(), "llm send failed") || strings.Contains(buf.String(), "message_count") {
		t.Fatalf("unexpected log output:\n%s", buf.String())
	}
}
