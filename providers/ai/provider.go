package ai

import (
	"context"
)

// Provider is the interface every model backend satisfies. SendMessage performs
// one blocking chat completion and returns an error if the call fails, the
// context is cancelled, or the reply cannot be decoded.
type Provider interface {
	SendMessage(ctx context.Context, request ChatRequest) (*ChatResponse, error)
}

// ProviderFunc adapts a plain function to the Provider interface.
type ProviderFunc func(ctx context.Context, request ChatRequest) (*ChatResponse, error)

// SendMessage calls f(ctx, request).
func (f ProviderFunc) SendMessage(ctx context.Context, request ChatRequest) (*ChatResponse, error) {
	return f(ctx, request)
}
