package middleware

import (
	"context"

	"github.com/leofalp/agentloop/providers/ai"
)

// SendFunc sends a chat request and returns the completed response. It is the
// unit threaded through the middleware chain.
type SendFunc func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error)

// Middleware intercepts and optionally transforms provider calls.
type Middleware func(next SendFunc) SendFunc

// chained is the ai.Provider produced by Chain.
type chained struct {
	send SendFunc
}

func (c *chained) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	return c.send(ctx, request)
}

// Chain wraps provider with middlewares. The first middleware in the list is
// the outermost wrapper, i.e. the first to see an incoming request. Nil
// entries are skipped.
func Chain(provider ai.Provider, middlewares ...Middleware) ai.Provider {
	send := SendFunc(provider.SendMessage)

	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i] == nil {
			continue
		}
		send = middlewares[i](send)
	}

	return &chained{send: send}
}
