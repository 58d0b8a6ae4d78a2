package middleware

import (
	"context"
	"time"

	"github.com/leofalp/agentloop/providers/ai"
)

// Timeout returns a middleware that bounds every provider call with a
// deadline. A shorter deadline already present on the caller's context wins.
func Timeout(timeout time.Duration) Middleware {
	return func(next SendFunc) SendFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			return next(ctx, request)
		}
	}
}
