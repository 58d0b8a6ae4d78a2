// Package middleware provides composable wrappers around an [ai.Provider].
//
// A [Middleware] receives the next [SendFunc] in the chain and returns a new
// one. [Chain] applies a list of middlewares to a provider, outermost first,
// and returns a value that is itself an ai.Provider, so the agent loop and the
// graph runner never know they are talking to a wrapped backend.
//
// Bundled middlewares:
//   - [Retry]: exponential backoff with jitter on transient provider errors
//   - [Logging]: structured slog entries before and after every call
//   - [Timeout]: per-call deadline
//
// Example:
//
//	provider := middleware.Chain(openai.New(),
//	    middleware.Logging(slog.Default(), middleware.LogLevelStandard),
//	    middleware.Retry(middleware.RetryConfig{MaxRetries: 3}),
//	    middleware.Timeout(60*time.Second),
//	)
package middleware
