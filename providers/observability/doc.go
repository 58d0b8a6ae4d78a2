// Package observability defines the tracing, metrics and logging interfaces
// used throughout agentloop.
//
// [Provider] composes [Tracer], [Metrics] and [Logger] into a single injectable
// dependency. Components accept a Provider through an option and fall back to
// [Nop] when none is configured, so instrumentation code never needs nil checks.
// The active span travels in a [context.Context] via [ContextWithSpan] and
// [SpanFromContext].
//
// Backends live in sub-packages: slogobs (log/slog) and logrusobs (logrus).
package observability
