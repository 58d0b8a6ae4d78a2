package observability

import "context"

type spanContextKey struct{}

// SpanFromContext extracts a Span from the context.
// Returns nil if no span is present.
func SpanFromContext(ctx context.Context) Span {
	if ctx == nil {
		return nil
	}
	span, _ := ctx.Value(spanContextKey{}).(Span)
	return span
}

// ContextWithSpan returns a new context with the given span attached.
func ContextWithSpan(ctx context.Context, span Span) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, spanContextKey{}, span)
}

// AddEvent records an event on the span carried by ctx, if any.
func AddEvent(ctx context.Context, name string, attrs ...Attribute) {
	if span := SpanFromContext(ctx); span != nil {
		span.AddEvent(name, attrs...)
	}
}
