package observability

import (
	"context"
	"errors"
	"testing"
)

type recordingSpan struct {
	events []string
}

func (s *recordingSpan) End()                                 {}
func (s *recordingSpan) SetAttributes(...Attribute)           {}
func (s *recordingSpan) SetStatus(StatusCode, string)         {}
func (s *recordingSpan) RecordError(error)                    {}
func (s *recordingSpan) AddEvent(name string, _ ...Attribute) { s.events = append(s.events, name) }

func TestSpanContextRoundTrip(t *testing.T) {
	span := &recordingSpan{}
	ctx := ContextWithSpan(context.Background(), span)

	if got := SpanFromContext(ctx); got != span {
		t.Fatalf("expected span from context, got %v", got)
	}
	if SpanFromContext(context.Background()) != nil {
		t.Fatal("expected nil span for bare context")
	}
}

func TestAddEvent_UsesContextSpan(t *testing.T) {
	span := &recordingSpan{}
	ctx := ContextWithSpan(context.Background(), span)

	AddEvent(ctx, EventCheckpointSaved)
	AddEvent(context.Background(), "ignored")

	if len(span.events) != 1 || span.events[0] != EventCheckpointSaved {
		t.Fatalf("unexpected events: %v", span.events)
	}
}

func TestOrNop(t *testing.T) {
	provider := OrNop(nil)
	ctx, span := provider.StartSpan(context.Background(), "x")
	span.RecordError(errors.New("boom"))
	span.End()
	provider.Counter("c").Add(ctx, 1)
	provider.Info(ctx, "hello")

	if SpanFromContext(ctx) == nil {
		t.Fatal("nop provider should still attach a span to the context")
	}
}

func TestErrorAttribute(t *testing.T) {
	if got := Error(nil); got.Value != "" || got.Key != AttrError {
		t.Fatalf("unexpected nil error attribute: %+v", got)
	}
	if got := Error(errors.New("x")); got.Value != "x" {
		t.Fatalf("unexpected error attribute: %+v", got)
	}
	if StatusError.String() != "error" || StatusOK.String() != "ok" || StatusUnset.String() != "unset" {
		t.Fatal("unexpected status strings")
	}
}
