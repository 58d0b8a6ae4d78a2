package observability

import "context"

type nopProvider struct{}

type nopSpan struct{}

type nopInstrument struct{}

// Nop returns a Provider that discards everything.
func Nop() Provider { return nopProvider{} }

func (nopProvider) StartSpan(ctx context.Context, _ string, _ ...Attribute) (context.Context, Span) {
	span := nopSpan{}
	return ContextWithSpan(ctx, span), span
}

func (nopProvider) Counter(string) Counter { return nopInstrument{} }

func (nopProvider) Histogram(string) Histogram { return nopInstrument{} }

func (nopProvider) Debug(context.Context, string, ...Attribute) {}

func (nopProvider) Info(context.Context, string, ...Attribute) {}

func (nopProvider) Warn(context.Context, string, ...Attribute) {}

func (nopProvider) Error(context.Context, string, ...Attribute) {}

func (nopSpan) End() {}

func (nopSpan) SetAttributes(...Attribute) {}

func (nopSpan) SetStatus(StatusCode, string) {}

func (nopSpan) RecordError(error) {}

func (nopSpan) AddEvent(string, ...Attribute) {}

func (nopInstrument) Add(context.Context, int64, ...Attribute) {}

func (nopInstrument) Record(context.Context, float64, ...Attribute) {}
