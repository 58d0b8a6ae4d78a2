// Package logrusobs provides an observability.Provider backed by logrus, for
// applications that already route their logs through a logrus.Logger.
package logrusobs

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/leofalp/agentloop/providers/observability"
)

// Observer implements observability.Provider with a logrus entry. Every line
// carries a "component" field.
type Observer struct {
	entry    *logrus.Entry
	mu       sync.Mutex
	counters map[string]*counter
}

var _ observability.Provider = (*Observer)(nil)

// New wraps logger. A nil logger uses logrus.StandardLogger().
func New(logger *logrus.Logger, component string) *Observer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	entry := logrus.NewEntry(logger)
	if component != "" {
		entry = entry.WithField("component", component)
	}
	return &Observer{entry: entry, counters: make(map[string]*counter)}
}

func fields(attrs []observability.Attribute) logrus.Fields {
	out := make(logrus.Fields, len(attrs))
	for _, attr := range attrs {
		out[attr.Key] = attr.Value
	}
	return out
}

func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	span := &span{
		entry: o.entry.WithContext(ctx).WithField("span", name).WithFields(fields(attrs)),
		start: time.Now(),
	}
	span.entry.Debug("span started")
	return observability.ContextWithSpan(ctx, span), span
}

type span struct {
	mu     sync.Mutex
	entry  *logrus.Entry
	start  time.Time
	failed bool
}

func (s *span) End() {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entry.WithField("duration", time.Since(s.start))
	if s.failed {
		entry.Warn("span ended")
		return
	}
	entry.Debug("span ended")
}

func (s *span) SetAttributes(attrs ...observability.Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry = s.entry.WithFields(fields(attrs))
}

func (s *span) SetStatus(code observability.StatusCode, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = code == observability.StatusError
	s.entry = s.entry.WithField(observability.AttrStatus, code.String())
	if description != "" {
		s.entry = s.entry.WithField(observability.AttrStatusDescription, description)
	}
}

func (s *span) RecordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry.WithError(err).Error("span error")
}

func (s *span) AddEvent(name string, attrs ...observability.Attribute) {
	s.mu.Lock()
	entry := s.entry
	s.mu.Unlock()
	entry.WithField("event", name).WithFields(fields(attrs)).Debug("span event")
}

type counter struct {
	name  string
	entry *logrus.Entry
	value atomic.Int64
}

func (c *counter) Add(_ context.Context, value int64, attrs ...observability.Attribute) {
	current := c.value.Add(value)
	c.entry.WithFields(fields(attrs)).WithFields(logrus.Fields{
		"metric": c.name,
		"value":  current,
		"delta":  value,
	}).Debug("counter")
}

type histogram struct {
	name  string
	entry *logrus.Entry
}

func (h *histogram) Record(_ context.Context, value float64, attrs ...observability.Attribute) {
	h.entry.WithFields(fields(attrs)).WithFields(logrus.Fields{
		"metric": h.name,
		"value":  value,
	}).Debug("histogram")
}

// Counter returns the named counter, creating it on first use.
func (o *Observer) Counter(name string) observability.Counter {
	o.mu.Lock()
	defer o.mu.Unlock()

	c, ok := o.counters[name]
	if !ok {
		c = &counter{name: name, entry: o.entry}
		o.counters[name] = c
	}
	return c
}

// Histogram returns a histogram that logs each observation.
func (o *Observer) Histogram(name string) observability.Histogram {
	return &histogram{name: name, entry: o.entry}
}

func (o *Observer) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.entry.WithContext(ctx).WithFields(fields(attrs)).Debug(msg)
}

func (o *Observer) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.entry.WithContext(ctx).WithFields(fields(attrs)).Info(msg)
}

func (o *Observer) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.entry.WithContext(ctx).WithFields(fields(attrs)).Warn(msg)
}

func (o *Observer) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.entry.WithContext(ctx).WithFields(fields(attrs)).Error(msg)
}
