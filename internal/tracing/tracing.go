// Package tracing records reconciliation passes as OpenTelemetry spans.
//
// The tracer comes from the global provider unless WithTracer is given.
// Configure the provider in main before creating an Observer:
//
//	otel.SetTracerProvider(tp)
//	obs := tracing.New(tracing.WithTracerName("my-app"))
//	rows := list.Array(src.Get, mapRow, list.WithObserver[*Row](obs.Bind(ctx)))
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/primitives/pkg/list"
)

const defaultTracerName = "github.com/vango-dev/primitives"

// SpanName is the name of every pass span.
const SpanName = "list.reconcile"

// Config configures an Observer.
type Config struct {
	// TracerName is used with the global provider.
	TracerName string

	// Tracer overrides the global provider.
	Tracer trace.Tracer

	// Attributes are added to every span.
	Attributes []attribute.KeyValue
}

// Option configures an Observer.
type Option func(*Config)

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithTracer sets the tracer directly.
func WithTracer(t trace.Tracer) Option {
	return func(c *Config) {
		c.Tracer = t
	}
}

// WithAttributes adds constant attributes to every span.
func WithAttributes(attrs ...attribute.KeyValue) Option {
	return func(c *Config) {
		c.Attributes = append(c.Attributes, attrs...)
	}
}

// Observer is a list.Observer that emits one span per pass.
type Observer struct {
	tracer trace.Tracer
	attrs  []attribute.KeyValue
	ctx    context.Context
}

var _ list.Observer = (*Observer)(nil)

// New creates an Observer whose spans have no parent.
func New(opts ...Option) *Observer {
	cfg := Config{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&cfg)
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(cfg.TracerName)
	}
	return &Observer{
		tracer: tracer,
		attrs:  cfg.Attributes,
		ctx:    context.Background(),
	}
}

// Bind returns a copy whose spans are children of the span in ctx.
func (o *Observer) Bind(ctx context.Context, attrs ...attribute.KeyValue) *Observer {
	cp := *o
	cp.ctx = ctx
	if len(attrs) > 0 {
		cp.attrs = append(append([]attribute.KeyValue(nil), o.attrs...), attrs...)
	}
	return &cp
}

// ObserveReconcile records s as a finished span covering the pass.
func (o *Observer) ObserveReconcile(s list.Stats) {
	attrs := append([]attribute.KeyValue{
		attribute.String("list.name", s.Name),
		attribute.Int("list.len", s.Len),
		attribute.Int("list.kept", s.Kept),
		attribute.Int("list.moved", s.Moved),
		attribute.Int("list.rewritten", s.Rewritten),
		attribute.Int("list.recycled", s.Recycled),
		attribute.Int("list.created", s.Created),
		attribute.Int("list.disposed", s.Disposed),
		attribute.Bool("list.fallback", s.Fallback),
	}, o.attrs...)

	_, span := o.tracer.Start(o.ctx, SpanName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(s.Start),
	)
	span.End(trace.WithTimestamp(s.Start.Add(s.Duration)))
}
