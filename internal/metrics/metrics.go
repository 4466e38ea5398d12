// Package metrics exports reconciliation statistics to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/primitives/pkg/list"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "primitives").
	Namespace string

	// Subsystem is the metrics subsystem (default: "list").
	Subsystem string

	// Buckets are the histogram buckets for pass duration.
	Buckets []float64

	// Registry is where the collectors are registered.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures a Collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithBuckets sets the duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "primitives",
		Subsystem: "list",
		Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Item outcomes, used as the "outcome" label.
const (
	OutcomeKept      = "kept"
	OutcomeMoved     = "moved"
	OutcomeRewritten = "rewritten"
	OutcomeRecycled  = "recycled"
	OutcomeCreated   = "created"
	OutcomeDisposed  = "disposed"
)

// Collector is a list.Observer backed by Prometheus collectors.
type Collector struct {
	registry prometheus.Registerer

	passes         *prometheus.CounterVec
	fallbackPasses *prometheus.CounterVec
	items          *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	length         *prometheus.GaugeVec
	sessions       prometheus.Gauge
}

var _ list.Observer = (*Collector)(nil)

// New registers the collectors. Registering twice on the same registry
// panics, as with promauto.
func New(opts ...Option) *Collector {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	factory := promauto.With(cfg.Registry)

	return &Collector{
		registry: cfg.Registry,

		passes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "passes_total",
			Help:      "Total number of reconciliation passes",
		}, []string{"name"}),

		fallbackPasses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "fallback_passes_total",
			Help:      "Passes that produced the fallback value",
		}, []string{"name"}),

		items: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "items_total",
			Help:      "Items handled per outcome",
		}, []string{"name", "outcome"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "pass_duration_seconds",
			Help:      "Reconciliation pass duration in seconds",
			Buckets:   cfg.Buckets,
		}, []string{"name"}),

		length: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "source_length",
			Help:      "Source length seen by the last pass",
		}, []string{"name"}),

		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "active_sessions",
			Help:      "Open playground sessions",
		}),
	}
}

// ObserveReconcile records one pass.
func (c *Collector) ObserveReconcile(s list.Stats) {
	name := s.Name
	c.passes.WithLabelValues(name).Inc()
	if s.Fallback {
		c.fallbackPasses.WithLabelValues(name).Inc()
	}
	c.length.WithLabelValues(name).Set(float64(s.Len))
	c.duration.WithLabelValues(name).Observe(s.Duration.Seconds())

	for outcome, n := range map[string]int{
		OutcomeKept:      s.Kept,
		OutcomeMoved:     s.Moved,
		OutcomeRewritten: s.Rewritten,
		OutcomeRecycled:  s.Recycled,
		OutcomeCreated:   s.Created,
		OutcomeDisposed:  s.Disposed,
	} {
		if n > 0 {
			c.items.WithLabelValues(name, outcome).Add(float64(n))
		}
	}
}

// SessionOpened increments the active session gauge.
func (c *Collector) SessionOpened() { c.sessions.Inc() }

// SessionClosed decrements the active session gauge.
func (c *Collector) SessionClosed() { c.sessions.Dec() }

// Handler serves the registry the collectors were registered on, or the
// default gatherer when that registry cannot be gathered.
func (c *Collector) Handler() http.Handler {
	if g, ok := c.registry.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}

// Sessions returns the active session gauge.
func (c *Collector) Sessions() prometheus.Gauge { return c.sessions }
