// Package playground serves the list reconciler over HTTP.
//
// Routes:
//
//	GET  /healthz        liveness and open session count
//	GET  /metrics        Prometheus metrics (when enabled)
//	POST /api/reconcile  run a sequence of snapshots, return the report
//	POST /api/layout     compute a masonry layout
//	GET  /ws             live session: send {"items": [...]}, get step reports
package playground

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vango-dev/primitives/internal/config"
	"github.com/vango-dev/primitives/internal/metrics"
	"github.com/vango-dev/primitives/internal/report"
	"github.com/vango-dev/primitives/internal/tracing"
	"github.com/vango-dev/primitives/pkg/list"
	"github.com/vango-dev/primitives/pkg/reactive"
)

// Server holds the playground handlers and the open websocket sessions.
type Server struct {
	cfg    config.ServerConfig
	logger *zap.Logger

	metrics *metrics.Collector
	tracing *tracing.Observer
	sink    report.Sink

	upgrader websocket.Upgrader

	mu     sync.Mutex
	conns  map[string]*websocket.Conn
	closed bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMetrics records passes and sessions and mounts /metrics.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) {
		s.metrics = c
	}
}

// WithTracing records a span per pass, parented to the request span.
func WithTracing(o *tracing.Observer) Option {
	return func(s *Server) {
		s.tracing = o
	}
}

// WithSink stores reports of requests that ask for it.
func WithSink(sink report.Sink) Option {
	return func(s *Server) {
		s.sink = sink
	}
}

// WithCheckOrigin sets the websocket origin check. The default accepts
// same-origin requests only.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(s *Server) {
		s.upgrader.CheckOrigin = fn
	}
}

// New creates a Server.
func New(cfg config.ServerConfig, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		logger: zap.NewNop(),
		sink:   report.Nop{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:   4096,
			WriteBufferSize:  4096,
			HandshakeTimeout: cfg.ReadTimeout,
		},
		conns: make(map[string]*websocket.Conn),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(releaseTracking)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	r.Route("/api", func(r chi.Router) {
		r.Post("/reconcile", s.handleReconcile)
		r.Post("/layout", s.handleLayout)
	})
	r.Get("/ws", s.handleWebSocket)
	return r
}

// Sessions returns the number of open websocket sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Close asks every open session to close and refuses new ones. Sessions
// dispose their rows as their read loops exit.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	deadline := time.Now().Add(time.Second)
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, c := range conns {
		_ = c.WriteControl(websocket.CloseMessage, msg, deadline)
		_ = c.Close()
	}
}

// observer returns the pass observer for one request or session.
func (s *Server) observer(ctx context.Context) list.Observer {
	var obs []list.Observer
	if s.metrics != nil {
		obs = append(obs, s.metrics)
	}
	if s.tracing != nil {
		obs = append(obs, s.tracing.Bind(ctx))
	}
	return list.Observers(obs...)
}

func requestLogger(l *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			l.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}

// releaseTracking drops the reactive tracking context that handlers create
// on the connection goroutine.
func releaseTracking(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer reactive.ReleaseGoroutine()
		next.ServeHTTP(w, r)
	})
}
