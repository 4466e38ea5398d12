package main

import (
	"context"
	stderrors "errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/primitives/internal/metrics"
	"github.com/vango-dev/primitives/internal/playground"
	"github.com/vango-dev/primitives/internal/report"
	"github.com/vango-dev/primitives/internal/tracing"
)

func serveCmd(a *app) *cobra.Command {
	var (
		addr      string
		anyOrigin bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and WebSocket playground",
		Long: `Start the playground server.

Routes:
  GET  /healthz
  GET  /metrics         (metrics.enabled)
  POST /api/reconcile   {"steps": [["a","b"],["b","a"]]}
  POST /api/layout      {"heights": [120, 80], "columns": 3, "gap": 8}
  GET  /ws              send {"items": [...]} frames

Examples:
  primitives serve
  primitives serve --addr :8080
  SERVER_ADDR=:8080 METRICS_ENABLED=false primitives serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, a, anyOrigin)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from server.addr)")
	cmd.Flags().BoolVar(&anyOrigin, "any-origin", false, "Accept websocket connections from any origin")

	return cmd
}

func runServe(ctx context.Context, a *app, anyOrigin bool) error {
	cfg := a.cfg
	opts := []playground.Option{playground.WithLogger(a.logger)}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts = append(opts, playground.WithMetrics(metrics.New(
			metrics.WithRegistry(reg),
			metrics.WithNamespace(cfg.Metrics.Namespace),
		)))
	}
	if cfg.Tracing.Enabled {
		opts = append(opts, playground.WithTracing(tracing.New(tracing.WithTracerName(cfg.Tracing.TracerName))))
	}

	sink, err := report.New(ctx, cfg.Report)
	if err != nil {
		return err
	}
	opts = append(opts, playground.WithSink(sink))

	if anyOrigin {
		opts = append(opts, playground.WithCheckOrigin(func(*http.Request) bool { return true }))
	}

	pg := playground.New(cfg.Server, opts...)
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      pg.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("playground listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		pg.Close()
		a.logger.Info("shutting down", zap.Int("sessions", pg.Sessions()))
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	success("server stopped")
	return nil
}
