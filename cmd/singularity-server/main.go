// Standalone HTTP server exposing singularity detection as MCP tools.
//
// Usage:
//
//	go run ./cmd/singularity-server -config singularity.yaml
//
// Environment variables prefixed SINGULARITY_ override the config file.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/njchilds90/singularity"
	"github.com/njchilds90/singularity/internal/config"
	"github.com/njchilds90/singularity/internal/metrics"
	"github.com/njchilds90/singularity/internal/server"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	addr := flag.String("addr", "", "Listen address, overrides config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	detector := singularity.New(
		singularity.WithLogger(logger),
		singularity.WithMetrics(metrics.New(reg)),
		singularity.WithMaxConditions(cfg.MaxConditions),
		singularity.WithConcurrency(cfg.Concurrency),
	)
	handler := server.New(detector,
		server.WithLogger(logger),
		server.WithGatherer(reg),
		server.WithMaxBodyBytes(cfg.MaxBodyBytes),
	).Router()

	srv := server.NewHTTPServer(cfg.Addr, handler)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("singularity server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("singularity server stopped")
}
