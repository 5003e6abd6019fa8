package main

import (
	"context"
	"fmt"
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	docpress "github.com/alnah/go-docpress"
	"github.com/alnah/go-docpress/internal/config"
	"github.com/alnah/go-docpress/internal/hints"
	"github.com/alnah/go-docpress/internal/logfields"
	"github.com/alnah/go-docpress/internal/metrics"
	"github.com/alnah/go-docpress/internal/server"
)

// runServe starts the HTTP API and blocks until ctx is canceled.
func runServe(ctx context.Context, args []string, deps *Dependencies) error {
	flags, positional, err := parseServeFlags(args)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return fmt.Errorf("%w: serve takes no arguments, got %q", ErrUsage, positional)
	}

	cfg, err := loadConfig(&flags.common, deps)
	if err != nil {
		return err
	}
	applyToolFlags(&flags.tools, cfg)
	if flags.addr != "" {
		cfg.Server.Addr = flags.addr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(deps.Stderr, cfg.Log)
	reg := newRegistry()
	rec := metrics.NewPrometheusRecorder(reg)

	p, err := docpress.New(cfg,
		docpress.WithLogger(logger),
		docpress.WithRecorder(rec),
		docpress.WithClock(deps.Now),
	)
	if err != nil {
		return err
	}
	warnToolHealth(ctx, logger, p, cfg)

	logger.Info("starting docpress",
		slog.String("version", Version),
		slog.Int("max_concurrent_compiles", p.Concurrency()),
		slog.Bool("parallel_bilingual", cfg.Pipeline.ParallelBilingual),
	)

	srv := server.New(p, p, cfg.Server,
		server.WithLogger(logger),
		server.WithMetrics(reg, rec),
	)
	return srv.ListenAndServe(ctx)
}

// newRegistry returns a registry carrying the Go runtime and process collectors.
func newRegistry() *prom.Registry {
	reg := prom.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// warnToolHealth logs missing tools at startup. The server still starts
// and reports degraded health until the tools appear.
func warnToolHealth(ctx context.Context, logger *slog.Logger, p *docpress.Pipeline, cfg *config.Config) {
	h := p.Health(ctx)
	for tool, info := range map[string]docpress.ToolInfo{"pandoc": h.Converter, "typst": h.Compiler} {
		if !info.Found {
			bin := cfg.Tools.Pandoc
			if tool == "typst" {
				bin = cfg.Tools.Typst
			}
			logger.Warn("tool not found"+hints.ForToolNotFound(tool), logfields.Tool(tool), slog.String("bin", bin))
			continue
		}
		if info.Error != "" {
			logger.Warn("tool version check failed", logfields.Tool(tool), slog.String(logfields.KeyError, info.Error))
			continue
		}
		logger.Debug("tool ready", logfields.Tool(tool), slog.String("version", info.Version))
	}
}
