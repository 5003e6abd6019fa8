package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	docpress "github.com/alnah/go-docpress"
	"github.com/alnah/go-docpress/internal/config"
	"github.com/alnah/go-docpress/internal/metrics"
)

// Route patterns.
const (
	RouteDocuments = "/v1/documents"
	RouteHealth    = "/healthz"
	RouteMetrics   = "/metrics"
)

const readHeaderTimeout = 10 * time.Second

// Compiler compiles document requests.
type Compiler interface {
	Compile(ctx context.Context, req *docpress.DocumentRequest) (*docpress.Result, error)
}

// HealthChecker reports external tool availability.
type HealthChecker interface {
	Health(ctx context.Context) docpress.Health
}

// Compile-time interface checks.
var (
	_ Compiler      = (*docpress.Pipeline)(nil)
	_ HealthChecker = (*docpress.Pipeline)(nil)
)

// Server serves the HTTP API.
type Server struct {
	compiler Compiler
	health   HealthChecker
	cfg      config.ServerConfig
	logger   *slog.Logger
	recorder metrics.Recorder
	registry *prom.Registry
	limiter  *rate.Limiter
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records HTTP metrics with rec and serves reg on /metrics.
func WithMetrics(reg *prom.Registry, rec metrics.Recorder) Option {
	return func(s *Server) {
		s.registry = reg
		if rec != nil {
			s.recorder = rec
		}
	}
}

// New creates a Server. A positive cfg.RateLimit enables a global token
// bucket on the compile route.
func New(compiler Compiler, health HealthChecker, cfg config.ServerConfig, opts ...Option) *Server {
	s := &Server{
		compiler: compiler,
		health:   health,
		cfg:      cfg,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST "+RouteDocuments, s.rateLimit(http.HandlerFunc(s.handleDocuments)))
	mux.HandleFunc("GET "+RouteHealth, s.handleHealth)
	if s.registry != nil {
		mux.Handle("GET "+RouteMetrics, metrics.HTTPHandler(s.registry))
	}
	return s.chain(mux)
}

// ListenAndServe serves on cfg.Addr until ctx ends, then shuts down
// gracefully within cfg.ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx ends.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("HTTP server started", slog.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("HTTP server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
