package docpress

import (
	"log/slog"
	"time"

	"github.com/alnah/go-docpress/internal/metrics"
	"github.com/alnah/go-docpress/internal/toolchain"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// CommandRunner executes external tools. Tests substitute fakes.
type CommandRunner = toolchain.CommandRunner

// Command is one external tool invocation.
type Command = toolchain.Command

// WithLogger sets the logger used for pipeline events.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithRunner routes both pandoc and typst invocations through r.
func WithRunner(r CommandRunner) Option {
	return func(p *Pipeline) {
		p.runner = r
	}
}

// WithLimiter shares a compile limiter between pipelines.
func WithLimiter(l *CompileLimiter) Option {
	return func(p *Pipeline) {
		p.limiter = l
	}
}

// WithClock sets the time source for "auto" dates.
// Panics if now is nil (programmer error).
func WithClock(now func() time.Time) Option {
	if now == nil {
		panic("docpress: WithClock requires a non-nil function")
	}
	return func(p *Pipeline) {
		p.now = now
	}
}
