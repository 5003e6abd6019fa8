package docpress

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Limiter sizing constants.
const (
	// MinPoolSize ensures at least one compile can run.
	MinPoolSize = 1

	// MaxPoolSize caps concurrent typst processes, which are memory heavy.
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for the converter and the HTTP server.
	cpuDivisor = 2
)

// CompileLimiter caps concurrent compiles across all requests.
// Waiting callers give up when their context ends.
type CompileLimiter struct {
	size int
	sem  *semaphore.Weighted
}

// NewCompileLimiter creates a limiter with n slots (at least one).
func NewCompileLimiter(n int) *CompileLimiter {
	if n < MinPoolSize {
		n = MinPoolSize
	}
	return &CompileLimiter{size: n, sem: semaphore.NewWeighted(int64(n))}
}

// Acquire blocks until a slot is free. If ctx ends first it returns an
// error wrapping both ErrBusy and the context error.
func (l *CompileLimiter) Acquire(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: %w", ErrBusy, err)
	}
	return nil
}

// Release frees a slot taken by Acquire.
func (l *CompileLimiter) Release() {
	l.sem.Release(1)
}

// Size returns the number of slots.
func (l *CompileLimiter) Size() int {
	return l.size
}

// ResolvePoolSize determines the limiter size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
// Exported for use by servers and CLIs.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs for containers
	n := runtime.GOMAXPROCS(0) / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
