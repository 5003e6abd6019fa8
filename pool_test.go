package docpress

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// TestCompileLimiter - Backpressure on compiles
// ---------------------------------------------------------------------------

func TestCompileLimiter_CapsConcurrency(t *testing.T) {
	t.Parallel()

	const size = 2
	l := NewCompileLimiter(size)

	var inFlight, peak atomic.Int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire() error = %v", err)
				return
			}
			defer l.Release()

			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
		}()
	}
	wg.Wait()

	if got := peak.Load(); got > size {
		t.Errorf("peak concurrency = %d, want <= %d", got, size)
	}
}

func TestCompileLimiter_CanceledWait(t *testing.T) {
	t.Parallel()

	l := NewCompileLimiter(1)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Acquire(ctx)
	if !errors.Is(err, ErrBusy) || !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want ErrBusy and context.Canceled", err)
	}

	l.Release()
	if err := l.Acquire(context.Background()); err != nil {
		t.Errorf("Acquire() after release error = %v", err)
	}
}

func TestNewCompileLimiter_MinimumSize(t *testing.T) {
	t.Parallel()

	if got := NewCompileLimiter(0).Size(); got != MinPoolSize {
		t.Errorf("Size() = %d, want %d", got, MinPoolSize)
	}
}

// ---------------------------------------------------------------------------
// TestResolvePoolSize - Limiter sizing
// ---------------------------------------------------------------------------

func TestResolvePoolSize(t *testing.T) {
	t.Parallel()

	if got := ResolvePoolSize(5); got != 5 {
		t.Errorf("ResolvePoolSize(5) = %d, want 5", got)
	}

	got := ResolvePoolSize(0)
	if got < MinPoolSize || got > MaxPoolSize {
		t.Errorf("ResolvePoolSize(0) = %d, want within [%d, %d]", got, MinPoolSize, MaxPoolSize)
	}
	want := min(max(runtime.GOMAXPROCS(0)/cpuDivisor, MinPoolSize), MaxPoolSize)
	if got != want {
		t.Errorf("ResolvePoolSize(0) = %d, want %d", got, want)
	}
}
