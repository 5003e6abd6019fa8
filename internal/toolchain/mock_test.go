package toolchain

import (
	"context"
	"sync"
)

// MockRunner records invocations and returns canned output.
// OnRun, when set, runs before the canned values are returned and may
// replace the error (for example to simulate a hang until ctx ends).
type MockRunner struct {
	Stdout string
	Stderr string
	Err    error
	OnRun  func(ctx context.Context, c Command) error

	mu    sync.Mutex
	Calls []Command
}

func (m *MockRunner) Run(ctx context.Context, c Command) ([]byte, []byte, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, c)
	m.mu.Unlock()

	err := m.Err
	if m.OnRun != nil {
		if hookErr := m.OnRun(ctx, c); hookErr != nil {
			err = hookErr
		}
	}
	if err != nil {
		return nil, []byte(m.Stderr), err
	}
	return []byte(m.Stdout), []byte(m.Stderr), nil
}

func (m *MockRunner) lastCall() Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return Command{}
	}
	return m.Calls[len(m.Calls)-1]
}

// hang blocks until ctx is done, like a stuck subprocess killed on cancellation.
func hang(ctx context.Context, _ Command) error {
	<-ctx.Done()
	return ctx.Err()
}
