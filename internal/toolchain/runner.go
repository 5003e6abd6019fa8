package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/alnah/go-docpress/internal/process"
)

// Command describes one tool invocation.
type Command struct {
	Name  string
	Args  []string
	Dir   string
	Stdin []byte
}

// CommandRunner abstracts command execution to enable testing without real subprocesses.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) (stdout, stderr []byte, err error)
}

// waitDelay bounds how long Wait blocks on pipes after the group was killed.
const waitDelay = 2 * time.Second

// ExecRunner implements CommandRunner using os/exec.
type ExecRunner struct{}

// Compile-time interface check.
var _ CommandRunner = (*ExecRunner)(nil)

func (r *ExecRunner) Run(ctx context.Context, c Command) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...) // #nosec G204 -- binaries come from operator config
	cmd.Dir = c.Dir
	if c.Stdin != nil {
		cmd.Stdin = bytes.NewReader(c.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	process.Isolate(cmd)
	cmd.Cancel = func() error {
		process.KillProcessGroup(cmd.Process.Pid)
		return nil
	}
	cmd.WaitDelay = waitDelay

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrToolNotFound, c.Name)
		}
		return nil, nil, fmt.Errorf("starting %s: %w", c.Name, err)
	}

	err := cmd.Wait()
	return stdout.Bytes(), stderr.Bytes(), err
}

// runWithTimeout runs c under timeout and classifies the failure.
// A deadline hit by our own timeout becomes ErrToolTimeout; a parent
// cancellation is returned as the context error.
func runWithTimeout(ctx context.Context, runner CommandRunner, timeout time.Duration, c Command) ([]byte, []byte, error) {
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	stdout, stderr, err := runner.Run(runCtx, c)
	if err == nil {
		return stdout, stderr, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, stderr, ctxErr
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, stderr, fmt.Errorf("%w after %s", ErrToolTimeout, timeout)
	}
	return nil, stderr, err
}
