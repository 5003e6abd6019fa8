package main

// Notes:
// - run: dispatch is tested through exit codes and output of version, help
//   and unknown commands. serve is only exercised on flag and config
//   failures since a successful serve blocks until a signal arrives.
// - Dependencies are injected with buffers and a fixed environment so tests
//   never read the process environment.

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	docpress "github.com/alnah/go-docpress"
)

// testDeps returns dependencies with captured output and the given environment.
func testDeps(environ ...string) (*Dependencies, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	deps := &Dependencies{
		Now:     func() time.Time { return time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC) },
		Stdin:   strings.NewReader(""),
		Stdout:  &stdout,
		Stderr:  &stderr,
		Environ: func() []string { return environ },
	}
	return deps, &stdout, &stderr
}

// ---------------------------------------------------------------------------
// TestRun - Command dispatch
// ---------------------------------------------------------------------------

func TestRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{
			name:       "version",
			args:       []string{"version"},
			wantCode:   ExitSuccess,
			wantStdout: "docpress dev",
		},
		{
			name:       "help",
			args:       []string{"help"},
			wantCode:   ExitSuccess,
			wantStdout: "Usage: docpress <command>",
		},
		{
			name:       "leading -h",
			args:       []string{"-h"},
			wantCode:   ExitSuccess,
			wantStdout: "Commands:",
		},
		{
			name:       "help render",
			args:       []string{"help", "render"},
			wantCode:   ExitSuccess,
			wantStdout: "Usage: docpress render",
		},
		{
			name:       "render --help",
			args:       []string{"render", "--help"},
			wantCode:   ExitSuccess,
			wantStdout: "--sequential",
		},
		{
			name:       "doctor --help",
			args:       []string{"doctor", "--help"},
			wantCode:   ExitSuccess,
			wantStdout: "Usage: docpress doctor",
		},
		{
			name:       "help unknown",
			args:       []string{"help", "nope"},
			wantCode:   ExitUsage,
			wantStderr: `unknown command "nope"`,
		},
		{
			name:       "unknown command",
			args:       []string{"compile"},
			wantCode:   ExitUsage,
			wantStderr: `unknown command "compile"`,
		},
		{
			name:       "serve bad flag",
			args:       []string{"--nope"},
			wantCode:   ExitUsage,
			wantStderr: "usage error",
		},
		{
			name:       "serve positional",
			args:       []string{"serve", "extra"},
			wantCode:   ExitUsage,
			wantStderr: "serve takes no arguments",
		},
		{
			name:       "serve missing config",
			args:       []string{"serve", "--config", "does-not-exist-anywhere"},
			wantCode:   ExitUsage,
			wantStderr: "hint: use --config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			deps, stdout, stderr := testDeps()
			code := run(tt.args, deps)

			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, stderr)
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want substring %q", stdout, tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want substring %q", stderr, tt.wantStderr)
			}
		})
	}
}

func TestRun_ConfigCommand(t *testing.T) {
	t.Parallel()

	deps, stdout, stderr := testDeps("DOCPRESS_ADDR=:9191", "DOCPRESS_TYPST_TIMEOUT=2m")
	code := run([]string{"config", "--log-format", "json", "-v"}, deps)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}

	out := stdout.String()
	for _, want := range []string{"9191", "typstTimeout: 2m0s", "format: json", "level: debug"} {
		if !strings.Contains(out, want) {
			t.Errorf("config output missing %q:\n%s", want, out)
		}
	}
}

func TestRun_ConfigCommandInvalidEnv(t *testing.T) {
	t.Parallel()

	deps, _, stderr := testDeps("DOCPRESS_PARALLEL_BILINGUAL=sometimes")
	if code := run([]string{"config"}, deps); code != ExitUsage {
		t.Errorf("exit code = %d, want %d", code, ExitUsage)
	}
	if !strings.Contains(stderr.String(), "DOCPRESS_PARALLEL_BILINGUAL") {
		t.Errorf("stderr = %q, want variable name", stderr)
	}
}

func TestPrintErr_TimeoutHint(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := fmt.Errorf("english: %w", &docpress.ToolError{
		Tool: "typst",
		Kind: docpress.ErrCompilerFailed,
		Err:  fmt.Errorf("%w after 1m0s", docpress.ErrToolTimeout),
	})
	printErr(&buf, err)

	out := buf.String()
	if !strings.HasPrefix(out, "docpress: english: typst:") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "hint: for large documents, raise tools.typstTimeout") {
		t.Errorf("missing timeout hint: %q", out)
	}
}
