package toolchain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultPandocTimeout bounds a single markdown conversion.
const DefaultPandocTimeout = 30 * time.Second

// pandocReader is the markdown dialect accepted from authors.
const pandocReader = "markdown+pipe_tables+backtick_code_blocks+fenced_code_blocks"

// Pandoc converts markdown into Typst markup by shelling out to pandoc.
type Pandoc struct {
	Bin       string
	Timeout   time.Duration
	ExtraArgs []string
	Runner    CommandRunner
}

// NewPandoc creates a Pandoc adapter with the exec runner.
// An empty bin defaults to "pandoc", a non-positive timeout to DefaultPandocTimeout.
func NewPandoc(bin string, timeout time.Duration, extraArgs []string) *Pandoc {
	if bin == "" {
		bin = "pandoc"
	}
	if timeout <= 0 {
		timeout = DefaultPandocTimeout
	}
	return &Pandoc{
		Bin:       bin,
		Timeout:   timeout,
		ExtraArgs: extraArgs,
		Runner:    &ExecRunner{},
	}
}

// Args returns the argument list used for a conversion.
func (p *Pandoc) Args() []string {
	args := []string{"-f", pandocReader, "-t", "typst", "--wrap=none"}
	return append(args, p.ExtraArgs...)
}

// ToTypst converts markdown read from stdin to Typst markup.
// Any failure returns no output: partial markup is never handed downstream.
func (p *Pandoc) ToTypst(ctx context.Context, markdown string) (string, error) {
	stdout, stderr, err := runWithTimeout(ctx, p.Runner, p.Timeout, Command{
		Name:  p.Bin,
		Args:  p.Args(),
		Stdin: []byte(markdown),
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", &ToolError{
			Tool:        "pandoc",
			Kind:        ErrConverterFailed,
			Diagnostics: trimDiagnostics(stderr),
			Err:         err,
		}
	}
	return string(stdout), nil
}

// Version reports the installed pandoc version.
func (p *Pandoc) Version(ctx context.Context) (string, error) {
	v, err := probeVersion(ctx, p.Runner, p.Bin)
	if err != nil {
		return "", fmt.Errorf("pandoc: %w", err)
	}
	return v, nil
}
