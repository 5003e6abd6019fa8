package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// DefaultTypstTimeout bounds a single PDF compilation.
const DefaultTypstTimeout = 60 * time.Second

// OutputName is the file typst writes inside the working directory.
const OutputName = "output.pdf"

var pdfMagic = []byte("%PDF")

// ErrNotPDF is returned when the compiler exits cleanly but its output is not a PDF.
var ErrNotPDF = errors.New("compiler output is not a PDF")

// CompileInput describes one compilation inside a working directory.
type CompileInput struct {
	Dir              string // working directory, also the filesystem root
	Main             string // entry file relative to Dir
	Watermark        string
	WatermarkEnabled bool
}

// Typst compiles Typst sources to PDF by shelling out to the typst CLI.
type Typst struct {
	Bin     string
	FontDir string
	Timeout time.Duration
	Runner  CommandRunner
}

// NewTypst creates a Typst adapter with the exec runner.
// An empty bin defaults to "typst", a non-positive timeout to DefaultTypstTimeout.
func NewTypst(bin, fontDir string, timeout time.Duration) *Typst {
	if bin == "" {
		bin = "typst"
	}
	if timeout <= 0 {
		timeout = DefaultTypstTimeout
	}
	return &Typst{
		Bin:     bin,
		FontDir: fontDir,
		Timeout: timeout,
		Runner:  &ExecRunner{},
	}
}

// Args returns the argument list used for in.
func (t *Typst) Args(in CompileInput) []string {
	args := []string{"compile", "--root", in.Dir}
	if t.FontDir != "" {
		args = append(args, "--font-path", t.FontDir)
	}
	args = append(args,
		"--input", "watermark="+in.Watermark,
		"--input", "watermark-enabled="+strconv.FormatBool(in.WatermarkEnabled),
		in.Main,
		OutputName,
	)
	return args
}

// Compile runs typst in in.Dir and returns the produced PDF bytes.
// On failure the compiler's diagnostics travel in a *ToolError.
func (t *Typst) Compile(ctx context.Context, in CompileInput) ([]byte, error) {
	_, stderr, err := runWithTimeout(ctx, t.Runner, t.Timeout, Command{
		Name: t.Bin,
		Args: t.Args(in),
		Dir:  in.Dir,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, t.fail(stderr, err)
	}

	pdf, err := os.ReadFile(filepath.Join(in.Dir, OutputName)) // #nosec G304 -- fixed name inside the workspace
	if err != nil {
		return nil, t.fail(stderr, fmt.Errorf("reading output: %w", err))
	}
	if !bytes.HasPrefix(pdf, pdfMagic) {
		return nil, t.fail(stderr, ErrNotPDF)
	}
	return pdf, nil
}

func (t *Typst) fail(stderr []byte, err error) error {
	return &ToolError{
		Tool:        "typst",
		Kind:        ErrCompilerFailed,
		Diagnostics: trimDiagnostics(stderr),
		Err:         err,
	}
}

// Version reports the installed typst version.
func (t *Typst) Version(ctx context.Context) (string, error) {
	v, err := probeVersion(ctx, t.Runner, t.Bin)
	if err != nil {
		return "", fmt.Errorf("typst: %w", err)
	}
	return v, nil
}
