package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	docpress "github.com/alnah/go-docpress"
	"github.com/alnah/go-docpress/internal/fileutil"
)

// Sentinel errors for render I/O.
var (
	ErrReadRequest = errors.New("failed to read request")
	ErrWriteOutput = errors.New("failed to write output")
)

// Output file names.
const (
	outCombined = "combined.pdf"
	outEnglish  = "english.pdf"
	outJapanese = "japanese.pdf"
)

// runRender compiles one request read from a JSON file ("-" for stdin)
// and writes its PDFs into the output directory.
func runRender(ctx context.Context, args []string, deps *Dependencies) error {
	flags, positional, err := parseRenderFlags(args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return fmt.Errorf("%w: render takes exactly one request file (or - for stdin)", ErrUsage)
	}

	cfg, err := loadConfig(&flags.common, deps)
	if err != nil {
		return err
	}
	applyToolFlags(&flags.tools, cfg)
	if flags.sequential {
		cfg.Pipeline.ParallelBilingual = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	req, err := readRequest(positional[0], deps.Stdin, cfg.Server.MaxBodyBytes)
	if err != nil {
		return err
	}

	logger := newLogger(deps.Stderr, cfg.Log)
	p, err := docpress.New(cfg, docpress.WithLogger(logger), docpress.WithClock(deps.Now))
	if err != nil {
		return err
	}

	res, err := p.Compile(ctx, req)
	if err != nil {
		return err
	}

	written, err := writeResult(flags.output, res)
	if err != nil {
		return err
	}
	for _, path := range written {
		logger.Debug("wrote artifact", slog.String("path", path))
	}
	printSummary(deps.Stdout, res, written)
	return nil
}

// readRequest decodes a DocumentRequest from path, or from stdin when path is "-".
func readRequest(path string, stdin io.Reader, limit int64) (*docpress.DocumentRequest, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(io.LimitReader(stdin, limit+1))
	} else {
		data, err = os.ReadFile(path) // #nosec G304 -- path is a CLI argument
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadRequest, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: request exceeds %d bytes", docpress.ErrValidation, limit)
	}

	var req docpress.DocumentRequest
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON in %s: %v", docpress.ErrValidation, path, err)
	}
	return &req, nil
}

// writeResult writes every artifact of res into dir and returns the paths.
func writeResult(dir string, res *docpress.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	artifacts := []struct {
		name string
		art  *docpress.Artifact
	}{
		{outCombined, res.Combined},
		{outEnglish, res.English},
		{outJapanese, res.Japanese},
	}

	var written []string
	for _, a := range artifacts {
		if a.art == nil {
			continue
		}
		path, err := fileutil.WriteFileIn(dir, a.name, a.art.PDF)
		if err != nil {
			return written, fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func printSummary(w io.Writer, res *docpress.Result, written []string) {
	for _, path := range written {
		fmt.Fprintf(w, "wrote %s\n", path)
	}
	info := res.PageInfo
	if res.Mode == docpress.ModeBilingual {
		fmt.Fprintf(w, "pages: cover=%d english=%d japanese=%d total=%d\n",
			info.CoverPages, info.EnglishPages, info.JapanesePages, info.TotalPages)
		return
	}
	fmt.Fprintf(w, "pages: total=%d\n", info.TotalPages)
}
