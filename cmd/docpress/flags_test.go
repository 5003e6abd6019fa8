package main

import (
	"errors"
	"testing"

	"github.com/alnah/go-docpress/internal/config"
)

// ---------------------------------------------------------------------------
// TestParseFlags - Flag parsing and application
// ---------------------------------------------------------------------------

func TestParseRenderFlags(t *testing.T) {
	t.Parallel()

	f, positional, err := parseRenderFlags([]string{
		"-o", "out", "--sequential", "-w", "3",
		"--typst", "/opt/typst", "--font-dir", "/fonts", "-q",
		"req.json",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(positional) != 1 || positional[0] != "req.json" {
		t.Errorf("positional = %v", positional)
	}

	cfg := config.DefaultConfig()
	applyCommonFlags(&f.common, cfg)
	applyToolFlags(&f.tools, cfg)

	if f.output != "out" || !f.sequential {
		t.Errorf("output/sequential = %q/%v", f.output, f.sequential)
	}
	if cfg.Pipeline.MaxConcurrentCompiles != 3 {
		t.Errorf("MaxConcurrentCompiles = %d", cfg.Pipeline.MaxConcurrentCompiles)
	}
	if cfg.Tools.Typst != "/opt/typst" || cfg.Tools.Pandoc != "pandoc" {
		t.Errorf("tools = %q/%q", cfg.Tools.Pandoc, cfg.Tools.Typst)
	}
	if cfg.Assets.FontDir != "/fonts" {
		t.Errorf("FontDir = %q", cfg.Assets.FontDir)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Log.Level = %q, want error", cfg.Log.Level)
	}
}

func TestParseServeFlags(t *testing.T) {
	t.Parallel()

	f, _, err := parseServeFlags([]string{"--addr", ":9000", "-v", "--env-file", ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.addr != ":9000" || !f.common.verbose || f.common.envFile != "" {
		t.Errorf("flags = %+v", f)
	}

	if _, _, err := parseServeFlags([]string{"--workers", "many"}); !errors.Is(err, ErrUsage) {
		t.Errorf("error = %v, want ErrUsage", err)
	}
}

func TestApplyCommonFlags_VerboseWinsOverQuiet(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	applyCommonFlags(&commonFlags{verbose: true, quiet: true}, cfg)
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}
