package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-docpress/internal/config"
)

// ErrUsage wraps flag parsing and argument errors.
var ErrUsage = errors.New("usage error")

// defaultEnvFile is loaded when present; a missing default is not an error.
const defaultEnvFile = ".env"

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config    string
	envFile   string
	logFormat string
	verbose   bool
	quiet     bool
}

// toolFlags override tool and asset locations.
type toolFlags struct {
	pandoc      string
	typst       string
	templateDir string
	fontDir     string
	workers     int
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common commonFlags
	tools  toolFlags
	addr   string
}

// renderFlags holds all flags for the render command.
type renderFlags struct {
	common     commonFlags
	tools      toolFlags
	output     string
	sequential bool
}

// doctorFlags holds all flags for the doctor command.
type doctorFlags struct {
	common commonFlags
	json   bool
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false
	return fs
}

func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "Config file name or path")
	fs.StringVar(&f.envFile, "env-file", defaultEnvFile, "Dotenv file loaded before reading DOCPRESS_* variables")
	fs.StringVar(&f.logFormat, "log-format", "", "Log format: text, json")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "Enable debug logging")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "Only log errors")
}

func addToolFlags(fs *flag.FlagSet, f *toolFlags) {
	fs.StringVar(&f.pandoc, "pandoc", "", "pandoc binary")
	fs.StringVar(&f.typst, "typst", "", "typst binary")
	fs.StringVar(&f.templateDir, "template-dir", "", "Directory overriding single.typ / bilingual.typ")
	fs.StringVar(&f.fontDir, "font-dir", "", "Font directory passed to typst")
	fs.IntVarP(&f.workers, "workers", "w", 0, "Concurrent compiles (0 = auto)")
}

func parseServeFlags(args []string) (*serveFlags, []string, error) {
	f := &serveFlags{}
	fs := newFlagSet("serve")
	addCommonFlags(fs, &f.common)
	addToolFlags(fs, &f.tools)
	fs.StringVar(&f.addr, "addr", "", "Listen address (default :8080)")
	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	return f, fs.Args(), nil
}

func parseRenderFlags(args []string) (*renderFlags, []string, error) {
	f := &renderFlags{}
	fs := newFlagSet("render")
	addCommonFlags(fs, &f.common)
	addToolFlags(fs, &f.tools)
	fs.StringVarP(&f.output, "output", "o", ".", "Output directory")
	fs.BoolVar(&f.sequential, "sequential", false, "Run bilingual compiles one after another")
	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	return f, fs.Args(), nil
}

func parseDoctorFlags(args []string) (*doctorFlags, error) {
	f := &doctorFlags{}
	fs := newFlagSet("doctor")
	addCommonFlags(fs, &f.common)
	fs.BoolVar(&f.json, "json", false, "Output JSON")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	return f, nil
}

func parseConfigFlags(args []string) (*commonFlags, error) {
	f := &commonFlags{}
	fs := newFlagSet("config")
	addCommonFlags(fs, f)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	return f, nil
}

// applyCommonFlags applies logging flags. Flags win over every other layer.
func applyCommonFlags(f *commonFlags, cfg *config.Config) {
	if f.logFormat != "" {
		cfg.Log.Format = f.logFormat
	}
	switch {
	case f.verbose:
		cfg.Log.Level = "debug"
	case f.quiet:
		cfg.Log.Level = "error"
	}
}

// applyToolFlags applies tool and asset overrides.
func applyToolFlags(f *toolFlags, cfg *config.Config) {
	if f.pandoc != "" {
		cfg.Tools.Pandoc = f.pandoc
	}
	if f.typst != "" {
		cfg.Tools.Typst = f.typst
	}
	if f.templateDir != "" {
		cfg.Assets.TemplateDir = f.templateDir
	}
	if f.fontDir != "" {
		cfg.Assets.FontDir = f.fontDir
	}
	if f.workers > 0 {
		cfg.Pipeline.MaxConcurrentCompiles = f.workers
	}
}
