package main

import (
	"errors"
	"fmt"
	"io"

	docpress "github.com/alnah/go-docpress"
	"github.com/alnah/go-docpress/internal/config"
	"github.com/alnah/go-docpress/internal/fileutil"
	"github.com/alnah/go-docpress/internal/hints"
)

// loadConfig builds the effective configuration. Layers apply in order:
// defaults, config file (--config or DOCPRESS_CONFIG), DOCPRESS_* variables.
// Callers apply flags last and validate the result.
func loadConfig(f *commonFlags, deps *Dependencies) (*config.Config, error) {
	if err := loadDotEnv(f.envFile); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}

	env := envValues(deps.Environ())
	warnUnknownEnvVars(deps.Stderr, env)

	path := f.config
	if path == "" {
		path = env["DOCPRESS_CONFIG"]
	}

	cfg := config.DefaultConfig()
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) && !fileutil.IsFilePath(path) {
				return nil, fmt.Errorf("%w%s", err, hints.ForConfigNotFound(config.SearchPaths(path)))
			}
			return nil, err
		}
		cfg = loaded
	}

	if err := applyEnvConfig(env, cfg); err != nil {
		return nil, err
	}
	applyCommonFlags(f, cfg)
	return cfg, nil
}

// printErr writes err to w prefixed with the program name, with a hint
// when a tool timed out.
func printErr(w io.Writer, err error) {
	msg := err.Error()
	var te *docpress.ToolError
	if errors.As(err, &te) && errors.Is(err, docpress.ErrToolTimeout) {
		msg += hints.ForTimeout(te.Tool)
	}
	fmt.Fprintf(w, "docpress: %s\n", msg)
}
