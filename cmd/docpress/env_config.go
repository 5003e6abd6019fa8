package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/alnah/go-docpress/internal/config"
)

const envPrefix = "DOCPRESS_"

// envSetters maps each DOCPRESS_* variable to the config field it sets.
// Environment values override the config file; CLI flags override both.
var envSetters = map[string]func(cfg *config.Config, v string) error{
	"DOCPRESS_CONFIG": func(*config.Config, string) error { return nil }, // read by loadConfig
	"DOCPRESS_ADDR":   func(c *config.Config, v string) error { c.Server.Addr = v; return nil },
	"DOCPRESS_MAX_BODY_BYTES": func(c *config.Config, v string) error {
		return setInt64(&c.Server.MaxBodyBytes, "DOCPRESS_MAX_BODY_BYTES", v)
	},
	"DOCPRESS_RATE_LIMIT": func(c *config.Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return envInvalid("DOCPRESS_RATE_LIMIT", v)
		}
		c.Server.RateLimit = f
		return nil
	},
	"DOCPRESS_RATE_BURST": func(c *config.Config, v string) error {
		return setInt(&c.Server.RateBurst, "DOCPRESS_RATE_BURST", v)
	},
	"DOCPRESS_PANDOC": func(c *config.Config, v string) error { c.Tools.Pandoc = v; return nil },
	"DOCPRESS_TYPST":  func(c *config.Config, v string) error { c.Tools.Typst = v; return nil },
	"DOCPRESS_PANDOC_TIMEOUT": func(c *config.Config, v string) error {
		return setDuration(&c.Tools.PandocTimeout, "DOCPRESS_PANDOC_TIMEOUT", v)
	},
	"DOCPRESS_TYPST_TIMEOUT": func(c *config.Config, v string) error {
		return setDuration(&c.Tools.TypstTimeout, "DOCPRESS_TYPST_TIMEOUT", v)
	},
	"DOCPRESS_PANDOC_EXTRA_ARGS": func(c *config.Config, v string) error { c.Tools.PandocExtraArgs = v; return nil },
	"DOCPRESS_TEMPLATE_DIR":      func(c *config.Config, v string) error { c.Assets.TemplateDir = v; return nil },
	"DOCPRESS_FONT_DIR":          func(c *config.Config, v string) error { c.Assets.FontDir = v; return nil },
	"DOCPRESS_LOGO":              func(c *config.Config, v string) error { c.Assets.Logo = v; return nil },
	"DOCPRESS_WORK_DIR":          func(c *config.Config, v string) error { c.Assets.WorkDir = v; return nil },
	"DOCPRESS_DEFAULT_LANGUAGE":  func(c *config.Config, v string) error { c.Pipeline.DefaultLanguage = v; return nil },
	"DOCPRESS_IMAGE_WIDTH":       func(c *config.Config, v string) error { c.Pipeline.ImageWidth = v; return nil },
	"DOCPRESS_PARALLEL_BILINGUAL": func(c *config.Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return envInvalid("DOCPRESS_PARALLEL_BILINGUAL", v)
		}
		c.Pipeline.ParallelBilingual = b
		return nil
	},
	"DOCPRESS_MAX_CONCURRENT_COMPILES": func(c *config.Config, v string) error {
		return setInt(&c.Pipeline.MaxConcurrentCompiles, "DOCPRESS_MAX_CONCURRENT_COMPILES", v)
	},
	"DOCPRESS_PAGE_COUNTER":   func(c *config.Config, v string) error { c.Pipeline.PageCounter = v; return nil },
	"DOCPRESS_DIAGRAM_PREFIX": func(c *config.Config, v string) error { c.Pipeline.DiagramPrefix = v; return nil },
	"DOCPRESS_LOG_LEVEL":      func(c *config.Config, v string) error { c.Log.Level = v; return nil },
	"DOCPRESS_LOG_FORMAT":     func(c *config.Config, v string) error { c.Log.Format = v; return nil },
}

// loadDotEnv loads path into the process environment without overriding
// variables already set. A missing default file is ignored.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if path == defaultEnvFile && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// envValues extracts DOCPRESS_* variables from environ.
func envValues(environ []string) map[string]string {
	values := make(map[string]string)
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(name, envPrefix) {
			values[name] = value
		}
	}
	return values
}

// applyEnvConfig applies environment values to cfg. Empty values are ignored.
func applyEnvConfig(values map[string]string, cfg *config.Config) error {
	for name, value := range values {
		set, ok := envSetters[name]
		if !ok || value == "" {
			continue
		}
		if err := set(cfg, value); err != nil {
			return err
		}
	}
	return nil
}

// warnUnknownEnvVars logs warnings for unrecognized DOCPRESS_* variables.
// Helps catch typos like DOCPRESS_TYPST_TIMOUT.
func warnUnknownEnvVars(w io.Writer, values map[string]string) {
	for name := range values {
		if _, ok := envSetters[name]; !ok {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

func envInvalid(name, value string) error {
	return fmt.Errorf("%w: %s=%q", config.ErrInvalidValue, name, value)
}

func setInt(dst *int, name, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return envInvalid(name, v)
	}
	*dst = n
	return nil
}

func setInt64(dst *int64, name, v string) error {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return envInvalid(name, v)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, name, v string) error {
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return envInvalid(name, v)
	}
	*dst = d
	return nil
}
