// Package config holds the service configuration: its YAML shape, defaults,
// validation and file lookup.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/alnah/go-docpress/internal/fileutil"
	"github.com/alnah/go-docpress/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength   = 4096
	MaxAddrLength   = 256
	MaxArgsLength   = 1024
	MaxPrefixLength = 256
	MaxConcurrency  = 64
)

// Page counter modes.
const (
	PageCounterHeuristic  = "heuristic"
	PageCounterStructural = "structural"
)

var imageWidthPattern = regexp.MustCompile(`^\d{1,3}%$`)

// Config holds all configuration of the service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Tools    ToolsConfig    `yaml:"tools"`
	Assets   AssetsConfig   `yaml:"assets"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	MaxBodyBytes    int64         `yaml:"maxBodyBytes"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RateLimit       float64       `yaml:"rateLimit"` // requests per second, 0 disables
	RateBurst       int           `yaml:"rateBurst"`
}

// ToolsConfig locates and bounds the external tools.
type ToolsConfig struct {
	Pandoc          string        `yaml:"pandoc"`
	Typst           string        `yaml:"typst"`
	PandocTimeout   time.Duration `yaml:"pandocTimeout"`
	TypstTimeout    time.Duration `yaml:"typstTimeout"`
	PandocExtraArgs string        `yaml:"pandocExtraArgs"` // shell-quoted
}

// AssetsConfig locates templates, fonts and files copied into every workspace.
type AssetsConfig struct {
	TemplateDir string   `yaml:"templateDir"` // empty = embedded templates only
	FontDir     string   `yaml:"fontDir"`
	Logo        string   `yaml:"logo"`
	Files       []string `yaml:"files"`
	WorkDir     string   `yaml:"workDir"` // parent of per-compile directories, empty = OS temp
}

// PipelineConfig tunes document compilation.
type PipelineConfig struct {
	DefaultLanguage       string `yaml:"defaultLanguage"`
	ImageWidth            string `yaml:"imageWidth"`
	ParallelBilingual     bool   `yaml:"parallelBilingual"`
	MaxConcurrentCompiles int    `yaml:"maxConcurrentCompiles"` // 0 = derived from CPUs
	PageCounter           string `yaml:"pageCounter"`
	DiagramPrefix         string `yaml:"diagramPrefix"`
}

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			MaxBodyBytes:    32 << 20,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
		},
		Tools: ToolsConfig{
			Pandoc:        "pandoc",
			Typst:         "typst",
			PandocTimeout: 30 * time.Second,
			TypstTimeout:  60 * time.Second,
		},
		Pipeline: PipelineConfig{
			DefaultLanguage:   "en",
			ImageWidth:        "80%",
			ParallelBilingual: true,
			PageCounter:       PageCounterHeuristic,
			DiagramPrefix:     "/api/diagrams",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks ranges, enumerations and field lengths.
// Called by LoadConfig, and again by callers after applying overrides.
func (c *Config) Validate() error {
	if err := c.Server.validate(); err != nil {
		return err
	}
	if err := c.Tools.validate(); err != nil {
		return err
	}
	if err := c.Assets.validate(); err != nil {
		return err
	}
	if err := c.Pipeline.validate(); err != nil {
		return err
	}
	return c.Log.validate()
}

func (s *ServerConfig) validate() error {
	if s.Addr == "" {
		return invalid("server.addr", "must not be empty")
	}
	if err := validateFieldLength("server.addr", s.Addr, MaxAddrLength); err != nil {
		return err
	}
	if s.MaxBodyBytes <= 0 {
		return invalid("server.maxBodyBytes", "must be positive")
	}
	if s.ReadTimeout < 0 || s.WriteTimeout < 0 || s.ShutdownTimeout < 0 {
		return invalid("server timeouts", "must not be negative")
	}
	if s.RateLimit < 0 {
		return invalid("server.rateLimit", "must not be negative")
	}
	if s.RateBurst < 0 {
		return invalid("server.rateBurst", "must not be negative")
	}
	return nil
}

func (t *ToolsConfig) validate() error {
	if t.Pandoc == "" || t.Typst == "" {
		return invalid("tools", "pandoc and typst binaries must be set")
	}
	if err := validateFieldLength("tools.pandoc", t.Pandoc, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("tools.typst", t.Typst, MaxPathLength); err != nil {
		return err
	}
	if t.PandocTimeout <= 0 || t.TypstTimeout <= 0 {
		return invalid("tools timeouts", "must be positive")
	}
	if err := validateFieldLength("tools.pandocExtraArgs", t.PandocExtraArgs, MaxArgsLength); err != nil {
		return err
	}
	if _, err := t.ExtraArgs(); err != nil {
		return err
	}
	return nil
}

// ExtraArgs splits PandocExtraArgs with shell quoting rules.
func (t *ToolsConfig) ExtraArgs() ([]string, error) {
	if strings.TrimSpace(t.PandocExtraArgs) == "" {
		return nil, nil
	}
	args, err := shlex.Split(t.PandocExtraArgs)
	if err != nil {
		return nil, invalid("tools.pandocExtraArgs", err.Error())
	}
	return args, nil
}

func (a *AssetsConfig) validate() error {
	for field, value := range map[string]string{
		"assets.templateDir": a.TemplateDir,
		"assets.fontDir":     a.FontDir,
		"assets.logo":        a.Logo,
		"assets.workDir":     a.WorkDir,
	} {
		if err := validateFieldLength(field, value, MaxPathLength); err != nil {
			return err
		}
	}
	for i, f := range a.Files {
		if err := validateFieldLength(fmt.Sprintf("assets.files[%d]", i), f, MaxPathLength); err != nil {
			return err
		}
	}
	return nil
}

// WorkspaceFiles returns the logo and extra files copied into every workspace.
func (a *AssetsConfig) WorkspaceFiles() []string {
	files := make([]string, 0, len(a.Files)+1)
	if a.Logo != "" {
		files = append(files, a.Logo)
	}
	return append(files, a.Files...)
}

func (p *PipelineConfig) validate() error {
	switch p.DefaultLanguage {
	case "en", "ja":
	default:
		return invalid("pipeline.defaultLanguage", fmt.Sprintf("%q (must be en or ja)", p.DefaultLanguage))
	}
	if !imageWidthPattern.MatchString(p.ImageWidth) {
		return invalid("pipeline.imageWidth", fmt.Sprintf("%q (must be a percentage like 80%%)", p.ImageWidth))
	}
	if p.MaxConcurrentCompiles < 0 || p.MaxConcurrentCompiles > MaxConcurrency {
		return invalid("pipeline.maxConcurrentCompiles", fmt.Sprintf("%d (must be 0-%d)", p.MaxConcurrentCompiles, MaxConcurrency))
	}
	switch p.PageCounter {
	case PageCounterHeuristic, PageCounterStructural:
	default:
		return invalid("pipeline.pageCounter", fmt.Sprintf("%q (must be %s or %s)", p.PageCounter, PageCounterHeuristic, PageCounterStructural))
	}
	if !strings.HasPrefix(p.DiagramPrefix, "/") {
		return invalid("pipeline.diagramPrefix", "must start with /")
	}
	return validateFieldLength("pipeline.diagramPrefix", p.DiagramPrefix, MaxPrefixLength)
}

func (l *LogConfig) validate() error {
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level", fmt.Sprintf("%q (must be debug, info, warn or error)", l.Level))
	}
	switch l.Format {
	case "text", "json":
	default:
		return invalid("log.format", fmt.Sprintf("%q (must be text or json)", l.Format))
	}
	return nil
}

func invalid(field, msg string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidValue, field, msg)
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// LoadConfig loads configuration from a file path or config name on top of
// DefaultConfig. A name without separators is searched for as name.yaml or
// name.yml in the current directory, then in the user config directory.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is operator-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SearchPaths lists where a config name is looked up, in order.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(dir, "docpress", name+ext))
		}
	}
	return paths
}

func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}
