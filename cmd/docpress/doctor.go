package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	flag "github.com/spf13/pflag"

	docpress "github.com/alnah/go-docpress"
	"github.com/alnah/go-docpress/internal/config"
	"github.com/alnah/go-docpress/internal/fileutil"
	"github.com/alnah/go-docpress/internal/hints"
)

// Doctor statuses.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"`
	Pandoc   toolReport `json:"pandoc"`
	Typst    toolReport `json:"typst"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// toolReport is one external tool as configured and as found.
type toolReport struct {
	Bin string `json:"bin"`
	docpress.ToolInfo
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
}

// systemInfo holds system check results.
type systemInfo struct {
	WorkDir         string `json:"work_dir"`
	WorkDirWritable bool   `json:"work_dir_writable"`
	FontDir         string `json:"font_dir,omitempty"`
	Fonts           int    `json:"fonts"`
	Templates       bool   `json:"templates"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found, 2 = bad flags or config.
func runDoctorCmd(ctx context.Context, args []string, deps *Dependencies) int {
	flags, err := parseDoctorFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		printDoctorUsage(deps.Stdout)
		return ExitSuccess
	}
	if err != nil {
		printErr(deps.Stderr, err)
		return exitCodeFor(err)
	}
	cfg, err := loadConfig(&flags.common, deps)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		printErr(deps.Stderr, err)
		return exitCodeFor(err)
	}

	result := runDoctor(ctx, cfg, deps.Environ())

	if flags.json {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(deps.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(ctx context.Context, cfg *config.Config, environ []string) *doctorResult {
	result := &doctorResult{
		Status: statusReady,
		Pandoc: toolReport{Bin: cfg.Tools.Pandoc},
		Typst:  toolReport{Bin: cfg.Tools.Typst},
		Env:    envInfo{OS: runtime.GOOS, Arch: runtime.GOARCH},
	}

	checkTools(ctx, cfg, result)
	checkEnvironment(environ, result)
	checkSystem(cfg, result)

	if len(result.Errors) > 0 {
		result.Status = statusErrors
	} else if len(result.Warnings) > 0 {
		result.Status = statusWarnings
	}
	return result
}

// checkTools loads the templates and probes pandoc and typst.
func checkTools(ctx context.Context, cfg *config.Config, result *doctorResult) {
	p, err := docpress.New(cfg)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Templates: %v", err))
		return
	}
	result.System.Templates = true

	h := p.Health(ctx)
	result.Pandoc.ToolInfo = h.Converter
	result.Typst.ToolInfo = h.Compiler
	for _, t := range []struct {
		name string
		r    toolReport
	}{{"pandoc", result.Pandoc}, {"typst", result.Typst}} {
		switch {
		case !t.r.Found:
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s not found (%s)%s", t.name, t.r.Bin, hints.ForToolNotFound(t.name)))
		case t.r.Error != "":
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Could not get %s version: %s", t.name, t.r.Error))
		}
	}
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(environ []string, result *doctorResult) {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}

	result.Env.Container, result.Env.ContainerHint = isContainer(env)
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if env[v] != "" {
			result.Env.CI = true
			break
		}
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(env map[string]string) (bool, string) {
	if env["DOCPRESS_CONTAINER"] == "1" {
		return true, "DOCPRESS_CONTAINER=1"
	}
	if hints.IsInContainer() {
		return true, "/.dockerenv"
	}
	if v := env["container"]; v != "" {
		return true, "container=" + v
	}
	if env["KUBERNETES_SERVICE_HOST"] != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the work directory and fonts.
func checkSystem(cfg *config.Config, result *doctorResult) {
	workDir := cfg.Assets.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}
	result.System.WorkDir = workDir
	dir, err := os.MkdirTemp(workDir, "docpress-doctor-")
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Work directory not writable: %s%s", workDir, hints.ForWorkDir()))
	} else {
		_ = os.RemoveAll(dir)
		result.System.WorkDirWritable = true
	}

	fontDir := cfg.Assets.FontDir
	result.System.FontDir = fontDir
	if fontDir == "" {
		result.Warnings = append(result.Warnings,
			"No font directory configured; typst uses system fonts"+hints.ForFontDir())
		return
	}
	if !fileutil.DirExists(fontDir) {
		result.Errors = append(result.Errors, fmt.Sprintf("Font directory not found: %s%s", fontDir, hints.ForFontDir()))
		return
	}
	result.System.Fonts = countFonts(fontDir)
	if result.System.Fonts == 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Font directory has no fonts: %s%s", fontDir, hints.ForFontDir()))
	}
}

// countFonts counts font files under dir.
func countFonts(dir string) int {
	n := 0
	_ = filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(d.Name())) {
		case ".ttf", ".otf", ".ttc", ".otc":
			n++
		}
		return nil
	})
	return n
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "docpress doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Tools")
	for _, t := range []struct {
		name string
		r    toolReport
	}{{"pandoc", r.Pandoc}, {"typst", r.Typst}} {
		if !t.r.Found {
			fmt.Fprintf(w, "  [ERROR] %s: not found (%s)\n", t.name, t.r.Bin)
			continue
		}
		fmt.Fprintf(w, "  [OK] %s: %s\n", t.name, t.r.Path)
		if t.r.Version != "" {
			fmt.Fprintf(w, "  [OK] %s version: %s\n", t.name, t.r.Version)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.Templates {
		fmt.Fprintln(w, "  [OK] Templates: loaded")
	} else {
		fmt.Fprintln(w, "  [ERROR] Templates: not loaded")
	}
	if r.System.WorkDirWritable {
		fmt.Fprintf(w, "  [OK] Work directory: %s (writable)\n", r.System.WorkDir)
	} else {
		fmt.Fprintf(w, "  [ERROR] Work directory: %s (not writable)\n", r.System.WorkDir)
	}
	if r.System.FontDir != "" {
		fmt.Fprintf(w, "  [OK] Fonts: %d in %s\n", r.System.Fonts, r.System.FontDir)
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready to compile")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
