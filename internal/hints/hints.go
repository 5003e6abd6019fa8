// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"path/filepath"
	"strings"

	"github.com/alnah/go-docpress/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// installURLs points at installation instructions per tool.
var installURLs = map[string]string{
	"pandoc": "https://pandoc.org/installing.html",
	"typst":  "https://github.com/typst/typst#installation",
}

// ForToolNotFound returns hints for a missing pandoc or typst binary.
func ForToolNotFound(tool string) string {
	var hints []string
	if IsInContainer() {
		hints = append(hints, "install "+tool+" in the container image")
	} else if url, ok := installURLs[tool]; ok {
		hints = append(hints, "install "+tool+" from "+url)
	}
	hints = append(hints, "or point tools."+tool+" / DOCPRESS_"+strings.ToUpper(tool)+" at the binary")
	return formatHints(hints)
}

// ForTimeout returns a hint about raising a tool timeout.
func ForTimeout(tool string) string {
	return format("for large documents, raise tools." + tool + "Timeout")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config and the user config directory among searchedPaths.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"
	for _, p := range searchedPaths {
		if filepath.Base(filepath.Dir(p)) == "docpress" {
			hint += " or create " + p
			break
		}
	}
	return format(hint)
}

// ForFontDir returns a hint when the font directory is missing or empty.
func ForFontDir() string {
	return format("set assets.fontDir to a directory holding Noto Sans and Noto Sans CJK JP for Japanese text")
}

// ForWorkDir returns a hint when per-compile directories cannot be created.
func ForWorkDir() string {
	return format("check assets.workDir exists and is writable")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
