package toolchain

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

const versionTimeout = 5 * time.Second

// ToolInfo describes an installed external tool.
type ToolInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Versioner is implemented by adapters able to report their tool version.
type Versioner interface {
	Version(ctx context.Context) (string, error)
}

// Probe looks bin up on PATH and asks v for its version.
func Probe(ctx context.Context, bin string, v Versioner) ToolInfo {
	var info ToolInfo
	path, err := exec.LookPath(bin)
	if err != nil {
		info.Error = err.Error()
		return info
	}
	info.Found = true
	info.Path = path

	version, err := v.Version(ctx)
	if err != nil {
		info.Error = err.Error()
		return info
	}
	info.Version = version
	return info
}

// probeVersion runs "<bin> --version" and returns the first line.
func probeVersion(ctx context.Context, runner CommandRunner, bin string) (string, error) {
	stdout, _, err := runWithTimeout(ctx, runner, versionTimeout, Command{
		Name: bin,
		Args: []string{"--version"},
	})
	if err != nil {
		return "", err
	}
	return firstLine(stdout), nil
}

func firstLine(b []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(b))
	if sc.Scan() {
		return strings.TrimSpace(sc.Text())
	}
	return ""
}
