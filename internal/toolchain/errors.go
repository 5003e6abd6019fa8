package toolchain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for external tool failures.
var (
	ErrConverterFailed = errors.New("markup conversion failed")
	ErrCompilerFailed  = errors.New("typesetting compilation failed")
	ErrToolTimeout     = errors.New("external tool timed out")
	ErrToolNotFound    = errors.New("external tool not found")
)

// maxDiagnostics bounds the diagnostic text kept from a failed tool run.
const maxDiagnostics = 8 << 10

// ToolError reports a failed tool invocation with its captured diagnostics.
type ToolError struct {
	Tool        string
	Kind        error // ErrConverterFailed or ErrCompilerFailed
	Diagnostics string
	Err         error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Tool, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Diagnostics != "" {
		msg += "\n" + e.Diagnostics
	}
	return msg
}

func (e *ToolError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// trimDiagnostics keeps the tail of noisy tool output, where the actual
// error usually is.
func trimDiagnostics(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxDiagnostics {
		s = "..." + s[len(s)-maxDiagnostics:]
	}
	return s
}
