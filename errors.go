package docpress

import (
	"errors"
	"fmt"

	"github.com/alnah/go-docpress/internal/pipeline"
	"github.com/alnah/go-docpress/internal/toolchain"
	"github.com/alnah/go-docpress/internal/workspace"
)

// ErrValidation is wrapped by every request validation error. Requests that
// fail validation are rejected before any file is written or tool started.
var ErrValidation = errors.New("invalid document request")

// Request validation errors.
var (
	ErrMissingMode      = fmt.Errorf("%w: mode is required", ErrValidation)
	ErrInvalidMode      = fmt.Errorf("%w: invalid mode", ErrValidation)
	ErrMissingTitle     = fmt.Errorf("%w: title is required", ErrValidation)
	ErrMissingSections  = fmt.Errorf("%w: at least one section is required", ErrValidation)
	ErrInvalidLanguage  = fmt.Errorf("%w: invalid language", ErrValidation)
	ErrInvalidImageName = fmt.Errorf("%w: invalid image name", ErrValidation)
	ErrInvalidDate      = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrInvalidWatermark = fmt.Errorf("%w: invalid watermark", ErrValidation)
	ErrFieldTooLong     = fmt.Errorf("%w: field exceeds maximum length", ErrValidation)
)

// External tool and resource errors.
var (
	ErrConverterFailed = toolchain.ErrConverterFailed
	ErrCompilerFailed  = toolchain.ErrCompilerFailed
	ErrToolTimeout     = toolchain.ErrToolTimeout
	ErrToolNotFound    = toolchain.ErrToolNotFound
	ErrWorkspace       = workspace.ErrWorkspace
	ErrTemplateRender  = pipeline.ErrTemplateRender

	// ErrBusy is returned when the caller gave up while waiting for a
	// compile slot.
	ErrBusy = errors.New("no compile slot available")
)

// ToolError carries the diagnostics of a failed pandoc or typst run.
type ToolError = toolchain.ToolError

// IsToolError reports whether err comes from an external tool, as opposed
// to the request or the local environment.
func IsToolError(err error) bool {
	var te *ToolError
	return errors.As(err, &te) || errors.Is(err, ErrToolTimeout) || errors.Is(err, ErrToolNotFound)
}
