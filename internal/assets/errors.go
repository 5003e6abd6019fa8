package assets

import "errors"

// Sentinel errors for template loading.
var (
	ErrTemplateNotFound    = errors.New("template not found")
	ErrInvalidTemplateName = errors.New("invalid template name")
	ErrInvalidTemplateDir  = errors.New("invalid template directory")
	ErrTemplateRead        = errors.New("failed to read template")
	ErrTemplateEscape      = errors.New("template resolves outside the template directory")
)
