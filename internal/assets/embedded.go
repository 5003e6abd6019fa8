package assets

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
)

//go:embed templates/*.typ
var builtin embed.FS

// EmbeddedLoader serves the templates compiled into the binary.
type EmbeddedLoader struct {
	fsys fs.FS
}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	sub, err := fs.Sub(builtin, "templates")
	if err != nil {
		// The embed pattern guarantees the directory exists.
		panic(err)
	}
	return &EmbeddedLoader{fsys: sub}
}

// LoadTemplate reads name.typ from the embedded templates.
func (e *EmbeddedLoader) LoadTemplate(name string) (string, error) {
	if err := ValidateTemplateName(name); err != nil {
		return "", err
	}
	b, err := fs.ReadFile(e.fsys, name+templateExt)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("%w: %q (built-in)", ErrTemplateNotFound, name)
	case err != nil:
		return "", fmt.Errorf("%w: %v", ErrTemplateRead, err)
	}
	return string(b), nil
}

var _ TemplateLoader = (*EmbeddedLoader)(nil)
