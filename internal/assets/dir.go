package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DirLoader serves templates from an operator-provided directory.
// Symlinks are followed but must resolve inside the directory.
type DirLoader struct {
	dir string // absolute, symlinks resolved
}

// NewDirLoader creates a DirLoader for dir.
// Returns ErrInvalidTemplateDir unless dir is a readable directory.
func NewDirLoader(dir string) (*DirLoader, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidTemplateDir)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplateDir, err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTemplateDir, abs, err)
	}
	if _, err := os.ReadDir(real); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTemplateDir, real, err)
	}
	return &DirLoader{dir: real}, nil
}

// Dir returns the resolved template directory.
func (d *DirLoader) Dir() string {
	return d.dir
}

// LoadTemplate reads name.typ from the directory.
func (d *DirLoader) LoadTemplate(name string) (string, error) {
	if err := ValidateTemplateName(name); err != nil {
		return "", err
	}

	target, err := filepath.EvalSymlinks(filepath.Join(d.dir, name+templateExt))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %q in %s", ErrTemplateNotFound, name, d.dir)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRead, err)
	}
	if !d.contains(target) {
		return "", fmt.Errorf("%w: %s", ErrTemplateEscape, name+templateExt)
	}

	b, err := os.ReadFile(target) // #nosec G304 -- target is contained in d.dir
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRead, err)
	}
	return string(b), nil
}

func (d *DirLoader) contains(path string) bool {
	rel, err := filepath.Rel(d.dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

var _ TemplateLoader = (*DirLoader)(nil)
