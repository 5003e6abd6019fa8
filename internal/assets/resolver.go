package assets

import "errors"

// Resolver loads templates from an override directory when one is
// configured, falling back to the built-in templates.
type Resolver struct {
	override *DirLoader
	builtin  *EmbeddedLoader
}

// NewResolver creates a Resolver. An empty overrideDir serves the
// built-in templates only; an unusable one is an error.
func NewResolver(overrideDir string) (*Resolver, error) {
	r := &Resolver{builtin: NewEmbeddedLoader()}
	if overrideDir == "" {
		return r, nil
	}
	d, err := NewDirLoader(overrideDir)
	if err != nil {
		return nil, err
	}
	r.override = d
	return r, nil
}

// LoadTemplate prefers the override directory. Only a missing file falls
// back; invalid names, escapes and read errors are returned as is.
func (r *Resolver) LoadTemplate(name string) (string, error) {
	if r.override != nil {
		content, err := r.override.LoadTemplate(name)
		if !errors.Is(err, ErrTemplateNotFound) {
			return content, err
		}
	}
	return r.builtin.LoadTemplate(name)
}

// HasOverride reports whether an override directory is configured.
func (r *Resolver) HasOverride() bool {
	return r.override != nil
}

var _ TemplateLoader = (*Resolver)(nil)
