package assets

// TemplateLoader loads Typst templates by name (without the .typ extension).
type TemplateLoader interface {
	// LoadTemplate returns ErrTemplateNotFound if the template doesn't exist
	// and ErrInvalidTemplateName if the name contains invalid characters.
	LoadTemplate(name string) (string, error)
}

// templateExt is appended to template names to form file names.
const templateExt = ".typ"
