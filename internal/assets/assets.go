package assets

// defaultLoader is the package-level embedded loader.
var defaultLoader = NewEmbeddedLoader()

// LoadTemplate loads a built-in template by name.
func LoadTemplate(name string) (string, error) {
	return defaultLoader.LoadTemplate(name)
}

// DefaultTemplateSet returns the built-in layouts.
func DefaultTemplateSet() (*TemplateSet, error) {
	return LoadTemplateSet(defaultLoader)
}
