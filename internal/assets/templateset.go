package assets

import "fmt"

// Template names.
const (
	SingleTemplate    = "single"
	BilingualTemplate = "bilingual"
)

// TemplateSet holds the two layouts a pipeline renders with.
type TemplateSet struct {
	Single    string
	Bilingual string
}

// LoadTemplateSet loads both layouts from loader.
func LoadTemplateSet(loader TemplateLoader) (*TemplateSet, error) {
	single, err := loader.LoadTemplate(SingleTemplate)
	if err != nil {
		return nil, fmt.Errorf("loading %s template: %w", SingleTemplate, err)
	}
	bilingual, err := loader.LoadTemplate(BilingualTemplate)
	if err != nil {
		return nil, fmt.Errorf("loading %s template: %w", BilingualTemplate, err)
	}
	return &TemplateSet{Single: single, Bilingual: bilingual}, nil
}
