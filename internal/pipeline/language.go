package pipeline

// Language identifies a content language.
type Language string

// Supported languages.
const (
	English  Language = "en"
	Japanese Language = "ja"
)

// DefaultLanguage needs no language directive in generated sources.
const DefaultLanguage = English

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	return l == English || l == Japanese
}

// Other returns the opposite language of a bilingual pair.
func (l Language) Other() Language {
	if l == Japanese {
		return English
	}
	return Japanese
}

// OutlineTitle is the table-of-contents heading for l.
func (l Language) OutlineTitle() string {
	if l == Japanese {
		return "目次"
	}
	return "Contents"
}

// Directive returns the Typst rule setting the text language, or "" when
// l is the base language the templates already assume.
func (l Language) Directive(base Language) string {
	if l == base || l == "" {
		return ""
	}
	return `#set text(lang: "` + string(l) + `")`
}
