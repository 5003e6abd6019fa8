package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/alnah/go-docpress/internal/assets"
)

// ErrTemplateRender indicates a template failed to parse or execute.
var ErrTemplateRender = errors.New("template rendering failed")

// Workspace file names referenced by rendered templates.
const (
	MainFile          = "main.typ"
	ContentFile       = "content.typ"
	FirstContentFile  = "first.typ"
	SecondContentFile = "second.typ"
)

// SingleData fills the single-language template.
type SingleData struct {
	Title   string
	Date    string
	Logo    string // workspace file name, empty for none
	Content string // workspace file name of the content source
}

// LanguageBlock describes one language of a bilingual document.
type LanguageBlock struct {
	Lang         string
	Title        string
	ClientLine   string
	Date         string
	OutlineTitle string
	Content      string // workspace file name of the content source
}

// BilingualData fills the bilingual template. First and Second refer to
// document position.
type BilingualData struct {
	Logo   string
	First  LanguageBlock
	Second LanguageBlock
}

// NewLanguageBlock fills the language-dependent fields of a block.
func NewLanguageBlock(lang Language, title, clientLine, date, content string) LanguageBlock {
	return LanguageBlock{
		Lang:         string(lang),
		Title:        title,
		ClientLine:   clientLine,
		Date:         date,
		OutlineTitle: lang.OutlineTitle(),
		Content:      content,
	}
}

// Renderer renders the document templates. Every value reaches the
// template through the typst function, which emits a string literal.
type Renderer struct {
	single    *template.Template
	bilingual *template.Template
}

var funcs = template.FuncMap{"typst": TypstString}

// NewRenderer parses both templates of set.
func NewRenderer(set *assets.TemplateSet) (*Renderer, error) {
	single, err := template.New(assets.SingleTemplate).Funcs(funcs).Option("missingkey=error").Parse(set.Single)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateRender, assets.SingleTemplate, err)
	}
	bilingual, err := template.New(assets.BilingualTemplate).Funcs(funcs).Option("missingkey=error").Parse(set.Bilingual)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateRender, assets.BilingualTemplate, err)
	}
	return &Renderer{single: single, bilingual: bilingual}, nil
}

// RenderSingle renders the single-language main source.
func (r *Renderer) RenderSingle(data SingleData) (string, error) {
	return execute(r.single, data)
}

// RenderBilingual renders the bilingual main source.
func (r *Renderer) RenderBilingual(data BilingualData) (string, error) {
	return execute(r.bilingual, data)
}

func execute(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrTemplateRender, t.Name(), err)
	}
	return buf.String(), nil
}

// ContactLine composes the cover-page line naming the recipient in lang.
// Each name falls back to its other-language variant when blank.
func ContactLine(lang Language, contactEn, contactJa, clientEn, clientJa string) string {
	contact := Pick(lang, contactEn, contactJa)
	client := Pick(lang, clientEn, clientJa)

	var parts []string
	if lang == Japanese {
		// Company before person, the person with the honorific.
		if client != "" {
			parts = append(parts, client)
		}
		if contact != "" {
			parts = append(parts, contact+" 様")
		}
		return strings.Join(parts, "　")
	}
	if contact != "" {
		parts = append(parts, contact)
	}
	if client != "" {
		parts = append(parts, client)
	}
	return strings.Join(parts, ", ")
}

// Pick returns the lang variant of a bilingual field, falling back to the
// other variant when it is blank.
func Pick(lang Language, en, ja string) string {
	own, other := strings.TrimSpace(en), strings.TrimSpace(ja)
	if lang == Japanese {
		own, other = other, own
	}
	if own != "" {
		return own
	}
	return other
}
