package pipeline

import "strings"

// PageBreakSentinel is emitted into assembled markdown as its own paragraph
// wherever a page break is requested. It survives conversion verbatim and is
// replaced by a native page break during post-processing.
const PageBreakSentinel = "DOCPRESSPAGEBREAK"

// blockSeparator joins assembled blocks as separate markdown paragraphs.
const blockSeparator = "\n\n"

// Section is one ordered unit of request content in both languages.
type Section struct {
	ContentEn       string
	ContentJa       string
	PageBreakBefore bool
}

// Content returns the section body for lang, falling back to the other
// language when lang has none.
func (s Section) Content(lang Language) string {
	own, other := s.ContentEn, s.ContentJa
	if lang == Japanese {
		own, other = other, own
	}
	if !isBlank(own) {
		return own
	}
	if !isBlank(other) {
		return other
	}
	return ""
}

// Document is the language-independent input of Assemble.
type Document struct {
	CoverLetterEn string
	CoverLetterJa string
	Sections      []Section
}

// CoverLetter returns the cover letter for lang. Cover letters do not fall back.
func (d Document) CoverLetter(lang Language) string {
	if lang == Japanese {
		return d.CoverLetterJa
	}
	return d.CoverLetterEn
}

// Assemble merges the cover letter and sections of doc into one markdown
// document for lang.
//
// A non-blank cover letter is followed by a page break. Sections keep their
// order; a section with no content in either language, once frontmatter
// is stripped, is skipped together with its own page-break request.
func Assemble(doc Document, lang Language) string {
	var blocks []string

	if cl := StripFrontmatter(doc.CoverLetter(lang)); !isBlank(cl) {
		blocks = append(blocks, cl, PageBreakSentinel)
	}

	for _, s := range doc.Sections {
		content := StripFrontmatter(s.Content(lang))
		if isBlank(content) {
			continue
		}
		if s.PageBreakBefore {
			blocks = append(blocks, PageBreakSentinel)
		}
		blocks = append(blocks, content)
	}

	return strings.Join(blocks, blockSeparator)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
