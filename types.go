package docpress

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alnah/go-docpress/internal/dateutil"
	"github.com/alnah/go-docpress/internal/fileutil"
	"github.com/alnah/go-docpress/internal/pipeline"
	"github.com/alnah/go-docpress/internal/toolchain"
)

// Language identifies a content language.
type Language = pipeline.Language

// Supported languages.
const (
	English  = pipeline.English
	Japanese = pipeline.Japanese
)

// Mode selects how many artifacts a request produces.
type Mode string

// Compile modes.
const (
	ModeSingle    Mode = "single"
	ModeBilingual Mode = "bilingual"
)

// Field length limits.
const (
	MaxTitleLength     = 500
	MaxNameLength      = 200
	MaxDateLength      = 100
	MaxWatermarkLength = 200
	MaxSections        = 1000
)

// reservedNames are produced by the pipeline inside every workspace and
// cannot be supplied as images.
var reservedNames = map[string]bool{
	pipeline.MainFile:          true,
	pipeline.ContentFile:       true,
	pipeline.FirstContentFile:  true,
	pipeline.SecondContentFile: true,
	toolchain.OutputName:       true,
}

// DocumentRequest is the input of one compile.
type DocumentRequest struct {
	Mode            Mode              `json:"mode"`
	Title           string            `json:"title"`
	TitleJa         string            `json:"titleJa,omitempty"`
	ClientName      string            `json:"clientName,omitempty"`
	ClientNameJa    string            `json:"clientNameJa,omitempty"`
	ContactName     string            `json:"contactName,omitempty"`
	ContactNameJa   string            `json:"contactNameJa,omitempty"`
	DateEn          string            `json:"dateEn,omitempty"`
	DateJa          string            `json:"dateJa,omitempty"`
	FirstLanguage   Language          `json:"firstLanguage,omitempty"`
	PrimaryLanguage Language          `json:"primaryLanguage,omitempty"`
	Sections        []Section         `json:"sections"`
	CoverLetterEn   string            `json:"coverLetterEn,omitempty"`
	CoverLetterJa   string            `json:"coverLetterJa,omitempty"`
	Images          map[string][]byte `json:"images,omitempty"` // base64 in JSON
	Watermark       *Watermark        `json:"watermark,omitempty"`
}

// Section is one ordered block of content. Either language may be empty, in
// which case the other language is used.
type Section struct {
	Label           string `json:"label"`
	LabelJa         string `json:"labelJa,omitempty"`
	ContentEn       string `json:"contentEn,omitempty"`
	ContentJa       string `json:"contentJa,omitempty"`
	PageBreakBefore bool   `json:"pageBreakBefore,omitempty"`
}

// Watermark is drawn diagonally behind every page when enabled.
type Watermark struct {
	Text    string `json:"text"`
	Enabled bool   `json:"enabled"`
}

// Validate checks the watermark text.
// Returns nil if w is nil (nil means no watermark).
func (w *Watermark) Validate() error {
	if w == nil {
		return nil
	}
	if utf8.RuneCountInString(w.Text) > MaxWatermarkLength {
		return fmt.Errorf("%w: text exceeds %d characters", ErrInvalidWatermark, MaxWatermarkLength)
	}
	if w.Enabled && strings.TrimSpace(w.Text) == "" {
		return fmt.Errorf("%w: enabled without text", ErrInvalidWatermark)
	}
	return nil
}

// Validate checks that the request can be compiled. It has no side effects.
func (r *DocumentRequest) Validate() error {
	switch r.Mode {
	case "":
		return ErrMissingMode
	case ModeSingle, ModeBilingual:
	default:
		return fmt.Errorf("%w: %q (must be %s or %s)", ErrInvalidMode, r.Mode, ModeSingle, ModeBilingual)
	}

	if strings.TrimSpace(r.Title) == "" && (r.Mode == ModeSingle || strings.TrimSpace(r.TitleJa) == "") {
		return ErrMissingTitle
	}
	if len(r.Sections) == 0 {
		return ErrMissingSections
	}
	if len(r.Sections) > MaxSections {
		return fmt.Errorf("%w: sections (%d, max %d)", ErrFieldTooLong, len(r.Sections), MaxSections)
	}

	if err := validateLanguage("firstLanguage", r.FirstLanguage); err != nil {
		return err
	}
	if err := validateLanguage("primaryLanguage", r.PrimaryLanguage); err != nil {
		return err
	}
	if err := r.validateLengths(); err != nil {
		return err
	}
	if err := r.validateDates(); err != nil {
		return err
	}
	for name := range r.Images {
		if err := validateImageName(name); err != nil {
			return err
		}
	}
	return r.Watermark.Validate()
}

func validateLanguage(field string, l Language) error {
	if l == "" || l.Valid() {
		return nil
	}
	return fmt.Errorf("%w: %s %q (must be %s or %s)", ErrInvalidLanguage, field, l, English, Japanese)
}

func (r *DocumentRequest) validateLengths() error {
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"title", r.Title, MaxTitleLength},
		{"titleJa", r.TitleJa, MaxTitleLength},
		{"clientName", r.ClientName, MaxNameLength},
		{"clientNameJa", r.ClientNameJa, MaxNameLength},
		{"contactName", r.ContactName, MaxNameLength},
		{"contactNameJa", r.ContactNameJa, MaxNameLength},
		{"dateEn", r.DateEn, MaxDateLength},
		{"dateJa", r.DateJa, MaxDateLength},
	}
	for _, f := range fields {
		if n := utf8.RuneCountInString(f.value); n > f.max {
			return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, f.name, n, f.max)
		}
	}
	return nil
}

func (r *DocumentRequest) validateDates() error {
	now := time.Now()
	for _, d := range []struct {
		lang  Language
		value string
	}{{English, r.DateEn}, {Japanese, r.DateJa}} {
		if _, err := dateutil.ResolveDateFor(d.value, string(d.lang), now); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidDate, err)
		}
	}
	return nil
}

func validateImageName(name string) error {
	if err := fileutil.ValidateFilename(name); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImageName, err)
	}
	if reservedNames[name] || strings.HasSuffix(name, ".typ") {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidImageName, name)
	}
	return nil
}

// primary returns the language of a single-mode compile.
func (r *DocumentRequest) primary(fallback Language) Language {
	if r.PrimaryLanguage != "" {
		return r.PrimaryLanguage
	}
	return fallback
}

// first returns the language placed first in a bilingual document.
func (r *DocumentRequest) first(fallback Language) Language {
	if r.FirstLanguage != "" {
		return r.FirstLanguage
	}
	return fallback
}

// document converts the request content to the assembler's shape.
func (r *DocumentRequest) document() pipeline.Document {
	sections := make([]pipeline.Section, len(r.Sections))
	for i, s := range r.Sections {
		sections[i] = pipeline.Section{
			ContentEn:       s.ContentEn,
			ContentJa:       s.ContentJa,
			PageBreakBefore: s.PageBreakBefore,
		}
	}
	return pipeline.Document{
		CoverLetterEn: r.CoverLetterEn,
		CoverLetterJa: r.CoverLetterJa,
		Sections:      sections,
	}
}

// watermark returns the compiler inputs for the request watermark.
func (r *DocumentRequest) watermark() (string, bool) {
	if r.Watermark == nil {
		return "", false
	}
	return r.Watermark.Text, r.Watermark.Enabled
}

// Artifact is one compiled PDF.
type Artifact struct {
	PDF   []byte
	Pages int
}

// PageInfo reports page counts. Counts are estimates unless the structural
// counter is configured.
type PageInfo struct {
	CoverPages    int
	EnglishPages  int
	JapanesePages int
	TotalPages    int
}

// Result holds the artifacts of a compile. English and Japanese are set in
// bilingual mode only.
type Result struct {
	Mode     Mode
	Combined *Artifact
	English  *Artifact
	Japanese *Artifact
	PageInfo PageInfo
}
