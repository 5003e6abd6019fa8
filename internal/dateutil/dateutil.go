// Package dateutil resolves the date fields of a document request.
//
// A date field is free text, except for the "auto" forms that render the
// compile date: "auto" uses the default layout of the field's language,
// "auto:FORMAT" a token format such as "auto:DD/MM/YYYY" and
// "auto:PRESET" a named preset.
package dateutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDateFormat indicates an invalid date format string.
var ErrInvalidDateFormat = errors.New("invalid date format")

// MaxDateFormatLength limits format string length to prevent abuse.
const MaxDateFormatLength = 50

// Default layouts used by a bare "auto", per language code.
const (
	DefaultDateFormat   = "MMMM D, YYYY"
	JapaneseDateFormat  = "YYYY[年]M[月]D[日]"
	japaneseLanguageTag = "ja"
)

// dateTokens maps format tokens to Go layout components, longest first
// for greedy matching.
var dateTokens = []struct {
	token string
	goFmt string
}{
	{"YYYY", "2006"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"M", "1"},
	{"D", "2"},
}

// DatePresets provides named shortcuts for common formats.
var DatePresets = map[string]string{
	"iso":      "YYYY-MM-DD",
	"european": "DD/MM/YYYY",
	"us":       "MM/DD/YYYY",
	"long":     DefaultDateFormat,
	"ja":       JapaneseDateFormat,
	"japanese": JapaneseDateFormat,
}

// ParseDateFormat converts a token format to a Go time layout.
// Tokens: YYYY, YY, MMMM, MMM, MM, M, DD, D. Bracketed text is literal
// ("YYYY[年]"), as is any other character.
func ParseDateFormat(format string) (string, error) {
	if format == "" {
		return "", fmt.Errorf("%w: format cannot be empty", ErrInvalidDateFormat)
	}
	if len(format) > MaxDateFormatLength {
		return "", fmt.Errorf("%w: format exceeds %d characters", ErrInvalidDateFormat, MaxDateFormatLength)
	}

	var b strings.Builder
	b.Grow(len(format) + 10)

	for i := 0; i < len(format); {
		if format[i] == '[' {
			end := strings.IndexByte(format[i+1:], ']')
			if end == -1 {
				return "", fmt.Errorf("%w: unclosed bracket at position %d", ErrInvalidDateFormat, i)
			}
			b.WriteString(format[i+1 : i+1+end])
			i += end + 2
			continue
		}

		n := matchToken(format[i:], &b)
		if n == 0 {
			b.WriteByte(format[i])
			n = 1
		}
		i += n
	}
	return b.String(), nil
}

// matchToken writes the layout of the token starting s and returns its
// length, or 0 when s does not start with a token.
func matchToken(s string, b *strings.Builder) int {
	for _, t := range dateTokens {
		if strings.HasPrefix(s, t.token) {
			b.WriteString(t.goFmt)
			return len(t.token)
		}
	}
	return 0
}

// ResolveDate resolves value with the default English layout.
// See ResolveDateFor.
func ResolveDate(value string, t time.Time) (string, error) {
	return ResolveDateFor(value, "", t)
}

// ResolveDateFor returns value unchanged unless it is an "auto" form, in
// which case t is formatted. A bare "auto" uses the layout of lang.
func ResolveDateFor(value, lang string, t time.Time) (string, error) {
	trimmed := strings.TrimSpace(value)
	lower := strings.ToLower(trimmed)

	if !strings.HasPrefix(lower, "auto") {
		return value, nil
	}

	if lower == "auto" {
		format := DefaultDateFormat
		if lang == japaneseLanguageTag {
			format = JapaneseDateFormat
		}
		return formatDate(format, t)
	}

	if !strings.HasPrefix(lower, "auto:") {
		// "automatic review" and similar free text is not a directive.
		return value, nil
	}

	// Tokens are case-sensitive, so the original spelling is kept.
	format := trimmed[len("auto:"):]
	if format == "" {
		return "", fmt.Errorf("%w: format cannot be empty after \"auto:\"", ErrInvalidDateFormat)
	}
	if preset, ok := DatePresets[strings.ToLower(format)]; ok {
		format = preset
	}
	return formatDate(format, t)
}

func formatDate(format string, t time.Time) (string, error) {
	layout, err := ParseDateFormat(format)
	if err != nil {
		return "", err
	}
	return t.Format(layout), nil
}
