package pipeline

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// TypstString renders s as a double-quoted Typst string literal.
//
// Text is NFC-normalized first. Backslash and double quote are escaped,
// common whitespace controls use their short escapes, and every other C0
// control character and DEL use the \u{..} form. Markup characters such as
// #, $, * or < are inert inside a string literal and pass through.
func TypstString(s string) string {
	s = norm.NFC.String(s)

	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == '"':
			b.WriteString(`\"`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\u{%x}`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
