package pipeline

import (
	"regexp"
	"strings"
)

// Preamble defines helpers that converter output may reference.
const Preamble = "#let horizontalrule = line(start: (25%,0%), end: (75%,0%))"

// PageBreak is the Typst directive replacing PageBreakSentinel. Weak breaks
// collapse when already at the top of a page, so back-to-back requests
// never produce a blank page.
const PageBreak = "#pagebreak(weak: true)"

// DefaultImageWidth bounds embedded images relative to the text width.
const DefaultImageWidth = "80%"

var (
	tableHeader   = regexp.MustCompile(`table\.header\(`)
	headerRepeats = regexp.MustCompile(`^\s*repeat\s*:`)
	percentToken  = regexp.MustCompile(`\b\d+(?:\.\d+)?%`)
	imageOpen     = regexp.MustCompile(`\bimage\(\s*("(?:[^"\\]|\\.)*")`)
)

const (
	columnsKeyword  = "columns:"
	repeatingHeader = "table.header(repeat: true, "
	rawFence        = "```"
)

// PostProcessor rewrites Typst markup produced by the converter.
type PostProcessor struct {
	ImageWidth string
}

// PostProcess applies the default post-processor to src.
func PostProcess(src string) string {
	return PostProcessor{}.Process(src)
}

// Process applies, in order:
//  1. table headers repeat across page breaks
//  2. percentage widths on column declarations become 1fr
//  3. every image call gets a fixed width; other arguments except
//     height are kept
//  4. lines consisting of a page-break sentinel, outside raw blocks,
//     become PageBreak
//  5. Preamble is prepended once
//
// Input matching none of the patterns is returned unchanged apart from
// the preamble.
func (p PostProcessor) Process(src string) string {
	width := p.ImageWidth
	if width == "" {
		width = DefaultImageWidth
	}

	src = repeatTableHeaders(src)
	src = proportionalColumns(src)
	src = fixedImageWidths(src, width)
	src = pageBreaks(src)
	return WithPreamble(src)
}

// WithPreamble prepends Preamble unless src already starts with it.
func WithPreamble(src string) string {
	if strings.HasPrefix(src, Preamble) {
		return src
	}
	return Preamble + "\n" + src
}

func repeatTableHeaders(src string) string {
	locs := tableHeader.FindAllStringIndex(src, -1)
	if len(locs) == 0 {
		return src
	}

	var b strings.Builder
	last := 0
	for _, loc := range locs {
		b.WriteString(src[last:loc[0]])
		if headerRepeats.MatchString(src[loc[1]:]) {
			b.WriteString(src[loc[0]:loc[1]])
		} else {
			b.WriteString(repeatingHeader)
		}
		last = loc[1]
	}
	b.WriteString(src[last:])
	return b.String()
}

// proportionalColumns is scoped to lines declaring columns; percentages
// elsewhere (image widths, text) are left alone.
func proportionalColumns(src string) string {
	if !strings.Contains(src, columnsKeyword) {
		return src
	}
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		if strings.Contains(line, columnsKeyword) {
			lines[i] = percentToken.ReplaceAllString(line, "1fr")
		}
	}
	return strings.Join(lines, "\n")
}

// fixedImageWidths rewrites every image(path, args...) call. Existing width
// and height arguments are dropped so the image scales to width; calls
// whose argument list never closes are left alone.
func fixedImageWidths(src, width string) string {
	locs := imageOpen.FindAllStringSubmatchIndex(src, -1)
	if len(locs) == 0 {
		return src
	}

	var b strings.Builder
	last := 0
	for _, loc := range locs {
		if loc[0] < last {
			continue
		}
		args, end, ok := callArgs(src, loc[1])
		if !ok {
			continue
		}
		b.WriteString(src[last:loc[0]])
		b.WriteString("image(")
		b.WriteString(src[loc[2]:loc[3]])
		for _, arg := range args {
			if isSizeArg(arg) {
				continue
			}
			b.WriteString(", ")
			b.WriteString(arg)
		}
		b.WriteString(", width: ")
		b.WriteString(width)
		b.WriteString(")")
		last = end
	}
	b.WriteString(src[last:])
	return b.String()
}

// callArgs scans the remainder of an argument list starting at pos, just
// after the first argument. It returns the trimmed top-level arguments and
// the offset past the closing parenthesis. Commas and parentheses inside
// strings or nested brackets do not count.
func callArgs(src string, pos int) ([]string, int, bool) {
	var (
		args  []string
		depth int
		start = -1
	)
	for i := pos; i < len(src); i++ {
		switch c := src[i]; c {
		case '"':
			j := skipString(src, i)
			if j < 0 {
				return nil, 0, false
			}
			i = j
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
				continue
			}
			if c != ')' {
				return nil, 0, false
			}
			if start >= 0 {
				if arg := strings.TrimSpace(src[start:i]); arg != "" {
					args = append(args, arg)
				}
			}
			return args, i + 1, true
		case ',':
			if depth > 0 {
				continue
			}
			if start >= 0 {
				if arg := strings.TrimSpace(src[start:i]); arg != "" {
					args = append(args, arg)
				}
			}
			start = i + 1
		default:
			if start < 0 && depth == 0 && c != ' ' && c != '\t' && c != '\n' && c != '\r' {
				return nil, 0, false
			}
		}
	}
	return nil, 0, false
}

// skipString returns the index of the quote closing the string opened at i,
// or -1 when it never closes.
func skipString(src string, i int) int {
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case '"':
			return j
		}
	}
	return -1
}

func isSizeArg(arg string) bool {
	name, _, ok := strings.Cut(arg, ":")
	if !ok {
		return false
	}
	name = strings.TrimSpace(name)
	return name == "width" || name == "height"
}

// pageBreaks replaces sentinel lines with PageBreak. Lines inside fenced
// raw blocks are left as written.
func pageBreaks(src string) string {
	if !strings.Contains(src, PageBreakSentinel) {
		return src
	}
	lines := strings.Split(src, "\n")
	fence := ""
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if fence != "" {
			if strings.HasPrefix(trimmed, fence) && strings.Trim(trimmed, "`") == "" {
				fence = ""
			}
			continue
		}
		if strings.HasPrefix(trimmed, rawFence) {
			fence = trimmed[:len(trimmed)-len(strings.TrimLeft(trimmed, "`"))]
			continue
		}
		if trimmed == PageBreakSentinel {
			lines[i] = PageBreak
		}
	}
	return strings.Join(lines, "\n")
}
