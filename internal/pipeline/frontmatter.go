package pipeline

import (
	"regexp"
	"strings"
)

const frontmatterDelim = "---"

var crlfOrCR = regexp.MustCompile(`\r\n?`)

// normalizeLineEndings converts \r\n and \r to \n.
func normalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}

// StripFrontmatter removes leading frontmatter blocks: a "---" line, any
// lines, a closing "---" line and at most one blank line after it.
// Stacked blocks are all removed so that stripping is idempotent.
// An unclosed block leaves the input unchanged.
func StripFrontmatter(content string) string {
	content = normalizeLineEndings(content)
	for {
		body, ok := splitFrontmatter(content)
		if !ok {
			return content
		}
		content = body
	}
}

func splitFrontmatter(content string) (string, bool) {
	if !strings.HasPrefix(content, frontmatterDelim+"\n") {
		return "", false
	}
	rest := content[len(frontmatterDelim)+1:]

	for offset := 0; offset <= len(rest); {
		line, next, more := cutLine(rest[offset:])
		if strings.TrimRight(line, " \t") == frontmatterDelim {
			body := rest[offset+next:]
			if !more {
				body = ""
			}
			// One blank separator line belongs to the block.
			if blank, after, _ := cutLine(body); strings.TrimSpace(blank) == "" && len(body) > 0 {
				body = body[after:]
			}
			return body, true
		}
		if !more {
			break
		}
		offset += next
	}
	return "", false
}

// cutLine returns the first line of s without its newline, the offset of
// the following line and whether s contained a newline.
func cutLine(s string) (line string, next int, more bool) {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i], i + 1, true
	}
	return s, len(s), false
}
