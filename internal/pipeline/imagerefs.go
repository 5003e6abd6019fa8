package pipeline

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alnah/go-docpress/internal/fileutil"
)

// DefaultDiagramPrefix is the internal path diagrams are served from.
const DefaultDiagramPrefix = "/api/diagrams"

const svgExt = ".svg"

var (
	// ![alt](dest "title")
	markdownImage = regexp.MustCompile(`!\[([^\]]*)\]\(\s*([^)\s]+)((?:\s+"[^"]*")?)\s*\)`)

	// <img ...> tags, attributes parsed separately.
	htmlImgTag = regexp.MustCompile(`(?i)<img\b[^>]*>`)
)

// ImageRewriter rewrites diagram references to workspace-local file names.
// Markdown images and HTML img tags share one extraction rule.
type ImageRewriter struct {
	prefix string
}

// NewImageRewriter creates a rewriter for references under prefix.
// An empty prefix uses DefaultDiagramPrefix.
func NewImageRewriter(prefix string) *ImageRewriter {
	if prefix == "" {
		prefix = DefaultDiagramPrefix
	}
	return &ImageRewriter{prefix: strings.TrimRight(prefix, "/")}
}

// RewriteImageRefs rewrites references under the default diagram prefix.
func RewriteImageRefs(markdown string) string {
	return NewImageRewriter("").Rewrite(markdown)
}

// Rewrite turns ![alt](<prefix>/<id>) and <img src="<prefix>/<id>"> into
// references to <id>.svg. Other references are left untouched.
func (r *ImageRewriter) Rewrite(markdown string) string {
	markdown = markdownImage.ReplaceAllStringFunc(markdown, func(m string) string {
		sub := markdownImage.FindStringSubmatch(m)
		local, ok := r.LocalName(sub[2])
		if !ok {
			return m
		}
		return "![" + sub[1] + "](" + local + sub[3] + ")"
	})

	return htmlImgTag.ReplaceAllStringFunc(markdown, func(tag string) string {
		tok, i, ok := imgToken(tag)
		if !ok {
			return tag
		}
		local, ok := r.LocalName(tok.Attr[i].Val)
		if !ok {
			return tag
		}
		// Attribute values are entity-decoded; re-render instead of
		// searching the raw tag for them.
		tok.Attr[i].Val = local
		return tok.String()
	})
}

// LocalName extracts the diagram id from ref and returns its local file
// name. A scheme and host before the prefix are accepted; query and
// fragment are dropped. ".svg" is appended only when absent.
func (r *ImageRewriter) LocalName(ref string) (string, bool) {
	i := strings.Index(ref, r.prefix+"/")
	if i < 0 {
		return "", false
	}
	if head := ref[:i]; head != "" && !strings.Contains(head, "://") {
		return "", false
	}

	id := ref[i+len(r.prefix)+1:]
	if j := strings.IndexAny(id, "?#"); j >= 0 {
		id = id[:j]
	}
	if fileutil.ValidateFilename(id) != nil {
		return "", false
	}
	if !strings.HasSuffix(strings.ToLower(id), svgExt) {
		id += svgExt
	}
	return id, true
}

// imgSrc returns the src attribute of a single img tag.
func imgSrc(tag string) (string, bool) {
	tok, i, ok := imgToken(tag)
	if !ok {
		return "", false
	}
	return tok.Attr[i].Val, true
}

// imgToken parses the first img tag in tag and returns it with the index
// of its non-empty src attribute.
func imgToken(tag string) (html.Token, int, bool) {
	z := html.NewTokenizer(strings.NewReader(tag))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return html.Token{}, 0, false
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.DataAtom != atom.Img {
				continue
			}
			for i, a := range tok.Attr {
				if a.Key == "src" && a.Val != "" {
					return tok, i, true
				}
			}
			return html.Token{}, 0, false
		}
	}
}

// ImageRefs lists the image destinations of markdown in document order,
// from both image syntax and inline or block HTML img tags.
func ImageRefs(markdown string) []string {
	src := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var refs []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Image:
			refs = append(refs, string(node.Destination))
		case *ast.RawHTML:
			var raw strings.Builder
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				raw.Write(seg.Value(src))
			}
			refs = append(refs, htmlImageRefs(raw.String())...)
		case *ast.HTMLBlock:
			var raw strings.Builder
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				raw.Write(seg.Value(src))
			}
			refs = append(refs, htmlImageRefs(raw.String())...)
		}
		return ast.WalkContinue, nil
	})
	return refs
}

func htmlImageRefs(fragment string) []string {
	var refs []string
	for _, tag := range htmlImgTag.FindAllString(fragment, -1) {
		if src, ok := imgSrc(tag); ok {
			refs = append(refs, src)
		}
	}
	return refs
}

// MissingImages returns local image references in markdown for which
// exists reports false. Remote URLs and absolute paths are ignored.
func MissingImages(markdown string, exists func(name string) bool) []string {
	var missing []string
	seen := make(map[string]bool)
	for _, ref := range ImageRefs(markdown) {
		if seen[ref] || !isLocalRef(ref) {
			continue
		}
		seen[ref] = true
		if !exists(ref) {
			missing = append(missing, ref)
		}
	}
	return missing
}

func isLocalRef(ref string) bool {
	return ref != "" &&
		!strings.Contains(ref, "://") &&
		!strings.HasPrefix(ref, "/") &&
		!strings.HasPrefix(ref, "data:")
}
