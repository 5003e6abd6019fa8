package pipeline

import (
	"slices"
	"testing"
)

func TestRewriteImageRefs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "markdown image",
			input: "![flow](/api/diagrams/42)",
			want:  "![flow](42.svg)",
		},
		{
			name:  "svg suffix not doubled",
			input: "![flow](/api/diagrams/42.svg)",
			want:  "![flow](42.svg)",
		},
		{
			name:  "title kept",
			input: `![a](/api/diagrams/x "Figure 1")`,
			want:  `![a](x.svg "Figure 1")`,
		},
		{
			name:  "absolute url to diagram path",
			input: "![a](https://cms.example.com/api/diagrams/abc?v=2)",
			want:  "![a](abc.svg)",
		},
		{
			name:  "html img",
			input: `<img src="/api/diagrams/7" width="300">`,
			want:  `<img src="7.svg" width="300">`,
		},
		{
			name:  "html img single quotes",
			input: `<IMG alt='d' src='/api/diagrams/7'/>`,
			want:  `<img alt="d" src="7.svg"/>`,
		},
		{
			name:  "html img with escaped query",
			input: `<img src="/api/diagrams/7?v=1&amp;t=2" alt="a &amp; b">`,
			want:  `<img src="7.svg" alt="a &amp; b">`,
		},
		{
			name:  "other paths untouched",
			input: "![logo](/static/logo.png) <img src=\"https://x.test/a.png\">",
			want:  "![logo](/static/logo.png) <img src=\"https://x.test/a.png\">",
		},
		{
			name:  "nested prefix not rewritten",
			input: "![a](/other/api/diagrams/1)",
			want:  "![a](/other/api/diagrams/1)",
		},
		{
			name:  "traversal id not rewritten",
			input: "![a](/api/diagrams/../secret)",
			want:  "![a](/api/diagrams/../secret)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := RewriteImageRefs(tt.input); got != tt.want {
				t.Errorf("RewriteImageRefs() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestImageRewriter_CustomPrefix(t *testing.T) {
	t.Parallel()

	r := NewImageRewriter("/diagrams/")
	if got := r.Rewrite("![d](/diagrams/9)"); got != "![d](9.svg)" {
		t.Errorf("Rewrite() = %q", got)
	}
	if got := r.Rewrite("![d](/api/diagrams/9)"); got != "![d](/api/diagrams/9)" {
		t.Errorf("default prefix should not match custom rewriter: %q", got)
	}
}

func TestImageRefs(t *testing.T) {
	t.Parallel()

	md := "# T\n\n![a](a.svg) text <img src=\"b.png\"> more\n\n<div>\n<img src=\"c.svg\">\n</div>\n\n![r](https://x.test/r.png)\n"
	got := ImageRefs(md)
	want := []string{"a.svg", "b.png", "c.svg", "https://x.test/r.png"}
	if !slices.Equal(got, want) {
		t.Errorf("ImageRefs() = %v, want %v", got, want)
	}
}

func TestMissingImages(t *testing.T) {
	t.Parallel()

	md := "![a](a.svg) ![b](b.svg) ![a again](a.svg) ![r](https://x.test/r.png) ![abs](/etc/x.png)"
	have := map[string]bool{"a.svg": true}

	got := MissingImages(md, func(name string) bool { return have[name] })
	if !slices.Equal(got, []string{"b.svg"}) {
		t.Errorf("MissingImages() = %v, want [b.svg]", got)
	}
}
