package docpress

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/alnah/go-docpress/internal/toolchain"
)

var includeLine = regexp.MustCompile(`#include "([^"]+)"`)

// compileCall is a snapshot of one fake typst invocation.
type compileCall struct {
	Args  []string
	Files map[string]string // workspace contents at compile time
}

// fakeTools stands in for pandoc and typst. pandoc echoes its input;
// typst inlines the included files into a fake PDF with one page per
// include, plus a cover page when the bilingual markers are present.
type fakeTools struct {
	PandocErr    error
	PandocStderr string
	TypstErr     error
	TypstStderr  string

	mu       sync.Mutex
	Pandoc   []string
	Compiles []compileCall
}

var _ toolchain.CommandRunner = (*fakeTools)(nil)

func (f *fakeTools) Run(ctx context.Context, c toolchain.Command) ([]byte, []byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	switch c.Name {
	case "pandoc":
		f.mu.Lock()
		f.Pandoc = append(f.Pandoc, string(c.Stdin))
		f.mu.Unlock()
		if f.PandocErr != nil {
			return nil, []byte(f.PandocStderr), f.PandocErr
		}
		return c.Stdin, nil, nil
	case "typst":
		return f.compile(c)
	}
	return nil, nil, fmt.Errorf("unexpected tool %q", c.Name)
}

func (f *fakeTools) compile(c toolchain.Command) ([]byte, []byte, error) {
	files, err := snapshot(c.Dir)
	if err != nil {
		return nil, nil, err
	}
	f.mu.Lock()
	f.Compiles = append(f.Compiles, compileCall{Args: c.Args, Files: files})
	f.mu.Unlock()

	if f.TypstErr != nil {
		return nil, []byte(f.TypstStderr), f.TypstErr
	}

	main := files["main.typ"]
	var body strings.Builder
	pages := 0
	if strings.Contains(main, "<docpress-first>") {
		body.WriteString("COVER\n")
		pages++
	}
	for _, m := range includeLine.FindAllStringSubmatch(main, -1) {
		body.WriteString(files[m[1]])
		body.WriteString("\n")
		pages++
	}
	pdf := fakePDF(body.String(), pages)
	if err := os.WriteFile(filepath.Join(c.Dir, toolchain.OutputName), pdf, 0o600); err != nil {
		return nil, nil, err
	}
	return nil, nil, nil
}

func (f *fakeTools) compiles() []compileCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]compileCall(nil), f.Compiles...)
}

// compileWith returns the compile whose workspace contains name.
func (f *fakeTools) compileWith(name string) (compileCall, bool) {
	for _, c := range f.compiles() {
		if _, ok := c.Files[name]; ok {
			return c, true
		}
	}
	return compileCall{}, false
}

func snapshot(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make(map[string]string, len(entries))
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		files[e.Name()] = string(data)
	}
	return files, nil
}

func fakePDF(text string, pages int) []byte {
	var b strings.Builder
	b.WriteString("%PDF-1.7\n")
	b.WriteString(text)
	for range pages {
		b.WriteString("<< /Type /Page /Parent 2 0 R >>\n")
	}
	b.WriteString("<< /Type /Pages >>\n%%EOF\n")
	return []byte(b.String())
}

var errExit = errors.New("exit status 1")
