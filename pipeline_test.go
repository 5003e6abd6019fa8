package docpress

// Notes:
// - pandoc and typst are replaced by fakeTools; real tool runs live in
//   internal/toolchain integration tests.
// - The structural page counter is covered in internal/pdfpages.

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-docpress/internal/config"
	"github.com/alnah/go-docpress/internal/metrics"
)

func newTestPipeline(t *testing.T, tools *fakeTools, mutate func(*config.Config), opts ...Option) (*Pipeline, string) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Assets.WorkDir = t.TempDir()
	if mutate != nil {
		mutate(cfg)
	}
	opts = append([]Option{WithRunner(tools)}, opts...)
	p, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p, cfg.Assets.WorkDir
}

func assertNoWorkspacesLeft(t *testing.T, workDir string) {
	t.Helper()
	entries, err := os.ReadDir(workDir)
	if err != nil {
		t.Fatalf("reading work dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("%d workspace(s) left behind", len(entries))
	}
}

func assertPDF(t *testing.T, name string, a *Artifact) {
	t.Helper()
	if a == nil {
		t.Fatalf("%s artifact is nil", name)
	}
	if !bytes.HasPrefix(a.PDF, []byte("%PDF")) {
		t.Errorf("%s artifact is not a PDF", name)
	}
}

// ---------------------------------------------------------------------------
// TestCompile_Single - Single-language mode
// ---------------------------------------------------------------------------

func TestCompile_Single(t *testing.T) {
	t.Parallel()

	tools := &fakeTools{}
	p, workDir := newTestPipeline(t, tools, nil)

	res, err := p.Compile(context.Background(), &DocumentRequest{
		Mode:            ModeSingle,
		Title:           "Report",
		PrimaryLanguage: English,
		Sections:        []Section{{Label: "Intro", ContentEn: "# Hello\n\nWorld"}},
	})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	assertPDF(t, "combined", res.Combined)
	pdf := string(res.Combined.PDF)
	if !strings.Contains(pdf, "Hello") || !strings.Contains(pdf, "World") {
		t.Errorf("combined PDF missing content: %q", pdf)
	}
	if res.PageInfo.TotalPages < 1 {
		t.Errorf("TotalPages = %d, want >= 1", res.PageInfo.TotalPages)
	}
	if res.English != nil || res.Japanese != nil {
		t.Error("single mode must not produce language artifacts")
	}
	if n := len(tools.compiles()); n != 1 {
		t.Errorf("typst ran %d times, want 1", n)
	}
	assertNoWorkspacesLeft(t, workDir)
}

func TestCompile_SingleSources(t *testing.T) {
	t.Parallel()

	tools := &fakeTools{}
	p, _ := newTestPipeline(t, tools, nil, WithClock(func() time.Time {
		return time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC)
	}))

	_, err := p.Compile(context.Background(), &DocumentRequest{
		Mode:            ModeSingle,
		Title:           "Report",
		TitleJa:         "報告書",
		DateJa:          "auto",
		PrimaryLanguage: Japanese,
		Sections: []Section{
			{ContentEn: "English only"},
			{ContentJa: "![図](/api/diagrams/42)", PageBreakBefore: true},
		},
		Images:    map[string][]byte{"42.svg": []byte("<svg/>")},
		Watermark: &Watermark{Text: "DRAFT", Enabled: true},
	})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	call, ok := tools.compileWith("content.typ")
	if !ok {
		t.Fatal("no compile with content.typ")
	}
	content := call.Files["content.typ"]
	main := call.Files["main.typ"]

	t.Run("language directive first", func(t *testing.T) {
		if !strings.HasPrefix(content, `#set text(lang: "ja")`+"\n") {
			t.Errorf("content.typ = %q", content)
		}
	})

	t.Run("preamble once", func(t *testing.T) {
		if n := strings.Count(content, "#let horizontalrule"); n != 1 {
			t.Errorf("preamble count = %d, want 1", n)
		}
	})

	t.Run("fallback and page break", func(t *testing.T) {
		if !strings.Contains(content, "English only") {
			t.Error("english fallback content missing")
		}
		if !strings.Contains(content, "#pagebreak(weak: true)") {
			t.Error("page break not converted")
		}
	})

	t.Run("diagram rewritten and materialized", func(t *testing.T) {
		if !strings.Contains(tools.Pandoc[0], "](42.svg)") {
			t.Errorf("pandoc input = %q", tools.Pandoc[0])
		}
		if _, ok := call.Files["42.svg"]; !ok {
			t.Error("image not written to workspace")
		}
	})

	t.Run("japanese title and auto date", func(t *testing.T) {
		if !strings.Contains(main, `"報告書"`) {
			t.Error("japanese title missing from main.typ")
		}
		if !strings.Contains(main, `"2025年3月7日"`) {
			t.Errorf("resolved date missing from main.typ:\n%s", main)
		}
	})

	t.Run("watermark inputs", func(t *testing.T) {
		if !slices.Contains(call.Args, "watermark=DRAFT") || !slices.Contains(call.Args, "watermark-enabled=true") {
			t.Errorf("args = %v", call.Args)
		}
	})
}

func TestCompile_DefaultLanguageHasNoDirective(t *testing.T) {
	t.Parallel()

	tools := &fakeTools{}
	p, _ := newTestPipeline(t, tools, nil)

	_, err := p.Compile(context.Background(), &DocumentRequest{
		Mode:     ModeSingle,
		Title:    "Report",
		Sections: []Section{{ContentEn: "Body"}},
	})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	call, _ := tools.compileWith("content.typ")
	if strings.Contains(call.Files["content.typ"], "#set text(lang:") {
		t.Error("default language must not get a directive")
	}
}

// ---------------------------------------------------------------------------
// TestCompile_Bilingual - Three-artifact mode
// ---------------------------------------------------------------------------

func TestCompile_Bilingual(t *testing.T) {
	t.Parallel()

	for _, parallel := range []bool{true, false} {
		name := "sequential"
		if parallel {
			name = "parallel"
		}
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			tools := &fakeTools{}
			p, workDir := newTestPipeline(t, tools, func(c *config.Config) {
				c.Pipeline.ParallelBilingual = parallel
			})

			res, err := p.Compile(context.Background(), &DocumentRequest{
				Mode:          ModeBilingual,
				Title:         "Proposal",
				FirstLanguage: Japanese,
				Sections:      []Section{{ContentEn: "English body", ContentJa: "日本語本文"}},
			})
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}

			assertPDF(t, "combined", res.Combined)
			assertPDF(t, "english", res.English)
			assertPDF(t, "japanese", res.Japanese)

			en, ja, combined := string(res.English.PDF), string(res.Japanese.PDF), string(res.Combined.PDF)
			if !strings.Contains(en, "English body") || strings.Contains(en, "日本語本文") {
				t.Errorf("english artifact = %q", en)
			}
			if !strings.Contains(ja, "日本語本文") || strings.Contains(ja, "English body") {
				t.Errorf("japanese artifact = %q", ja)
			}
			jaAt, enAt := strings.Index(combined, "日本語本文"), strings.Index(combined, "English body")
			if jaAt < 0 || enAt < 0 || jaAt > enAt {
				t.Errorf("combined order wrong: ja at %d, en at %d", jaAt, enAt)
			}

			want := PageInfo{CoverPages: 1, EnglishPages: 1, JapanesePages: 1, TotalPages: 3}
			if res.PageInfo != want {
				t.Errorf("PageInfo = %+v, want %+v", res.PageInfo, want)
			}
			if res.PageInfo.TotalPages < res.PageInfo.EnglishPages+res.PageInfo.JapanesePages-res.PageInfo.CoverPages {
				t.Error("combined page count below standalone sum")
			}
			if n := len(tools.compiles()); n != 3 {
				t.Errorf("typst ran %d times, want 3", n)
			}
			assertNoWorkspacesLeft(t, workDir)
		})
	}
}

func TestCompile_BilingualTemplate(t *testing.T) {
	t.Parallel()

	tools := &fakeTools{}
	p, _ := newTestPipeline(t, tools, nil)

	_, err := p.Compile(context.Background(), &DocumentRequest{
		Mode:          ModeBilingual,
		Title:         "Proposal",
		TitleJa:       "提案書",
		ClientName:    "Acme",
		ContactName:   "Jane Doe",
		ContactNameJa: "山田",
		Sections:      []Section{{ContentEn: "Body", ContentJa: "本文"}},
	})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	call, ok := tools.compileWith("first.typ")
	if !ok {
		t.Fatal("no combined compile")
	}
	main := call.Files["main.typ"]
	for _, want := range []string{
		`"Proposal"`,
		`"提案書"`,
		`"Jane Doe, Acme"`,
		`"Acme　山田 様"`,
		"<docpress-first>",
		"<docpress-second>",
	} {
		if !strings.Contains(main, want) {
			t.Errorf("main.typ missing %s", want)
		}
	}
	if strings.Index(main, "<docpress-first>") > strings.Index(main, "<docpress-second>") {
		t.Error("first marker must precede second marker")
	}
	if !strings.Contains(call.Files["first.typ"], "Body") || !strings.Contains(call.Files["second.typ"], "本文") {
		t.Error("default first language must be english")
	}
}

// ---------------------------------------------------------------------------
// TestCompile_Errors - Validation, tool and cancellation failures
// ---------------------------------------------------------------------------

func TestCompile_ValidationHasNoSideEffects(t *testing.T) {
	t.Parallel()

	tools := &fakeTools{}
	p, workDir := newTestPipeline(t, tools, nil)

	_, err := p.Compile(context.Background(), &DocumentRequest{Mode: ModeSingle, Title: "x"})
	if !errors.Is(err, ErrMissingSections) || !errors.Is(err, ErrValidation) {
		t.Fatalf("error = %v, want ErrMissingSections", err)
	}
	if len(tools.Pandoc) != 0 || len(tools.compiles()) != 0 {
		t.Error("tools ran for an invalid request")
	}
	assertNoWorkspacesLeft(t, workDir)
}

func TestCompile_ToolFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		tools   *fakeTools
		mode    Mode
		wantErr error
		wantMsg string
	}{
		{
			name:    "converter fails",
			tools:   &fakeTools{PandocErr: errExit, PandocStderr: "unknown extension"},
			mode:    ModeSingle,
			wantErr: ErrConverterFailed,
			wantMsg: "unknown extension",
		},
		{
			name:    "compiler fails",
			tools:   &fakeTools{TypstErr: errExit, TypstStderr: "error: unknown variable"},
			mode:    ModeSingle,
			wantErr: ErrCompilerFailed,
			wantMsg: "unknown variable",
		},
		{
			name:    "bilingual fails as a whole",
			tools:   &fakeTools{TypstErr: errExit, TypstStderr: "error: font not found"},
			mode:    ModeBilingual,
			wantErr: ErrCompilerFailed,
			wantMsg: "font not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, workDir := newTestPipeline(t, tt.tools, nil)
			res, err := p.Compile(context.Background(), &DocumentRequest{
				Mode:     tt.mode,
				Title:    "Report",
				Sections: []Section{{ContentEn: "Body", ContentJa: "本文"}},
			})
			if res != nil {
				t.Error("expected no result on failure")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if !IsToolError(err) {
				t.Error("IsToolError() = false")
			}
			var te *ToolError
			if !errors.As(err, &te) || !strings.Contains(te.Diagnostics, tt.wantMsg) {
				t.Errorf("diagnostics missing %q: %v", tt.wantMsg, err)
			}
			assertNoWorkspacesLeft(t, workDir)
		})
	}
}

func TestCompile_BusyWhenCanceledWaiting(t *testing.T) {
	t.Parallel()

	limiter := NewCompileLimiter(1)
	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer limiter.Release()

	tools := &fakeTools{}
	p, workDir := newTestPipeline(t, tools, nil, WithLimiter(limiter))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.Compile(ctx, &DocumentRequest{
		Mode:     ModeSingle,
		Title:    "Report",
		Sections: []Section{{ContentEn: "Body"}},
	})
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("error = %v, want ErrBusy", err)
	}
	if len(tools.compiles()) != 0 {
		t.Error("compiler ran without a slot")
	}
	assertNoWorkspacesLeft(t, workDir)
}

// ---------------------------------------------------------------------------
// TestCompile_Observability - Logs and metrics
// ---------------------------------------------------------------------------

func TestCompile_WarnsAboutMissingImages(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p, _ := newTestPipeline(t, &fakeTools{}, nil, WithLogger(logger))

	_, err := p.Compile(context.Background(), &DocumentRequest{
		Mode:     ModeSingle,
		Title:    "Report",
		Sections: []Section{{ContentEn: "![flow](/api/diagrams/flow)"}},
	})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Image referenced but not provided") || !strings.Contains(out, "flow.svg") {
		t.Errorf("log output = %q", out)
	}
}

type countingRecorder struct {
	metrics.NoopRecorder
	outcomes []metrics.OutcomeLabel
}

func (r *countingRecorder) IncCompileOutcome(_ string, o metrics.OutcomeLabel) {
	r.outcomes = append(r.outcomes, o)
}

func TestCompile_RecordsOutcome(t *testing.T) {
	t.Parallel()

	rec := &countingRecorder{}
	p, _ := newTestPipeline(t, &fakeTools{TypstErr: errExit}, nil, WithRecorder(rec))

	_, _ = p.Compile(context.Background(), &DocumentRequest{Mode: "draft"})
	_, _ = p.Compile(context.Background(), &DocumentRequest{
		Mode:     ModeSingle,
		Title:    "Report",
		Sections: []Section{{ContentEn: "Body"}},
	})

	want := []metrics.OutcomeLabel{metrics.OutcomeInvalid, metrics.OutcomeToolFailed}
	if !slices.Equal(rec.outcomes, want) {
		t.Errorf("outcomes = %v, want %v", rec.outcomes, want)
	}
}

// ---------------------------------------------------------------------------
// TestNew - Construction
// ---------------------------------------------------------------------------

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("nil config uses defaults", func(t *testing.T) {
		t.Parallel()
		if _, err := New(nil); err != nil {
			t.Errorf("New(nil) error = %v", err)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		t.Parallel()
		cfg := config.DefaultConfig()
		cfg.Pipeline.DefaultLanguage = "fr"
		if _, err := New(cfg); !errors.Is(err, config.ErrInvalidValue) {
			t.Errorf("error = %v, want ErrInvalidValue", err)
		}
	})

	t.Run("missing template dir", func(t *testing.T) {
		t.Parallel()
		cfg := config.DefaultConfig()
		cfg.Assets.TemplateDir = "/nonexistent/docpress/templates"
		if _, err := New(cfg); err == nil {
			t.Error("expected error for missing template dir")
		}
	})

	t.Run("concurrency from config", func(t *testing.T) {
		t.Parallel()
		cfg := config.DefaultConfig()
		cfg.Pipeline.MaxConcurrentCompiles = 3
		p, err := New(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := p.Concurrency(); got != 3 {
			t.Errorf("Concurrency() = %d, want 3", got)
		}
	})
}

func TestPipeline_HealthMissingTools(t *testing.T) {
	t.Parallel()

	p, _ := newTestPipeline(t, &fakeTools{}, func(c *config.Config) {
		c.Tools.Pandoc = "/nonexistent/bin/pandoc"
		c.Tools.Typst = "/nonexistent/bin/typst"
	})

	h := p.Health(context.Background())
	if h.OK() {
		t.Error("OK() = true with missing tools")
	}
	if h.Converter.Found || h.Compiler.Found {
		t.Errorf("Health = %+v, want nothing found", h)
	}
	if h.Converter.Error == "" {
		t.Error("missing converter has no error text")
	}
}
