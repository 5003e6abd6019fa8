package docpress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-docpress/internal/assets"
	"github.com/alnah/go-docpress/internal/config"
	"github.com/alnah/go-docpress/internal/dateutil"
	"github.com/alnah/go-docpress/internal/logfields"
	"github.com/alnah/go-docpress/internal/metrics"
	"github.com/alnah/go-docpress/internal/pdfpages"
	"github.com/alnah/go-docpress/internal/pipeline"
	"github.com/alnah/go-docpress/internal/toolchain"
	"github.com/alnah/go-docpress/internal/workspace"
)

// Pipeline stage names used in logs and metrics.
const (
	stageAssemble = "assemble"
	stageConvert  = "convert"
	stageRender   = "render"
	stageCompile  = "compile"
	stageCount    = "count"
)

// Artifact names used in logs and error messages.
const (
	artifactCombined = "combined"
	artifactEnglish  = "english"
	artifactJapanese = "japanese"
)

// converter turns markdown into Typst markup.
type converter interface {
	ToTypst(ctx context.Context, markdown string) (string, error)
}

// compiler turns a prepared workspace into PDF bytes.
type compiler interface {
	Compile(ctx context.Context, in toolchain.CompileInput) ([]byte, error)
}

// Compile-time interface implementation checks.
var (
	_ converter = (*toolchain.Pandoc)(nil)
	_ compiler  = (*toolchain.Typst)(nil)
)

// Pipeline compiles document requests into PDFs.
// Safe for concurrent use: each compile owns its workspace.
type Pipeline struct {
	cfg         *config.Config
	defaultLang Language

	pandoc     *toolchain.Pandoc
	typst      *toolchain.Typst
	converter  converter
	compiler   compiler
	renderer   *pipeline.Renderer
	rewriter   *pipeline.ImageRewriter
	post       pipeline.PostProcessor
	workspaces *workspace.Manager
	assetNames map[string]bool
	logo       string
	counter    pdfpages.Counter
	limiter    *CompileLimiter

	runner   CommandRunner
	logger   *slog.Logger
	recorder metrics.Recorder
	now      func() time.Time
}

// New creates a Pipeline from cfg. A nil cfg uses config.DefaultConfig().
// Returns an error if cfg is invalid or the templates cannot be loaded.
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:         cfg,
		defaultLang: Language(cfg.Pipeline.DefaultLanguage),
		rewriter:    pipeline.NewImageRewriter(cfg.Pipeline.DiagramPrefix),
		post:        pipeline.PostProcessor{ImageWidth: cfg.Pipeline.ImageWidth},
		logger:      slog.Default(),
		recorder:    metrics.NoopRecorder{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	extra, err := cfg.Tools.ExtraArgs()
	if err != nil {
		return nil, err
	}
	pandoc := toolchain.NewPandoc(cfg.Tools.Pandoc, cfg.Tools.PandocTimeout, extra)
	typst := toolchain.NewTypst(cfg.Tools.Typst, cfg.Assets.FontDir, cfg.Tools.TypstTimeout)
	if p.runner != nil {
		pandoc.Runner = p.runner
		typst.Runner = p.runner
	}
	p.pandoc, p.typst = pandoc, typst
	p.converter, p.compiler = pandoc, typst

	resolver, err := assets.NewResolver(cfg.Assets.TemplateDir)
	if err != nil {
		return nil, fmt.Errorf("resolving template directory: %w", err)
	}
	set, err := assets.LoadTemplateSet(resolver)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}
	if p.renderer, err = pipeline.NewRenderer(set); err != nil {
		return nil, err
	}

	files := cfg.Assets.WorkspaceFiles()
	p.assetNames = make(map[string]bool, len(files))
	for _, f := range files {
		p.assetNames[filepath.Base(f)] = true
	}
	if cfg.Assets.Logo != "" {
		p.logo = filepath.Base(cfg.Assets.Logo)
	}
	p.workspaces = workspace.NewManager(cfg.Assets.WorkDir, files, p.logger)
	p.counter = pdfpages.New(cfg.Pipeline.PageCounter, p.logger)
	if p.limiter == nil {
		p.limiter = NewCompileLimiter(ResolvePoolSize(cfg.Pipeline.MaxConcurrentCompiles))
	}
	return p, nil
}

// Concurrency returns how many typst compiles may run at once.
func (p *Pipeline) Concurrency() int {
	return p.limiter.Size()
}

// Compile validates req and produces its artifacts. Single mode yields
// Combined only; bilingual mode yields Combined, English and Japanese.
// Any failing compile fails the whole request.
func (p *Pipeline) Compile(ctx context.Context, req *DocumentRequest) (*Result, error) {
	if req == nil {
		return nil, ErrMissingMode
	}
	start := time.Now()
	logger := LoggerFrom(ctx, p.logger).With(logfields.Mode(string(req.Mode)))

	if err := req.Validate(); err != nil {
		p.recorder.IncCompileOutcome(string(req.Mode), metrics.OutcomeInvalid)
		return nil, err
	}
	ctx = ContextWithLogger(ctx, logger)

	var (
		res *Result
		err error
	)
	if req.Mode == ModeBilingual {
		res, err = p.compileBilingual(ctx, req)
	} else {
		res, err = p.compileSingleMode(ctx, req)
	}

	elapsed := time.Since(start)
	p.recorder.ObserveCompileDuration(string(req.Mode), elapsed)
	p.recorder.IncCompileOutcome(string(req.Mode), outcomeOf(err))
	if err != nil {
		logger.Warn("Compile failed", logfields.Duration(elapsed), logfields.Error(err))
		return nil, err
	}
	logger.Info("Compile finished", logfields.Pages(res.PageInfo.TotalPages), logfields.Duration(elapsed))
	return res, nil
}

func outcomeOf(err error) metrics.OutcomeLabel {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, ErrBusy):
		return metrics.OutcomeCanceled
	case IsToolError(err):
		return metrics.OutcomeToolFailed
	default:
		return metrics.OutcomeError
	}
}

func (p *Pipeline) compileSingleMode(ctx context.Context, req *DocumentRequest) (*Result, error) {
	lang := req.primary(p.defaultLang)
	art, err := p.compileStandalone(ctx, req, lang)
	if err != nil {
		return nil, err
	}
	return &Result{
		Mode:     ModeSingle,
		Combined: art,
		PageInfo: PageInfo{TotalPages: art.Pages},
	}, nil
}

// compileBilingual runs the two standalone compiles and the combined one.
// They share no state, so they run concurrently unless configured otherwise.
func (p *Pipeline) compileBilingual(ctx context.Context, req *DocumentRequest) (*Result, error) {
	var en, ja, combined *Artifact

	g, gctx := errgroup.WithContext(ctx)
	if !p.cfg.Pipeline.ParallelBilingual {
		g.SetLimit(1)
	}
	g.Go(func() error {
		var err error
		en, err = p.compileStandalone(gctx, req, English)
		return wrapArtifact(artifactEnglish, err)
	})
	g.Go(func() error {
		var err error
		ja, err = p.compileStandalone(gctx, req, Japanese)
		return wrapArtifact(artifactJapanese, err)
	})
	g.Go(func() error {
		var err error
		combined, err = p.compileCombined(gctx, req)
		return wrapArtifact(artifactCombined, err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Result{
		Mode:     ModeBilingual,
		Combined: combined,
		English:  en,
		Japanese: ja,
		PageInfo: PageInfo{
			CoverPages:    max(0, combined.Pages-en.Pages-ja.Pages),
			EnglishPages:  en.Pages,
			JapanesePages: ja.Pages,
			TotalPages:    combined.Pages,
		},
	}, nil
}

func wrapArtifact(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s artifact: %w", name, err)
}

// compileStandalone builds the single-language document for lang.
func (p *Pipeline) compileStandalone(ctx context.Context, req *DocumentRequest, lang Language) (*Artifact, error) {
	content, err := p.content(ctx, req, lang)
	if err != nil {
		return nil, err
	}
	if directive := lang.Directive(p.defaultLang); directive != "" {
		content = directive + "\n" + content
	}

	start := time.Now()
	main, err := p.renderer.RenderSingle(pipeline.SingleData{
		Title:   pipeline.Pick(lang, req.Title, req.TitleJa),
		Date:    p.date(req, lang),
		Logo:    p.logo,
		Content: pipeline.ContentFile,
	})
	if err != nil {
		return nil, err
	}
	p.recorder.ObserveStageDuration(stageRender, time.Since(start))

	return p.typeset(ctx, req, string(lang), map[string]string{
		pipeline.MainFile:    main,
		pipeline.ContentFile: content,
	})
}

// compileCombined builds the bilingual document. The first language comes
// first in document order and in the outlines.
func (p *Pipeline) compileCombined(ctx context.Context, req *DocumentRequest) (*Artifact, error) {
	first := req.first(p.defaultLang)
	second := first.Other()

	firstContent, err := p.content(ctx, req, first)
	if err != nil {
		return nil, err
	}
	secondContent, err := p.content(ctx, req, second)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	main, err := p.renderer.RenderBilingual(pipeline.BilingualData{
		Logo:   p.logo,
		First:  p.languageBlock(req, first, pipeline.FirstContentFile),
		Second: p.languageBlock(req, second, pipeline.SecondContentFile),
	})
	if err != nil {
		return nil, err
	}
	p.recorder.ObserveStageDuration(stageRender, time.Since(start))

	return p.typeset(ctx, req, artifactCombined, map[string]string{
		pipeline.MainFile:          main,
		pipeline.FirstContentFile:  firstContent,
		pipeline.SecondContentFile: secondContent,
	})
}

func (p *Pipeline) languageBlock(req *DocumentRequest, lang Language, file string) pipeline.LanguageBlock {
	return pipeline.NewLanguageBlock(
		lang,
		pipeline.Pick(lang, req.Title, req.TitleJa),
		pipeline.ContactLine(lang, req.ContactName, req.ContactNameJa, req.ClientName, req.ClientNameJa),
		p.date(req, lang),
		file,
	)
}

// date resolves the request date for lang. Validate has already rejected
// malformed formats, so an error here leaves the raw value.
func (p *Pipeline) date(req *DocumentRequest, lang Language) string {
	raw := pipeline.Pick(lang, req.DateEn, req.DateJa)
	d, err := dateutil.ResolveDateFor(raw, string(lang), p.now())
	if err != nil {
		return raw
	}
	return d
}

// content produces the post-processed Typst source of one language.
func (p *Pipeline) content(ctx context.Context, req *DocumentRequest, lang Language) (string, error) {
	logger := LoggerFrom(ctx, p.logger).With(logfields.Language(string(lang)))

	start := time.Now()
	md := p.rewriter.Rewrite(pipeline.Assemble(req.document(), lang))
	p.recorder.ObserveStageDuration(stageAssemble, time.Since(start))

	for _, name := range pipeline.MissingImages(md, p.hasImage(req)) {
		logger.Warn("Image referenced but not provided", logfields.Image(name))
	}

	start = time.Now()
	typ, err := p.converter.ToTypst(ctx, md)
	p.recorder.IncToolResult("pandoc", err == nil)
	if err != nil {
		logger.Debug("Tool failed", logfields.Tool("pandoc"), logfields.Stage(stageConvert), logfields.Error(err))
		return "", err
	}
	p.recorder.ObserveStageDuration(stageConvert, time.Since(start))
	return p.post.Process(typ), nil
}

func (p *Pipeline) hasImage(req *DocumentRequest) func(string) bool {
	return func(name string) bool {
		_, ok := req.Images[name]
		return ok || p.assetNames[name]
	}
}

// typeset writes files into a fresh workspace and compiles main.typ.
// The workspace is released on every path.
func (p *Pipeline) typeset(ctx context.Context, req *DocumentRequest, artifact string, files map[string]string) (*Artifact, error) {
	logger := LoggerFrom(ctx, p.logger).With(logfields.Artifact(artifact))

	if err := p.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer p.limiter.Release()
	p.recorder.AddInFlightCompiles(1)
	defer p.recorder.AddInFlightCompiles(-1)

	ws, err := p.workspaces.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = ws.Release() }()

	if err := ws.WriteImages(req.Images); err != nil {
		return nil, err
	}
	for name, src := range files {
		if err := ws.WriteFile(name, []byte(src)); err != nil {
			return nil, err
		}
	}

	text, enabled := req.watermark()
	start := time.Now()
	pdf, err := p.compiler.Compile(ctx, toolchain.CompileInput{
		Dir:              ws.Dir(),
		Main:             pipeline.MainFile,
		Watermark:        text,
		WatermarkEnabled: enabled,
	})
	p.recorder.IncToolResult("typst", err == nil)
	if err != nil {
		logger.Debug("Tool failed", logfields.Tool("typst"), logfields.Stage(stageCompile), logfields.Error(err))
		return nil, err
	}
	compileTime := time.Since(start)
	p.recorder.ObserveStageDuration(stageCompile, compileTime)

	start = time.Now()
	pages := p.counter.Count(pdf)
	p.recorder.ObserveStageDuration(stageCount, time.Since(start))

	logger.Debug("Compiled artifact", logfields.Pages(pages), logfields.Bytes(len(pdf)), logfields.Duration(compileTime))
	return &Artifact{PDF: pdf, Pages: pages}, nil
}
