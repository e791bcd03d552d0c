// Package pipeline drives a redaction: load the mutable document, extract text
// runs from the same bytes, paint every run over and serialize.
package pipeline

import (
	"context"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"

	"github.com/wudi/pdfredact/builder"
	"github.com/wudi/pdfredact/config"
	"github.com/wudi/pdfredact/contentstream"
	"github.com/wudi/pdfredact/document"
	"github.com/wudi/pdfredact/extractor"
	"github.com/wudi/pdfredact/model"
	"github.com/wudi/pdfredact/observability"
	"github.com/wudi/pdfredact/pdferr"
)

// Extractor reports the text runs of every page of a PDF.
type Extractor interface {
	Extract(ctx context.Context, data []byte) ([]model.PageRuns, error)
}

// Page is a drawable page that remembers what was drawn on it.
type Page interface {
	builder.Page
	Operations() []contentstream.Operation
}

// Document is the mutable page model.
type Document interface {
	PageCount() int
	Page(i int) (Page, error)
	Bytes() ([]byte, error)
}

// Loader parses bytes into a Document.
type Loader interface {
	Load(ctx context.Context, data []byte) (Document, error)
}

// PageReport summarizes the work done on one page.
type PageReport struct {
	Page   int     `json:"page"`
	Runs   int     `json:"runs"`
	Height float64 `json:"height"`
}

// Result is the outcome of a successful run. Digest is a hex blake2b-256 over
// every page's drawn operations; it depends only on the input and settings.
type Result struct {
	Output []byte       `json:"-"`
	Pages  []PageReport `json:"pages"`
	Digest string       `json:"digest"`
}

// Runs is the total number of runs redacted.
func (r *Result) Runs() int {
	n := 0
	for _, p := range r.Pages {
		n += p.Runs
	}
	return n
}

type Pipeline struct {
	extractor Extractor
	loader    Loader
	mutator   *builder.Mutator
	parallel  bool
	logger    observability.Logger
	tracer    observability.Tracer
}

// NewDefault constructs a pipeline with the text extractor, the pdfcpu
// document model and the default mutator ('h' filler, size 12).
func NewDefault() *Pipeline {
	return &Pipeline{
		extractor: extractor.New(extractor.Config{}),
		loader:    DocumentLoader{},
		mutator:   builder.NewMutator(builder.Config{}),
		parallel:  true,
		logger:    observability.NopLogger{},
		tracer:    observability.NopTracer(),
	}
}

// FromConfig builds a pipeline from settings.
func FromConfig(cfg config.Config, logger observability.Logger) *Pipeline {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return NewDefault().
		WithLogger(logger).
		WithParallelLoad(cfg.ParallelLoad).
		WithExtractor(extractor.New(extractor.Config{
			MaxFormDepth: cfg.MaxFormDepth,
			Password:     cfg.Password,
			Logger:       logger,
		})).
		WithLoader(DocumentLoader{Config: document.Config{
			Password: cfg.Password,
			Validate: cfg.ValidatePDF,
			BaseFont: cfg.Font,
			Logger:   logger,
		}}).
		WithMutator(builder.NewMutator(builder.Config{
			Filler:   cfg.Filler,
			FontSize: cfg.FontSize,
			Logger:   logger,
		}))
}

func (p *Pipeline) WithExtractor(e Extractor) *Pipeline {
	p.extractor = e
	return p
}

func (p *Pipeline) WithLoader(l Loader) *Pipeline {
	p.loader = l
	return p
}

func (p *Pipeline) WithMutator(m *builder.Mutator) *Pipeline {
	p.mutator = m
	return p
}

// WithParallelLoad toggles loading the document and extracting runs
// concurrently.
func (p *Pipeline) WithParallelLoad(on bool) *Pipeline {
	p.parallel = on
	return p
}

func (p *Pipeline) WithLogger(l observability.Logger) *Pipeline {
	if l != nil {
		p.logger = l
	}
	return p
}

func (p *Pipeline) WithTracer(t observability.Tracer) *Pipeline {
	if t != nil {
		p.tracer = t
	}
	return p
}

// Process redacts in and returns the new PDF.
func (p *Pipeline) Process(ctx context.Context, in []byte) ([]byte, error) {
	res, err := p.Run(ctx, in)
	if err != nil {
		return nil, err
	}
	return res.Output, nil
}

// Run redacts in and reports per-page counts and the geometry digest.
func (p *Pipeline) Run(ctx context.Context, in []byte) (*Result, error) {
	doc, pages, err := p.load(ctx, in)
	if err != nil {
		return nil, err
	}
	if len(pages) != doc.PageCount() {
		return nil, pdferr.Correspondence(doc.PageCount(), len(pages))
	}
	p.logger.Info("loaded", observability.Int("pages", len(pages)), observability.Int("runs", model.RunCount(pages)))

	_, span := p.tracer.StartSpan(ctx, observability.SpanMutate)
	res := &Result{Pages: make([]PageReport, 0, len(pages))}
	digest, _ := blake2b.New256(nil)
	for i, pr := range pages {
		if err := ctx.Err(); err != nil {
			span.SetError(err)
			span.Finish()
			return nil, err
		}
		page, err := doc.Page(i)
		if err != nil {
			span.SetError(err)
			span.Finish()
			return nil, fmt.Errorf("mutate: %w", err)
		}
		p.mutator.Apply(page, pr.Runs)
		_, height := page.Size()
		res.Pages = append(res.Pages, PageReport{Page: i, Runs: len(pr.Runs), Height: height})
		fmt.Fprintf(digest, "page %d\n", i)
		digest.Write(contentstream.Serialize(page.Operations()))
	}
	span.Finish()
	res.Digest = hex.EncodeToString(digest.Sum(nil))

	_, span = p.tracer.StartSpan(ctx, observability.SpanSave)
	out, err := doc.Bytes()
	if err != nil {
		span.SetError(err)
		span.Finish()
		return nil, fmt.Errorf("serialize: %w", err)
	}
	span.SetTag("bytes", len(out))
	span.Finish()
	res.Output = out
	p.logger.Info("redacted", observability.Int("pages", len(res.Pages)), observability.Int("runs", res.Runs()),
		observability.String("digest", res.Digest))
	return res, nil
}

// load parses the document and extracts runs from the same bytes, in parallel
// unless disabled. Both finish before the caller iterates pages.
func (p *Pipeline) load(ctx context.Context, in []byte) (Document, []model.PageRuns, error) {
	var (
		doc   Document
		pages []model.PageRuns
	)
	loadDoc := func(ctx context.Context) error {
		_, span := p.tracer.StartSpan(ctx, observability.SpanLoad)
		defer span.Finish()
		d, err := p.loader.Load(ctx, in)
		if err != nil {
			span.SetError(err)
			return fmt.Errorf("load: %w", err)
		}
		doc = d
		return nil
	}
	extract := func(ctx context.Context) error {
		_, span := p.tracer.StartSpan(ctx, observability.SpanExtract)
		defer span.Finish()
		runs, err := p.extractor.Extract(ctx, in)
		if err != nil {
			span.SetError(err)
			return fmt.Errorf("extract: %w", err)
		}
		pages = runs
		return nil
	}

	if !p.parallel {
		if err := loadDoc(ctx); err != nil {
			return nil, nil, err
		}
		if err := extract(ctx); err != nil {
			return nil, nil, err
		}
		return doc, pages, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loadDoc(gctx) })
	g.Go(func() error { return extract(gctx) })
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return doc, pages, nil
}

// DocumentLoader loads documents with the pdfcpu model.
type DocumentLoader struct {
	Config document.Config
}

func (l DocumentLoader) Load(ctx context.Context, data []byte) (Document, error) {
	d, err := document.Load(ctx, data, l.Config)
	if err != nil {
		return nil, err
	}
	return pdfDocument{d}, nil
}

type pdfDocument struct {
	*document.Document
}

func (d pdfDocument) Page(i int) (Page, error) {
	p, err := d.Document.Page(i)
	if err != nil {
		return nil, err
	}
	return p, nil
}
