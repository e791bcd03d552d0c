// Package extractor pulls positioned text runs out of a PDF, one run per
// text-showing operator, in content-stream order.
package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/wudi/pdfredact/model"
	"github.com/wudi/pdfredact/observability"
	"github.com/wudi/pdfredact/pdferr"
)

// DefaultMaxFormDepth bounds nesting of form XObjects invoked with Do.
const DefaultMaxFormDepth = 8

type Config struct {
	// MaxFormDepth limits form XObject recursion; 0 uses DefaultMaxFormDepth
	// and a negative value disables descending into forms.
	MaxFormDepth int
	Password     string
	Logger       observability.Logger
}

// Extractor reads text runs with its own parse of the input bytes.
type Extractor struct {
	cfg    Config
	logger observability.Logger
}

func New(cfg Config) *Extractor {
	if cfg.MaxFormDepth == 0 {
		cfg.MaxFormDepth = DefaultMaxFormDepth
	}
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &Extractor{cfg: cfg, logger: logger}
}

// Extract returns the run list of every page, index-aligned with page order.
// It fails with a load error when data is not a readable PDF and with a parse
// error when any page cannot be interpreted; no partial result is returned.
func (e *Extractor) Extract(ctx context.Context, data []byte) ([]model.PageRuns, error) {
	r, err := e.open(data)
	if err != nil {
		return nil, pdferr.Load("open pdf for text extraction", err)
	}
	n, err := pageCount(r)
	if err != nil {
		return nil, pdferr.Load("count pages", err)
	}
	out := make([]model.PageRuns, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		runs, err := e.extractPage(r.Page(i + 1))
		if err != nil {
			return nil, pdferr.Parse("extract text", i, err)
		}
		e.logger.Debug("page text extracted", observability.Int("page", i), observability.Int("runs", len(runs)))
		out = append(out, model.PageRuns{Page: i, Runs: runs})
	}
	return out, nil
}

func (e *Extractor) open(data []byte) (r *pdf.Reader, err error) {
	if len(data) == 0 {
		return nil, errors.New("empty input")
	}
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, fmt.Errorf("malformed pdf: %v", p)
		}
	}()
	rd := bytes.NewReader(data)
	if e.cfg.Password != "" {
		pw := e.cfg.Password
		tried := false
		return pdf.NewReaderEncrypted(rd, int64(len(data)), func() string {
			if tried {
				return ""
			}
			tried = true
			return pw
		})
	}
	return pdf.NewReader(rd, int64(len(data)))
}

func pageCount(r *pdf.Reader) (n int, err error) {
	defer func() {
		if p := recover(); p != nil {
			n, err = 0, fmt.Errorf("malformed page tree: %v", p)
		}
	}()
	return r.NumPage(), nil
}

// extractPage interprets one page. The underlying parser reports malformed
// content by panicking, so panics are turned into errors here.
func (e *Extractor) extractPage(page pdf.Page) (runs []model.TextRun, err error) {
	defer func() {
		if p := recover(); p != nil {
			runs, err = nil, fmt.Errorf("malformed content stream: %v", p)
		}
	}()
	if page.V.IsNull() {
		return nil, errors.New("page object missing")
	}
	w := newPageWalker(page, e.cfg.MaxFormDepth)
	if err := w.walk(); err != nil {
		return nil, err
	}
	for _, run := range w.runs {
		if err := run.Validate(); err != nil {
			return nil, err
		}
	}
	return w.runs, nil
}
