// Package document is the mutable side of the redactor: a pdfcpu model of the
// input whose pages accept drawing calls and which serializes back to PDF.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/text/encoding/charmap"

	"github.com/wudi/pdfredact/builder"
	"github.com/wudi/pdfredact/observability"
	"github.com/wudi/pdfredact/pdferr"
)

// DefaultBaseFont is the standard font used for drawn text.
const DefaultBaseFont = "Helvetica"

// Config controls loading.
type Config struct {
	Password string
	// Validate runs pdfcpu's relaxed validation after reading.
	Validate bool
	// BaseFont overrides DefaultBaseFont; see StandardFont.
	BaseFont string
	Logger   observability.Logger
}

// Document wraps a pdfcpu context. Pages are created on demand and only pages
// that received drawing calls are rewritten on save.
type Document struct {
	ctx      *model.Context
	baseFont string
	log      observability.Logger

	pages    map[int]*Page
	fontRef  *types.IndirectRef
	wrapRefs [2]*types.IndirectRef
}

var disableConfigDir sync.Once

// Load parses data into a mutable document.
func Load(ctx context.Context, data []byte, cfg Config) (doc *Document, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false
	if cfg.Password != "" {
		conf.UserPW = cfg.Password
	}

	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, pdferr.Load("read document", fmt.Errorf("panic: %v", r))
		}
	}()

	pctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, pdferr.Load("read document", err)
	}
	if cfg.Validate {
		if err := api.ValidateContext(pctx); err != nil {
			return nil, pdferr.Load("validate document", err)
		}
	}
	if err := pctx.EnsurePageCount(); err != nil {
		return nil, pdferr.Load("count pages", err)
	}

	d := &Document{
		ctx:      pctx,
		baseFont: cfg.BaseFont,
		log:      cfg.Logger,
		pages:    make(map[int]*Page),
	}
	if d.baseFont == "" {
		d.baseFont = DefaultBaseFont
	}
	if !StandardFont(d.baseFont) {
		return nil, pdferr.Load("select font", fmt.Errorf("%q is not a standard Latin font", d.baseFont))
	}
	if d.log == nil {
		d.log = observability.NopLogger{}
	}
	d.log.Debug("document loaded", observability.Int("pages", pctx.PageCount))
	return d, nil
}

func (d *Document) PageCount() int { return d.ctx.PageCount }

// Page returns the page at 0-based index i. Repeated calls return the same
// page so drawing accumulates.
func (d *Document) Page(i int) (*Page, error) {
	if i < 0 || i >= d.PageCount() {
		return nil, pdferr.Parse("page", i, fmt.Errorf("index out of range [0,%d)", d.PageCount()))
	}
	if p, ok := d.pages[i]; ok {
		return p, nil
	}
	dict, _, inh, err := d.ctx.PageDict(i+1, false)
	if err != nil {
		return nil, pdferr.Parse("page dict", i, err)
	}
	if dict == nil || inh == nil || inh.MediaBox == nil {
		return nil, pdferr.Parse("page dict", i, errors.New("missing media box"))
	}
	fontName, err := d.freeFontName(dict, inh)
	if err != nil {
		return nil, pdferr.Parse("page resources", i, err)
	}
	p := &Page{
		index:  i,
		width:  inh.MediaBox.Width(),
		height: inh.MediaBox.Height(),
		dict:   dict,
		inh:    inh,
		canvas: builder.NewCanvas(fontName, encodeWinAnsi),
	}
	d.pages[i] = p
	return p, nil
}

// WriteTo commits pending drawing and serializes the document.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	if err := d.commit(); err != nil {
		return 0, err
	}
	cw := &countingWriter{w: w}
	if err := api.WriteContext(d.ctx, cw); err != nil {
		return cw.n, pdferr.IO("write document", err)
	}
	return cw.n, nil
}

// Bytes returns the serialized document.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

var winAnsi = charmap.Windows1252

func encodeWinAnsi(s string) ([]byte, error) {
	return winAnsi.NewEncoder().Bytes([]byte(s))
}

// latinFonts are the standard 14 fonts minus Symbol and ZapfDingbats, which
// do not use WinAnsiEncoding.
var latinFonts = map[string]bool{
	"Courier": true, "Courier-Bold": true, "Courier-Oblique": true, "Courier-BoldOblique": true,
	"Helvetica": true, "Helvetica-Bold": true, "Helvetica-Oblique": true, "Helvetica-BoldOblique": true,
	"Times-Roman": true, "Times-Bold": true, "Times-Italic": true, "Times-BoldItalic": true,
}

// StandardFont reports whether name can be written as drawn text's font
// without embedding: a standard Type1 font that takes WinAnsiEncoding.
func StandardFont(name string) bool { return latinFonts[name] }

// Encodable reports whether every rune of s exists in the default font's
// WinAnsi encoding.
func Encodable(s string) bool {
	_, err := encodeWinAnsi(s)
	return err == nil
}
