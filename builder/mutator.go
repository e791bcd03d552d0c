// Package builder paints redactions onto pages: an opaque rectangle over every
// text run and a same-length filler string on top of it.
package builder

import (
	"unicode/utf8"

	"github.com/wudi/pdfredact/coords"
	"github.com/wudi/pdfredact/model"
	"github.com/wudi/pdfredact/observability"
)

// Page is the mutable side of one page. Coordinates are user space with the
// origin at the bottom-left corner.
type Page interface {
	Size() (width, height float64)
	DrawRectangle(x, y, width, height float64, opts RectOptions)
	DrawText(text string, x, y float64, opts TextOptions)
}

const (
	DefaultFiller   = 'h'
	DefaultFontSize = 12
)

// Config controls the replacement text.
type Config struct {
	Filler   rune
	FontSize float64
	// Font names the page font resource for filler text; empty uses the
	// page's default font.
	Font   string
	Logger observability.Logger
}

// Mutator applies runs to pages.
type Mutator struct {
	filler rune
	size   float64
	font   string
	log    observability.Logger
}

func NewMutator(cfg Config) *Mutator {
	m := &Mutator{filler: cfg.Filler, size: cfg.FontSize, font: cfg.Font, log: cfg.Logger}
	if m.filler == 0 {
		m.filler = DefaultFiller
	}
	if m.size <= 0 {
		m.size = DefaultFontSize
	}
	if m.log == nil {
		m.log = observability.NopLogger{}
	}
	return m
}

// Apply covers every run with a white rectangle and draws the filler text at
// the same origin. Runs are taken as-is: zero or negative sizes and
// off-page positions are passed through unchanged.
func (m *Mutator) Apply(page Page, runs []model.TextRun) {
	_, height := page.Size()
	for _, run := range runs {
		y := coords.ToDrawY(height, run.Y)
		page.DrawRectangle(run.X, y, run.Width, run.Height, RectOptions{FillColor: White})
		page.DrawText(FillerText(run.Text, m.filler), run.X, y, TextOptions{
			Font:     m.font,
			FontSize: m.size,
			Color:    Black,
		})
	}
	m.log.Debug("page mutated", observability.Int("runs", len(runs)), observability.Float64("height", height))
}

// FillerText returns one filler rune for every rune of text.
func FillerText(text string, filler rune) string {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return ""
	}
	width := utf8.RuneLen(filler)
	if width < 0 {
		width = utf8.UTFMax
	}
	buf := make([]byte, 0, n*width)
	for i := 0; i < n; i++ {
		buf = utf8.AppendRune(buf, filler)
	}
	return string(buf)
}
