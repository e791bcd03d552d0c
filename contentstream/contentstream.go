// Package contentstream models content-stream operations and the graphics and
// text state needed to place text-showing operators on a page.
package contentstream

import (
	"errors"

	"github.com/wudi/pdfredact/coords"
)

// Glyph is one character code of a shown string.
type Glyph struct {
	Width float64 // glyph space units (1/1000 em)
	Space bool    // single-byte code 32, which receives word spacing
}

// Font decodes shown strings and reports glyph advances.
type Font interface {
	Decode(raw []byte) string
	Glyphs(raw []byte) []Glyph
}

// FontResolver maps a resource name from a Tf operator to a font.
// It returns nil when the name is unknown.
type FontResolver func(name string) Font

// TextParams is the part of the text state saved and restored by q/Q.
type TextParams struct {
	Font        Font
	FontName    string
	Size        float64
	CharSpacing float64
	WordSpacing float64
	HScale      float64 // Tz / 100
	Leading     float64
	Rise        float64
}

type GraphicsState struct {
	CTM   coords.Matrix
	Text  TextParams
	stack []GraphicsState
}

func NewGraphicsState() *GraphicsState {
	return &GraphicsState{
		CTM:  coords.Identity(),
		Text: TextParams{HScale: 1},
	}
}

func (gs *GraphicsState) Save() {
	clone := *gs
	clone.stack = nil
	gs.stack = append(gs.stack, clone)
}

func (gs *GraphicsState) Restore() error {
	n := len(gs.stack)
	if n == 0 {
		return errors.New("state stack empty")
	}
	saved := gs.stack[:n-1]
	*gs = gs.stack[n-1]
	gs.stack = saved
	return nil
}

// Depth reports how many states are saved.
func (gs *GraphicsState) Depth() int { return len(gs.stack) }

// TextState holds the matrices of the current text object.
type TextState struct {
	TextMatrix     coords.Matrix
	TextLineMatrix coords.Matrix
}

func (ts *TextState) Reset() {
	ts.TextMatrix = coords.Identity()
	ts.TextLineMatrix = coords.Identity()
}

func (ts *TextState) moveLine(tx, ty float64) {
	ts.TextLineMatrix = coords.Translate(tx, ty).Multiply(ts.TextLineMatrix)
	ts.TextMatrix = ts.TextLineMatrix
}
