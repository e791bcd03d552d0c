package extractor

import (
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/wudi/pdfredact/contentstream"
)

// fontAdapter exposes a font dictionary to the tracer: decoding goes through
// the parser's encoder (ToUnicode or named encoding), advances through
// /Widths for simple fonts and /W + /DW for composite fonts.
type fontAdapter struct {
	enc       pdf.TextEncoding
	composite bool

	firstChar    int
	widths       []float64
	missingWidth float64

	cidWidths    map[int]float64
	defaultWidth float64
}

func newFontAdapter(f pdf.Font) *fontAdapter {
	a := &fontAdapter{enc: f.Encoder()}
	if f.V.Key("Subtype").Name() == "Type0" {
		a.composite = true
		a.defaultWidth = 1000
		desc := f.V.Key("DescendantFonts").Index(0)
		if dw := desc.Key("DW"); !dw.IsNull() {
			a.defaultWidth = dw.Float64()
		}
		a.cidWidths = parseCIDWidths(desc.Key("W"))
		return a
	}
	a.firstChar = int(f.V.Key("FirstChar").Int64())
	ws := f.V.Key("Widths")
	for i := 0; i < ws.Len(); i++ {
		a.widths = append(a.widths, ws.Index(i).Float64())
	}
	a.missingWidth = contentstream.DefaultGlyphWidth
	if mw := f.V.Key("FontDescriptor").Key("MissingWidth"); !mw.IsNull() && mw.Float64() > 0 {
		a.missingWidth = mw.Float64()
	}
	return a
}

// Decode maps shown codes to text. Encodings the parser does not know
// (StandardEncoding, predefined CMaps) come back as raw bytes; those are
// decoded one rune per code instead so the character count survives.
func (a *fontAdapter) Decode(raw []byte) string {
	if a.enc == nil {
		return contentstream.FallbackFont().Decode(raw)
	}
	text := a.enc.Decode(string(raw))
	if utf8.ValidString(text) {
		return text
	}
	if a.composite {
		return strings.Repeat(string(utf8.RuneError), (len(raw)+1)/2)
	}
	return contentstream.FallbackFont().Decode(raw)
}

func (a *fontAdapter) Glyphs(raw []byte) []contentstream.Glyph {
	if a.composite {
		out := make([]contentstream.Glyph, 0, (len(raw)+1)/2)
		for i := 0; i < len(raw); i += 2 {
			code := int(raw[i]) << 8
			if i+1 < len(raw) {
				code |= int(raw[i+1])
			}
			w, ok := a.cidWidths[code]
			if !ok {
				w = a.defaultWidth
			}
			out = append(out, contentstream.Glyph{Width: w})
		}
		return out
	}
	out := make([]contentstream.Glyph, len(raw))
	for i, b := range raw {
		out[i] = contentstream.Glyph{Width: a.simpleWidth(int(b)), Space: b == ' '}
	}
	return out
}

func (a *fontAdapter) simpleWidth(code int) float64 {
	idx := code - a.firstChar
	if idx < 0 || idx >= len(a.widths) {
		return a.missingWidth
	}
	return a.widths[idx]
}

// parseCIDWidths reads a /W array: "c [w1 w2 ...]" assigns consecutive CIDs
// starting at c, "cFirst cLast w" assigns w to the whole range.
func parseCIDWidths(w pdf.Value) map[int]float64 {
	out := make(map[int]float64)
	if w.Kind() != pdf.Array {
		return out
	}
	for i := 0; i < w.Len(); {
		first := int(w.Index(i).Int64())
		if i+1 >= w.Len() {
			break
		}
		next := w.Index(i + 1)
		if next.Kind() == pdf.Array {
			for j := 0; j < next.Len(); j++ {
				out[first+j] = next.Index(j).Float64()
			}
			i += 2
			continue
		}
		if i+2 >= w.Len() {
			break
		}
		last := int(next.Int64())
		width := w.Index(i + 2).Float64()
		for c := first; c <= last && c-first < 0xffff; c++ {
			out[c] = width
		}
		i += 3
	}
	return out
}
