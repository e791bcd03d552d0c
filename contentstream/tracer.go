package contentstream

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/wudi/pdfredact/coords"
	"github.com/wudi/pdfredact/model"
)

// DefaultGlyphWidth is used when a font reports no width for a code.
const DefaultGlyphWidth = 500

// Tracer executes text and graphics state operators virtually and reports one
// text run per text-showing operator.
type Tracer struct {
	GS    *GraphicsState
	TS    TextState
	fonts FontResolver
}

func NewTracer(fonts FontResolver) *Tracer {
	t := &Tracer{GS: NewGraphicsState(), fonts: fonts}
	t.TS.Reset()
	return t
}

// SetFonts swaps the font resolver and returns the previous one, so nested
// form XObjects can use their own resources.
func (t *Tracer) SetFonts(fonts FontResolver) FontResolver {
	prev := t.fonts
	t.fonts = fonts
	return prev
}

// Exec applies one operator. When the operator shows text, the resulting run
// is returned and the second result is true.
func (t *Tracer) Exec(op string, operands []Operand) (model.TextRun, bool, error) {
	gs := t.GS
	switch op {
	case "q":
		gs.Save()
	case "Q":
		// Unbalanced Q is common in the wild and ignored.
		_ = gs.Restore()
	case "cm":
		if m, ok := matrixOperands(operands); ok {
			gs.CTM = m.Multiply(gs.CTM)
		}
	case "BT":
		t.TS.Reset()
	case "ET":
	case "Tf":
		if len(operands) >= 2 {
			if name, ok := operands[len(operands)-2].(NameOperand); ok {
				gs.Text.FontName = name.Value
				gs.Text.Font = nil
				if t.fonts != nil {
					gs.Text.Font = t.fonts(name.Value)
				}
			}
			gs.Text.Size = operandToFloat(operands[len(operands)-1])
		}
	case "Tc":
		if v, ok := lastFloat(operands); ok {
			gs.Text.CharSpacing = v
		}
	case "Tw":
		if v, ok := lastFloat(operands); ok {
			gs.Text.WordSpacing = v
		}
	case "Tz":
		if v, ok := lastFloat(operands); ok {
			gs.Text.HScale = v / 100
		}
	case "TL":
		if v, ok := lastFloat(operands); ok {
			gs.Text.Leading = v
		}
	case "Ts":
		if v, ok := lastFloat(operands); ok {
			gs.Text.Rise = v
		}
	case "Td", "TD":
		if len(operands) >= 2 {
			tx := operandToFloat(operands[len(operands)-2])
			ty := operandToFloat(operands[len(operands)-1])
			if op == "TD" {
				gs.Text.Leading = -ty
			}
			t.TS.moveLine(tx, ty)
		}
	case "Tm":
		if m, ok := matrixOperands(operands); ok {
			t.TS.TextLineMatrix = m
			t.TS.TextMatrix = m
		}
	case "T*":
		t.TS.moveLine(0, -gs.Text.Leading)
	case "Tj":
		if len(operands) == 0 {
			return model.TextRun{}, false, fmt.Errorf("%s: missing string operand", op)
		}
		return t.show([]Operand{operands[len(operands)-1]}), true, nil
	case "'":
		if len(operands) == 0 {
			return model.TextRun{}, false, fmt.Errorf("%s: missing string operand", op)
		}
		t.TS.moveLine(0, -gs.Text.Leading)
		return t.show([]Operand{operands[len(operands)-1]}), true, nil
	case "\"":
		if len(operands) < 3 {
			return model.TextRun{}, false, fmt.Errorf("%s: expected 3 operands, got %d", op, len(operands))
		}
		n := len(operands)
		gs.Text.WordSpacing = operandToFloat(operands[n-3])
		gs.Text.CharSpacing = operandToFloat(operands[n-2])
		t.TS.moveLine(0, -gs.Text.Leading)
		return t.show([]Operand{operands[n-1]}), true, nil
	case "TJ":
		if len(operands) == 0 {
			return model.TextRun{}, false, fmt.Errorf("%s: missing array operand", op)
		}
		arr, isArr := operands[len(operands)-1].(ArrayOperand)
		if !isArr {
			return model.TextRun{}, false, fmt.Errorf("%s: operand is %s, not array", op, operands[len(operands)-1].Type())
		}
		return t.show(arr.Values), true, nil
	}
	return model.TextRun{}, false, nil
}

// show places the given TJ-style elements (strings and numeric adjustments)
// and advances the text matrix past them.
func (t *Tracer) show(elems []Operand) model.TextRun {
	p := t.GS.Text
	font := p.Font
	if font == nil {
		font = fallbackFont{}
	}

	// The run starts at the text space origin lifted by the rise.
	space := t.TS.TextMatrix.Multiply(t.GS.CTM)
	origin := space.Transform(coords.Point{Y: p.Rise})

	var text strings.Builder
	advance := 0.0
	for _, el := range elems {
		switch v := el.(type) {
		case StringOperand:
			text.WriteString(font.Decode(v.Value))
			for _, g := range font.Glyphs(v.Value) {
				w := g.Width/1000*p.Size + p.CharSpacing
				if g.Space {
					w += p.WordSpacing
				}
				advance += w * p.HScale
			}
		case NumberOperand:
			advance -= v.Value / 1000 * p.Size * p.HScale
		}
	}

	run := model.TextRun{
		Text:   text.String(),
		X:      origin.X,
		Y:      origin.Y,
		Width:  advance * space.ScaleX(),
		Height: p.Size * space.ScaleY(),
	}
	t.TS.TextMatrix = coords.Translate(advance, 0).Multiply(t.TS.TextMatrix)
	return run
}

// fallbackFont treats shown bytes as WinAnsi when no font is selected.
type fallbackFont struct{}

func (fallbackFont) Decode(raw []byte) string {
	out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}

func (fallbackFont) Glyphs(raw []byte) []Glyph {
	glyphs := make([]Glyph, len(raw))
	for i, b := range raw {
		glyphs[i] = Glyph{Width: DefaultGlyphWidth, Space: b == ' '}
	}
	return glyphs
}

// FallbackFont returns the font used when Tf names an unknown resource.
func FallbackFont() Font { return fallbackFont{} }

func matrixOperands(ops []Operand) (coords.Matrix, bool) {
	if len(ops) < 6 {
		return coords.Matrix{}, false
	}
	ops = ops[len(ops)-6:]
	var m coords.Matrix
	for i := range m {
		m[i] = operandToFloat(ops[i])
	}
	return m, true
}

func lastFloat(ops []Operand) (float64, bool) {
	if len(ops) == 0 {
		return 0, false
	}
	return operandToFloat(ops[len(ops)-1]), true
}

func operandToFloat(op Operand) float64 {
	if n, ok := op.(NumberOperand); ok {
		return n.Value
	}
	return 0
}
