package builder

import (
	"fmt"

	"github.com/wudi/pdfredact/contentstream"
)

// TextOptions configures text drawing.
type TextOptions struct {
	Font     string // resource name; empty selects the canvas default
	FontSize float64
	Color    Color
}

// RectOptions configures rectangle drawing. Rectangles are always filled.
type RectOptions struct {
	FillColor Color
}

// Color represents an RGB color.
type Color struct {
	R, G, B float64
}

var (
	White = Color{R: 1, G: 1, B: 1}
	Black = Color{}
)

// TextEncoder turns a Go string into the byte codes of the target font.
type TextEncoder func(string) ([]byte, error)

// Canvas records drawing calls as content-stream operations in user space
// (origin bottom-left). Operations are appended in call order.
type Canvas struct {
	FontName string
	Encode   TextEncoder

	ops []contentstream.Operation
	err error
}

// NewCanvas returns a canvas that selects fontName for text and encodes
// strings with enc (nil keeps the UTF-8 bytes).
func NewCanvas(fontName string, enc TextEncoder) *Canvas {
	return &Canvas{FontName: fontName, Encode: enc}
}

func (c *Canvas) DrawRectangle(x, y, width, height float64, opts RectOptions) {
	c.emit("q")
	c.emit("rg", colorOperands(opts.FillColor)...)
	c.emit("re", contentstream.Num(x, y, width, height)...)
	c.emit("f")
	c.emit("Q")
}

func (c *Canvas) DrawText(text string, x, y float64, opts TextOptions) {
	fontName := opts.Font
	if fontName == "" {
		fontName = c.FontName
	}
	size := opts.FontSize
	if size <= 0 {
		size = 12
	}
	code := []byte(text)
	if c.Encode != nil {
		enc, err := c.Encode(text)
		if err != nil {
			if c.err == nil {
				c.err = fmt.Errorf("encode %q: %w", text, err)
			}
			return
		}
		code = enc
	}
	c.emit("q")
	c.emit("BT")
	c.emit("Tf", contentstream.NameOperand{Value: fontName}, contentstream.NumberOperand{Value: size})
	c.emit("Tm", contentstream.Num(1, 0, 0, 1, x, y)...)
	c.emit("rg", colorOperands(opts.Color)...)
	c.emit("Tj", contentstream.StringOperand{Value: code})
	c.emit("ET")
	c.emit("Q")
}

// Operations returns the recorded operations.
func (c *Canvas) Operations() []contentstream.Operation { return c.ops }

// Err reports the first text that could not be encoded.
func (c *Canvas) Err() error { return c.err }

func (c *Canvas) emit(op string, operands ...contentstream.Operand) {
	c.ops = append(c.ops, contentstream.Operation{Operator: op, Operands: operands})
}

func colorOperands(col Color) []contentstream.Operand {
	return contentstream.Num(col.R, col.G, col.B)
}
