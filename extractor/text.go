package extractor

import (
	"github.com/ledongthuc/pdf"

	"github.com/wudi/pdfredact/contentstream"
	"github.com/wudi/pdfredact/coords"
	"github.com/wudi/pdfredact/model"
)

// pageWalker feeds a page's content streams, and the forms they invoke,
// through a contentstream.Tracer and collects the runs it reports.
type pageWalker struct {
	page     pdf.Page
	maxDepth int
	tracer   *contentstream.Tracer
	runs     []model.TextRun
	err      error
}

func newPageWalker(page pdf.Page, maxDepth int) *pageWalker {
	w := &pageWalker{
		page:     page,
		maxDepth: maxDepth,
	}
	w.tracer = contentstream.NewTracer(resolver(page.Resources()))
	return w
}

func (w *pageWalker) walk() error {
	contents := w.page.V.Key("Contents")
	if contents.IsNull() {
		return nil
	}
	resources := w.page.Resources()
	if contents.Kind() != pdf.Array {
		w.interpret(contents, resources, 0)
		return w.err
	}
	// The streams of a Contents array form one logical stream; the tracer
	// carries state across them.
	for i := 0; i < contents.Len() && w.err == nil; i++ {
		w.interpret(contents.Index(i), resources, 0)
	}
	return w.err
}

func (w *pageWalker) interpret(strm pdf.Value, resources pdf.Value, depth int) {
	pdf.Interpret(strm, func(stk *pdf.Stack, op string) {
		operands := popOperands(stk)
		if w.err != nil {
			return
		}
		if op == "Do" {
			w.invokeForm(operands, resources, depth)
			return
		}
		run, shown, err := w.tracer.Exec(op, operands)
		if err != nil {
			w.err = err
			return
		}
		if shown {
			w.runs = append(w.runs, run)
		}
	})
}

// invokeForm descends into a form XObject with its matrix applied and its
// own resources in effect, restoring the state afterwards.
func (w *pageWalker) invokeForm(operands []contentstream.Operand, resources pdf.Value, depth int) {
	if len(operands) == 0 || depth >= w.maxDepth {
		return
	}
	name, ok := operands[len(operands)-1].(contentstream.NameOperand)
	if !ok {
		return
	}
	xobj := resources.Key("XObject").Key(name.Value)
	if xobj.Kind() != pdf.Stream || xobj.Key("Subtype").Name() != "Form" {
		return
	}
	formRes := xobj.Key("Resources")
	if formRes.IsNull() {
		formRes = resources
	}

	gs := w.tracer.GS
	base := gs.Depth()
	gs.Save()
	if m, ok := matrixValue(xobj.Key("Matrix")); ok {
		gs.CTM = m.Multiply(gs.CTM)
	}
	textState := w.tracer.TS
	prev := w.tracer.SetFonts(resolver(formRes))

	w.interpret(xobj, formRes, depth+1)

	w.tracer.SetFonts(prev)
	w.tracer.TS = textState
	for gs.Depth() > base {
		_ = gs.Restore()
	}
}

// resolver builds a font lookup over the Font dictionary of resources. Each
// resource dictionary gets its own cache: resource names are only unique
// within the dictionary that defines them.
func resolver(resources pdf.Value) contentstream.FontResolver {
	fontDict := resources.Key("Font")
	cache := make(map[string]*fontAdapter)
	return func(name string) contentstream.Font {
		if f, ok := cache[name]; ok {
			return f
		}
		v := fontDict.Key(name)
		if v.IsNull() {
			return nil
		}
		f := newFontAdapter(pdf.Font{V: v})
		cache[name] = f
		return f
	}
}

func popOperands(stk *pdf.Stack) []contentstream.Operand {
	n := stk.Len()
	if n == 0 {
		return nil
	}
	vals := make([]pdf.Value, n)
	for i := n - 1; i >= 0; i-- {
		vals[i] = stk.Pop()
	}
	out := make([]contentstream.Operand, 0, n)
	for _, v := range vals {
		if op := toOperand(v); op != nil {
			out = append(out, op)
		}
	}
	return out
}

func toOperand(v pdf.Value) contentstream.Operand {
	switch v.Kind() {
	case pdf.Integer, pdf.Real:
		return contentstream.NumberOperand{Value: v.Float64()}
	case pdf.Name:
		return contentstream.NameOperand{Value: v.Name()}
	case pdf.String:
		return contentstream.StringOperand{Value: []byte(v.RawString())}
	case pdf.Array:
		vals := make([]contentstream.Operand, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			if op := toOperand(v.Index(i)); op != nil {
				vals = append(vals, op)
			}
		}
		return contentstream.ArrayOperand{Values: vals}
	}
	return nil
}

func matrixValue(v pdf.Value) (coords.Matrix, bool) {
	if v.Kind() != pdf.Array || v.Len() != 6 {
		return coords.Matrix{}, false
	}
	var m coords.Matrix
	for i := range m {
		m[i] = v.Index(i).Float64()
	}
	return m, true
}
