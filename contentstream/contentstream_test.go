package contentstream

import (
	"math"
	"testing"
)

type fixedFont struct{ width float64 }

func (f fixedFont) Decode(raw []byte) string { return string(raw) }

func (f fixedFont) Glyphs(raw []byte) []Glyph {
	out := make([]Glyph, len(raw))
	for i, b := range raw {
		out[i] = Glyph{Width: f.width, Space: b == ' '}
	}
	return out
}

func fonts(m map[string]Font) FontResolver {
	return func(name string) Font { return m[name] }
}

func str(s string) StringOperand { return StringOperand{Value: []byte(s)} }

func mustExec(t *testing.T, tr *Tracer, op string, operands ...Operand) {
	t.Helper()
	if _, shown, err := tr.Exec(op, operands); err != nil || shown {
		t.Fatalf("%s: shown=%v err=%v", op, shown, err)
	}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestTracerTjPlacement(t *testing.T) {
	tr := NewTracer(fonts(map[string]Font{"F1": fixedFont{width: 800}}))
	mustExec(t, tr, "BT")
	mustExec(t, tr, "Tf", NameOperand{Value: "F1"}, NumberOperand{Value: 10})
	mustExec(t, tr, "Td", Num(72, 700)...)
	run, shown, err := tr.Exec("Tj", []Operand{str("Hello")})
	if err != nil || !shown {
		t.Fatalf("Tj: shown=%v err=%v", shown, err)
	}
	if run.Text != "Hello" || run.X != 72 || run.Y != 700 || !approx(run.Width, 40) || run.Height != 10 {
		t.Fatalf("unexpected run %+v", run)
	}

	// The text matrix advanced past "Hello".
	next, _, _ := tr.Exec("Tj", []Operand{str("")})
	if !approx(next.X, 112) || next.Y != 700 || next.Text != "" || next.Width != 0 {
		t.Fatalf("unexpected follow-up run %+v", next)
	}
}

func TestTracerAppliesCTMAndTm(t *testing.T) {
	tr := NewTracer(fonts(map[string]Font{"F1": fixedFont{width: 1000}}))
	mustExec(t, tr, "q")
	mustExec(t, tr, "cm", Num(2, 0, 0, 2, 10, 20)...)
	mustExec(t, tr, "BT")
	mustExec(t, tr, "Tf", NameOperand{Value: "F1"}, NumberOperand{Value: 5})
	mustExec(t, tr, "Tm", Num(1, 0, 0, 1, 30, 40)...)
	run, _, _ := tr.Exec("Tj", []Operand{str("ab")})
	// origin (30,40) scaled by 2 then shifted by (10,20)
	if run.X != 70 || run.Y != 100 {
		t.Fatalf("unexpected origin %+v", run)
	}
	if !approx(run.Width, 20) || !approx(run.Height, 10) {
		t.Fatalf("unexpected size %+v", run)
	}
	mustExec(t, tr, "ET")
	mustExec(t, tr, "Q")
	if tr.GS.CTM != [6]float64{1, 0, 0, 1, 0, 0} {
		t.Fatalf("CTM not restored: %v", tr.GS.CTM)
	}
}

func TestTracerTJAdjustmentsAndSpacing(t *testing.T) {
	tr := NewTracer(fonts(map[string]Font{"F1": fixedFont{width: 500}}))
	mustExec(t, tr, "BT")
	mustExec(t, tr, "Tf", NameOperand{Value: "F1"}, NumberOperand{Value: 10})
	mustExec(t, tr, "Tc", NumberOperand{Value: 1})
	mustExec(t, tr, "Tw", NumberOperand{Value: 2})
	run, _, err := tr.Exec("TJ", []Operand{ArrayOperand{Values: []Operand{
		str("a b"), NumberOperand{Value: -1000}, str("c"),
	}}})
	if err != nil {
		t.Fatalf("TJ: %v", err)
	}
	// 4 glyphs * (5 + 1) + 2 word spacing + 10 kerning
	if run.Text != "a bc" || !approx(run.Width, 36) {
		t.Fatalf("unexpected run %+v", run)
	}
}

func TestTracerLineOperators(t *testing.T) {
	tr := NewTracer(fonts(map[string]Font{"F1": fixedFont{width: 0}}))
	mustExec(t, tr, "BT")
	mustExec(t, tr, "Tf", NameOperand{Value: "F1"}, NumberOperand{Value: 12})
	mustExec(t, tr, "TD", Num(50, -14)...)
	mustExec(t, tr, "Td", Num(0, 600)...)
	mustExec(t, tr, "T*")
	run, _, _ := tr.Exec("'", []Operand{str("x")})
	// 600-14 = 586, then T* and ' each move down by leading 14
	if run.X != 50 || run.Y != 558 {
		t.Fatalf("unexpected position %+v", run)
	}
	run, _, _ = tr.Exec("\"", []Operand{NumberOperand{Value: 3}, NumberOperand{Value: 4}, str("y")})
	if run.Y != 544 || tr.GS.Text.WordSpacing != 3 || tr.GS.Text.CharSpacing != 4 {
		t.Fatalf("unexpected state after \": run=%+v text=%+v", run, tr.GS.Text)
	}
}

func TestTracerRiseAndHorizontalScale(t *testing.T) {
	tr := NewTracer(fonts(map[string]Font{"F1": fixedFont{width: 1000}}))
	mustExec(t, tr, "BT")
	mustExec(t, tr, "Tf", NameOperand{Value: "F1"}, NumberOperand{Value: 10})
	mustExec(t, tr, "Tz", NumberOperand{Value: 50})
	mustExec(t, tr, "Ts", NumberOperand{Value: 3})
	run, _, _ := tr.Exec("Tj", []Operand{str("ab")})
	if run.Y != 3 || !approx(run.Width, 10) {
		t.Fatalf("unexpected run %+v", run)
	}
}

func TestTracerUnknownFontFallsBack(t *testing.T) {
	tr := NewTracer(fonts(map[string]Font{}))
	mustExec(t, tr, "BT")
	mustExec(t, tr, "Tf", NameOperand{Value: "Missing"}, NumberOperand{Value: 10})
	run, _, _ := tr.Exec("Tj", []Operand{StringOperand{Value: []byte{'c', 'a', 'f', 0xe9}}})
	if run.Text != "café" || !approx(run.Width, 20) {
		t.Fatalf("unexpected fallback run %+v", run)
	}
}

func TestTracerRejectsMalformedShowOperators(t *testing.T) {
	tr := NewTracer(nil)
	if _, _, err := tr.Exec("Tj", nil); err == nil {
		t.Fatalf("expected error for Tj without operands")
	}
	if _, _, err := tr.Exec("TJ", []Operand{NumberOperand{Value: 1}}); err == nil {
		t.Fatalf("expected error for TJ with non-array operand")
	}
	if _, _, err := tr.Exec("\"", []Operand{str("x")}); err == nil {
		t.Fatalf("expected error for \" with one operand")
	}
}

func TestTracerIgnoresUnbalancedRestore(t *testing.T) {
	tr := NewTracer(nil)
	mustExec(t, tr, "Q")
	if tr.GS.Depth() != 0 {
		t.Fatalf("unexpected depth %d", tr.GS.Depth())
	}
}

func TestSerializeOperations(t *testing.T) {
	ops := []Operation{
		{Operator: "q"},
		{Operator: "rg", Operands: Num(1, 1, 1)},
		{Operator: "re", Operands: Num(72, 92, 40, 10.5)},
		{Operator: "Tf", Operands: []Operand{NameOperand{Value: "F1"}, NumberOperand{Value: 12}}},
		{Operator: "Tj", Operands: []Operand{StringOperand{Value: []byte("a(b)\\\xe9")}}},
		{Operator: "TJ", Operands: []Operand{ArrayOperand{Values: []Operand{str("x"), NumberOperand{Value: -0.25}}}}},
		{Operator: "Q"},
	}
	want := "q\n1 1 1 rg\n72 92 40 10.5 re\n/F1 12 Tf\n(a\\(b\\)\\\\\\351) Tj\n[(x) -0.25] TJ\nQ\n"
	if got := string(Serialize(ops)); got != want {
		t.Fatalf("unexpected serialization:\n%s\nwant:\n%s", got, want)
	}
	if Serialize(nil) != nil {
		t.Fatalf("expected nil for empty operation list")
	}
}

func TestSerializeEscapesNames(t *testing.T) {
	cases := map[string]string{
		"F1":      "/F1",
		"My Font": "/My#20Font",
		"a/b(c)#": "/a#2Fb#28c#29#23",
		"caf\xe9": "/caf#E9",
		"":        "/",
	}
	for in, want := range cases {
		op := Operation{Operator: "Tf", Operands: []Operand{NameOperand{Value: in}, NumberOperand{Value: 12}}}
		if got := string(Serialize([]Operation{op})); got != want+" 12 Tf\n" {
			t.Fatalf("name %q serialized as %q, want %q", in, got, want)
		}
	}
}

func TestFormatNumberAvoidsExponent(t *testing.T) {
	cases := map[float64]string{0: "0", -3: "-3", 1e-7: "0.0000001", 123456789: "123456789", 0.5: "0.5"}
	for in, want := range cases {
		if got := formatNumber(in); got != want {
			t.Fatalf("formatNumber(%v) = %q, want %q", in, got, want)
		}
	}
}
