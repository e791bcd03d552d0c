package builder

import (
	"testing"
	"unicode/utf8"

	"github.com/wudi/pdfredact/model"
)

type rectCall struct {
	x, y, w, h float64
	opts       RectOptions
}

type textCall struct {
	text string
	x, y float64
	opts TextOptions
}

type fakePage struct {
	width, height float64
	rects         []rectCall
	texts         []textCall
}

func (p *fakePage) Size() (float64, float64) { return p.width, p.height }

func (p *fakePage) DrawRectangle(x, y, w, h float64, opts RectOptions) {
	p.rects = append(p.rects, rectCall{x, y, w, h, opts})
}

func (p *fakePage) DrawText(text string, x, y float64, opts TextOptions) {
	p.texts = append(p.texts, textCall{text, x, y, opts})
}

func TestFillerTextPreservesRuneCount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Hello", "hhhhh"},
		{"héllo", "hhhhh"},
		{"日本語", "hhh"},
		{"a b", "hhh"},
	}
	for _, tc := range cases {
		got := FillerText(tc.in, 'h')
		if got != tc.want {
			t.Fatalf("FillerText(%q) = %q, want %q", tc.in, got, tc.want)
		}
		if utf8.RuneCountInString(got) != utf8.RuneCountInString(tc.in) {
			t.Fatalf("rune count changed for %q", tc.in)
		}
	}
}

func TestFillerTextCustomRune(t *testing.T) {
	if got := FillerText("abc", 'é'); got != "ééé" {
		t.Fatalf("unexpected filler %q", got)
	}
}

func TestApplyHelloExample(t *testing.T) {
	page := &fakePage{width: 612, height: 792}
	NewMutator(Config{}).Apply(page, []model.TextRun{{Text: "Hello", X: 72, Y: 700, Width: 40, Height: 10}})

	if len(page.rects) != 1 || len(page.texts) != 1 {
		t.Fatalf("expected one rect and one text, got %d/%d", len(page.rects), len(page.texts))
	}
	r := page.rects[0]
	if r.x != 72 || r.y != 92 || r.w != 40 || r.h != 10 {
		t.Fatalf("unexpected rect %+v", r)
	}
	if r.opts.FillColor != White {
		t.Fatalf("rectangle must be filled white: %+v", r.opts)
	}
	txt := page.texts[0]
	if txt.text != "hhhhh" || txt.x != 72 || txt.y != 92 || txt.opts.FontSize != 12 || txt.opts.Color != Black {
		t.Fatalf("unexpected text %+v", txt)
	}
}

func TestApplyCoversEveryRunAtSameOrigin(t *testing.T) {
	runs := []model.TextRun{
		{Text: "a", X: 10, Y: 20, Width: 5, Height: 6},
		{Text: "", X: 0, Y: 0, Width: 0, Height: 0},
		{Text: "xyz", X: 300, Y: 400, Width: 30, Height: 12},
	}
	page := &fakePage{width: 300, height: 500}
	NewMutator(Config{Filler: 'x', FontSize: 9}).Apply(page, runs)

	if len(page.rects) != len(runs) || len(page.texts) != len(runs) {
		t.Fatalf("expected %d draws, got %d/%d", len(runs), len(page.rects), len(page.texts))
	}
	for i, run := range runs {
		r, txt := page.rects[i], page.texts[i]
		if r.x != run.X || r.y != 500-run.Y || r.w != run.Width || r.h != run.Height {
			t.Fatalf("run %d rect %+v does not cover %+v", i, r, run)
		}
		if txt.x != r.x || txt.y != r.y {
			t.Fatalf("run %d text origin differs from rect origin", i)
		}
		if utf8.RuneCountInString(txt.text) != utf8.RuneCountInString(run.Text) || txt.opts.FontSize != 9 {
			t.Fatalf("run %d unexpected text %+v", i, txt)
		}
	}
}

func TestApplyUsesEachPageHeight(t *testing.T) {
	run := []model.TextRun{{Text: "t", X: 1, Y: 100, Width: 1, Height: 1}}
	for _, h := range []float64{792, 842, 100, 50} {
		page := &fakePage{width: 10, height: h}
		NewMutator(Config{}).Apply(page, run)
		if got := page.rects[0].y; got != h-100 {
			t.Fatalf("height %v: drawY = %v, want %v", h, got, h-100)
		}
	}
}

func TestApplyPassesDegenerateValuesThrough(t *testing.T) {
	page := &fakePage{width: 100, height: 100}
	NewMutator(Config{}).Apply(page, []model.TextRun{{Text: "q", X: -5, Y: 250, Width: -3, Height: 0}})
	r := page.rects[0]
	if r.x != -5 || r.y != -150 || r.w != -3 || r.h != 0 {
		t.Fatalf("values were altered: %+v", r)
	}
}

func TestApplyNoRunsDrawsNothing(t *testing.T) {
	page := &fakePage{width: 100, height: 100}
	NewMutator(Config{}).Apply(page, nil)
	if len(page.rects) != 0 || len(page.texts) != 0 {
		t.Fatalf("expected no draws")
	}
}
