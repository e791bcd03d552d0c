// Package model defines the records exchanged between the text extractor and
// the page mutator.
package model

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// TextRun is one text-showing operation of a page content stream.
// X and Y are the translation components of the run's placement transform in
// the extractor's coordinates; Width and Height are its reported glyph box.
type TextRun struct {
	Text   string  `json:"text"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Validate rejects runs that cannot be placed. Zero and negative sizes are
// allowed and drawn as-is downstream.
func (r TextRun) Validate() error {
	if !utf8.ValidString(r.Text) {
		return fmt.Errorf("text run %q: invalid UTF-8", r.Text)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{{"x", r.X}, {"y", r.Y}, {"width", r.Width}, {"height", r.Height}} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("text run %q: %s is not finite", r.Text, f.name)
		}
	}
	return nil
}

// PageRuns is the ordered run list for one page (Page is 0-based).
type PageRuns struct {
	Page int       `json:"page"`
	Runs []TextRun `json:"runs"`
}

// RunCount totals the runs across pages.
func RunCount(pages []PageRuns) int {
	n := 0
	for _, p := range pages {
		n += len(p.Runs)
	}
	return n
}
