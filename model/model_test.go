package model

import (
	"math"
	"testing"
)

func TestTextRunValidate(t *testing.T) {
	ok := []TextRun{
		{Text: "Hello", X: 72, Y: 700, Width: 40, Height: 10},
		{Text: "", X: 0, Y: 0},
		{Text: "héllo 日本", X: -5, Y: 10, Width: -1, Height: 0},
	}
	for _, r := range ok {
		if err := r.Validate(); err != nil {
			t.Fatalf("unexpected error for %+v: %v", r, err)
		}
	}
	bad := []TextRun{
		{Text: "x", X: math.NaN()},
		{Text: "x", Width: math.Inf(1)},
		{Text: string([]byte{0xff, 0xfe})},
	}
	for _, r := range bad {
		if err := r.Validate(); err == nil {
			t.Fatalf("expected error for %+v", r)
		}
	}
}

func TestRunCount(t *testing.T) {
	pages := []PageRuns{
		{Page: 0, Runs: []TextRun{{Text: "a"}, {Text: "b"}}},
		{Page: 1},
		{Page: 2, Runs: []TextRun{{Text: "c"}}},
	}
	if got := RunCount(pages); got != 3 {
		t.Fatalf("RunCount = %d, want 3", got)
	}
}
