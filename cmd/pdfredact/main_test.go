package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/wudi/pdfredact/internal/testpdf"
	"github.com/wudi/pdfredact/pdferr"
)

func TestParseFlagsOverridesEnvironment(t *testing.T) {
	t.Setenv("PDFREDACT_FILLER", "x")
	t.Setenv("PDFREDACT_FONT_SIZE", "8")

	opts, err := parseFlags([]string{"-font-size", "10", "-sequential", "a.pdf", "b.pdf"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg := opts.cfg
	if cfg.Filler != 'x' || cfg.FontSize != 10 || cfg.ParallelLoad || cfg.Input != "a.pdf" || cfg.Output != "b.pdf" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestParseFlagsRejectsBadInput(t *testing.T) {
	for _, args := range [][]string{
		{"-filler", "ab"},
		{"-font-size", "0"},
		{"a", "b", "c"},
	} {
		if _, err := parseFlags(args); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestRunWritesOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.pdf")
	out := filepath.Join(dir, "out.pdf")
	data := testpdf.Build(testpdf.Page{
		Width: 612, Height: 792,
		Fonts:    map[string]string{"F1": testpdf.FixedWidthFont(32, 255, 800)},
		Contents: []string{"BT /F1 10 Tf 72 700 Td (Hello) Tj ET"},
	})
	if err := os.WriteFile(in, data, 0o600); err != nil {
		t.Fatalf("write input: %v", err)
	}
	opts, err := parseFlags([]string{"-log-level", "error", in, out})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := run(context.Background(), opts); err != nil {
		t.Fatalf("run: %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil || len(got) == 0 {
		t.Fatalf("output missing: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}

func TestRunMissingInputIsIOError(t *testing.T) {
	dir := t.TempDir()
	opts, err := parseFlags([]string{"-log-level", "error", filepath.Join(dir, "nope.pdf"), filepath.Join(dir, "out.pdf")})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	err = run(context.Background(), opts)
	if !pdferr.IsKind(err, pdferr.KindIO) {
		t.Fatalf("expected IO error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "out.pdf")); !os.IsNotExist(statErr) {
		t.Fatalf("output must not exist after failure")
	}
}

func TestWriteAtomicFailsForMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.pdf")
	if err := writeAtomic(path, []byte("x")); err == nil {
		t.Fatalf("expected error writing into a missing directory")
	}
}
