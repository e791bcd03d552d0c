package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/wudi/pdfredact/extractor"
	"github.com/wudi/pdfredact/model"
	"github.com/wudi/pdfredact/pdferr"
)

type options struct {
	pdfPath      string
	password     string
	maxFormDepth int
	pretty       bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "extract: %v\n", err)
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "extract: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: extract [flags] <pdf>\n")
		flag.PrintDefaults()
	}
	flag.BoolVar(&opts.pretty, "pretty", false, "Indent the JSON output")
	flag.StringVar(&opts.password, "password", "", "Password to open encrypted PDFs")
	flag.IntVar(&opts.maxFormDepth, "max-form-depth", extractor.DefaultMaxFormDepth, "Form XObject nesting limit (negative skips forms)")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return options{}, fmt.Errorf("missing pdf path")
	}
	opts.pdfPath = flag.Arg(0)
	return opts, nil
}

// run prints the text runs of every page as a JSON array of model.PageRuns.
func run(ctx context.Context, opts options, w io.Writer) error {
	data, err := os.ReadFile(opts.pdfPath)
	if err != nil {
		return pdferr.IO("read input", err)
	}
	ext := extractor.New(extractor.Config{
		MaxFormDepth: opts.maxFormDepth,
		Password:     opts.password,
	})
	pages, err := ext.Extract(ctx, data)
	if err != nil {
		return err
	}
	if pages == nil {
		pages = []model.PageRuns{}
	}
	enc := json.NewEncoder(w)
	if opts.pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(pages); err != nil {
		return fmt.Errorf("encode runs: %w", err)
	}
	return nil
}
