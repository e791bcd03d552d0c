package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/wudi/pdfredact/config"
	"github.com/wudi/pdfredact/observability"
	"github.com/wudi/pdfredact/pdferr"
	"github.com/wudi/pdfredact/pipeline"
)

type options struct {
	cfg config.Config
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdfredact: %v\n", err)
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "pdfredact: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags layers flags over the environment: defaults, then .env files
// and PDFREDACT_* variables, then explicitly set flags and positional paths.
func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("pdfredact", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: pdfredact [flags] [input.pdf [output.pdf]]\n")
		fs.PrintDefaults()
	}
	def := config.Default()
	envFile := fs.String("env", "", "Load settings from this .env file")
	filler := fs.String("filler", string(def.Filler), "Replacement character")
	fontSize := fs.Float64("font-size", def.FontSize, "Replacement text size in points")
	sequential := fs.Bool("sequential", false, "Load the document and extract text one after the other")
	validate := fs.Bool("validate", false, "Validate the input with pdfcpu before redacting")
	logLevel := fs.String("log-level", def.LogLevel, "debug, info, warn or error")
	password := fs.String("password", "", "Password to open encrypted PDFs")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 2 {
		fs.Usage()
		return options{}, fmt.Errorf("too many arguments")
	}

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return options{}, err
	}

	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "filler":
			r, err := config.ParseFiller(*filler)
			if err != nil {
				flagErr = fmt.Errorf("-filler: %w", err)
				return
			}
			cfg.Filler = r
		case "font-size":
			cfg.FontSize = *fontSize
		case "sequential":
			cfg.ParallelLoad = !*sequential
		case "validate":
			cfg.ValidatePDF = *validate
		case "log-level":
			cfg.LogLevel = *logLevel
		case "password":
			cfg.Password = *password
		}
	})
	if flagErr != nil {
		return options{}, flagErr
	}
	if fs.NArg() > 0 {
		cfg.Input = fs.Arg(0)
	}
	if fs.NArg() > 1 {
		cfg.Output = fs.Arg(1)
	}
	if err := cfg.Validate(); err != nil {
		return options{}, err
	}
	return options{cfg: cfg}, nil
}

func run(ctx context.Context, opts options) error {
	cfg := opts.cfg
	logger := observability.NewTextLogger(os.Stderr, cfg.LogLevel).
		With(observability.String("run_id", uuid.NewString()))

	in, err := os.ReadFile(cfg.Input)
	if err != nil {
		return pdferr.IO("read input", err)
	}
	logger.Info("redacting", observability.String("input", cfg.Input), observability.Int("bytes", len(in)))

	res, err := pipeline.FromConfig(cfg, logger).Run(ctx, in)
	if err != nil {
		logger.Error("redaction failed", observability.Error("error", err))
		return err
	}
	if err := writeAtomic(cfg.Output, res.Output); err != nil {
		return pdferr.IO("write output", err)
	}
	logger.Info("wrote output",
		observability.String("output", cfg.Output),
		observability.Int("pages", len(res.Pages)),
		observability.Int("runs", res.Runs()),
		observability.String("digest", res.Digest))
	return nil
}

// writeAtomic writes data next to path and renames it into place, so a
// failed write never leaves a partial file at path.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".pdfredact-*.pdf")
	if err != nil {
		return err
	}
	name := tmp.Name()
	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return cleanup(err)
	}
	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}
