// Package config reads redactor settings from the environment, optionally
// seeded from .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/joho/godotenv"

	"github.com/wudi/pdfredact/document"
	"github.com/wudi/pdfredact/extractor"
)

type Config struct {
	Input        string
	Output       string
	Filler       rune
	FontSize     float64
	Font         string
	ParallelLoad bool
	ValidatePDF  bool
	LogLevel     string
	MaxFormDepth int
	Password     string
}

// Default mirrors the fixed paths and constants of the redactor.
func Default() Config {
	return Config{
		Input:        "files/input.pdf",
		Output:       "files/output.pdf",
		Filler:       'h',
		FontSize:     12,
		Font:         document.DefaultBaseFont,
		ParallelLoad: true,
		LogLevel:     "info",
		MaxFormDepth: extractor.DefaultMaxFormDepth,
	}
}

// Load applies PDFREDACT_* variables over Default. Values from files are
// added to the environment without overriding variables already set. With no
// files named, ".env" is read when present; a malformed one is an error.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	} else if err := godotenv.Load(files...); err != nil {
		return Config{}, fmt.Errorf("load env files: %w", err)
	}

	cfg := Default()
	cfg.Input = getEnv("PDFREDACT_INPUT", cfg.Input)
	cfg.Output = getEnv("PDFREDACT_OUTPUT", cfg.Output)
	cfg.Font = getEnv("PDFREDACT_FONT", cfg.Font)
	cfg.LogLevel = getEnv("PDFREDACT_LOG_LEVEL", cfg.LogLevel)
	cfg.Password = getEnv("PDFREDACT_PASSWORD", "")

	var err error
	if v := getEnv("PDFREDACT_FILLER", ""); v != "" {
		if cfg.Filler, err = ParseFiller(v); err != nil {
			return Config{}, fmt.Errorf("PDFREDACT_FILLER: %w", err)
		}
	}
	if cfg.FontSize, err = getEnvFloat("PDFREDACT_FONT_SIZE", cfg.FontSize); err != nil {
		return Config{}, err
	}
	if cfg.ParallelLoad, err = getEnvBool("PDFREDACT_PARALLEL_LOAD", cfg.ParallelLoad); err != nil {
		return Config{}, err
	}
	if cfg.ValidatePDF, err = getEnvBool("PDFREDACT_VALIDATE", cfg.ValidatePDF); err != nil {
		return Config{}, err
	}
	if cfg.MaxFormDepth, err = getEnvInt("PDFREDACT_MAX_FORM_DEPTH", cfg.MaxFormDepth); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate checks values the pipeline cannot recover from at run time.
func (c Config) Validate() error {
	if c.Input == "" {
		return errors.New("input path is empty")
	}
	if c.Output == "" {
		return errors.New("output path is empty")
	}
	if c.FontSize <= 0 {
		return fmt.Errorf("font size must be positive, got %v", c.FontSize)
	}
	if !document.StandardFont(c.Font) {
		return fmt.Errorf("font %q is not a standard Latin font", c.Font)
	}
	if !document.Encodable(string(c.Filler)) {
		return fmt.Errorf("filler %q is not encodable in the default font", c.Filler)
	}
	return nil
}

// ParseFiller accepts exactly one rune.
func ParseFiller(s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("filler must be a single character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return 0, errors.New("filler is not valid UTF-8")
	}
	return r, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q: not an int", key, v)
	}
	return n, nil
}

func getEnvFloat(key string, def float64) (float64, error) {
	v := getEnv(key, "")
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s=%q: not a number", key, v)
	}
	return f, nil
}

func getEnvBool(key string, def bool) (bool, error) {
	v := getEnv(key, "")
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s=%q: not a bool", key, v)
	}
	return b, nil
}
