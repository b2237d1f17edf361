// Command pdfstrip removes large images from PDF files.
//
// Usage:
//
//	pdfstrip [flags] file.pdf...
//
// Each input is written as <name>-noimage.pdf next to it, or into the
// directory given with -o. A file that cannot be processed is reported and
// skipped; the exit status is 1 if any file failed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/tsawler/pdfstrip"
	"github.com/tsawler/pdfstrip/contentstream"
	"github.com/tsawler/pdfstrip/format"
	"github.com/tsawler/pdfstrip/logging"
	"github.com/tsawler/pdfstrip/report"
)

type options struct {
	outDir     string
	reportPath string
	verbose    bool
	files      []string
	config     []pdfstrip.Option
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// run processes the files named in args and returns the exit status.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "pdfstrip: %v\n", err)
		return 2
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
	defer logging.SetLogger(nil)

	entries := make([]report.Entry, 0, len(opts.files))
	failed := 0
	for _, file := range opts.files {
		entry := process(ctx, file, opts)
		if entry.Failed() {
			failed++
			fmt.Fprintf(stderr, "pdfstrip: %s: %v\n", file, entry.Err)
		}
		entries = append(entries, entry)
	}

	if opts.reportPath != "" {
		if err := writeReport(opts.reportPath, entries); err != nil {
			fmt.Fprintf(stderr, "pdfstrip: %v\n", err)
			return 1
		}
	}
	if failed > 0 {
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("pdfstrip", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: pdfstrip [flags] file.pdf...\n")
		fs.PrintDefaults()
	}

	defaults := pdfstrip.DefaultConfig()
	mode := fs.String("mode", "blank", "Replacement for removed images: blank or strip")
	minWidth := fs.Int("min-width", defaults.MinRemovableWidth, "Images wider than this (and taller than -min-height) are removed")
	minHeight := fs.Int("min-height", defaults.MinRemovableHeight, "Images taller than this (and wider than -min-width) are removed")
	inlineBytes := fs.Int("inline-bytes", defaults.InlineSizeThresholdBytes, "Inline images without dimensions are removed above this many bytes")
	depth := fs.Int("depth", defaults.MaxFormNestingDepth, "How deeply nested form XObjects are searched")
	unknown := fs.String("unknown", "remove", "Decision for image XObjects without dimensions: keep or remove")
	workers := fs.Int("workers", defaults.Workers, "Pages processed in parallel")
	noValidate := fs.Bool("no-validate", false, "Skip the pdfcpu check of the output")
	fs.StringVar(&opts.outDir, "o", "", "Directory for output files (default: next to each input)")
	fs.StringVar(&opts.reportPath, "report", "", "Write an HTML summary to this file")
	fs.BoolVar(&opts.verbose, "v", false, "Log debug details")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.files = fs.Args()
	if len(opts.files) == 0 {
		fs.Usage()
		return opts, errors.New("no input files")
	}

	m, err := contentstream.ParseMode(*mode)
	if err != nil {
		return opts, err
	}
	var d pdfstrip.Decision
	switch strings.ToLower(*unknown) {
	case "keep":
		d = pdfstrip.Keep
	case "remove":
		d = pdfstrip.Remove
	default:
		return opts, fmt.Errorf("invalid -unknown value %q: want keep or remove", *unknown)
	}

	opts.config = []pdfstrip.Option{
		pdfstrip.WithMode(m),
		pdfstrip.WithThreshold(*minWidth, *minHeight),
		pdfstrip.WithInlineThreshold(*inlineBytes),
		pdfstrip.WithMaxFormDepth(*depth),
		pdfstrip.WithUnknownXObject(d),
		pdfstrip.WithWorkers(*workers),
		pdfstrip.WithExternalValidation(!*noValidate),
	}
	return opts, nil
}

// process strips one file and records the outcome.
func process(ctx context.Context, file string, opts options) report.Entry {
	entry := report.Entry{File: file}
	start := time.Now()
	if err := checkPDF(file); err != nil {
		entry.Err = err
		return entry
	}
	entry.Output = outputName(file, opts.outDir)

	log := logging.Logger().With(slog.String("file", file))
	s := pdfstrip.Open(file).Options(opts.config...).Context(ctx).Progress(func(p int) {
		log.Debug("progress", slog.Int("percent", p))
	})
	r, err := s.WriteFile(entry.Output)
	if err != nil {
		entry.Err = err
		return entry
	}
	entry.Report = r
	for _, w := range r.Warnings {
		log.Warn("recovered", slog.String("problem", w.Error()))
	}
	log.Info("stripped",
		slog.String("output", entry.Output),
		slog.Int("pages", r.Pages),
		slog.Int("removed", r.ImagesRemoved),
		slog.Int("kept", r.ImagesKept),
		slog.String("size", report.FormatSize(r.InputSize)+" -> "+report.FormatSize(r.OutputSize)),
		slog.Duration("elapsed", time.Since(start)))
	return entry
}

// checkPDF rejects files that are neither named nor shaped like a PDF.
func checkPDF(file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	got, err := format.DetectFromReader(f)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if got != format.PDF {
		if byName := format.Detect(file); byName != format.Unknown && byName != format.PDF {
			got = byName
		}
		return fmt.Errorf("not a PDF file (detected %s)", got)
	}
	return nil
}

// outputName returns <name>-noimage.pdf, in dir when it is set.
func outputName(file, dir string) string {
	base := filepath.Base(file)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + "-noimage.pdf"
	if dir == "" {
		dir = filepath.Dir(file)
	}
	return filepath.Join(dir, name)
}

func writeReport(path string, entries []report.Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := report.Write(f, "pdfstrip results", entries); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
