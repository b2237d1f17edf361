// Package pdfstrip removes large images from PDF files while leaving text,
// vector graphics and document structure in place.
//
// Basic usage:
//
//	out, report, err := pdfstrip.Open("scan.pdf").Bytes()
//	if err != nil {
//	    // handle error
//	}
//	if len(report.Warnings) > 0 {
//	    log.Println("Warnings:", pdfstrip.FormatWarnings(report.Warnings))
//	}
//
// With options:
//
//	report, err := pdfstrip.Open("report.pdf").
//	    Mode(pdfstrip.ModeStrip).
//	    Threshold(200, 200).
//	    WriteFile("report-noimage.pdf")
//
// An image is removed when it is wider and taller than the threshold.
// Inline images that declare no size are judged by the length of their
// data. In ModeBlankFill a removed image is painted over with a white
// rectangle of the same placement; in ModeStrip it is deleted outright,
// along with any q/Q wrapper that only served it.
//
// Strip is the single-call equivalent for callers holding a Config.
package pdfstrip

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tsawler/pdfstrip/format"
)

// Stripper provides a fluent interface for stripping images from a PDF.
// Each configuration method returns a new Stripper, so a partially
// configured Stripper can be shared and reused.
type Stripper struct {
	filename string
	data     []byte

	config Config
	ctx    context.Context
}

// Open returns a Stripper for the PDF file at filename. The file is read
// when a terminal method such as Bytes is called.
//
// Example:
//
//	out, report, err := pdfstrip.Open("document.pdf").Bytes()
func Open(filename string) *Stripper {
	return &Stripper{filename: filename, config: DefaultConfig()}
}

// FromBytes returns a Stripper for PDF data already in memory. The slice
// is not modified.
func FromBytes(data []byte) *Stripper {
	return &Stripper{data: data, config: DefaultConfig()}
}

// clone creates a copy of the Stripper. Config is a value, so the copy
// shares nothing mutable with s.
func (s *Stripper) clone() *Stripper {
	c := *s
	return &c
}

func (s *Stripper) with(opt Option) *Stripper {
	c := s.clone()
	opt(&c.config)
	return c
}

// Mode sets the replacement mode.
func (s *Stripper) Mode(m Mode) *Stripper {
	return s.with(WithMode(m))
}

// Threshold sets the size an image must exceed in both dimensions to be
// removed.
func (s *Stripper) Threshold(width, height int) *Stripper {
	return s.with(WithThreshold(width, height))
}

// InlineThreshold sets the data length above which inline images without
// dimensions are removed.
func (s *Stripper) InlineThreshold(bytes int) *Stripper {
	return s.with(WithInlineThreshold(bytes))
}

// MaxFormDepth limits how deeply nested form XObjects are searched.
func (s *Stripper) MaxFormDepth(depth int) *Stripper {
	return s.with(WithMaxFormDepth(depth))
}

// UnknownXObject decides image XObjects that declare no dimensions.
func (s *Stripper) UnknownXObject(d Decision) *Stripper {
	return s.with(WithUnknownXObject(d))
}

// Workers sets how many pages are rewritten in parallel.
func (s *Stripper) Workers(n int) *Stripper {
	return s.with(WithWorkers(n))
}

// ExternalValidation turns the pdfcpu check of the output on or off.
func (s *Stripper) ExternalValidation(on bool) *Stripper {
	return s.with(WithExternalValidation(on))
}

// Progress sets a callback that receives completion percentages.
func (s *Stripper) Progress(fn func(percent int)) *Stripper {
	return s.with(WithProgress(fn))
}

// Options applies functional options in order.
func (s *Stripper) Options(opts ...Option) *Stripper {
	c := s.clone()
	for _, opt := range opts {
		opt(&c.config)
	}
	return c
}

// Context sets a context that stops new pages from being scheduled once
// it is done.
func (s *Stripper) Context(ctx context.Context) *Stripper {
	c := s.clone()
	c.ctx = ctx
	return c
}

// Config returns the settings the Stripper will run with.
func (s *Stripper) Config() Config {
	return s.config
}

// ============================================================================
// Terminal Methods
// ============================================================================

// Bytes strips the document and returns the new file with its report.
func (s *Stripper) Bytes() ([]byte, *Report, error) {
	data := s.data
	if data == nil {
		if s.filename == "" {
			return nil, nil, errors.New("no input specified")
		}
		var err error
		data, err = os.ReadFile(s.filename)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open file: %w", err)
		}
	}
	if f := format.DetectFromMagic(data); f != format.PDF {
		return nil, nil, fmt.Errorf("unsupported file format: %s", f)
	}
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return Strip(ctx, data, s.config)
}

// WriteFile strips the document and writes the result to path. Nothing is
// written when stripping fails.
func (s *Stripper) WriteFile(path string) (*Report, error) {
	out, report, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return report, fmt.Errorf("failed to write output: %w", err)
	}
	return report, nil
}

// Must is a helper that wraps a call returning (T, error) and panics if
// the error is non-nil. It is intended for scripts and tests.
//
// Example:
//
//	report := pdfstrip.Must(pdfstrip.Open("in.pdf").WriteFile("out.pdf"))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
