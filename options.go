package pdfstrip

import (
	"runtime"

	"github.com/tsawler/pdfstrip/contentstream"
	"github.com/tsawler/pdfstrip/images"
)

// Mode selects what replaces a removed image.
type Mode = contentstream.Mode

const (
	// ModeBlankFill paints a white rectangle where the image was.
	ModeBlankFill = contentstream.BlankFill
	// ModeStrip deletes the image outright.
	ModeStrip = contentstream.Strip
)

// Decision is the verdict for one image.
type Decision = images.Decision

const (
	Keep   = images.Keep
	Remove = images.Remove
)

// Config holds the settings for one stripping run. It is passed by value;
// nothing is shared between runs.
type Config struct {
	// Images wider than MinRemovableWidth and taller than
	// MinRemovableHeight are removed.
	MinRemovableWidth  int
	MinRemovableHeight int

	// InlineSizeThresholdBytes applies to inline images without
	// dimensions: longer data is removed.
	InlineSizeThresholdBytes int

	ReplacementMode Mode

	// MaxFormNestingDepth bounds how deep form XObjects are followed.
	MaxFormNestingDepth int

	// UnknownXObject decides XObject images that declare no size.
	UnknownXObject Decision

	// Workers is the number of pages planned in parallel.
	Workers int

	// ExternalValidation runs pdfcpu over the output.
	ExternalValidation bool

	// Progress, when set, receives percentages from 0 to 100. Calls are
	// never concurrent and never decrease.
	Progress func(percent int)
}

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{
		MinRemovableWidth:        100,
		MinRemovableHeight:       100,
		InlineSizeThresholdBytes: 1000,
		ReplacementMode:          ModeBlankFill,
		MaxFormNestingDepth:      8,
		UnknownXObject:           Remove,
		Workers:                  runtime.NumCPU(),
		ExternalValidation:       true,
	}
}

// policy returns the image thresholds of c.
func (c Config) policy() images.Policy {
	return images.Policy{
		MinWidth:        c.MinRemovableWidth,
		MinHeight:       c.MinRemovableHeight,
		InlineThreshold: c.InlineSizeThresholdBytes,
		UnknownXObject:  c.UnknownXObject,
	}
}

// Option adjusts a Config.
type Option func(*Config)

// WithMode sets the replacement mode.
func WithMode(m Mode) Option {
	return func(c *Config) { c.ReplacementMode = m }
}

// WithThreshold sets the dimensions an image must exceed to be removed.
func WithThreshold(width, height int) Option {
	return func(c *Config) {
		c.MinRemovableWidth = width
		c.MinRemovableHeight = height
	}
}

// WithInlineThreshold sets the data size above which unsized inline
// images are removed.
func WithInlineThreshold(bytes int) Option {
	return func(c *Config) { c.InlineSizeThresholdBytes = bytes }
}

// WithMaxFormDepth sets how deep form XObjects are followed.
func WithMaxFormDepth(depth int) Option {
	return func(c *Config) { c.MaxFormNestingDepth = depth }
}

// WithUnknownXObject sets the decision for XObject images without size.
func WithUnknownXObject(d Decision) Option {
	return func(c *Config) { c.UnknownXObject = d }
}

// WithWorkers sets the number of pages planned in parallel. Values below
// one mean one.
func WithWorkers(n int) Option {
	return func(c *Config) { c.Workers = n }
}

// WithExternalValidation turns the pdfcpu check on or off.
func WithExternalValidation(on bool) Option {
	return func(c *Config) { c.ExternalValidation = on }
}

// WithProgress sets the progress callback.
func WithProgress(fn func(percent int)) Option {
	return func(c *Config) { c.Progress = fn }
}

// NewConfig returns DefaultConfig with opts applied.
func NewConfig(opts ...Option) Config {
	c := DefaultConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
