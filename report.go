package pdfstrip

import (
	"fmt"
	"strings"

	"github.com/tsawler/pdfstrip/contentstream"
)

// Report summarizes one run.
type Report struct {
	Pages int

	// Image counts are per invocation: an image drawn on three pages
	// counts three times.
	ImagesSeen    int
	ImagesRemoved int
	ImagesKept    int

	// Objects is the number of objects written; Placeholders of them are
	// removed images emptied in place.
	Objects      int
	Placeholders int

	Mode     Mode
	Repaired bool

	// ValidationFallback is set when the output failed validation and was
	// returned as written.
	ValidationFallback bool

	Title    string
	Producer string

	InputSize  int
	OutputSize int

	PageReports []PageReport

	// Warnings holds recoverable problems. Page-level ones are *PageError.
	Warnings []error
}

// PageReport describes the images of one page, including those inside
// its forms.
type PageReport struct {
	Index      int
	Removed    int
	Kept       int
	Placements []contentstream.Placement
}

// PageError is a problem confined to one page. Page is 0-based.
type PageError struct {
	Page int
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Page+1, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// FormatWarnings renders warnings one per line.
func FormatWarnings(warnings []error) string {
	var sb strings.Builder
	for i, w := range warnings {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(w.Error())
	}
	return sb.String()
}
