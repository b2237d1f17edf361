// Package format tells PDF input apart from the other files a user is
// likely to hand the stripper by mistake.
package format

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// Format is a detected file type.
type Format int

const (
	Unknown Format = iota
	PDF
	ZIP // also Office Open XML, OpenDocument and EPUB
	HTML
)

// headerWindow is how far into a file the %PDF- marker may start. Readers
// tolerate junk before the header.
const headerWindow = 1024

var (
	pdfMagic = []byte("%PDF-")
	zipMagic = []byte("PK\x03\x04")
)

type info struct {
	name string
	ext  string
}

var infos = map[Format]info{
	PDF:  {"PDF", ".pdf"},
	ZIP:  {"ZIP", ".zip"},
	HTML: {"HTML", ".html"},
}

// byExtension maps lower-case file extensions to formats. Office and
// e-book containers are ZIP archives.
var byExtension = map[string]Format{
	".pdf":  PDF,
	".zip":  ZIP,
	".docx": ZIP,
	".xlsx": ZIP,
	".pptx": ZIP,
	".odt":  ZIP,
	".epub": ZIP,
	".htm":  HTML,
	".html": HTML,
}

func (f Format) String() string {
	if i, ok := infos[f]; ok {
		return i.name
	}
	return "Unknown"
}

// Extension returns the usual file extension, or "" for Unknown.
func (f Format) Extension() string { return infos[f].ext }

// Detect guesses the format from the file name alone.
func Detect(filename string) Format {
	return byExtension[strings.ToLower(filepath.Ext(filename))]
}

// DetectFromMagic checks leading bytes to determine format. A PDF header
// is accepted anywhere in the first kilobyte.
func DetectFromMagic(data []byte) Format {
	window := data
	if len(window) > headerWindow {
		window = window[:headerWindow]
	}
	switch {
	case bytes.Contains(window, pdfMagic):
		return PDF
	case bytes.HasPrefix(data, zipMagic):
		return ZIP
	case looksLikeHTML(window):
		return HTML
	}
	return Unknown
}

// looksLikeHTML accepts a doctype or <html> start tag, or an XML
// declaration with an <html> element somewhere after it.
func looksLikeHTML(data []byte) bool {
	head := bytes.ToUpper(bytes.TrimLeft(data, " \t\r\n"))
	for _, prefix := range [][]byte{[]byte("<!DOCTYPE HTML"), []byte("<HTML")} {
		if bytes.HasPrefix(head, prefix) {
			return true
		}
	}
	return bytes.HasPrefix(head, []byte("<?XML")) && bytes.Contains(head, []byte("<HTML"))
}

// DetectFromReader reads the first kilobyte of r and calls DetectFromMagic.
func DetectFromReader(r io.ReaderAt) (Format, error) {
	head := make([]byte, headerWindow)
	n, err := r.ReadAt(head, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return Unknown, err
	}
	return DetectFromMagic(head[:n]), nil
}
