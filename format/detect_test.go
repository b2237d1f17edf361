package format

import (
	"bytes"
	"strings"
	"testing"
)

func TestFormatNames(t *testing.T) {
	tests := []struct {
		format Format
		name   string
		ext    string
	}{
		{PDF, "PDF", ".pdf"},
		{ZIP, "ZIP", ".zip"},
		{HTML, "HTML", ".html"},
		{Unknown, "Unknown", ""},
		{Format(99), "Unknown", ""},
	}
	for _, tt := range tests {
		if got := tt.format.String(); got != tt.name {
			t.Errorf("Format(%d).String() = %q, want %q", int(tt.format), got, tt.name)
		}
		if got := tt.format.Extension(); got != tt.ext {
			t.Errorf("Format(%d).Extension() = %q, want %q", int(tt.format), got, tt.ext)
		}
	}
}

func TestDetect(t *testing.T) {
	want := map[string]Format{
		"scan.pdf":            PDF,
		"SCAN.PDF":            PDF,
		"in/2024/invoice.Pdf": PDF,
		"letter.docx":         ZIP,
		"book.epub":           ZIP,
		"sheet.XLSX":          ZIP,
		"index.htm":           HTML,
		"scan.pdf.txt":        Unknown,
		"Makefile":            Unknown,
		"":                    Unknown,
	}
	for name, f := range want {
		if got := Detect(name); got != f {
			t.Errorf("Detect(%q) = %v, want %v", name, got, f)
		}
	}
}

func TestDetectFromMagic(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{"PDF magic bytes", []byte("%PDF-1.4"), PDF},
		{"PDF header after junk", []byte("\x00\x00garbage from a mail gateway\r\n%PDF-1.7\n"), PDF},
		{"PDF header too far in", append(bytes.Repeat([]byte{' '}, headerWindow), "%PDF-1.7"...), Unknown},
		{"marker without dash", []byte("%PDF"), Unknown},
		{"ZIP magic bytes", []byte{0x50, 0x4B, 0x03, 0x04, 0x00, 0x00, 0x00, 0x00}, ZIP},
		{"HTML with DOCTYPE", []byte("<!DOCTYPE html>\n<html>"), HTML},
		{"HTML with whitespace before DOCTYPE", []byte("  \n  <!DOCTYPE HTML PUBLIC"), HTML},
		{"XHTML", []byte(`<?xml version="1.0"?>` + "\n<html xmlns=\"http://www.w3.org/1999/xhtml\">"), HTML},
		{"empty data", []byte{}, Unknown},
		{"short data", []byte{0x50, 0x4B}, Unknown},
		{"text file", []byte("Hello, World!"), Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFromMagic(tt.data); got != tt.want {
				t.Errorf("DetectFromMagic() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectFromReader(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Format
	}{
		{"pdf", "%PDF-1.4\n%%EOF", PDF},
		{"html", "<!DOCTYPE html>\n<html><head><title>Test</title></head><body></body></html>", HTML},
		{"text", "Hello, World! This is plain text.", Unknown},
		{"large pdf", "%PDF-1.7\n" + strings.Repeat("0", 4*headerWindow), PDF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFromReader(strings.NewReader(tt.data))
			if err != nil {
				t.Fatalf("DetectFromReader() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectFromReader() = %v, want %v", got, tt.want)
			}
		})
	}
}
