package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/pdfstrip/internal/testpdf"
)

func TestOutputName(t *testing.T) {
	tests := []struct {
		file, dir, want string
	}{
		{"scan.pdf", "", "scan-noimage.pdf"},
		{filepath.Join("in", "Report.PDF"), "", filepath.Join("in", "Report-noimage.pdf")},
		{filepath.Join("in", "a.b.pdf"), "out", filepath.Join("out", "a.b-noimage.pdf")},
		{"noext", "", "noext-noimage.pdf"},
	}
	for _, tt := range tests {
		if got := outputName(tt.file, tt.dir); got != tt.want {
			t.Errorf("outputName(%q, %q) = %q, want %q", tt.file, tt.dir, got, tt.want)
		}
	}
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"defaults", []string{"a.pdf"}, false},
		{"all flags", []string{"-mode", "strip", "-min-width", "50", "-min-height", "60", "-inline-bytes", "10",
			"-depth", "2", "-unknown", "keep", "-no-validate", "-o", "out", "-report", "r.html", "-v", "a.pdf", "b.pdf"}, false},
		{"no files", []string{"-mode", "strip"}, true},
		{"bad mode", []string{"-mode", "erase", "a.pdf"}, true},
		{"bad unknown", []string{"-unknown", "maybe", "a.pdf"}, true},
		{"bad number", []string{"-min-width", "wide", "a.pdf"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			_, err := parseFlags(tt.args, &stderr)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	if err := os.Mkdir(outDir, 0o755); err != nil {
		t.Fatal(err)
	}

	good := filepath.Join(dir, "scan.pdf")
	data := testpdf.SinglePage(testpdf.XObjects(map[string]int{"Im1": 5}), "q 300 0 0 300 0 0 cm /Im1 Do Q\n").
		Add(5, testpdf.Image(300, 300)).
		Bytes()
	if err := os.WriteFile(good, data, 0o644); err != nil {
		t.Fatal(err)
	}
	notPDF := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notPDF, []byte("shopping list"), 0o644); err != nil {
		t.Fatal(err)
	}
	reportPath := filepath.Join(dir, "report.html")

	var stderr bytes.Buffer
	code := run(context.Background(), []string{"-no-validate", "-mode", "strip", "-o", outDir, "-report", reportPath, good, notPDF}, &stderr)
	if code != 1 {
		t.Errorf("exit code = %d, want 1 with one failed file", code)
	}

	out, err := os.ReadFile(filepath.Join(outDir, "scan-noimage.pdf"))
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if bytes.Contains(out, []byte("/Im1 Do")) {
		t.Error("output still draws the image")
	}
	if _, err := os.Stat(filepath.Join(outDir, "notes-noimage.pdf")); !os.IsNotExist(err) {
		t.Error("output written for a non-PDF input")
	}
	if !strings.Contains(stderr.String(), "notes.txt: not a PDF file") {
		t.Errorf("stderr = %q, want the rejected file named", stderr.String())
	}

	html, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("report missing: %v", err)
	}
	for _, want := range []string{"scan.pdf", "notes.txt", "2 files processed, 1 failed"} {
		if !bytes.Contains(html, []byte(want)) {
			t.Errorf("report does not mention %q", want)
		}
	}
}

func TestRunAllSucceed(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(in, testpdf.SinglePage(nil, "BT ET").Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	var stderr bytes.Buffer
	if code := run(context.Background(), []string{"-no-validate", in}, &stderr); code != 0 {
		t.Errorf("exit code = %d, stderr:\n%s", code, stderr.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "doc-noimage.pdf")); err != nil {
		t.Errorf("output next to input missing: %v", err)
	}
}
