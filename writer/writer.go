package writer

import (
	"bytes"
	"fmt"
	"io"

	"github.com/tsawler/pdfstrip/core"
	"github.com/tsawler/pdfstrip/reader"
)

// trailerKeys are the trailer entries carried into the output. /Prev and
// /XRefStm point into the old file, and encrypted input is rejected on
// load.
var trailerKeys = []string{"Root", "Info", "ID"}

// Write serializes doc as a complete PDF file with a single classic
// cross-reference table. Objects keep their numbers and generations.
// Object stream and cross-reference stream containers are written as empty
// dictionaries: their members are written as ordinary objects.
func Write(w io.Writer, doc *reader.Document) error {
	pw := &posWriter{w: w}
	if _, err := fmt.Fprintf(pw, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", doc.Version()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	refs := doc.Refs()
	offsets := make(map[int]int64, len(refs))
	generations := make(map[int]int, len(refs))
	maxNum := 0

	var buf []byte
	for _, ref := range refs {
		obj := doc.Get(ref)
		if doc.IsContainer(ref.Number) {
			obj = core.Dict{}
		}

		offsets[ref.Number] = pw.pos
		generations[ref.Number] = ref.Generation
		if ref.Number > maxNum {
			maxNum = ref.Number
		}

		buf = buf[:0]
		buf = fmt.Appendf(buf, "%d %d obj\n", ref.Number, ref.Generation)
		buf = core.AppendObject(buf, obj)
		buf = append(buf, "\nendobj\n"...)
		if _, err := pw.Write(buf); err != nil {
			return fmt.Errorf("failed to write object %d: %w", ref.Number, err)
		}
	}

	xrefAt := pw.pos
	if err := writeXRefTable(pw, offsets, generations, maxNum); err != nil {
		return err
	}

	trailer := core.Dict{"Size": core.Int(maxNum + 1)}
	for _, key := range trailerKeys {
		if v := doc.Trailer().Get(key); v != nil {
			trailer[key] = v
		}
	}
	buf = append(buf[:0], "trailer\n"...)
	buf = core.AppendObject(buf, trailer)
	buf = fmt.Appendf(buf, "\nstartxref\n%d\n%%%%EOF\n", xrefAt)
	if _, err := pw.Write(buf); err != nil {
		return fmt.Errorf("failed to write trailer: %w", err)
	}
	return nil
}

// Bytes returns the output of Write.
func Bytes(doc *reader.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeXRefTable writes one subsection covering 0..maxNum. Numbers with
// no object are free entries.
func writeXRefTable(w io.Writer, offsets map[int]int64, generations map[int]int, maxNum int) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "xref\n0 %d\n", maxNum+1)
	buf.WriteString("0000000000 65535 f\r\n")
	for n := 1; n <= maxNum; n++ {
		off, ok := offsets[n]
		if !ok {
			buf.WriteString("0000000000 00000 f\r\n")
			continue
		}
		fmt.Fprintf(&buf, "%010d %05d n\r\n", off, generations[n])
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write xref table: %w", err)
	}
	return nil
}

type posWriter struct {
	w   io.Writer
	pos int64
}

func (w *posWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.pos += int64(n)
	return n, err
}
