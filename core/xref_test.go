package core

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// pdfFile assembles test files and tracks object offsets.
type pdfFile struct {
	buf     bytes.Buffer
	offsets map[int]int
}

func newPDFFile() *pdfFile {
	f := &pdfFile{offsets: map[int]int{}}
	f.buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
	return f
}

func (f *pdfFile) object(num int, body string) *pdfFile {
	f.offsets[num] = f.buf.Len()
	fmt.Fprintf(&f.buf, "%d 0 obj\n%s\nendobj\n", num, body)
	return f
}

// xref writes a classic section for the listed objects, which must be
// contiguous from first, and returns its offset.
func (f *pdfFile) xref(first int, nums []int, trailer string) int {
	off := f.buf.Len()
	fmt.Fprintf(&f.buf, "xref\n%d %d\n", first, len(nums))
	for _, n := range nums {
		if n == 0 {
			f.buf.WriteString("0000000000 65535 f \n")
			continue
		}
		fmt.Fprintf(&f.buf, "%010d 00000 n \n", f.offsets[n])
	}
	fmt.Fprintf(&f.buf, "trailer\n%s\nstartxref\n%d\n%%%%EOF\n", trailer, off)
	return off
}

// xrefStream writes a cross-reference stream as object num with rows of
// widths 1, 2 and 1 and returns its offset.
func (f *pdfFile) xrefStream(num int, extra string, rows [][3]int) int {
	var data []byte
	for _, r := range rows {
		data = append(data, byte(r[0]), byte(r[1]>>8), byte(r[1]), byte(r[2]))
	}
	off := f.buf.Len()
	f.offsets[num] = off
	fmt.Fprintf(&f.buf, "%d 0 obj\n<< /Type /XRef /W [1 2 1] /Length %d %s >>\nstream\n", num, len(data), extra)
	f.buf.Write(data)
	fmt.Fprintf(&f.buf, "\nendstream\nendobj\nstartxref\n%d\n%%%%EOF\n", off)
	return off
}

func (f *pdfFile) bytes() []byte { return f.buf.Bytes() }

func TestXRefTable(t *testing.T) {
	x := NewXRefTable()
	x.Set(3, &XRefEntry{Offset: 100, InUse: true})
	x.Set(4, &XRefEntry{InUse: true, Stream: 9, Index: 2})
	if x.Size() != 2 {
		t.Errorf("Size() = %d", x.Size())
	}
	if e, ok := x.Get(3); !ok || e.Offset != 100 || e.Compressed() {
		t.Errorf("Get(3) = %+v, %v", e, ok)
	}
	if e, _ := x.Get(4); !e.Compressed() {
		t.Error("entry in object stream not reported compressed")
	}
	if _, ok := x.Get(5); ok {
		t.Error("Get(5) found a missing entry")
	}
	if (&XRefEntry{Stream: 9}).Compressed() {
		t.Error("free entry reported compressed")
	}
}

func TestFindXRef(t *testing.T) {
	f := newPDFFile().object(1, "<< /Type /Catalog >>")
	off := f.xref(0, []int{0, 1}, "<< /Size 2 /Root 1 0 R >>")
	got, err := NewXRefParser(f.bytes()).FindXRef()
	if err != nil || got != int64(off) {
		t.Errorf("FindXRef() = %d, %v, want %d", got, err, off)
	}

	for _, data := range []string{
		"%PDF-1.4\n1 0 obj null endobj\n",
		"%PDF-1.4\nstartxref\nabc\n%%EOF",
		"%PDF-1.4\nstartxref\n99999\n%%EOF",
	} {
		if _, err := NewXRefParser([]byte(data)).FindXRef(); err == nil {
			t.Errorf("FindXRef(%q) succeeded", data)
		}
	}
}

func TestParseClassicXRef(t *testing.T) {
	f := newPDFFile().
		object(1, "<< /Type /Catalog /Pages 2 0 R >>").
		object(2, "<< /Type /Pages /Kids [] /Count 0 >>")
	f.xref(0, []int{0, 1, 2}, "<< /Size 3 /Root 1 0 R /ID [<01> <02>] >>")

	tables, err := NewXRefParser(f.bytes()).ParseAllXRefs()
	if err != nil {
		t.Fatalf("ParseAllXRefs() error = %v", err)
	}
	if len(tables) != 1 {
		t.Fatalf("got %d sections, want 1", len(tables))
	}
	want := map[int]*XRefEntry{
		0: {Offset: 0, Generation: 65535},
		1: {Offset: int64(f.offsets[1]), InUse: true},
		2: {Offset: int64(f.offsets[2]), InUse: true},
	}
	if diff := cmp.Diff(want, tables[0].Entries); diff != "" {
		t.Errorf("entries (-want +got):\n%s", diff)
	}
	if root, _ := tables[0].Trailer.GetIndirectRef("Root"); root.Number != 1 {
		t.Errorf("trailer Root = %v", tables[0].Trailer.Get("Root"))
	}
}

func TestParseIncrementalUpdate(t *testing.T) {
	f := newPDFFile().
		object(1, "<< /Type /Catalog /Pages 2 0 R >>").
		object(2, "(original)")
	first := f.xref(0, []int{0, 1, 2}, "<< /Size 3 /Root 1 0 R >>")
	f.object(2, "(updated)").object(3, "(added)")
	f.xref(2, []int{2, 3}, fmt.Sprintf("<< /Size 4 /Root 1 0 R /Prev %d >>", first))

	tables, err := NewXRefParser(f.bytes()).ParseAllXRefs()
	if err != nil {
		t.Fatalf("ParseAllXRefs() error = %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("got %d sections, want 2", len(tables))
	}
	merged := MergeXRefTables(tables...)
	if merged.Size() != 4 {
		t.Errorf("merged Size() = %d, want 4", merged.Size())
	}
	if e, _ := merged.Get(2); e.Offset != int64(f.offsets[2]) {
		t.Errorf("object 2 at %d, want the updated definition at %d", e.Offset, f.offsets[2])
	}
	if size, _ := merged.Trailer.GetInt("Size"); size != 4 {
		t.Errorf("merged trailer Size = %d, want the newest", size)
	}
}

func TestParsePrevLoop(t *testing.T) {
	f := newPDFFile().object(1, "<< /Type /Catalog >>")
	// The section names itself as /Prev.
	off := f.buf.Len()
	f.xref(0, []int{0, 1}, fmt.Sprintf("<< /Size 2 /Root 1 0 R /Prev %d >>", off))
	tables, err := NewXRefParser(f.bytes()).ParseAllXRefs()
	if err != nil || len(tables) != 1 {
		t.Errorf("ParseAllXRefs() = %d sections, %v", len(tables), err)
	}
}

func TestParseXRefStream(t *testing.T) {
	f := newPDFFile().
		object(1, "<< /Type /Catalog /Pages 2 0 R >>").
		object(2, "<< /Type /Pages /Kids [] /Count 0 >>")
	off := f.xrefStream(4, "/Size 4 /Root 1 0 R", [][3]int{
		{0, 0, 255},
		{1, f.offsets[1], 0},
		{1, f.offsets[2], 0},
		{2, 7, 3},
	})

	tables, err := NewXRefParser(f.bytes()).ParseAllXRefs()
	if err != nil {
		t.Fatalf("ParseAllXRefs() error = %v", err)
	}
	want := map[int]*XRefEntry{
		0: {Generation: 255},
		1: {Offset: int64(f.offsets[1]), InUse: true},
		2: {Offset: int64(f.offsets[2]), InUse: true},
		3: {InUse: true, Stream: 7, Index: 3},
		4: {Offset: int64(off), InUse: true},
	}
	if diff := cmp.Diff(want, tables[0].Entries); diff != "" {
		t.Errorf("entries (-want +got):\n%s", diff)
	}
	wantTrailer := Dict{"Size": Int(4), "Root": IndirectRef{Number: 1}}
	if diff := cmp.Diff(wantTrailer, tables[0].Trailer); diff != "" {
		t.Errorf("trailer (-want +got):\n%s", diff)
	}
}

func TestParseXRefStreamIndex(t *testing.T) {
	f := newPDFFile().object(1, "<< /Type /Catalog >>").object(5, "null")
	f.xrefStream(6, "/Size 7 /Index [1 1 5 2] /Root 1 0 R", [][3]int{
		{1, f.offsets[1], 0},
		{1, f.offsets[5], 0},
		{1, 0, 0},
	})
	tables, err := NewXRefParser(f.bytes()).ParseAllXRefs()
	if err != nil {
		t.Fatalf("ParseAllXRefs() error = %v", err)
	}
	if e, _ := tables[0].Get(5); e == nil || e.Offset != int64(f.offsets[5]) {
		t.Errorf("object 5 entry = %+v", e)
	}
	if _, ok := tables[0].Get(2); ok {
		t.Error("object 2 listed outside /Index")
	}
}

func TestXRefStreamLayoutErrors(t *testing.T) {
	tests := []struct {
		name string
		dict Dict
	}{
		{"missing W", Dict{"Size": Int(1)}},
		{"short W", Dict{"W": Array{Int(1), Int(2)}}},
		{"wide field", Dict{"W": Array{Int(1), Int(9), Int(1)}}},
		{"odd Index", Dict{"W": Array{Int(1), Int(2), Int(1)}, "Index": Array{Int(0)}}},
		{"negative Index", Dict{"W": Array{Int(1), Int(2), Int(1)}, "Index": Array{Int(0), Int(-1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := xrefStreamLayout(tt.dict); err == nil {
				t.Error("xrefStreamLayout() succeeded")
			}
		})
	}
}

func TestParseHybridXRef(t *testing.T) {
	g := newPDFFile().
		object(1, "<< /Type /Catalog /Pages 2 0 R >>").
		object(2, "<< /Type /Pages /Kids [] /Count 0 >>")
	stmOff := g.xrefStream(4, "/Size 5 /Index [3 1]", [][3]int{{2, 9, 0}})
	g.xref(0, []int{0, 1, 2}, fmt.Sprintf("<< /Size 5 /Root 1 0 R /XRefStm %d >>", stmOff))

	tables, err := NewXRefParser(g.bytes()).ParseAllXRefs()
	if err != nil {
		t.Fatalf("ParseAllXRefs() error = %v", err)
	}
	merged := MergeXRefTables(tables...)
	if e, ok := merged.Get(3); !ok || !e.Compressed() || e.Stream != 9 {
		t.Errorf("object 3 = %+v, want it in object stream 9", e)
	}
	if e, ok := merged.Get(1); !ok || e.Offset != int64(g.offsets[1]) {
		t.Errorf("object 1 = %+v", e)
	}
}

func TestParseXRefBadOffset(t *testing.T) {
	data := []byte("%PDF-1.4\ngarbage here\n")
	p := NewXRefParser(data)
	for _, off := range []int64{-1, 9, int64(len(data))} {
		if _, err := p.ParseXRef(off); err == nil {
			t.Errorf("ParseXRef(%d) succeeded", off)
		}
	}
}

func TestMergeXRefTables(t *testing.T) {
	older := NewXRefTable()
	older.Set(1, &XRefEntry{Offset: 10, InUse: true})
	older.Set(2, &XRefEntry{Offset: 20, InUse: true})
	older.Trailer["Root"] = IndirectRef{Number: 1}
	older.Trailer["Info"] = IndirectRef{Number: 8}

	newer := NewXRefTable()
	newer.Set(2, &XRefEntry{Offset: 200, InUse: true})
	newer.Trailer["Root"] = IndirectRef{Number: 2}

	merged := MergeXRefTables(older, newer)
	if e, _ := merged.Get(2); e.Offset != 200 {
		t.Errorf("object 2 offset = %d, want the newer entry", e.Offset)
	}
	if e, _ := merged.Get(1); e.Offset != 10 {
		t.Errorf("object 1 offset = %d", e.Offset)
	}
	want := Dict{"Root": IndirectRef{Number: 2}, "Info": IndirectRef{Number: 8}}
	if diff := cmp.Diff(want, merged.Trailer); diff != "" {
		t.Errorf("trailer (-want +got):\n%s", diff)
	}
}
