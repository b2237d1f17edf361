package core

import (
	"strings"
	"testing"
)

func TestRepair(t *testing.T) {
	f := newPDFFile().
		object(1, "<< /Type /Catalog /Pages 2 0 R >>").
		object(2, "<< /Type /Pages /Kids [] /Count 0 >>").
		object(3, "<< /Length 21 >>\nstream\n9 0 obj (fake) endobj\nendstream")
	data := append(f.bytes(), "trailer\n<< /Size 4 /Root 1 0 R /Prev 12345 /XRefStm 9 >>\n%%EOF\n"...)

	table := Repair(data)
	if table.Size() != 3 {
		t.Errorf("found %d objects, want 3", table.Size())
	}
	for num := 1; num <= 3; num++ {
		if e, ok := table.Get(num); !ok || e.Offset != int64(f.offsets[num]) {
			t.Errorf("object %d = %+v, want offset %d", num, e, f.offsets[num])
		}
	}
	if _, ok := table.Get(9); ok {
		t.Error("object header inside stream data was indexed")
	}
	if root, _ := table.Trailer.GetIndirectRef("Root"); root.Number != 1 {
		t.Errorf("Root = %v", table.Trailer.Get("Root"))
	}
	if table.Trailer.Has("Prev") || table.Trailer.Has("XRefStm") {
		t.Errorf("trailer kept stale section links: %v", table.Trailer)
	}
}

func TestRepairLaterDefinitionWins(t *testing.T) {
	f := newPDFFile().
		object(1, "<< /Type /Catalog >>").
		object(2, "(first)")
	firstOffset := f.offsets[2]
	f.object(2, "(second)")

	table := Repair(f.bytes())
	e, _ := table.Get(2)
	if e.Offset == int64(firstOffset) || e.Offset != int64(f.offsets[2]) {
		t.Errorf("object 2 at %d, want the later definition at %d", e.Offset, f.offsets[2])
	}
}

func TestRepairFindsCatalog(t *testing.T) {
	f := newPDFFile().
		object(4, "<< /Type /Pages /Kids [] /Count 0 >>").
		object(7, "<< /Type /Catalog /Pages 4 0 R >>").
		object(9, "<< /Type /Catalog /Pages 4 0 R >>")
	table := Repair(f.bytes())
	root, ok := table.Trailer.GetIndirectRef("Root")
	if !ok || root.Number != 7 {
		t.Errorf("Root = %v, want the lowest-numbered catalog 7", table.Trailer.Get("Root"))
	}
}

func TestRepairNoCatalog(t *testing.T) {
	table := Repair([]byte("%PDF-1.4\n1 0 obj (x) endobj\n"))
	if table.Trailer.Has("Root") {
		t.Errorf("Root = %v, want none", table.Trailer.Get("Root"))
	}
}

func TestRepairUnterminatedString(t *testing.T) {
	data := "%PDF-1.4\n(unbalanced\n" + strings.Repeat(" ", 3) + "5 0 obj << /Type /Catalog >> endobj\n"
	table := Repair([]byte(data))
	if _, ok := table.Get(5); !ok {
		t.Error("object after an unterminated string was not found")
	}
}
