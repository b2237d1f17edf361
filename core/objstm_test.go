package core

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// objStm builds an object stream holding bodies under the given numbers.
func objStm(nums []int, bodies []string, compress bool) *Stream {
	var header, body strings.Builder
	for i, b := range bodies {
		fmt.Fprintf(&header, "%d %d ", nums[i], body.Len())
		body.WriteString(b)
		body.WriteByte(' ')
	}
	data := []byte(header.String() + body.String())
	dict := Dict{"Type": Name("ObjStm"), "N": Int(len(bodies)), "First": Int(header.Len())}
	if compress {
		dict["Filter"] = Name("FlateDecode")
		data = zlibCompress(data)
	}
	return &Stream{Dict: dict, Data: data}
}

func TestNewObjectStreamValidation(t *testing.T) {
	tests := []struct {
		name   string
		stream *Stream
	}{
		{"nil", nil},
		{"wrong type", &Stream{Dict: Dict{"Type": Name("XRef"), "N": Int(1), "First": Int(4)}}},
		{"missing N", &Stream{Dict: Dict{"Type": Name("ObjStm"), "First": Int(4)}}},
		{"negative N", &Stream{Dict: Dict{"Type": Name("ObjStm"), "N": Int(-1), "First": Int(4)}}},
		{"missing First", &Stream{Dict: Dict{"Type": Name("ObjStm"), "N": Int(1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewObjectStream(tt.stream); err == nil {
				t.Error("NewObjectStream() succeeded")
			}
		})
	}
}

func TestObjectStreamObjects(t *testing.T) {
	for _, compress := range []bool{false, true} {
		t.Run(fmt.Sprintf("compressed=%v", compress), func(t *testing.T) {
			s := objStm([]int{10, 11, 12}, []string{
				"<< /Type /Page /Parent 2 0 R >>",
				"[0 0 612 792]",
				"(title)",
			}, compress)
			os, err := NewObjectStream(s)
			if err != nil {
				t.Fatal(err)
			}
			if os.N() != 3 {
				t.Errorf("N() = %d", os.N())
			}
			got, err := os.Objects()
			if err != nil {
				t.Fatalf("Objects() error = %v", err)
			}
			want := []IndirectObject{
				{Ref: IndirectRef{Number: 10}, Object: Dict{"Type": Name("Page"), "Parent": IndirectRef{Number: 2}}},
				{Ref: IndirectRef{Number: 11}, Object: Array{Int(0), Int(0), Int(612), Int(792)}},
				{Ref: IndirectRef{Number: 12}, Object: String("title")},
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Objects() (-want +got):\n%s", diff)
			}
		})
	}
}

func TestObjectStreamGetObjectByIndex(t *testing.T) {
	os, err := NewObjectStream(objStm([]int{4, 9}, []string{"1", "/Second"}, false))
	if err != nil {
		t.Fatal(err)
	}
	obj, num, err := os.GetObjectByIndex(1)
	if err != nil || num != 9 || obj != Name("Second") {
		t.Errorf("GetObjectByIndex(1) = %v, %d, %v", obj, num, err)
	}
	for _, i := range []int{-1, 2} {
		if _, _, err := os.GetObjectByIndex(i); err == nil {
			t.Errorf("GetObjectByIndex(%d) succeeded", i)
		}
	}
}

func TestObjectStreamShortHeader(t *testing.T) {
	s := objStm([]int{1, 2}, []string{"true", "false"}, false)
	s.Dict["N"] = Int(5)
	os, err := NewObjectStream(s)
	if err != nil {
		t.Fatal(err)
	}
	got, err := os.Objects()
	if err != nil {
		t.Fatalf("Objects() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d objects, want the 2 listed", len(got))
	}
}

func TestObjectStreamBadEntry(t *testing.T) {
	// The first offset points past the data; the second object survives.
	data := "1 99 2 0 42 "
	s := &Stream{Dict: Dict{"Type": Name("ObjStm"), "N": Int(2), "First": Int(9)}, Data: []byte(data)}
	os, err := NewObjectStream(s)
	if err != nil {
		t.Fatal(err)
	}
	got, err := os.Objects()
	if err == nil {
		t.Error("Objects() reported no error for the bad entry")
	}
	if len(got) != 1 || got[0].Ref.Number != 2 || got[0].Object != Int(42) {
		t.Errorf("Objects() = %v, want object 2 only", got)
	}
}

func TestObjectStreamFirstPastData(t *testing.T) {
	s := &Stream{Dict: Dict{"Type": Name("ObjStm"), "N": Int(1), "First": Int(100)}, Data: []byte("1 0 true")}
	os, err := NewObjectStream(s)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Objects(); err == nil {
		t.Error("Objects() succeeded with /First beyond the data")
	}
}
