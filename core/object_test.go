package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestObjectTypeAndString(t *testing.T) {
	tests := []struct {
		obj      Object
		wantType ObjectType
		wantStr  string
	}{
		{Null{}, ObjNull, "null"},
		{Bool(true), ObjBool, "true"},
		{Int(-7), ObjInt, "-7"},
		{Real(0.25), ObjReal, "0.25"},
		{String("abc"), ObjString, "abc"},
		{Name("Im1"), ObjName, "/Im1"},
		{Array{Int(1), Name("A")}, ObjArray, "[1 /A]"},
		{Dict{"B": Int(2), "A": Int(1)}, ObjDict, "<</A 1 /B 2>>"},
		{&Stream{Dict: Dict{}, Data: []byte("xyz")}, ObjStream, "stream <<>> (3 bytes)"},
		{IndirectRef{Number: 5, Generation: 1}, ObjIndirect, "5 1 R"},
	}
	for _, tt := range tests {
		t.Run(tt.wantType.String(), func(t *testing.T) {
			if got := tt.obj.Type(); got != tt.wantType {
				t.Errorf("Type() = %v, want %v", got, tt.wantType)
			}
			if got := tt.obj.String(); got != tt.wantStr {
				t.Errorf("String() = %q, want %q", got, tt.wantStr)
			}
		})
	}
	if got := ObjectType(42).String(); got != "Unknown" {
		t.Errorf("ObjectType(42).String() = %q", got)
	}
}

func TestDictAccessors(t *testing.T) {
	stream := &Stream{Dict: Dict{}}
	d := Dict{
		"Type":   Name("XObject"),
		"Width":  Int(640),
		"Scale":  Real(1.5),
		"Kids":   Array{Int(1)},
		"Res":    Dict{"A": Int(1)},
		"Title":  String("t"),
		"Open":   Bool(true),
		"Parent": IndirectRef{Number: 2},
		"Data":   stream,
	}

	if v, ok := d.GetName("Type"); !ok || v != "XObject" {
		t.Errorf("GetName = %v, %v", v, ok)
	}
	if v, ok := d.GetInt("Width"); !ok || v != 640 {
		t.Errorf("GetInt = %v, %v", v, ok)
	}
	if _, ok := d.GetInt("Scale"); ok {
		t.Error("GetInt accepted a real")
	}
	if v, ok := d.GetReal("Scale"); !ok || v != 1.5 {
		t.Errorf("GetReal = %v, %v", v, ok)
	}
	if v, ok := d.GetNumber("Width"); !ok || v != 640 {
		t.Errorf("GetNumber(int) = %v, %v", v, ok)
	}
	if v, ok := d.GetNumber("Scale"); !ok || v != 1.5 {
		t.Errorf("GetNumber(real) = %v, %v", v, ok)
	}
	if _, ok := d.GetNumber("Type"); ok {
		t.Error("GetNumber accepted a name")
	}
	if v, ok := d.GetArray("Kids"); !ok || v.Len() != 1 {
		t.Errorf("GetArray = %v, %v", v, ok)
	}
	if v, ok := d.GetDict("Res"); !ok || !v.Has("A") {
		t.Errorf("GetDict = %v, %v", v, ok)
	}
	if v, ok := d.GetString("Title"); !ok || v != "t" {
		t.Errorf("GetString = %v, %v", v, ok)
	}
	if v, ok := d.GetBool("Open"); !ok || !bool(v) {
		t.Errorf("GetBool = %v, %v", v, ok)
	}
	if v, ok := d.GetIndirectRef("Parent"); !ok || v.Number != 2 {
		t.Errorf("GetIndirectRef = %v, %v", v, ok)
	}
	if v, ok := d.GetStream("Data"); !ok || v != stream {
		t.Errorf("GetStream = %v, %v", v, ok)
	}
	if _, ok := d.GetName("Missing"); ok {
		t.Error("GetName found a missing key")
	}
	if d.Get("Missing") != nil {
		t.Error("Get returned a value for a missing key")
	}
}

func TestDictMutation(t *testing.T) {
	d := Dict{"A": Int(1)}
	d.Set("B", Int(2))
	c := d.Clone()
	d.Delete("A")

	if d.Has("A") || !d.Has("B") {
		t.Errorf("after Delete: %v", d)
	}
	if diff := cmp.Diff([]string{"A", "B"}, c.Keys()); diff != "" {
		t.Errorf("clone keys (-want +got):\n%s", diff)
	}
}

func TestDictCloneIsShallow(t *testing.T) {
	inner := Dict{"Im1": IndirectRef{Number: 5}}
	d := Dict{"XObject": inner}
	c := d.Clone()
	c["Extra"] = Int(1)
	inner.Delete("Im1")

	if d.Has("Extra") {
		t.Error("top-level write leaked into the original")
	}
	if got, _ := c.GetDict("XObject"); got.Has("Im1") {
		t.Error("nested dictionary was copied, want it shared")
	}
}

func TestArrayAccessors(t *testing.T) {
	a := Array{Int(3), Real(2.5), Name("N")}
	if v, ok := a.GetInt(0); !ok || v != 3 {
		t.Errorf("GetInt(0) = %v, %v", v, ok)
	}
	if v, ok := a.GetReal(1); !ok || v != 2.5 {
		t.Errorf("GetReal(1) = %v, %v", v, ok)
	}
	if v, ok := a.GetName(2); !ok || v != "N" {
		t.Errorf("GetName(2) = %v, %v", v, ok)
	}
	for _, i := range []int{-1, 3} {
		if a.Get(i) != nil {
			t.Errorf("Get(%d) returned a value", i)
		}
		if _, ok := a.GetInt(i); ok {
			t.Errorf("GetInt(%d) succeeded", i)
		}
	}
}

func TestIndirectRefIsZero(t *testing.T) {
	if !(IndirectRef{}).IsZero() {
		t.Error("zero value not reported as zero")
	}
	if (IndirectRef{Number: 1}).IsZero() || (IndirectRef{Generation: 1}).IsZero() {
		t.Error("non-zero reference reported as zero")
	}
}
