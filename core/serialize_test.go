package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSerialize(t *testing.T) {
	tests := []struct {
		name string
		obj  Object
		want string
	}{
		{"nil", nil, "null"},
		{"null", Null{}, "null"},
		{"bool", Bool(false), "false"},
		{"int", Int(-12), "-12"},
		{"whole real", Real(612), "612"},
		{"real", Real(0.5), "0.5"},
		{"string", String("a(b)c\\"), `(a\(b\)c\\)`},
		{"carriage return", String("line one\rline two"), `(line one\rline two)`},
		{"short binary", String("a\rb"), "<610D62>"},
		{"binary string", String("\x00\x01\xfe\xff"), "<0001FEFF>"},
		{"name", Name("Im1"), "/Im1"},
		{"name escapes", Name("A B#(x)"), "/A#20B#23#28x#29"},
		{"array", Array{Int(0), Name("N"), Array{}}, "[0 /N []]"},
		{"dict sorted", Dict{"Type": Name("Page"), "Count": Int(1)}, "<</Count 1/Type /Page>>"},
		{"ref", IndirectRef{Number: 3, Generation: 2}, "3 2 R"},
		{"stream length", &Stream{Dict: Dict{"Length": Int(99)}, Data: []byte("BT ET")},
			"<</Length 5>>\nstream\nBT ET\nendstream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(Serialize(tt.obj)); got != tt.want {
				t.Errorf("Serialize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSerializeReparses(t *testing.T) {
	objects := []Object{
		Dict{
			"Resources": Dict{"XObject": Dict{"Im1": IndirectRef{Number: 5}}},
			"MediaBox":  Array{Int(0), Int(0), Real(595.5), Int(842)},
			"Title":     String("Quarterly (draft)"),
			"Blob":      String("\x89PNG\r\n\x1a\n"),
			"Odd name":  Bool(true),
		},
		Array{Null{}, Name("a/b"), String("")},
	}
	for _, want := range objects {
		got, err := NewParser(Serialize(want)).ParseObject()
		if err != nil {
			t.Fatalf("reparse %s: %v", Serialize(want), err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("reparsed object (-want +got):\n%s", diff)
		}
	}
}

func TestSerializeStreamKeepsDict(t *testing.T) {
	s := &Stream{Dict: Dict{"Length": Int(1)}, Data: []byte("abc")}
	Serialize(s)
	if n, _ := s.Dict.GetInt("Length"); n != 1 {
		t.Errorf("Serialize modified the stream dictionary: Length = %d", n)
	}
}
