package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Object is any PDF value.
type Object interface {
	Type() ObjectType
	String() string
}

// ObjectType identifies the kind of an Object.
type ObjectType int

const (
	ObjNull ObjectType = iota
	ObjBool
	ObjInt
	ObjReal
	ObjString
	ObjName
	ObjArray
	ObjDict
	ObjStream
	ObjIndirect
)

var objectTypeNames = [...]string{
	ObjNull:     "Null",
	ObjBool:     "Bool",
	ObjInt:      "Int",
	ObjReal:     "Real",
	ObjString:   "String",
	ObjName:     "Name",
	ObjArray:    "Array",
	ObjDict:     "Dict",
	ObjStream:   "Stream",
	ObjIndirect: "IndirectRef",
}

func (t ObjectType) String() string {
	if t < 0 || int(t) >= len(objectTypeNames) {
		return "Unknown"
	}
	return objectTypeNames[t]
}

// Null is the PDF null object. Failed reference lookups resolve to it.
type Null struct{}

func (Null) Type() ObjectType { return ObjNull }
func (Null) String() string   { return "null" }

// Bool is a PDF boolean.
type Bool bool

func (b Bool) Type() ObjectType { return ObjBool }
func (b Bool) String() string   { return strconv.FormatBool(bool(b)) }

// Int is a PDF integer.
type Int int64

func (i Int) Type() ObjectType { return ObjInt }
func (i Int) String() string   { return strconv.FormatInt(int64(i), 10) }

// Real is a PDF real number.
type Real float64

func (r Real) Type() ObjectType { return ObjReal }
func (r Real) String() string   { return strconv.FormatFloat(float64(r), 'f', -1, 64) }

// String is a PDF string holding raw bytes, literal and hex forms alike.
type String string

func (s String) Type() ObjectType { return ObjString }
func (s String) String() string   { return string(s) }

// Name is a PDF name without its leading slash.
type Name string

func (n Name) Type() ObjectType { return ObjName }
func (n Name) String() string   { return "/" + string(n) }

// Array is a PDF array.
type Array []Object

func (a Array) Type() ObjectType { return ObjArray }
func (a Array) String() string {
	parts := make([]string, len(a))
	for i, obj := range a {
		parts[i] = obj.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Len returns the number of elements.
func (a Array) Len() int { return len(a) }

// Get returns the element at index, or nil when out of range.
func (a Array) Get(index int) Object {
	if index < 0 || index >= len(a) {
		return nil
	}
	return a[index]
}

// GetInt returns the integer at index.
func (a Array) GetInt(index int) (Int, bool) { return as[Int](a.Get(index)) }

// GetReal returns the real at index.
func (a Array) GetReal(index int) (Real, bool) { return as[Real](a.Get(index)) }

// GetName returns the name at index.
func (a Array) GetName(index int) (Name, bool) { return as[Name](a.Get(index)) }

// Dict is a PDF dictionary keyed by name without the slash.
type Dict map[string]Object

func (d Dict) Type() ObjectType { return ObjDict }

// String renders the dictionary with keys in sorted order.
func (d Dict) String() string {
	keys := d.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("/%s %s", k, d[k].String())
	}
	return "<<" + strings.Join(parts, " ") + ">>"
}

func as[T Object](obj Object) (T, bool) {
	v, ok := obj.(T)
	return v, ok
}

// Get returns the raw value for key, which may be an IndirectRef.
func (d Dict) Get(key string) Object { return d[key] }

func (d Dict) GetName(key string) (Name, bool)         { return as[Name](d[key]) }
func (d Dict) GetInt(key string) (Int, bool)           { return as[Int](d[key]) }
func (d Dict) GetDict(key string) (Dict, bool)         { return as[Dict](d[key]) }
func (d Dict) GetArray(key string) (Array, bool)       { return as[Array](d[key]) }
func (d Dict) GetReal(key string) (Real, bool)         { return as[Real](d[key]) }
func (d Dict) GetString(key string) (String, bool)     { return as[String](d[key]) }
func (d Dict) GetBool(key string) (Bool, bool)         { return as[Bool](d[key]) }
func (d Dict) GetStream(key string) (*Stream, bool)    { return as[*Stream](d[key]) }
func (d Dict) GetIndirectRef(key string) (IndirectRef, bool) {
	return as[IndirectRef](d[key])
}

// GetNumber returns an Int or Real value as float64.
func (d Dict) GetNumber(key string) (float64, bool) {
	return Number(d[key])
}

// Has reports whether key is present.
func (d Dict) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Set stores value under key.
func (d Dict) Set(key string, value Object) { d[key] = value }

// Delete removes key.
func (d Dict) Delete(key string) { delete(d, key) }

// Keys returns the keys in sorted order.
func (d Dict) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy. Nested containers are shared.
func (d Dict) Clone() Dict {
	c := make(Dict, len(d))
	for k, v := range d {
		c[k] = v
	}
	return c
}

// Number converts an Int or Real to float64.
func Number(obj Object) (float64, bool) {
	switch v := obj.(type) {
	case Int:
		return float64(v), true
	case Real:
		return float64(v), true
	}
	return 0, false
}

// Stream is a stream object: a dictionary plus the encoded bytes between
// the stream and endstream keywords.
type Stream struct {
	Dict Dict
	Data []byte
}

func (s *Stream) Type() ObjectType { return ObjStream }
func (s *Stream) String() string {
	return fmt.Sprintf("stream %s (%d bytes)", s.Dict.String(), len(s.Data))
}

// IndirectRef identifies an object by number and generation.
type IndirectRef struct {
	Number     int
	Generation int
}

func (r IndirectRef) Type() ObjectType { return ObjIndirect }
func (r IndirectRef) String() string {
	return fmt.Sprintf("%d %d R", r.Number, r.Generation)
}

// IsZero reports whether r is the zero reference. Object 0 is never in use.
func (r IndirectRef) IsZero() bool { return r.Number == 0 && r.Generation == 0 }

// IndirectObject is an object together with its identity.
type IndirectObject struct {
	Ref    IndirectRef
	Object Object
}
