package core

import (
	"math"
	"strconv"
)

// AppendObject appends the PDF syntax of obj to buf. Dictionary keys are
// written in sorted order so that output is deterministic. A stream's
// /Length is set to the length of its data.
func AppendObject(buf []byte, obj Object) []byte {
	switch v := obj.(type) {
	case nil, Null:
		return append(buf, "null"...)
	case Bool:
		return strconv.AppendBool(buf, bool(v))
	case Int:
		return strconv.AppendInt(buf, int64(v), 10)
	case Real:
		return appendReal(buf, float64(v))
	case String:
		return appendString(buf, []byte(v))
	case Name:
		return appendName(buf, string(v))
	case Array:
		buf = append(buf, '[')
		for i, elem := range v {
			if i > 0 {
				buf = append(buf, ' ')
			}
			buf = AppendObject(buf, elem)
		}
		return append(buf, ']')
	case Dict:
		buf = append(buf, "<<"...)
		for _, k := range v.Keys() {
			buf = appendName(buf, k)
			buf = append(buf, ' ')
			buf = AppendObject(buf, v[k])
		}
		return append(buf, ">>"...)
	case *Stream:
		dict := v.Dict.Clone()
		dict["Length"] = Int(len(v.Data))
		buf = AppendObject(buf, dict)
		buf = append(buf, "\nstream\n"...)
		buf = append(buf, v.Data...)
		return append(buf, "\nendstream"...)
	case IndirectRef:
		buf = strconv.AppendInt(buf, int64(v.Number), 10)
		buf = append(buf, ' ')
		buf = strconv.AppendInt(buf, int64(v.Generation), 10)
		return append(buf, " R"...)
	}
	return append(buf, "null"...)
}

// Serialize returns the PDF syntax of obj.
func Serialize(obj Object) []byte {
	return AppendObject(nil, obj)
}

func appendReal(buf []byte, f float64) []byte {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return append(buf, '0')
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.AppendInt(buf, int64(f), 10)
	}
	return strconv.AppendFloat(buf, f, 'f', -1, 64)
}

// appendString writes a literal string, or a hex string when most bytes
// are not printable.
func appendString(buf, s []byte) []byte {
	binary := 0
	for _, b := range s {
		if (b < 0x20 && b != '\n' && b != '\t') || b > 0x7e {
			binary++
		}
	}
	if binary > len(s)/4 {
		const hex = "0123456789ABCDEF"
		buf = append(buf, '<')
		for _, b := range s {
			buf = append(buf, hex[b>>4], hex[b&0x0f])
		}
		return append(buf, '>')
	}

	buf = append(buf, '(')
	for _, b := range s {
		switch b {
		case '(', ')', '\\':
			buf = append(buf, '\\', b)
		case '\r':
			buf = append(buf, '\\', 'r')
		default:
			buf = append(buf, b)
		}
	}
	return append(buf, ')')
}

// appendName writes /name, escaping bytes that are not regular characters.
func appendName(buf []byte, name string) []byte {
	const hex = "0123456789ABCDEF"
	buf = append(buf, '/')
	for i := 0; i < len(name); i++ {
		b := name[i]
		if b < 0x21 || b > 0x7e || b == '#' || isDelimiter(b) {
			buf = append(buf, '#', hex[b>>4], hex[b&0x0f])
			continue
		}
		buf = append(buf, b)
	}
	return buf
}
