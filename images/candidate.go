package images

import (
	"github.com/tsawler/pdfstrip/core"
	"github.com/tsawler/pdfstrip/resolver"
)

// Kind says where an image came from.
type Kind int

const (
	// XObjectImage is an /Subtype /Image XObject drawn with Do.
	XObjectImage Kind = iota
	// InlineImage is a BI ... ID ... EI sequence in a content stream.
	InlineImage
	// FormXObjectImage is an image XObject used inside a form XObject.
	FormXObjectImage
)

func (k Kind) String() string {
	switch k {
	case XObjectImage:
		return "xobject"
	case InlineImage:
		return "inline"
	case FormXObjectImage:
		return "form"
	}
	return "unknown"
}

// Candidate is an image considered for removal. Width and Height are -1
// when the image does not declare them.
type Candidate struct {
	Ref        core.IndirectRef
	Name       string
	Width      int
	Height     int
	DataLength int
	Kind       Kind
	Form       core.IndirectRef
}

// HasSize reports whether both dimensions are known.
func (c Candidate) HasSize() bool { return c.Width >= 0 && c.Height >= 0 }

// FromStream builds a candidate for an image XObject.
func FromStream(name string, ref core.IndirectRef, s *core.Stream, r *resolver.Resolver) Candidate {
	return Candidate{
		Ref:        ref,
		Name:       name,
		Width:      dimension(r, s.Dict, "Width"),
		Height:     dimension(r, s.Dict, "Height"),
		DataLength: len(s.Data),
		Kind:       XObjectImage,
	}
}

// FromInline builds a candidate from inline image parameters, which may
// use the abbreviated keys W and H.
func FromInline(params core.Dict, dataLength int) Candidate {
	return Candidate{
		Width:      dimension(nil, params, "W", "Width"),
		Height:     dimension(nil, params, "H", "Height"),
		DataLength: dataLength,
		Kind:       InlineImage,
	}
}

// dimension returns the first non-negative numeric value among keys, or -1.
func dimension(r *resolver.Resolver, dict core.Dict, keys ...string) int {
	for _, key := range keys {
		obj := dict.Get(key)
		if obj == nil {
			continue
		}
		var v float64
		var ok bool
		if r != nil {
			v, ok = r.Number(obj)
		} else {
			v, ok = core.Number(obj)
		}
		if ok && v >= 0 {
			return int(v)
		}
	}
	return -1
}
