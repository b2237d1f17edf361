package resolver

import (
	"log/slog"

	"github.com/tsawler/pdfstrip/core"
	"github.com/tsawler/pdfstrip/logging"
)

// ObjectReader looks up objects by reference. A miss is reported with
// ok == false; the resolver turns it into null.
type ObjectReader interface {
	Lookup(ref core.IndirectRef) (core.Object, bool)
}

// Resolver follows indirect references through an ObjectReader. Failed
// lookups, reference cycles and chains deeper than the configured bound all
// resolve to core.Null. A Resolver holds no mutable state and is safe for
// concurrent use as long as the reader is.
type Resolver struct {
	reader   ObjectReader
	maxDepth int
}

// Option configures the resolver
type Option func(*Resolver)

// WithMaxDepth sets the maximum reference chain and nesting depth (default: 64)
func WithMaxDepth(depth int) Option {
	return func(r *Resolver) {
		if depth > 0 {
			r.maxDepth = depth
		}
	}
}

// New creates a resolver over reader.
func New(reader ObjectReader, opts ...Option) *Resolver {
	r := &Resolver{reader: reader, maxDepth: 64}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve follows obj until it is no longer a reference. Nested values are
// not touched.
func (r *Resolver) Resolve(obj core.Object) core.Object {
	for depth := 0; ; depth++ {
		ref, ok := obj.(core.IndirectRef)
		if !ok {
			if obj == nil {
				return core.Null{}
			}
			return obj
		}
		if depth >= r.maxDepth {
			logging.Logger().Debug("reference chain too deep", slog.String("ref", ref.String()))
			return core.Null{}
		}
		next, found := r.reader.Lookup(ref)
		if !found {
			logging.Logger().Debug("unresolved reference", slog.String("ref", ref.String()))
			return core.Null{}
		}
		obj = next
	}
}

// ResolveDeep returns a copy of obj with every nested reference replaced
// by its target. A reference that would re-enter an object being expanded
// becomes null. Stream data is shared with the original.
func (r *Resolver) ResolveDeep(obj core.Object) core.Object {
	return r.deep(obj, map[core.IndirectRef]bool{}, 0)
}

func (r *Resolver) deep(obj core.Object, active map[core.IndirectRef]bool, depth int) core.Object {
	if depth > r.maxDepth {
		return core.Null{}
	}
	switch v := obj.(type) {
	case core.IndirectRef:
		if active[v] {
			return core.Null{}
		}
		active[v] = true
		defer delete(active, v)
		target, found := r.reader.Lookup(v)
		if !found {
			return core.Null{}
		}
		return r.deep(target, active, depth+1)
	case core.Dict:
		out := make(core.Dict, len(v))
		for k, val := range v {
			out[k] = r.deep(val, active, depth+1)
		}
		return out
	case core.Array:
		out := make(core.Array, len(v))
		for i, val := range v {
			out[i] = r.deep(val, active, depth+1)
		}
		return out
	case *core.Stream:
		dict, _ := r.deep(v.Dict, active, depth+1).(core.Dict)
		return &core.Stream{Dict: dict, Data: v.Data}
	case nil:
		return core.Null{}
	}
	return obj
}

// Dict resolves obj to a dictionary. A stream yields its dictionary.
func (r *Resolver) Dict(obj core.Object) (core.Dict, bool) {
	switch v := r.Resolve(obj).(type) {
	case core.Dict:
		return v, true
	case *core.Stream:
		return v.Dict, true
	}
	return nil, false
}

// Stream resolves obj to a stream.
func (r *Resolver) Stream(obj core.Object) (*core.Stream, bool) {
	s, ok := r.Resolve(obj).(*core.Stream)
	return s, ok
}

// Array resolves obj to an array.
func (r *Resolver) Array(obj core.Object) (core.Array, bool) {
	a, ok := r.Resolve(obj).(core.Array)
	return a, ok
}

// Name resolves obj to a name.
func (r *Resolver) Name(obj core.Object) (core.Name, bool) {
	n, ok := r.Resolve(obj).(core.Name)
	return n, ok
}

// Number resolves obj to an integer or real value.
func (r *Resolver) Number(obj core.Object) (float64, bool) {
	return core.Number(r.Resolve(obj))
}

// ResolveReference satisfies core.ReferenceResolver. It never fails; a
// missing object is returned as null.
func (r *Resolver) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	return r.Resolve(ref), nil
}
