// Package resolver follows PDF indirect references ("5 0 R") to the
// objects they name.
//
// Resolution never fails: a reference to a missing object, a cycle of
// references, or a chain longer than the depth bound all yield core.Null.
// Callers that need a particular type use the typed helpers:
//
//	r := resolver.New(doc)
//	if res, ok := r.Dict(page.Get("Resources")); ok {
//		...
//	}
//
// The depth bound is configurable:
//
//	r := resolver.New(doc, resolver.WithMaxDepth(16))
//
// ResolveDeep expands every nested reference in a dictionary, array or
// stream dictionary and returns the expanded copy.
package resolver
