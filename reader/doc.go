// Package reader loads a PDF file into an in-memory object arena.
//
// # Loading
//
// Use [Load] for bytes already in memory or [Open] for a file path:
//
//	doc, err := reader.Open("document.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Loading reads the cross-reference chain, including xref streams and
// incremental updates. When the chain is broken or points at the wrong
// objects the file is rebuilt from a linear object scan; [Document.Repaired]
// reports when that happened. Objects stored in object streams are expanded
// into the arena under their own numbers.
//
// Only two conditions are fatal: an /Encrypt entry in the trailer
// (core.ErrUnsupportedEncryption) and a /Root that resolves to no
// dictionary even after repair (core.ErrUnresolvableRoot).
//
// # Object Access
//
//   - Get(ref) - object for a reference, core.Null when missing
//   - Lookup(ref) - object and presence
//   - Set(ref, obj) - replace an object
//   - Refs() - all references in ascending number order
//   - Catalog(), Info(), Trailer(), Version()
//
// [Document] implements resolver.ObjectReader, and Resolver returns a
// resolver bound to it.
package reader
