// Package pages walks the PDF page tree and exposes the effective
// attributes of each page.
//
// # Page Tree
//
//	tree := pages.NewPageTree(catalog, doc.Resolver())
//	all, err := tree.Pages()
//
// The walk is depth first. A node that lacks /Type is treated as an
// intermediate node when it has /Kids and as a page otherwise. A kid that
// leads back to a node already on the current path is skipped, so cyclic
// trees terminate.
//
// # Inheritance
//
// /Resources, /MediaBox, /CropBox and /Rotate are inherited from the
// nearest ancestor that defines them. [Page.Resources] reports whether the
// effective dictionary came from an ancestor; callers that modify
// resources should give the page its own copy with [Page.SetResources]
// first, so siblings are not affected.
package pages
