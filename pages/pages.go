package pages

import (
	"fmt"
	"log/slog"

	"github.com/tsawler/pdfstrip/core"
	"github.com/tsawler/pdfstrip/logging"
	"github.com/tsawler/pdfstrip/resolver"
)

// inheritable lists the page attributes a leaf takes from its ancestors.
var inheritable = []string{"Resources", "MediaBox", "CropBox", "Rotate"}

// PageTree represents the PDF page tree
type PageTree struct {
	catalog  core.Dict
	resolver *resolver.Resolver
	pages    []*Page // Cached flattened page list
}

// NewPageTree creates a page tree rooted at the catalog's /Pages entry.
func NewPageTree(catalog core.Dict, r *resolver.Resolver) *PageTree {
	return &PageTree{catalog: catalog, resolver: r}
}

// Pages returns the leaf pages in document order. Kids that do not resolve
// to dictionaries and kids already on the current path are skipped.
func (t *PageTree) Pages() ([]*Page, error) {
	if t.pages != nil {
		return t.pages, nil
	}
	rootObj := t.catalog.Get("Pages")
	if rootObj == nil {
		return nil, fmt.Errorf("catalog missing /Pages entry")
	}
	root, ok := t.resolver.Dict(rootObj)
	if !ok {
		return nil, fmt.Errorf("invalid /Pages type: %T", t.resolver.Resolve(rootObj))
	}
	rootRef, _ := rootObj.(core.IndirectRef)

	t.pages = make([]*Page, 0)
	w := walker{tree: t, onPath: map[core.IndirectRef]bool{}}
	w.visit(rootRef, root, nil, nil)
	return t.pages, nil
}

// Count returns the number of leaf pages found by the walk.
func (t *PageTree) Count() (int, error) {
	pages, err := t.Pages()
	return len(pages), err
}

// GetPage returns the page at the given index (0-based)
func (t *PageTree) GetPage(index int) (*Page, error) {
	pages, err := t.Pages()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(pages) {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", index, len(pages))
	}
	return pages[index], nil
}

type walker struct {
	tree   *PageTree
	onPath map[core.IndirectRef]bool
}

// visit walks node depth first. ancestors holds the /Pages nodes above it,
// nearest first, and refs their references.
func (w *walker) visit(ref core.IndirectRef, node core.Dict, ancestors []core.Dict, refs []core.IndirectRef) {
	if !ref.IsZero() {
		if w.onPath[ref] {
			logging.Logger().Debug("page tree cycle skipped", slog.String("ref", ref.String()))
			return
		}
		w.onPath[ref] = true
		defer delete(w.onPath, ref)
	}

	if !isPagesNode(node) {
		w.tree.pages = append(w.tree.pages, &Page{
			Index:        len(w.tree.pages),
			Ref:          ref,
			Dict:         node,
			ancestors:    ancestors,
			ancestorRefs: refs,
			resolver:     w.tree.resolver,
		})
		return
	}

	kids, _ := w.tree.resolver.Array(node.Get("Kids"))
	chain := append([]core.Dict{node}, ancestors...)
	chainRefs := append([]core.IndirectRef{ref}, refs...)
	for i, kidObj := range kids {
		kid, ok := w.tree.resolver.Dict(kidObj)
		if !ok {
			logging.Logger().Debug("page tree kid skipped", slog.Int("index", i))
			continue
		}
		kidRef, _ := kidObj.(core.IndirectRef)
		w.visit(kidRef, kid, chain, chainRefs)
	}
}

// isPagesNode classifies a tree node by /Type, or by the presence of
// /Kids when the type is missing or unexpected.
func isPagesNode(node core.Dict) bool {
	switch t, _ := node.GetName("Type"); t {
	case "Pages":
		return true
	case "Page":
		return false
	}
	return node.Has("Kids")
}

// Page represents a single PDF page
type Page struct {
	Index int
	Ref   core.IndirectRef
	Dict  core.Dict

	ancestors    []core.Dict
	ancestorRefs []core.IndirectRef
	resolver     *resolver.Resolver
}

// NewPage creates a page from a leaf dictionary. ancestors are the /Pages
// nodes above it, nearest first.
func NewPage(ref core.IndirectRef, dict core.Dict, ancestors []core.Dict, r *resolver.Resolver) *Page {
	return &Page{Ref: ref, Dict: dict, ancestors: ancestors, resolver: r}
}

// Inherited returns the raw value of an inheritable attribute and whether
// it came from an ancestor rather than the page itself.
func (p *Page) Inherited(key string) (value core.Object, inherited bool) {
	if v := p.Dict.Get(key); v != nil {
		return v, false
	}
	for _, node := range p.ancestors {
		if v := node.Get(key); v != nil {
			return v, true
		}
	}
	return nil, false
}

// Holder returns the page tree node an inherited attribute is stored in.
// ok is false when the page has the attribute itself, when no ancestor
// has it, or when the holding node is not an indirect object.
func (p *Page) Holder(key string) (ref core.IndirectRef, ok bool) {
	if p.Dict.Get(key) != nil {
		return core.IndirectRef{}, false
	}
	for i, node := range p.ancestors {
		if node.Get(key) == nil {
			continue
		}
		if i >= len(p.ancestorRefs) || p.ancestorRefs[i].IsZero() {
			return core.IndirectRef{}, false
		}
		return p.ancestorRefs[i], true
	}
	return core.IndirectRef{}, false
}

// Resources returns the effective resource dictionary and whether it is
// inherited. A page without resources yields nil.
func (p *Page) Resources() (core.Dict, bool) {
	obj, inherited := p.Inherited("Resources")
	if obj == nil {
		return nil, false
	}
	res, ok := p.resolver.Dict(obj)
	if !ok {
		return nil, false
	}
	return res, inherited
}

// ResourcesObject returns the raw /Resources value, which is either a
// direct dictionary or an indirect reference.
func (p *Page) ResourcesObject() core.Object {
	obj, _ := p.Inherited("Resources")
	return obj
}

// SetResources gives the page its own resource dictionary.
func (p *Page) SetResources(res core.Dict) {
	p.Dict["Resources"] = res
}

// XObjects returns the effective /XObject table. Values are left as
// stored: usually indirect references.
func (p *Page) XObjects() core.Dict {
	res, _ := p.Resources()
	if res == nil {
		return nil
	}
	table, _ := p.resolver.Dict(res.Get("XObject"))
	return table
}

// Content is one content stream of a page.
type Content struct {
	Ref    core.IndirectRef
	Stream *core.Stream
}

// Contents returns the page content streams in order. Entries that do not
// resolve to streams are skipped.
func (p *Page) Contents() []Content {
	obj := p.Dict.Get("Contents")
	if obj == nil {
		return nil
	}
	ref, _ := obj.(core.IndirectRef)
	switch v := p.resolver.Resolve(obj).(type) {
	case *core.Stream:
		return []Content{{Ref: ref, Stream: v}}
	case core.Array:
		out := make([]Content, 0, len(v))
		for _, elem := range v {
			if s, ok := p.resolver.Stream(elem); ok {
				r, _ := elem.(core.IndirectRef)
				out = append(out, Content{Ref: r, Stream: s})
			}
		}
		return out
	}
	return nil
}

// MediaBox returns the page media box [x1 y1 x2 y2]
func (p *Page) MediaBox() ([]float64, error) {
	return p.box("MediaBox")
}

// CropBox returns the page crop box, defaulting to the media box.
func (p *Page) CropBox() ([]float64, error) {
	if box, err := p.box("CropBox"); err == nil {
		return box, nil
	}
	return p.MediaBox()
}

func (p *Page) box(name string) ([]float64, error) {
	obj, _ := p.Inherited(name)
	if obj == nil {
		return nil, fmt.Errorf("%s not found", name)
	}
	arr, ok := p.resolver.Array(obj)
	if !ok || len(arr) != 4 {
		return nil, fmt.Errorf("invalid %s: %v", name, obj)
	}
	box := make([]float64, 4)
	for i, elem := range arr {
		v, ok := p.resolver.Number(elem)
		if !ok {
			return nil, fmt.Errorf("invalid %s element type: %T", name, elem)
		}
		box[i] = v
	}
	return box, nil
}

// Rotate returns the page rotation (0, 90, 180, or 270)
func (p *Page) Rotate() int {
	obj, _ := p.Inherited("Rotate")
	if v, ok := p.resolver.Number(obj); ok {
		return ((int(v)%360)+360)%360
	}
	return 0
}
