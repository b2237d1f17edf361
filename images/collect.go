package images

import (
	"log/slog"
	"sort"

	"github.com/tsawler/pdfstrip/core"
	"github.com/tsawler/pdfstrip/logging"
	"github.com/tsawler/pdfstrip/pages"
	"github.com/tsawler/pdfstrip/resolver"
)

// Entry is one resolved /XObject table entry.
type Entry struct {
	Name    string
	Ref     core.IndirectRef
	Subtype core.Name
	Stream  *core.Stream
}

// Entries resolves an /XObject table, sorted by name. Entries that do not
// resolve to streams are dropped.
func Entries(table core.Dict, r *resolver.Resolver) []Entry {
	out := make([]Entry, 0, len(table))
	for _, name := range table.Keys() {
		s, ok := r.Stream(table[name])
		if !ok {
			continue
		}
		ref, _ := table[name].(core.IndirectRef)
		subtype, _ := r.Name(s.Dict.Get("Subtype"))
		out = append(out, Entry{Name: name, Ref: ref, Subtype: subtype, Stream: s})
	}
	return out
}

// Form is a form XObject reachable from a page. Owner is the form whose
// table it was found in, or zero for the page's table; Outer is that table.
type Form struct {
	Ref    core.IndirectRef
	Stream *core.Stream
	Depth  int
	Owner  core.IndirectRef
	Outer  core.Dict
}

// InheritsResources reports whether the form has no /Resources of its own
// and looks names up in Outer.
func (f Form) InheritsResources() bool {
	return f.Stream.Dict.Get("Resources") == nil
}

// XObjects returns the /XObject table the form's content draws with: its
// own, or Outer when it has no resources.
func (f Form) XObjects(r *resolver.Resolver) core.Dict {
	if f.InheritsResources() {
		return f.Outer
	}
	res, ok := r.Dict(f.Stream.Dict.Get("Resources"))
	if !ok {
		return nil
	}
	table, _ := r.Dict(res.Get("XObject"))
	return table
}

// Inventory lists the image XObjects and forms reachable from a page.
type Inventory struct {
	Images []Candidate
	Forms  []Form
}

// Collect inventories the page's XObjects. Forms are followed into their
// own resources up to maxDepth levels; deeper forms and anything already
// visited are not inspected. Images inside forms are reported with Kind
// FormXObjectImage and the enclosing form's reference. A form without
// resources draws from the table it was found in, which is already
// inventoried, so it is not walked again.
func Collect(page *pages.Page, r *resolver.Resolver, maxDepth int) *Inventory {
	c := collector{r: r, maxDepth: maxDepth, visited: map[core.IndirectRef]bool{}, inv: &Inventory{}}
	c.walk(page.XObjects(), core.IndirectRef{}, 0)
	sort.SliceStable(c.inv.Forms, func(i, j int) bool { return c.inv.Forms[i].Depth < c.inv.Forms[j].Depth })
	return c.inv
}

type collector struct {
	r        *resolver.Resolver
	maxDepth int
	visited  map[core.IndirectRef]bool
	inv      *Inventory
}

func (c *collector) walk(table core.Dict, form core.IndirectRef, depth int) {
	for _, e := range Entries(table, c.r) {
		switch e.Subtype {
		case "Image":
			cand := FromStream(e.Name, e.Ref, e.Stream, c.r)
			if depth > 0 {
				cand.Kind = FormXObjectImage
				cand.Form = form
			}
			c.inv.Images = append(c.inv.Images, cand)
		case "Form":
			if e.Ref.IsZero() || c.visited[e.Ref] {
				continue
			}
			if depth+1 > c.maxDepth {
				logging.Logger().Debug("form nesting limit reached", slog.String("form", e.Ref.String()), slog.Int("depth", depth+1))
				continue
			}
			c.visited[e.Ref] = true
			f := Form{Ref: e.Ref, Stream: e.Stream, Depth: depth + 1, Owner: form, Outer: table}
			c.inv.Forms = append(c.inv.Forms, f)
			if !f.InheritsResources() {
				c.walk(f.XObjects(c.r), e.Ref, depth+1)
			}
		}
	}
}
