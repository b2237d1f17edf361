package pdfstrip

import (
	"sort"

	"github.com/tsawler/pdfstrip/core"
	"github.com/tsawler/pdfstrip/images"
)

// usage records who names each indirect resource dictionary and XObject
// table in the document.
type usage struct {
	// resourceStreams maps a resource dictionary's object number to the
	// streams (forms, appearance streams) whose /Resources names it.
	resourceStreams map[int][]int
	// tables maps an XObject table's object number to the number of
	// resource dictionaries that name it.
	tables map[int]int
}

func (e *engine) scanUsage() usage {
	u := usage{resourceStreams: map[int][]int{}, tables: map[int]int{}}
	counted := make(map[int]bool)
	for _, ref := range e.doc.Refs() {
		var holder core.Dict
		isStream := false
		switch v := e.doc.Get(ref).(type) {
		case core.Dict:
			holder = v
		case *core.Stream:
			holder, isStream = v.Dict, true
		default:
			continue
		}
		obj := holder.Get("Resources")
		if obj == nil {
			continue
		}
		if rr, ok := obj.(core.IndirectRef); ok {
			if isStream {
				u.resourceStreams[rr.Number] = append(u.resourceStreams[rr.Number], ref.Number)
			}
			if counted[rr.Number] {
				continue
			}
			counted[rr.Number] = true
		}
		res, ok := e.r.Dict(obj)
		if !ok {
			continue
		}
		if tr, ok := res.Get("XObject").(core.IndirectRef); ok {
			u.tables[tr.Number]++
		}
	}
	return u
}

// resources returns the raw /Resources value a target draws with and
// whether it is inherited from a page tree node.
func (e *engine) resources(t target) (core.Object, bool) {
	if t.form != nil {
		return t.form.Stream.Dict.Get("Resources"), false
	}
	return t.page.Inherited("Resources")
}

// prunable lists the names in the plan's table that are removed images no
// longer drawn by the rewritten content, nor by the forms that draw from
// the same table.
func (e *engine) prunable(p *plan, byForm map[core.IndirectRef]*plan) map[string]bool {
	t := p.target
	if p.err != nil || t.sharedInheritors || (t.form != nil && t.form.InheritsResources()) {
		return nil
	}
	users := []*plan{p}
	for _, ref := range t.inheritors {
		q := byForm[ref]
		if q == nil || q.err != nil {
			return nil
		}
		users = append(users, q)
	}
	names := make(map[string]bool)
	for _, name := range p.table.Keys() {
		if drawn(users, name) {
			continue
		}
		if d, isImage := e.decideName(p.table, name); isImage && d == images.Remove {
			names[name] = true
		}
	}
	return names
}

func drawn(plans []*plan, name string) bool {
	for _, p := range plans {
		if p.result.Remaining[name] > 0 {
			return true
		}
	}
	return false
}

// prune deletes the XObject entries of removed images.
//
// A resource dictionary shared by several targets is edited in place when
// every user of it is a planned target and all of them drop the name. The
// same holds for a direct dictionary on a page tree node, whose users are
// the pages inheriting it. Names only some users drop are removed from a
// private copy stored on the owning page or form.
func (e *engine) prune(plans []*plan) {
	u := e.scanUsage()
	forms := make(map[int]bool)
	byForm := make(map[core.IndirectRef]*plan)
	groups := make(map[int][]*plan)
	nodes := make(map[int][]*plan)
	for _, p := range plans {
		if p.target.form != nil {
			forms[p.target.form.Ref.Number] = true
			byForm[p.target.form.Ref] = p
		}
		obj, inherited := e.resources(p.target)
		switch v := obj.(type) {
		case core.IndirectRef:
			groups[v.Number] = append(groups[v.Number], p)
		case core.Dict:
			if !inherited {
				break
			}
			if ref, ok := p.target.page.Holder("Resources"); ok {
				nodes[ref.Number] = append(nodes[ref.Number], p)
			}
		}
	}
	common := func(group []*plan) map[string]bool {
		names := e.prunable(group[0], byForm)
		for _, p := range group[1:] {
			names = intersect(names, e.prunable(p, byForm))
		}
		return names
	}

	shared := make(map[int]map[string]bool)
	for _, num := range sortedKeys(groups) {
		if !exclusive(u.resourceStreams[num], forms) {
			continue
		}
		if names := common(groups[num]); len(names) > 0 {
			e.pruneShared(num, names, u)
			shared[num] = names
		}
	}
	nodeNames := make(map[int]map[string]bool)
	for _, num := range sortedKeys(nodes) {
		if names := common(nodes[num]); len(names) > 0 {
			e.pruneNode(num, names, u)
			nodeNames[num] = names
		}
	}

	for _, p := range plans {
		names := e.prunable(p, byForm)
		obj, _ := e.resources(p.target)
		if ref, ok := obj.(core.IndirectRef); ok {
			for name := range shared[ref.Number] {
				delete(names, name)
			}
		}
		if p.target.form == nil {
			if ref, ok := p.target.page.Holder("Resources"); ok {
				for name := range nodeNames[ref.Number] {
					delete(names, name)
				}
			}
		}
		if len(names) > 0 {
			e.pruneCopy(p.target, names)
		}
	}
}

// exclusive reports whether every stream naming a resource dictionary is
// a planned form.
func exclusive(holders []int, forms map[int]bool) bool {
	for _, num := range holders {
		if !forms[num] {
			return false
		}
	}
	return true
}

// pruneShared edits the indirect resource dictionary num in place.
func (e *engine) pruneShared(num int, names map[string]bool, u usage) {
	ref, ok := e.doc.Canonical(core.IndirectRef{Number: num})
	if !ok {
		return
	}
	res, ok := e.doc.Get(ref).(core.Dict)
	if !ok {
		return
	}
	if newRes, ok := e.pruned(res, names, u); ok {
		e.doc.Set(ref, newRes)
	}
}

// pruneNode edits the direct /Resources of page tree node num in place.
func (e *engine) pruneNode(num int, names map[string]bool, u usage) {
	ref, ok := e.doc.Canonical(core.IndirectRef{Number: num})
	if !ok {
		return
	}
	node, ok := e.doc.Get(ref).(core.Dict)
	if !ok {
		return
	}
	res, ok := node.Get("Resources").(core.Dict)
	if !ok {
		return
	}
	if newRes, ok := e.pruned(res, names, u); ok {
		node["Resources"] = newRes
	}
}

// pruned returns res without names in its /XObject table. An indirect
// table named by no other resource dictionary is rewritten in place.
func (e *engine) pruned(res core.Dict, names map[string]bool, u usage) (core.Dict, bool) {
	table, ok := e.r.Dict(res.Get("XObject"))
	if !ok {
		return nil, false
	}
	kept := without(table, names)

	newRes := res.Clone()
	tableRef, indirect := res.Get("XObject").(core.IndirectRef)
	switch {
	case len(kept) == 0:
		delete(newRes, "XObject")
	case indirect && u.tables[tableRef.Number] == 1:
		if canon, ok := e.doc.Canonical(tableRef); ok {
			e.doc.Set(canon, kept)
		}
	default:
		newRes["XObject"] = kept
	}
	return newRes, true
}

func (e *engine) pruneCopy(t target, names map[string]bool) {
	obj, _ := e.resources(t)
	res, ok := e.r.Dict(obj)
	if !ok {
		return
	}
	table, ok := e.r.Dict(res.Get("XObject"))
	if !ok {
		return
	}
	pruned := without(table, names)
	if len(pruned) == len(table) {
		return
	}
	newRes := res.Clone()
	if len(pruned) == 0 {
		delete(newRes, "XObject")
	} else {
		newRes["XObject"] = pruned
	}
	t.owner()["Resources"] = newRes
}

// placeholders empties removed images that nothing in the document refers
// to any more. Their object numbers stay in use.
func (e *engine) placeholders() {
	reached := e.reachable()
	refs := make([]core.IndirectRef, 0, len(e.decisions))
	for ref, d := range e.decisions {
		if d == images.Remove && !reached[ref.Number] {
			refs = append(refs, ref)
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Number < refs[j].Number })
	for _, ref := range refs {
		canon, ok := e.doc.Canonical(ref)
		if !ok {
			continue
		}
		if _, isStream := e.doc.Get(canon).(*core.Stream); !isStream {
			continue
		}
		e.doc.Set(canon, core.Dict{})
		e.report.Placeholders++
	}
}

// reachable returns the object numbers reachable from the trailer.
func (e *engine) reachable() map[int]bool {
	seen := make(map[int]bool)
	trailer := e.doc.Trailer()
	stack := make([]core.Object, 0, len(trailer))
	for _, key := range trailer.Keys() {
		stack = append(stack, trailer[key])
	}
	for len(stack) > 0 {
		obj := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch v := obj.(type) {
		case core.IndirectRef:
			if seen[v.Number] {
				continue
			}
			seen[v.Number] = true
			if next, ok := e.doc.Lookup(v); ok {
				stack = append(stack, next)
			}
		case core.Array:
			stack = append(stack, v...)
		case core.Dict:
			for _, x := range v {
				stack = append(stack, x)
			}
		case *core.Stream:
			for _, x := range v.Dict {
				stack = append(stack, x)
			}
		}
	}
	return seen
}

func without(table core.Dict, names map[string]bool) core.Dict {
	out := table.Clone()
	for name := range names {
		delete(out, name)
	}
	return out
}

func intersect(a, b map[string]bool) map[string]bool {
	out := make(map[string]bool)
	for name := range a {
		if b[name] {
			out[name] = true
		}
	}
	return out
}

func sortedKeys(m map[int][]*plan) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
