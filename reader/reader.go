package reader

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"

	"github.com/tsawler/pdfstrip/core"
	"github.com/tsawler/pdfstrip/logging"
	"github.com/tsawler/pdfstrip/resolver"
)

// PDFVersion represents a PDF version
type PDFVersion struct {
	Major int
	Minor int
}

// String returns the version as a string (e.g., "1.7")
func (v PDFVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// defaultVersion is assumed when the header is missing or unreadable.
var defaultVersion = PDFVersion{Major: 1, Minor: 4}

// Document is an in-memory arena of every object in a PDF file, keyed by
// object number and generation, together with the trailer. Objects refer
// to each other only through core.IndirectRef.
//
// A Document may be read concurrently. Set must not be called while other
// goroutines read.
type Document struct {
	version    PDFVersion
	trailer    core.Dict
	objects    map[core.IndirectRef]core.Object
	current    map[int]core.IndirectRef
	containers map[int]bool
	repaired   bool
	warnings   []error
	resolver   *resolver.Resolver
}

// Open reads and loads the PDF file at path.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return Load(data)
}

// Load builds a Document from PDF bytes.
//
// The cross-reference data is used when it is consistent. When it cannot be
// parsed, when its offsets do not point at the objects they name, or when
// /Root does not resolve through it, the file is rescanned with core.Repair.
// Objects held in object streams are expanded into the arena.
//
// Load fails only with core.ErrUnsupportedEncryption or
// core.ErrUnresolvableRoot; other damage degrades to partial parsing and is
// reported by Warnings.
func Load(data []byte) (*Document, error) {
	version, err := parseHeader(data)
	var warnings []error
	if err != nil {
		warnings = append(warnings, err)
		version = defaultVersion
	}

	doc, xrefErr := loadFromXRef(data)
	if xrefErr == nil {
		if err := doc.checkRoot(); err != nil {
			xrefErr = err
		}
	}
	if xrefErr != nil {
		if errors.Is(xrefErr, core.ErrUnsupportedEncryption) {
			return nil, xrefErr
		}
		logging.Logger().Warn("cross-reference data unusable, rebuilding from object scan", slog.String("reason", xrefErr.Error()))
		warnings = append(warnings, xrefErr)
		doc = loadFromRepair(data)
	}

	doc.version = version
	doc.warnings = append(warnings, doc.warnings...)

	if doc.trailer.Has("Encrypt") {
		return nil, core.ErrUnsupportedEncryption
	}
	if err := doc.checkRoot(); err != nil {
		return nil, err
	}
	return doc, nil
}

func newDocument() *Document {
	doc := &Document{
		trailer:    core.Dict{},
		objects:    make(map[core.IndirectRef]core.Object),
		current:    make(map[int]core.IndirectRef),
		containers: make(map[int]bool),
	}
	doc.resolver = resolver.New(doc)
	return doc
}

// parseHeader reads the version from %PDF-x.y. Leading junk before the
// header is tolerated within the first kilobyte.
func parseHeader(data []byte) (PDFVersion, error) {
	window := data
	if len(window) > 1024 {
		window = window[:1024]
	}
	idx := bytes.Index(window, []byte("%PDF-"))
	if idx < 0 {
		return PDFVersion{}, fmt.Errorf("missing %%PDF header")
	}
	lex := core.NewLexer(data)
	lex.KeepComments(true)
	lex.Seek(int64(idx))
	tok, err := lex.NextToken()
	if err != nil || tok.Type != core.TokenComment {
		return PDFVersion{}, fmt.Errorf("missing %%PDF header")
	}
	rest := tok.Value[len("%PDF-"):]
	end := 0
	for end < len(rest) && end < 8 && (rest[end] == '.' || (rest[end] >= '0' && rest[end] <= '9')) {
		end++
	}
	major, minor, ok := bytes.Cut(rest[:end], []byte("."))
	if !ok {
		return PDFVersion{}, fmt.Errorf("invalid version format: %q", rest[:end])
	}
	maj, err1 := strconv.Atoi(string(major))
	mnr, err2 := strconv.Atoi(string(minor))
	if err1 != nil || err2 != nil {
		return PDFVersion{}, fmt.Errorf("invalid version format: %q", rest[:end])
	}
	return PDFVersion{Major: maj, Minor: mnr}, nil
}

// loadFromXRef loads every in-use object named by the cross-reference
// chain. Any entry whose offset does not lead to the expected object makes
// the whole table suspect.
func loadFromXRef(data []byte) (*Document, error) {
	xp := core.NewXRefParser(data)
	tables, err := xp.ParseAllXRefs()
	if err != nil {
		return nil, fmt.Errorf("failed to parse xref: %w", err)
	}
	table := core.MergeXRefTables(tables...)
	if table.Trailer.Has("Encrypt") {
		return nil, core.ErrUnsupportedEncryption
	}

	l := newLoader(data, table)
	for _, num := range sortedEntries(table) {
		entry := table.Entries[num]
		if !entry.InUse || entry.Compressed() {
			continue
		}
		if _, err := l.load(num); err != nil {
			return nil, err
		}
	}
	l.expandObjectStreams(true)
	l.doc.trailer = table.Trailer.Clone()
	return l.doc, nil
}

// loadFromRepair builds the document from a linear scan of the file.
func loadFromRepair(data []byte) *Document {
	table := core.Repair(data)
	l := newLoader(data, table)
	for _, num := range sortedEntries(table) {
		if _, err := l.load(num); err != nil {
			l.doc.warnings = append(l.doc.warnings, err)
		}
	}
	l.expandObjectStreams(false)
	l.doc.trailer = table.Trailer.Clone()
	l.doc.repaired = true

	if _, ok := l.doc.Catalog(); !ok {
		if root, ok := l.doc.findCatalog(); ok {
			l.doc.trailer["Root"] = root
		}
	}
	logging.Logger().Debug("repair scan complete", slog.Int("objects", len(l.doc.objects)))
	return l.doc
}

func sortedEntries(table *core.XRefTable) []int {
	nums := make([]int, 0, len(table.Entries))
	for num := range table.Entries {
		nums = append(nums, num)
	}
	sort.Ints(nums)
	return nums
}

// loader parses objects at their xref offsets. It also resolves indirect
// /Length values while a stream is being parsed, loading the length object
// on demand.
type loader struct {
	data    []byte
	table   *core.XRefTable
	doc     *Document
	loading map[int]bool
}

func newLoader(data []byte, table *core.XRefTable) *loader {
	return &loader{data: data, table: table, doc: newDocument(), loading: make(map[int]bool)}
}

// load parses object num at its table offset and stores it.
func (l *loader) load(num int) (core.Object, error) {
	if ref, ok := l.doc.current[num]; ok {
		return l.doc.objects[ref], nil
	}
	entry, ok := l.table.Get(num)
	if !ok || !entry.InUse || entry.Compressed() || l.loading[num] {
		return nil, fmt.Errorf("object %d has no usable xref entry", num)
	}
	l.loading[num] = true
	defer delete(l.loading, num)

	lex := core.NewLexer(l.data)
	p := core.NewParserAt(lex, entry.Offset)
	p.SetReferenceResolver(l)
	obj, err := p.ParseIndirectObject()
	l.doc.warnings = append(l.doc.warnings, lex.Errors()...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse object %d at offset %d: %w", num, entry.Offset, err)
	}
	if obj.Ref.Number != num {
		return nil, fmt.Errorf("object number mismatch at offset %d: expected %d, got %d", entry.Offset, num, obj.Ref.Number)
	}
	l.doc.Set(obj.Ref, obj.Object)
	return obj.Object, nil
}

// ResolveReference satisfies core.ReferenceResolver for stream lengths.
func (l *loader) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	return l.load(ref.Number)
}

// expandObjectStreams copies the members of every object stream into the
// arena under their own numbers. With a trusted xref table only members the
// table assigns to that stream are taken; after a repair scan, members fill
// in numbers that no top-level object defines.
func (l *loader) expandObjectStreams(trustTable bool) {
	for _, ref := range l.doc.Refs() {
		stream, ok := l.doc.objects[ref].(*core.Stream)
		if !ok {
			continue
		}
		switch t, _ := stream.Dict.GetName("Type"); t {
		case "XRef":
			l.doc.containers[ref.Number] = true
			continue
		case "ObjStm":
			l.doc.containers[ref.Number] = true
		default:
			continue
		}

		objStm, err := core.NewObjectStream(stream)
		if err != nil {
			l.doc.warnings = append(l.doc.warnings, fmt.Errorf("object stream %v: %w", ref, err))
			continue
		}
		members, err := objStm.Objects()
		if err != nil {
			l.doc.warnings = append(l.doc.warnings, fmt.Errorf("object stream %v: %w", ref, err))
		}
		for _, m := range members {
			num := m.Ref.Number
			if trustTable {
				entry, ok := l.table.Get(num)
				if !ok || !entry.Compressed() || entry.Stream != ref.Number {
					continue
				}
			} else if _, exists := l.doc.current[num]; exists {
				continue
			}
			l.doc.Set(core.IndirectRef{Number: num}, m.Object)
		}
	}
}

// checkRoot verifies that /Root resolves to a dictionary.
func (d *Document) checkRoot() error {
	if _, ok := d.Catalog(); !ok {
		return fmt.Errorf("%w: /Root is %v", core.ErrUnresolvableRoot, d.trailer.Get("Root"))
	}
	return nil
}

// findCatalog returns the lowest-numbered /Type /Catalog dictionary.
func (d *Document) findCatalog() (core.IndirectRef, bool) {
	for _, ref := range d.Refs() {
		dict, ok := d.objects[ref].(core.Dict)
		if !ok {
			continue
		}
		if t, _ := dict.GetName("Type"); t == "Catalog" {
			return ref, true
		}
	}
	return core.IndirectRef{}, false
}

// Version returns the header version.
func (d *Document) Version() PDFVersion { return d.version }

// Trailer returns the trailer dictionary.
func (d *Document) Trailer() core.Dict { return d.trailer }

// Repaired reports whether the objects came from a repair scan.
func (d *Document) Repaired() bool { return d.repaired }

// Warnings returns the recoverable conditions met while loading.
func (d *Document) Warnings() []error { return d.warnings }

// Resolver returns a resolver over the document.
func (d *Document) Resolver() *resolver.Resolver { return d.resolver }

// Lookup returns the object for ref. When no object has that exact
// generation, the current definition of the number is used.
func (d *Document) Lookup(ref core.IndirectRef) (core.Object, bool) {
	if obj, ok := d.objects[ref]; ok {
		return obj, true
	}
	if cur, ok := d.current[ref.Number]; ok {
		return d.objects[cur], true
	}
	return nil, false
}

// Get returns the object for ref, or core.Null when there is none.
func (d *Document) Get(ref core.IndirectRef) core.Object {
	if obj, ok := d.Lookup(ref); ok {
		return obj
	}
	return core.Null{}
}

// Set stores obj under ref, replacing any earlier definition of the number.
func (d *Document) Set(ref core.IndirectRef, obj core.Object) {
	if prev, ok := d.current[ref.Number]; ok && prev != ref {
		delete(d.objects, prev)
	}
	d.objects[ref] = obj
	d.current[ref.Number] = ref
}

// Canonical returns the reference under which object number ref.Number is
// currently stored.
func (d *Document) Canonical(ref core.IndirectRef) (core.IndirectRef, bool) {
	cur, ok := d.current[ref.Number]
	return cur, ok
}

// Refs returns every object reference in ascending number order.
func (d *Document) Refs() []core.IndirectRef {
	refs := make([]core.IndirectRef, 0, len(d.objects))
	for ref := range d.objects {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Number < refs[j].Number })
	return refs
}

// Len returns the number of objects.
func (d *Document) Len() int { return len(d.objects) }

// IsContainer reports whether object num is an object stream or xref
// stream. Their members live in the arena, so the container itself carries
// nothing that needs to be written back.
func (d *Document) IsContainer(num int) bool { return d.containers[num] }

// Catalog returns the document catalog.
func (d *Document) Catalog() (core.Dict, bool) {
	cat, ok := d.resolver.Resolve(d.trailer.Get("Root")).(core.Dict)
	return cat, ok
}

// Info returns the document information dictionary, or nil.
func (d *Document) Info() core.Dict {
	info, _ := d.resolver.Resolve(d.trailer.Get("Info")).(core.Dict)
	return info
}
