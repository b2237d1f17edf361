package core

import (
	"bytes"
	"fmt"
	"strconv"
)

// XRefEntry is one cross-reference entry. For objects stored in an object
// stream, Stream is the number of the containing stream and Index the
// position inside it; Offset is unused.
type XRefEntry struct {
	Offset     int64
	Generation int
	InUse      bool
	Stream     int
	Index      int
}

// Compressed reports whether the object lives in an object stream.
func (e *XRefEntry) Compressed() bool { return e.InUse && e.Stream > 0 }

// XRefTable maps object numbers to entries and carries the trailer.
type XRefTable struct {
	Entries map[int]*XRefEntry
	Trailer Dict
}

// NewXRefTable creates an empty table.
func NewXRefTable() *XRefTable {
	return &XRefTable{
		Entries: make(map[int]*XRefEntry),
		Trailer: make(Dict),
	}
}

// Get returns the entry for objNum.
func (x *XRefTable) Get(objNum int) (*XRefEntry, bool) {
	entry, ok := x.Entries[objNum]
	return entry, ok
}

// Set adds or replaces the entry for objNum.
func (x *XRefTable) Set(objNum int, entry *XRefEntry) {
	x.Entries[objNum] = entry
}

// Size returns the number of entries.
func (x *XRefTable) Size() int {
	return len(x.Entries)
}

// XRefParser reads cross-reference sections, both classic tables and
// cross-reference streams.
type XRefParser struct {
	data []byte
}

// NewXRefParser creates a parser over the whole file.
func NewXRefParser(data []byte) *XRefParser {
	return &XRefParser{data: data}
}

// FindXRef returns the offset that follows the last "startxref".
func (x *XRefParser) FindXRef() (int64, error) {
	tail := x.data
	if len(tail) > 2048 {
		tail = tail[len(tail)-2048:]
	}
	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 {
		return 0, fmt.Errorf("startxref not found in PDF")
	}
	l := NewLexer(tail)
	l.Seek(int64(idx + len("startxref")))
	tok, err := l.NextToken()
	if err != nil || tok.Type != TokenInteger {
		return 0, fmt.Errorf("invalid startxref format")
	}
	offset, err := strconv.ParseInt(string(tok.Value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid xref offset: %w", err)
	}
	if offset < 0 || offset >= int64(len(x.data)) {
		return 0, fmt.Errorf("xref offset %d outside file", offset)
	}
	return offset, nil
}

// ParseXRef parses the section at offset, which is either an "xref" table
// or an indirect object holding a cross-reference stream.
func (x *XRefParser) ParseXRef(offset int64) (*XRefTable, error) {
	if offset < 0 || offset >= int64(len(x.data)) {
		return nil, fmt.Errorf("xref offset %d outside file", offset)
	}
	l := NewLexer(x.data)
	l.Seek(offset)
	tok, err := l.NextToken()
	if err != nil {
		return nil, err
	}
	if tok.Is("xref") {
		return x.parseTable(l)
	}
	if tok.Type == TokenInteger {
		return x.parseStream(offset)
	}
	return nil, fmt.Errorf("expected 'xref' or xref stream at offset %d", offset)
}

// parseTable parses classic subsections up to and including the trailer.
func (x *XRefParser) parseTable(l *Lexer) (*XRefTable, error) {
	table := NewXRefTable()
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Is("trailer") {
			p := NewParserAt(l, l.Pos())
			obj, err := p.ParseObject()
			if err != nil {
				return nil, fmt.Errorf("failed to parse trailer: %w", err)
			}
			dict, ok := obj.(Dict)
			if !ok {
				return nil, fmt.Errorf("trailer is not a dictionary, got %T", obj)
			}
			table.Trailer = dict
			return table, nil
		}

		first, err := tokenInt(tok)
		if err != nil {
			return nil, fmt.Errorf("invalid subsection header: %w", err)
		}
		countTok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		count, err := tokenInt(countTok)
		if err != nil || count < 0 {
			return nil, fmt.Errorf("invalid subsection count at offset %d", countTok.Pos)
		}

		for i := 0; i < count; i++ {
			entry, err := x.parseEntry(l)
			if err != nil {
				return nil, fmt.Errorf("failed to parse xref entry %d: %w", first+i, err)
			}
			table.Set(first+i, entry)
		}
	}
}

// parseEntry parses "nnnnnnnnnn ggggg n|f".
func (x *XRefParser) parseEntry(l *Lexer) (*XRefEntry, error) {
	var fields [3]*Token
	for i := range fields {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		fields[i] = tok
	}
	offset, err := tokenInt(fields[0])
	if err != nil {
		return nil, fmt.Errorf("invalid offset: %w", err)
	}
	gen, err := tokenInt(fields[1])
	if err != nil {
		return nil, fmt.Errorf("invalid generation: %w", err)
	}
	switch {
	case fields[2].Is("n"):
		return &XRefEntry{Offset: int64(offset), Generation: gen, InUse: true}, nil
	case fields[2].Is("f"):
		return &XRefEntry{Offset: int64(offset), Generation: gen}, nil
	}
	return nil, fmt.Errorf("invalid in-use flag %q", fields[2].Value)
}

func tokenInt(tok *Token) (int, error) {
	if tok.Type != TokenInteger {
		return 0, fmt.Errorf("expected integer, got %v", tok.Type)
	}
	return strconv.Atoi(string(tok.Value))
}

// parseStream parses a cross-reference stream object at offset.
func (x *XRefParser) parseStream(offset int64) (*XRefTable, error) {
	p := NewParserAt(NewLexer(x.data), offset)
	obj, err := p.ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("failed to parse xref stream: %w", err)
	}
	stream, ok := obj.Object.(*Stream)
	if !ok {
		return nil, fmt.Errorf("xref stream object %v is %T", obj.Ref, obj.Object)
	}
	if name, _ := stream.Dict.GetName("Type"); name != "XRef" {
		return nil, fmt.Errorf("object %v is not an xref stream", obj.Ref)
	}

	widths, sections, err := xrefStreamLayout(stream.Dict)
	if err != nil {
		return nil, err
	}
	data, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode xref stream: %w", err)
	}

	table := NewXRefTable()
	rowLen := widths[0] + widths[1] + widths[2]
	pos := 0
	for _, sec := range sections {
		for num := sec[0]; num < sec[0]+sec[1]; num++ {
			if pos+rowLen > len(data) {
				return nil, fmt.Errorf("xref stream truncated at object %d", num)
			}
			row := data[pos : pos+rowLen]
			pos += rowLen

			typ := int64(1)
			if widths[0] > 0 {
				typ = readBigEndianInt(row[:widths[0]])
			}
			a := readBigEndianInt(row[widths[0] : widths[0]+widths[1]])
			b := readBigEndianInt(row[widths[0]+widths[1]:])

			switch typ {
			case 0:
				table.Set(num, &XRefEntry{Offset: a, Generation: int(b)})
			case 1:
				table.Set(num, &XRefEntry{Offset: a, Generation: int(b), InUse: true})
			case 2:
				table.Set(num, &XRefEntry{InUse: true, Stream: int(a), Index: int(b)})
			}
		}
	}

	trailer := make(Dict)
	for k, v := range stream.Dict {
		switch k {
		case "Length", "Filter", "DecodeParms", "W", "Index", "Type":
			continue
		}
		trailer[k] = v
	}
	table.Trailer = trailer
	// The stream object itself is in use even when the stream omits it.
	if _, ok := table.Get(obj.Ref.Number); !ok {
		table.Set(obj.Ref.Number, &XRefEntry{Offset: offset, Generation: obj.Ref.Generation, InUse: true})
	}
	return table, nil
}

// xrefStreamLayout reads /W and /Index.
func xrefStreamLayout(dict Dict) ([3]int, [][2]int, error) {
	var widths [3]int
	w, ok := dict.GetArray("W")
	if !ok || len(w) < 3 {
		return widths, nil, fmt.Errorf("xref stream has invalid /W")
	}
	for i := 0; i < 3; i++ {
		n, ok := w.GetInt(i)
		if !ok || n < 0 || n > 8 {
			return widths, nil, fmt.Errorf("xref stream has invalid /W[%d]", i)
		}
		widths[i] = int(n)
	}

	size, _ := dict.GetInt("Size")
	index, ok := dict.GetArray("Index")
	if !ok {
		return widths, [][2]int{{0, int(size)}}, nil
	}
	if len(index)%2 != 0 {
		return widths, nil, fmt.Errorf("xref stream has odd /Index length")
	}
	sections := make([][2]int, 0, len(index)/2)
	for i := 0; i < len(index); i += 2 {
		start, ok1 := index.GetInt(i)
		count, ok2 := index.GetInt(i + 1)
		if !ok1 || !ok2 || start < 0 || count < 0 {
			return widths, nil, fmt.Errorf("xref stream has invalid /Index")
		}
		sections = append(sections, [2]int{int(start), int(count)})
	}
	return widths, sections, nil
}

func readBigEndianInt(b []byte) int64 {
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v
}

// ParseAllXRefs parses the newest section and every older one reachable
// through /Prev and /XRefStm, oldest first.
func (x *XRefParser) ParseAllXRefs() ([]*XRefTable, error) {
	offset, err := x.FindXRef()
	if err != nil {
		return nil, err
	}

	var tables []*XRefTable // oldest first
	seen := make(map[int64]bool)
	for {
		if seen[offset] {
			break
		}
		seen[offset] = true

		table, err := x.ParseXRef(offset)
		if err != nil {
			if len(tables) == 0 {
				return nil, fmt.Errorf("failed to parse xref: %w", err)
			}
			return nil, fmt.Errorf("failed to parse previous xref at %d: %w", offset, err)
		}

		// A hybrid file's /XRefStm entries take precedence over its table.
		section := []*XRefTable{table}
		if stm, ok := table.Trailer.GetInt("XRefStm"); ok && !seen[int64(stm)] {
			seen[int64(stm)] = true
			if stmTable, err := x.ParseXRef(int64(stm)); err == nil {
				section = append(section, stmTable)
			}
		}
		tables = append(section, tables...)

		prev, ok := table.Trailer.GetInt("Prev")
		if !ok {
			break
		}
		offset = int64(prev)
	}
	return tables, nil
}

// MergeXRefTables merges tables given oldest first; later entries and
// trailer keys win.
func MergeXRefTables(tables ...*XRefTable) *XRefTable {
	merged := NewXRefTable()
	for _, table := range tables {
		for objNum, entry := range table.Entries {
			merged.Set(objNum, entry)
		}
		for k, v := range table.Trailer {
			merged.Trailer[k] = v
		}
	}
	return merged
}
