package core

import "strconv"

// Repair rebuilds a cross-reference table by scanning the whole file for
// "num gen obj" headers and "trailer" dictionaries. Later definitions of an
// object number win, which matches incremental-update order. Stream bodies
// are skipped so that binary data is not mistaken for object headers.
//
// If no trailer is found, or the trailer has no /Root, the first object
// whose dictionary has /Type /Catalog is used as the root.
func Repair(data []byte) *XRefTable {
	table := NewXRefTable()
	lex := NewLexer(data)

	// Window of the last two integer tokens.
	var prev2, prev1 *Token
	for {
		tok, err := lex.NextToken()
		if err != nil {
			// Unterminated string: resume after its opening byte.
			if se, ok := err.(*SyntaxError); ok {
				lex.Seek(se.Pos + 1)
				prev2, prev1 = nil, nil
				continue
			}
			break
		}
		if tok.Type == TokenEOF {
			break
		}

		switch {
		case tok.Is("obj") && prev1 != nil && prev2 != nil:
			num, err1 := strconv.Atoi(string(prev2.Value))
			gen, err2 := strconv.Atoi(string(prev1.Value))
			if err1 == nil && err2 == nil && num > 0 {
				table.Set(num, &XRefEntry{Offset: prev2.Pos, Generation: gen, InUse: true})
			}
		case tok.Is("stream"):
			lex.ReadStream(-1)
		case tok.Is("trailer"):
			p := NewParserAt(lex, lex.Pos())
			if obj, err := p.ParseObject(); err == nil {
				if dict, ok := obj.(Dict); ok {
					for k, v := range dict {
						table.Trailer[k] = v
					}
				}
			}
			lex.Seek(p.Token().Pos)
		}

		if tok.Type == TokenInteger {
			prev2, prev1 = prev1, tok
		} else {
			prev2, prev1 = nil, nil
		}
	}

	if _, ok := table.Trailer.GetIndirectRef("Root"); !ok {
		if root, ok := findCatalog(data, table); ok {
			table.Trailer["Root"] = root
		}
	}
	delete(table.Trailer, "Prev")
	delete(table.Trailer, "XRefStm")
	return table
}

// findCatalog returns the lowest-numbered object with /Type /Catalog.
func findCatalog(data []byte, table *XRefTable) (IndirectRef, bool) {
	best := IndirectRef{}
	found := false
	lex := NewLexer(data)
	for num, entry := range table.Entries {
		if found && num >= best.Number {
			continue
		}
		p := NewParserAt(lex, entry.Offset)
		obj, err := p.ParseIndirectObject()
		if err != nil {
			continue
		}
		dict, ok := obj.Object.(Dict)
		if !ok {
			continue
		}
		if t, _ := dict.GetName("Type"); t == "Catalog" {
			best, found = obj.Ref, true
		}
	}
	return best, found
}
