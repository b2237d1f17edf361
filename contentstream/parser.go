package contentstream

import (
	"io"

	"github.com/tsawler/pdfstrip/core"
)

// Operation is one operator with the operands that precede it. Start and
// End delimit its bytes in the stream, from the first operand through the
// operator; for an inline image they span BI through EI.
type Operation struct {
	Operator string
	Operands []core.Object
	Start    int
	End      int

	// Inline is set for BI operations.
	Inline *InlineImage
}

// InlineImage is the content of a BI ... ID ... EI sequence. Params keeps
// the keys as written, abbreviated or not.
type InlineImage struct {
	Params core.Dict
	Data   []byte
}

// Name returns the operand of a Do operation.
func (op Operation) Name() (string, bool) {
	if op.Operator != "Do" || len(op.Operands) == 0 {
		return "", false
	}
	n, ok := op.Operands[len(op.Operands)-1].(core.Name)
	return string(n), ok
}

// Parser splits a content stream into operations. It never fails: bytes
// it cannot make sense of are skipped and reported by Errors.
type Parser struct {
	data   []byte
	lexer  *core.Lexer
	parser *core.Parser
	errs   []error
}

// NewParser creates a parser over a decoded content stream.
func NewParser(data []byte) *Parser {
	l := core.NewLexer(data)
	return &Parser{data: data, lexer: l, parser: core.NewParserAt(l, 0)}
}

// Parse returns the operations in stream order. Operands left over at the
// end of the stream are dropped.
func (p *Parser) Parse() ([]Operation, error) {
	var ops []Operation
	var operands []core.Object
	start := -1

	for {
		tok := p.parser.Token()
		if tok == nil || tok.Type == core.TokenEOF {
			break
		}
		if start < 0 {
			start = int(tok.Pos)
		}

		if tok.Type == core.TokenKeyword && !isLiteralKeyword(tok) {
			op := Operation{Operator: string(tok.Value), Operands: operands, Start: start, End: int(tok.End)}
			switch op.Operator {
			case "BI":
				op.Start, op.Operands = int(tok.Pos), nil
				p.parser.Advance()
				op.Inline, op.End = p.inlineImage()
			case "ID", "stream":
				// Lookahead stops after these keywords.
				p.parser.Seek(tok.End)
			default:
				p.parser.Advance()
			}
			ops = append(ops, op)
			operands, start = nil, -1
			continue
		}

		obj, err := p.parser.ParseObject()
		if err != nil {
			if err == io.EOF {
				break
			}
			p.errs = append(p.errs, err)
			if next := p.parser.Token(); next == nil || next.Pos == tok.Pos {
				p.parser.Seek(tok.End)
			}
			operands, start = nil, -1
			continue
		}
		operands = append(operands, obj)
	}

	p.errs = append(p.errs, p.lexer.Errors()...)
	return ops, nil
}

// Errors returns the conditions met while parsing.
func (p *Parser) Errors() []error { return p.errs }

// inlineImage reads the parameters and data of an inline image whose BI
// keyword has been consumed. It returns the offset just after EI.
func (p *Parser) inlineImage() (*InlineImage, int) {
	img := &InlineImage{Params: core.Dict{}}
	for {
		tok := p.parser.Token()
		if tok == nil || tok.Type == core.TokenEOF {
			return img, int(p.lexer.Len())
		}
		if tok.Is("ID") {
			break
		}
		if tok.Type != core.TokenName {
			p.errs = append(p.errs, &core.SyntaxError{Pos: tok.Pos, Msg: "inline image key expected", Err: core.ErrMalformedToken})
			p.parser.Seek(tok.End)
			continue
		}
		p.parser.Advance()
		value, err := p.parser.ParseObject()
		if err != nil {
			p.errs = append(p.errs, err)
			if next := p.parser.Token(); next != nil && next.Is("ID") {
				break
			}
			p.parser.Seek(tok.End)
			continue
		}
		img.Params[string(tok.Value)] = value
	}

	img.Data = p.lexer.ReadInlineImage(inlineLength(img.Params))
	end := int(p.lexer.Pos())
	p.parser.Resync()
	return img, end
}

// inlineLength returns the data length implied by the parameters of an
// unfiltered inline image, or -1 when it cannot be known.
func inlineLength(params core.Dict) int64 {
	for _, key := range []string{"L", "Length"} {
		if v, ok := core.Number(params.Get(key)); ok && v >= 0 {
			return int64(v)
		}
	}
	if params.Has("F") || params.Has("Filter") {
		return -1
	}
	w, wok := inlineNumber(params, "W", "Width")
	h, hok := inlineNumber(params, "H", "Height")
	if !wok || !hok {
		return -1
	}
	bpc, ok := inlineNumber(params, "BPC", "BitsPerComponent")
	comps := 1
	if mask, _ := params.Get("IM").(core.Bool); mask {
		bpc, ok = 1, true
	} else if mask, _ := params.Get("ImageMask").(core.Bool); mask {
		bpc, ok = 1, true
	} else {
		comps = components(params)
	}
	if !ok || comps <= 0 {
		return -1
	}
	row := (w*bpc*comps + 7) / 8
	return int64(row * h)
}

func inlineNumber(params core.Dict, keys ...string) (int, bool) {
	for _, key := range keys {
		if v, ok := core.Number(params.Get(key)); ok && v >= 0 {
			return int(v), true
		}
	}
	return 0, false
}

// components returns the number of color components of the inline color
// space, or 0 when it is a named resource.
func components(params core.Dict) int {
	cs := params.Get("CS")
	if cs == nil {
		cs = params.Get("ColorSpace")
	}
	switch v := cs.(type) {
	case core.Name:
		switch v {
		case "G", "DeviceGray", "CalGray", "I", "Indexed":
			return 1
		case "RGB", "DeviceRGB", "CalRGB":
			return 3
		case "CMYK", "DeviceCMYK":
			return 4
		}
	case core.Array:
		if name, ok := v.GetName(0); ok && (name == "I" || name == "Indexed") {
			return 1
		}
	}
	return 0
}

func isLiteralKeyword(tok *core.Token) bool {
	return tok.Is("true") || tok.Is("false") || tok.Is("null")
}
