package core

import (
	"fmt"
	"io"
	"strconv"
)

// ReferenceResolver resolves indirect references. The parser uses it for
// stream lengths stored as indirect objects.
type ReferenceResolver interface {
	ResolveReference(ref IndirectRef) (Object, error)
}

// Parser builds PDF objects from the tokens of a Lexer, with one token of
// lookahead. Lookahead stops after the "stream" and "ID" keywords because
// the bytes that follow are binary data read through the lexer directly.
type Parser struct {
	lexer        *Lexer
	currentToken *Token
	peekToken    *Token
	resolver     ReferenceResolver
	err          error
}

// NewParser creates a parser over data starting at offset 0.
func NewParser(data []byte) *Parser {
	return NewParserAt(NewLexer(data), 0)
}

// NewParserAt creates a parser that reads l from offset pos.
func NewParserAt(l *Lexer, pos int64) *Parser {
	p := &Parser{lexer: l}
	p.Seek(pos)
	return p
}

// SetReferenceResolver sets the resolver used for indirect stream lengths.
func (p *Parser) SetReferenceResolver(resolver ReferenceResolver) {
	p.resolver = resolver
}

// Lexer returns the underlying lexer.
func (p *Parser) Lexer() *Lexer { return p.lexer }

// Seek repositions the parser and reloads its lookahead.
func (p *Parser) Seek(pos int64) {
	p.lexer.Seek(pos)
	p.currentToken, p.peekToken, p.err = nil, nil, nil
	p.nextToken()
	p.nextToken()
}

// Resync reloads the lookahead from the lexer's current position. Callers
// use it after reading binary data from the lexer.
func (p *Parser) Resync() {
	p.Seek(p.lexer.Pos())
}

// Token returns the current token.
func (p *Parser) Token() *Token { return p.currentToken }

// Advance moves to the next token.
func (p *Parser) Advance() { p.nextToken() }

// nextToken shifts the lookahead. A lexer error is kept and surfaces as
// an EOF token so that callers see the input end.
func (p *Parser) nextToken() {
	p.currentToken = p.peekToken
	if p.currentToken.Is("stream") || p.currentToken.Is("ID") {
		p.peekToken = nil
		return
	}
	if p.err != nil {
		p.peekToken = &Token{Type: TokenEOF, Pos: p.lexer.Pos(), End: p.lexer.Pos()}
		return
	}
	tok, err := p.lexer.NextToken()
	if err != nil {
		p.err = err
		tok = &Token{Type: TokenEOF, Pos: p.lexer.Pos(), End: p.lexer.Pos()}
	}
	p.peekToken = tok
}

// ParseObject parses the next direct object. It returns io.EOF at the end
// of input.
func (p *Parser) ParseObject() (Object, error) {
	tok := p.currentToken
	if tok == nil {
		return nil, fmt.Errorf("unexpected end of input")
	}

	switch tok.Type {
	case TokenEOF:
		if p.err != nil {
			return nil, p.err
		}
		return nil, io.EOF

	case TokenKeyword:
		switch string(tok.Value) {
		case "null":
			p.nextToken()
			return Null{}, nil
		case "true":
			p.nextToken()
			return Bool(true), nil
		case "false":
			p.nextToken()
			return Bool(false), nil
		}
		return nil, &SyntaxError{Pos: tok.Pos, Msg: fmt.Sprintf("unexpected keyword %q", tok.Value), Err: ErrMalformedToken}

	case TokenInteger:
		return p.parseNumber()

	case TokenReal:
		val, err := strconv.ParseFloat(string(tok.Value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid real number: %w", err)
		}
		p.nextToken()
		return Real(val), nil

	case TokenString, TokenHexString:
		p.nextToken()
		return String(tok.Value), nil

	case TokenName:
		p.nextToken()
		return Name(tok.Value), nil

	case TokenArrayStart:
		return p.parseArray()

	case TokenDictStart:
		return p.parseDict()
	}

	return nil, &SyntaxError{Pos: tok.Pos, Msg: fmt.Sprintf("unexpected %v token", tok.Type), Err: ErrMalformedToken}
}

// parseNumber parses an integer or an indirect reference "num gen R".
func (p *Parser) parseNumber() (Object, error) {
	first, err := strconv.ParseInt(string(p.currentToken.Value), 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(string(p.currentToken.Value), 64)
		if ferr != nil {
			return nil, fmt.Errorf("invalid number %q", p.currentToken.Value)
		}
		p.nextToken()
		return Real(f), nil
	}

	// "num gen R" needs two tokens of lookahead; the lexer is cheap to rewind.
	if p.peekToken != nil && p.peekToken.Type == TokenInteger {
		mark := p.lexer.Pos()
		next, lexErr := p.lexer.NextToken()
		if lexErr == nil && next.Type == TokenIndirectRef {
			gen, _ := strconv.ParseInt(string(p.peekToken.Value), 10, 64)
			p.Resync() // lexer is already past R
			return IndirectRef{Number: int(first), Generation: int(gen)}, nil
		}
		p.lexer.Seek(mark)
	}

	p.nextToken()
	return Int(first), nil
}

// parseArray parses "[obj1 obj2 ...]". Stray tokens inside are skipped.
func (p *Parser) parseArray() (Object, error) {
	p.nextToken()
	arr := Array{}
	for {
		tok := p.currentToken
		switch tok.Type {
		case TokenArrayEnd:
			p.nextToken()
			return arr, nil
		case TokenEOF:
			return arr, &SyntaxError{Pos: tok.Pos, Msg: "unexpected EOF in array", Err: ErrMalformedToken}
		case TokenDelimiter, TokenDictEnd:
			p.nextToken()
			continue
		case TokenKeyword:
			if !tok.Is("null") && !tok.Is("true") && !tok.Is("false") {
				return arr, &SyntaxError{Pos: tok.Pos, Msg: "unterminated array", Err: ErrMalformedToken}
			}
		}
		obj, err := p.ParseObject()
		if err != nil {
			return arr, fmt.Errorf("error parsing array element: %w", err)
		}
		arr = append(arr, obj)
	}
}

// parseDict parses "<< /Key value ... >>". A key without a value maps to
// null so that a truncated dictionary keeps the entries before it.
func (p *Parser) parseDict() (Object, error) {
	p.nextToken()
	dict := make(Dict)
	for {
		tok := p.currentToken
		switch tok.Type {
		case TokenDictEnd:
			p.nextToken()
			return dict, nil
		case TokenEOF:
			return dict, &SyntaxError{Pos: tok.Pos, Msg: "unexpected EOF in dictionary", Err: ErrMalformedToken}
		case TokenName:
		case TokenKeyword:
			return dict, &SyntaxError{Pos: tok.Pos, Msg: "unterminated dictionary", Err: ErrMalformedToken}
		default:
			// not a key: skip it
			p.nextToken()
			continue
		}
		key := string(tok.Value)
		p.nextToken()

		if p.currentToken.Type == TokenDictEnd {
			dict[key] = Null{}
			continue
		}
		value, err := p.ParseObject()
		if err != nil {
			return dict, fmt.Errorf("error parsing dictionary value for key '%s': %w", key, err)
		}
		dict[key] = value
	}
}

// ParseIndirectObject parses "num gen obj <object> endobj", including
// streams. A missing endobj is tolerated.
func (p *Parser) ParseIndirectObject() (*IndirectObject, error) {
	numTok := p.currentToken
	if numTok == nil || numTok.Type != TokenInteger {
		return nil, fmt.Errorf("expected object number at offset %d", p.lexer.Pos())
	}
	num, err := strconv.Atoi(string(numTok.Value))
	if err != nil {
		return nil, fmt.Errorf("invalid object number: %w", err)
	}
	p.nextToken()

	if p.currentToken.Type != TokenInteger {
		return nil, fmt.Errorf("expected generation number, got %v", p.currentToken.Type)
	}
	gen, err := strconv.Atoi(string(p.currentToken.Value))
	if err != nil {
		return nil, fmt.Errorf("invalid generation number: %w", err)
	}
	p.nextToken()

	if !p.currentToken.Is("obj") {
		return nil, fmt.Errorf("expected 'obj' keyword, got %v", p.currentToken.Type)
	}
	p.nextToken()

	ref := IndirectRef{Number: num, Generation: gen}

	var obj Object
	if p.currentToken.Is("endobj") {
		obj = Null{}
	} else {
		obj, err = p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("error parsing object %v: %w", ref, err)
		}
	}

	if p.currentToken.Is("stream") {
		dict, ok := obj.(Dict)
		if !ok {
			return nil, fmt.Errorf("object %v: stream must follow a dictionary", ref)
		}
		obj = p.parseStream(dict)
	}

	if p.currentToken.Is("endobj") {
		p.nextToken()
	}

	return &IndirectObject{Ref: ref, Object: obj}, nil
}

// parseStream reads stream data after the "stream" keyword.
func (p *Parser) parseStream(dict Dict) *Stream {
	data := p.lexer.ReadStream(p.streamLength(dict))
	p.Resync()
	return &Stream{Dict: dict, Data: data}
}

// streamLength returns the declared /Length, or -1 when it is missing or
// cannot be resolved.
func (p *Parser) streamLength(dict Dict) int64 {
	switch v := dict.Get("Length").(type) {
	case Int:
		return int64(v)
	case IndirectRef:
		if p.resolver == nil {
			return -1
		}
		resolved, err := p.resolver.ResolveReference(v)
		if err != nil {
			return -1
		}
		if n, ok := resolved.(Int); ok {
			return int64(n)
		}
	}
	return -1
}
