package core

import (
	"bytes"
	"fmt"
)

// TokenType represents the type of token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenComment
	TokenKeyword     // obj, endobj, stream, content operators, ...
	TokenInteger     // 123
	TokenReal        // 3.14
	TokenString      // (hello)
	TokenHexString   // <48656C6C6F>
	TokenName        // /Type
	TokenArrayStart  // [
	TokenArrayEnd    // ]
	TokenDictStart   // <<
	TokenDictEnd     // >>
	TokenIndirectRef // R
	TokenDelimiter   // a stray byte that could not be classified
)

var tokenTypeNames = [...]string{
	TokenEOF:         "EOF",
	TokenComment:     "Comment",
	TokenKeyword:     "Keyword",
	TokenInteger:     "Integer",
	TokenReal:        "Real",
	TokenString:      "String",
	TokenHexString:   "HexString",
	TokenName:        "Name",
	TokenArrayStart:  "ArrayStart",
	TokenArrayEnd:    "ArrayEnd",
	TokenDictStart:   "DictStart",
	TokenDictEnd:     "DictEnd",
	TokenIndirectRef: "IndirectRef",
	TokenDelimiter:   "Delimiter",
}

func (t TokenType) String() string {
	if t < 0 || int(t) >= len(tokenTypeNames) {
		return fmt.Sprintf("TokenType(%d)", int(t))
	}
	return tokenTypeNames[t]
}

// Token is a lexical token. Value holds the decoded payload: escapes are
// already resolved for strings and names. Pos and End delimit the raw bytes.
type Token struct {
	Type  TokenType
	Value []byte
	Pos   int64
	End   int64
}

// Is reports whether the token is the keyword kw.
func (t *Token) Is(kw string) bool {
	return t != nil && t.Type == TokenKeyword && string(t.Value) == kw
}

// Lexer splits a PDF byte slice into tokens. It never reads past the slice
// and can be repositioned with Seek, so the same input can be re-lexed from
// any offset.
type Lexer struct {
	data         []byte
	pos          int
	keepComments bool
	errs         []error
}

// NewLexer creates a lexer over data.
func NewLexer(data []byte) *Lexer {
	return &Lexer{data: data}
}

// KeepComments makes NextToken return comments instead of skipping them.
func (l *Lexer) KeepComments(keep bool) { l.keepComments = keep }

// Pos returns the offset of the next unread byte.
func (l *Lexer) Pos() int64 { return int64(l.pos) }

// Len returns the length of the input.
func (l *Lexer) Len() int64 { return int64(len(l.data)) }

// Bytes returns the underlying input.
func (l *Lexer) Bytes() []byte { return l.data }

// Seek moves the lexer to an absolute offset, clamped to the input.
func (l *Lexer) Seek(pos int64) {
	switch {
	case pos < 0:
		l.pos = 0
	case pos > int64(len(l.data)):
		l.pos = len(l.data)
	default:
		l.pos = int(pos)
	}
}

// Errors returns the recoverable conditions seen so far.
func (l *Lexer) Errors() []error { return l.errs }

func (l *Lexer) recordf(pos int, format string, args ...interface{}) {
	l.errs = append(l.errs, &SyntaxError{Pos: int64(pos), Msg: fmt.Sprintf(format, args...), Err: ErrMalformedToken})
}

// NextToken returns the next token. Bytes that cannot start any token are
// returned one at a time as TokenDelimiter and recorded as ErrMalformedToken.
// An error is returned only when the input ends inside a string.
func (l *Lexer) NextToken() (*Token, error) {
	for {
		l.skipWhitespace()
		if l.pos >= len(l.data) {
			return &Token{Type: TokenEOF, Pos: int64(l.pos), End: int64(l.pos)}, nil
		}
		if l.data[l.pos] != '%' {
			break
		}
		tok := l.readComment()
		if l.keepComments {
			return tok, nil
		}
	}

	start := l.pos
	b := l.data[l.pos]
	switch b {
	case '[':
		l.pos++
		return l.token(TokenArrayStart, start, l.data[start:l.pos]), nil
	case ']':
		l.pos++
		return l.token(TokenArrayEnd, start, l.data[start:l.pos]), nil
	case '(':
		return l.readString()
	case '<':
		if l.peekAt(1) == '<' {
			l.pos += 2
			return l.token(TokenDictStart, start, l.data[start:l.pos]), nil
		}
		return l.readHexString()
	case '>':
		if l.peekAt(1) == '>' {
			l.pos += 2
			return l.token(TokenDictEnd, start, l.data[start:l.pos]), nil
		}
	case '/':
		return l.readName(), nil
	}

	if isDelimiter(b) {
		// ')', a lone '>', '{' and '}' have no meaning here.
		l.pos++
		l.recordf(start, "unexpected %q", b)
		return l.token(TokenDelimiter, start, l.data[start:l.pos]), nil
	}
	if isDigit(b) || b == '-' || b == '+' || b == '.' {
		if tok := l.readNumber(); tok != nil {
			return tok, nil
		}
	}
	return l.readKeyword(), nil
}

func (l *Lexer) token(typ TokenType, start int, value []byte) *Token {
	return &Token{Type: typ, Value: value, Pos: int64(start), End: int64(l.pos)}
}

func (l *Lexer) peekAt(n int) byte {
	if l.pos+n < len(l.data) {
		return l.data[l.pos+n]
	}
	return 0
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.data) && isWhitespace(l.data[l.pos]) {
		l.pos++
	}
}

// skipEOL consumes a single CR, LF or CRLF.
func (l *Lexer) skipEOL() {
	if l.pos < len(l.data) && l.data[l.pos] == '\r' {
		l.pos++
	}
	if l.pos < len(l.data) && l.data[l.pos] == '\n' {
		l.pos++
	}
}

// readComment reads from % to the end of the line. The EOL is consumed.
func (l *Lexer) readComment() *Token {
	start := l.pos
	for l.pos < len(l.data) && l.data[l.pos] != '\r' && l.data[l.pos] != '\n' {
		l.pos++
	}
	tok := l.token(TokenComment, start, l.data[start:l.pos])
	l.skipEOL()
	return tok
}

// readString reads a literal string with balanced parentheses and escapes.
func (l *Lexer) readString() (*Token, error) {
	start := l.pos
	l.pos++ // (
	var buf bytes.Buffer
	depth := 1
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		l.pos++
		switch b {
		case '(':
			depth++
			buf.WriteByte(b)
		case ')':
			depth--
			if depth == 0 {
				return l.token(TokenString, start, buf.Bytes()), nil
			}
			buf.WriteByte(b)
		case '\\':
			l.readEscape(&buf)
		case '\r':
			// An unescaped EOL in a string is read as a single LF.
			if l.pos < len(l.data) && l.data[l.pos] == '\n' {
				l.pos++
			}
			buf.WriteByte('\n')
		default:
			buf.WriteByte(b)
		}
	}
	return nil, &SyntaxError{Pos: int64(start), Msg: "unterminated string", Err: ErrMalformedToken}
}

func (l *Lexer) readEscape(buf *bytes.Buffer) {
	if l.pos >= len(l.data) {
		return
	}
	next := l.data[l.pos]
	l.pos++
	switch next {
	case 'n':
		buf.WriteByte('\n')
	case 'r':
		buf.WriteByte('\r')
	case 't':
		buf.WriteByte('\t')
	case 'b':
		buf.WriteByte('\b')
	case 'f':
		buf.WriteByte('\f')
	case '\r':
		if l.pos < len(l.data) && l.data[l.pos] == '\n' {
			l.pos++
		}
	case '\n':
		// line continuation
	case '0', '1', '2', '3', '4', '5', '6', '7':
		val := int(next - '0')
		for i := 0; i < 2 && l.pos < len(l.data) && isOctalDigit(l.data[l.pos]); i++ {
			val = val*8 + int(l.data[l.pos]-'0')
			l.pos++
		}
		buf.WriteByte(byte(val))
	default:
		// \( \) \\ and unknown escapes keep the character
		buf.WriteByte(next)
	}
}

// readHexString reads <...>. Invalid digits are dropped and recorded.
func (l *Lexer) readHexString() (*Token, error) {
	start := l.pos
	l.pos++ // <
	var digits []byte
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		l.pos++
		switch {
		case b == '>':
			if len(digits)%2 != 0 {
				digits = append(digits, '0')
			}
			out := make([]byte, len(digits)/2)
			for i := range out {
				out[i] = hexValue(digits[2*i])<<4 | hexValue(digits[2*i+1])
			}
			return l.token(TokenHexString, start, out), nil
		case isWhitespace(b):
		case isHexDigit(b):
			digits = append(digits, b)
		default:
			l.recordf(l.pos-1, "invalid hex digit %q", b)
		}
	}
	return nil, &SyntaxError{Pos: int64(start), Msg: "unterminated hex string", Err: ErrMalformedToken}
}

// readName reads /Name, decoding #xx escapes. A malformed escape keeps the '#'.
func (l *Lexer) readName() *Token {
	start := l.pos
	l.pos++ // /
	var buf bytes.Buffer
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		l.pos++
		if b == '#' && l.pos+1 < len(l.data) && isHexDigit(l.data[l.pos]) && isHexDigit(l.data[l.pos+1]) {
			buf.WriteByte(hexValue(l.data[l.pos])<<4 | hexValue(l.data[l.pos+1]))
			l.pos += 2
			continue
		}
		buf.WriteByte(b)
	}
	return l.token(TokenName, start, buf.Bytes())
}

// readNumber reads an integer or real. It returns nil, leaving the position
// unchanged, when the bytes do not form a number (for example a lone "-").
func (l *Lexer) readNumber() *Token {
	start := l.pos
	p := l.pos
	if l.data[p] == '+' || l.data[p] == '-' {
		p++
	}
	digits, dots := 0, 0
	for p < len(l.data) {
		b := l.data[p]
		if isDigit(b) {
			digits++
		} else if b == '.' && dots == 0 {
			dots++
		} else {
			break
		}
		p++
	}
	if digits == 0 {
		return nil
	}
	l.pos = p
	typ := TokenInteger
	if dots > 0 {
		typ = TokenReal
	}
	return l.token(typ, start, l.data[start:l.pos])
}

// readKeyword reads a run of regular characters.
func (l *Lexer) readKeyword() *Token {
	start := l.pos
	for l.pos < len(l.data) && !isWhitespace(l.data[l.pos]) && !isDelimiter(l.data[l.pos]) {
		l.pos++
	}
	value := l.data[start:l.pos]
	if len(value) == 1 && value[0] == 'R' {
		return l.token(TokenIndirectRef, start, value)
	}
	return l.token(TokenKeyword, start, value)
}

var (
	kwEndstream = []byte("endstream")
	kwEndobj    = []byte("endobj")
)

// ReadStream returns the data of a stream whose "stream" keyword has just
// been read, and leaves the lexer after "endstream". The declared length is
// trusted only if "endstream" follows it; otherwise, and when length is
// negative, the data runs to the first delimited "endstream" keyword. If
// none exists the data runs to the next "endobj" or the end of input and an
// ErrMalformedToken condition is recorded.
func (l *Lexer) ReadStream(length int64) []byte {
	// Spaces before the EOL are tolerated.
	for l.pos < len(l.data) && (l.data[l.pos] == ' ' || l.data[l.pos] == '\t') {
		l.pos++
	}
	l.skipEOL()
	start := l.pos

	if length >= 0 && int64(start)+length <= int64(len(l.data)) {
		end := start + int(length)
		p := end
		for p < len(l.data) && isWhitespace(l.data[p]) {
			p++
		}
		if bytes.HasPrefix(l.data[p:], kwEndstream) {
			l.pos = p + len(kwEndstream)
			return l.data[start:end]
		}
	}

	if idx := findKeyword(l.data, start, kwEndstream); idx >= 0 {
		l.pos = idx + len(kwEndstream)
		return l.data[start:trimEOL(l.data, start, idx)]
	}

	end := len(l.data)
	if idx := findKeyword(l.data, start, kwEndobj); idx >= 0 {
		end = idx
	}
	l.recordf(start, "stream without endstream")
	l.pos = end
	return l.data[start:trimEOL(l.data, start, end)]
}

// ReadInlineImage returns the data of an inline image whose "ID" keyword
// has just been read and leaves the lexer after the closing "EI". When
// length is non-negative and "EI" follows it, the length is used; otherwise
// the data ends at the first "EI" preceded by whitespace and followed by
// whitespace, a delimiter or the end of input.
func (l *Lexer) ReadInlineImage(length int64) []byte {
	// A single whitespace byte (or CRLF) separates ID from the data.
	if l.pos < len(l.data) && l.data[l.pos] == '\r' && l.peekAt(1) == '\n' {
		l.pos += 2
	} else if l.pos < len(l.data) && isWhitespace(l.data[l.pos]) {
		l.pos++
	}
	start := l.pos

	if length >= 0 && int64(start)+length <= int64(len(l.data)) {
		p := start + int(length)
		for p < len(l.data) && isWhitespace(l.data[p]) {
			p++
		}
		if isInlineEnd(l.data, p) {
			l.pos = p + 2
			return l.data[start : start+int(length)]
		}
	}

	for p := start; p+1 < len(l.data); p++ {
		if l.data[p] != 'E' || l.data[p+1] != 'I' {
			continue
		}
		if p > start && !isWhitespace(l.data[p-1]) {
			continue
		}
		if !isInlineEnd(l.data, p) {
			continue
		}
		end := p
		if end > start {
			end-- // separator before EI
		}
		l.pos = p + 2
		return l.data[start:end]
	}

	l.recordf(start, "inline image without EI")
	l.pos = len(l.data)
	return l.data[start:]
}

func isInlineEnd(data []byte, p int) bool {
	if p+1 >= len(data) || data[p] != 'E' || data[p+1] != 'I' {
		return false
	}
	return p+2 == len(data) || isWhitespace(data[p+2]) || isDelimiter(data[p+2])
}

// findKeyword returns the index of the first occurrence of kw at or after
// from that is preceded by whitespace (or from itself) and followed by a
// delimiter, whitespace or the end of data.
func findKeyword(data []byte, from int, kw []byte) int {
	for p := from; p < len(data); {
		idx := bytes.Index(data[p:], kw)
		if idx < 0 {
			return -1
		}
		i := p + idx
		after := i + len(kw)
		before := i == from || isWhitespace(data[i-1]) || isDelimiter(data[i-1])
		if before && (after == len(data) || isWhitespace(data[after]) || isDelimiter(data[after])) {
			return i
		}
		p = i + 1
	}
	return -1
}

// trimEOL drops one EOL marker that precedes end.
func trimEOL(data []byte, start, end int) int {
	if end > start && data[end-1] == '\n' {
		end--
	}
	if end > start && data[end-1] == '\r' {
		end--
	}
	return end
}

func isWhitespace(b byte) bool {
	// PDF whitespace: space, tab, LF, CR, FF, null
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

func isDelimiter(b byte) bool {
	return b == '(' || b == ')' || b == '<' || b == '>' || b == '[' || b == ']' ||
		b == '{' || b == '}' || b == '/' || b == '%'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isOctalDigit(b byte) bool {
	return b >= '0' && b <= '7'
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func hexValue(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}
