package core

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type lexed struct {
	Type  TokenType
	Value string
}

func lexAll(t *testing.T, input string) []lexed {
	t.Helper()
	l := NewLexer([]byte(input))
	var out []lexed
	for {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("NextToken() error = %v", err)
		}
		if tok.Type == TokenEOF {
			return out
		}
		out = append(out, lexed{tok.Type, string(tok.Value)})
	}
}

func TestTokenTypeString(t *testing.T) {
	if got := TokenDictStart.String(); got != "DictStart" {
		t.Errorf("TokenDictStart.String() = %q", got)
	}
	if got := TokenType(99).String(); got != "TokenType(99)" {
		t.Errorf("TokenType(99).String() = %q", got)
	}
}

func TestLexerTokens(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []lexed
	}{
		{"empty", "  \t\r\n\f\x00 ", nil},
		{"delimiters", "[ ] << >>", []lexed{
			{TokenArrayStart, "["}, {TokenArrayEnd, "]"}, {TokenDictStart, "<<"}, {TokenDictEnd, ">>"},
		}},
		{"numbers", "42 -17 +3 3.14 -.5 4.", []lexed{
			{TokenInteger, "42"}, {TokenInteger, "-17"}, {TokenInteger, "+3"},
			{TokenReal, "3.14"}, {TokenReal, "-.5"}, {TokenReal, "4."},
		}},
		{"names", "/Type /A#42C /Name#2", []lexed{
			{TokenName, "Type"}, {TokenName, "ABC"}, {TokenName, "Name#2"},
		}},
		{"empty name", "/ /X", []lexed{{TokenName, ""}, {TokenName, "X"}}},
		{"keywords", "obj endobj true null BT Tj T*", []lexed{
			{TokenKeyword, "obj"}, {TokenKeyword, "endobj"}, {TokenKeyword, "true"},
			{TokenKeyword, "null"}, {TokenKeyword, "BT"}, {TokenKeyword, "Tj"}, {TokenKeyword, "T*"},
		}},
		{"reference", "12 0 R", []lexed{
			{TokenInteger, "12"}, {TokenInteger, "0"}, {TokenIndirectRef, "R"},
		}},
		{"comments skipped", "%PDF-1.7\n1 % trailing\r\n2", []lexed{
			{TokenInteger, "1"}, {TokenInteger, "2"},
		}},
		{"names end at delimiters", "/Im1[/F1(x)", []lexed{
			{TokenName, "Im1"}, {TokenArrayStart, "["}, {TokenName, "F1"}, {TokenString, "x"},
		}},
		{"lone minus is a keyword", "- 1", []lexed{{TokenKeyword, "-"}, {TokenInteger, "1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, lexAll(t, tt.input)); diff != "" {
				t.Errorf("tokens (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLexerStrings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "(Hello)", "Hello"},
		{"nested parentheses", "(a (b) c)", "a (b) c"},
		{"escapes", `(\n\r\t\b\f\(\)\\)`, "\n\r\t\b\f()\\"},
		{"octal", `(\101\060\7)`, "A0\x07"},
		{"unknown escape", `(\q)`, "q"},
		{"line continuation", "(one\\\ntwo)", "onetwo"},
		{"CR normalised", "(a\r\nb\rc)", "a\nb\nc"},
		{"hex", "<48 65 6C6C 6f>", "Hello"},
		{"hex odd", "<414>", "A@"},
		{"hex empty", "<>", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lexAll(t, tt.input)
			if len(got) != 1 {
				t.Fatalf("got %d tokens, want 1: %v", len(got), got)
			}
			if got[0].Value != tt.want {
				t.Errorf("value = %q, want %q", got[0].Value, tt.want)
			}
		})
	}
}

func TestLexerKeepComments(t *testing.T) {
	l := NewLexer([]byte("%PDF-1.4\r\n%\xe2\xe3\n1"))
	l.KeepComments(true)
	var got []lexed
	for {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatal(err)
		}
		if tok.Type == TokenEOF {
			break
		}
		got = append(got, lexed{tok.Type, string(tok.Value)})
	}
	want := []lexed{{TokenComment, "%PDF-1.4"}, {TokenComment, "%\xe2\xe3"}, {TokenInteger, "1"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tokens (-want +got):\n%s", diff)
	}
}

func TestLexerMalformed(t *testing.T) {
	l := NewLexer([]byte("1 ) 2 } <4G1>"))
	var types []TokenType
	for {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatal(err)
		}
		if tok.Type == TokenEOF {
			break
		}
		types = append(types, tok.Type)
	}
	want := []TokenType{TokenInteger, TokenDelimiter, TokenInteger, TokenDelimiter, TokenHexString}
	if diff := cmp.Diff(want, types); diff != "" {
		t.Errorf("types (-want +got):\n%s", diff)
	}
	if len(l.Errors()) != 3 {
		t.Fatalf("recorded %d conditions, want 3: %v", len(l.Errors()), l.Errors())
	}
	for _, err := range l.Errors() {
		if !errors.Is(err, ErrMalformedToken) {
			t.Errorf("condition %v is not ErrMalformedToken", err)
		}
	}
}

func TestLexerUnterminated(t *testing.T) {
	for _, input := range []string{"(never closed", "<4142"} {
		l := NewLexer([]byte(input))
		_, err := l.NextToken()
		var se *SyntaxError
		if !errors.As(err, &se) || se.Pos != 0 {
			t.Errorf("%q: error = %v, want a SyntaxError at 0", input, err)
		}
	}
}

func TestLexerPositions(t *testing.T) {
	l := NewLexer([]byte("  /Name  (str) 12"))
	want := [][2]int64{{2, 7}, {9, 14}, {15, 17}}
	for i, w := range want {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatal(err)
		}
		if tok.Pos != w[0] || tok.End != w[1] {
			t.Errorf("token %d at [%d,%d), want [%d,%d)", i, tok.Pos, tok.End, w[0], w[1])
		}
	}

	l.Seek(9)
	tok, _ := l.NextToken()
	if tok.Type != TokenString {
		t.Errorf("after Seek(9) got %v, want String", tok.Type)
	}
	l.Seek(-5)
	if l.Pos() != 0 {
		t.Errorf("Seek(-5) left Pos() = %d", l.Pos())
	}
	l.Seek(1000)
	if l.Pos() != l.Len() {
		t.Errorf("Seek(1000) left Pos() = %d, want %d", l.Pos(), l.Len())
	}
}

// streamLexer positions a lexer just after the "stream" keyword.
func streamLexer(t *testing.T, input string) *Lexer {
	t.Helper()
	l := NewLexer([]byte(input))
	for {
		tok, err := l.NextToken()
		if err != nil || tok.Type == TokenEOF {
			t.Fatalf("no stream keyword in %q", input)
		}
		if tok.Is("stream") {
			return l
		}
	}
}

func TestLexerReadStream(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		length int64
		want   string
		after  string
	}{
		{"length trusted", "stream\nabc)def\nendstream endobj", 7, "abc)def", "endobj"},
		{"CRLF after keyword", "stream\r\nabc\r\nendstream", 3, "abc", ""},
		{"length too short", "stream\nabcdef\nendstream 1", 3, "abcdef", "1"},
		{"length too long", "stream\nabc\nendstream 1", 50, "abc", "1"},
		{"no length", "stream\nxendstreamy\nendstream 2", -1, "xendstreamy", "2"},
		{"no endstream", "stream\nabc\nendobj 3", -1, "abc", "endobj"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := streamLexer(t, tt.input)
			if got := string(l.ReadStream(tt.length)); got != tt.want {
				t.Errorf("ReadStream() = %q, want %q", got, tt.want)
			}
			tok, err := l.NextToken()
			if err != nil {
				t.Fatal(err)
			}
			if string(tok.Value) != tt.after {
				t.Errorf("next token = %q, want %q", tok.Value, tt.after)
			}
		})
	}
}

func TestLexerReadInlineImage(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		length int64
		want   string
	}{
		{"scan for EI", "ID \x01\x02EIx\x03 EI Q", -1, "\x01\x02EIx\x03"},
		{"length", "ID abc EI Q", 3, "abc"},
		{"bad length falls back", "ID abcd EI Q", 2, "abcd"},
		{"EI at end of input", "ID xy EI", -1, "xy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLexer([]byte(tt.input))
			if tok, _ := l.NextToken(); !tok.Is("ID") {
				t.Fatalf("first token = %q", tok.Value)
			}
			if got := string(l.ReadInlineImage(tt.length)); got != tt.want {
				t.Errorf("ReadInlineImage() = %q, want %q", got, tt.want)
			}
			tok, _ := l.NextToken()
			if tt.input[len(tt.input)-1] == 'Q' && !tok.Is("Q") {
				t.Errorf("next token = %q, want Q", tok.Value)
			}
		})
	}
}
