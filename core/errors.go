package core

import (
	"errors"
	"fmt"
)

// Error conditions reported while reading and rewriting a document.
// Callers match them with errors.Is.
var (
	// ErrUnresolvableRoot means no document catalog could be located. Fatal.
	ErrUnresolvableRoot = errors.New("unresolvable document root")

	// ErrUnsupportedEncryption means the trailer carries an /Encrypt entry. Fatal.
	ErrUnsupportedEncryption = errors.New("encrypted documents are not supported")

	// ErrMalformedToken marks a byte sequence the lexer could not classify.
	// The lexer recovers by treating the byte as an isolated delimiter.
	ErrMalformedToken = errors.New("malformed token")

	// ErrStreamImbalance marks unbalanced q/Q operators in a content stream.
	ErrStreamImbalance = errors.New("unbalanced graphics state operators")

	// ErrValidationFailed means the serialized output did not survive a
	// round-trip load. The output is still returned.
	ErrValidationFailed = errors.New("output validation failed")
)

// SyntaxError records where in the input a recoverable condition occurred.
type SyntaxError struct {
	Pos int64
	Msg string
	Err error
}

func (e *SyntaxError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%v at offset %d", e.Err, e.Pos)
	}
	return fmt.Sprintf("%v at offset %d: %s", e.Err, e.Pos, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return e.Err }
