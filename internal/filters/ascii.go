package filters

import (
	"bytes"
	"encoding/ascii85"
	"fmt"
)

// ASCIIHexDecode decodes ASCIIHexDecode data. Whitespace is ignored and
// '>' ends the data; an odd final digit is padded with 0.
func ASCIIHexDecode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)/2)
	var hi byte
	odd := false
	for i, c := range data {
		if c == '>' {
			break
		}
		if isWhitespace(c) {
			continue
		}
		v, ok := hexNibble(c)
		if !ok {
			return nil, fmt.Errorf("invalid hex digit %q at offset %d", c, i)
		}
		if odd {
			out = append(out, hi<<4|v)
		} else {
			hi = v
		}
		odd = !odd
	}
	if odd {
		out = append(out, hi<<4)
	}
	return out, nil
}

// ASCII85Decode decodes ASCII85Decode data. An optional "<~" prefix is
// skipped and "~>" ends the data.
func ASCII85Decode(data []byte) ([]byte, error) {
	data = bytes.TrimLeftFunc(data, func(r rune) bool { return r < 0x80 && isWhitespace(byte(r)) })
	data = bytes.TrimPrefix(data, []byte("<~"))
	if end := bytes.Index(data, []byte("~>")); end >= 0 {
		data = data[:end]
	}

	out := make([]byte, 4*len(data))
	n, _, err := ascii85.Decode(out, data, true)
	if err != nil {
		return nil, fmt.Errorf("ascii85 decoding failed: %w", err)
	}
	return out[:n], nil
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// isWhitespace reports PDF whitespace: space, tab, CR, LF, FF and NUL.
func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}
