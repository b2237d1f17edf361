package core

import (
	"bytes"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
)

// DecodeTextString converts a PDF text string, such as an /Info entry, to
// UTF-8. Strings with a UTF-16BE or UTF-8 byte order mark are decoded
// accordingly; anything else is read as PDFDocEncoding, approximated by
// Windows-1252.
func DecodeTextString(s String) string {
	raw := []byte(s)
	switch {
	case bytes.HasPrefix(raw, bomUTF16BE):
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		if out, err := dec.Bytes(raw); err == nil {
			return string(out)
		}
	case bytes.HasPrefix(raw, bomUTF8):
		return string(raw[len(bomUTF8):])
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}
