package filters

import (
	"bytes"
	"fmt"
	"io"

	"github.com/hhrutter/lzw"
)

// LZWDecode decodes LZW data. /EarlyChange defaults to 1, which is the
// off-by-one code width switch used by most PDF writers.
func LZWDecode(data []byte, params Params) ([]byte, error) {
	early := getIntParam(params, "EarlyChange", 1) == 1
	r := lzw.NewReader(bytes.NewReader(data), early)
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("lzw decompression failed: %w", err)
	}
	return applyPredictor(out, params)
}

// RunLengthDecode decodes the PackBits-style RunLengthDecode filter.
func RunLengthDecode(data []byte) ([]byte, error) {
	var out bytes.Buffer
	for i := 0; i < len(data); {
		n := int(data[i])
		i++
		switch {
		case n == 128:
			return out.Bytes(), nil
		case n < 128:
			if i+n+1 > len(data) {
				return nil, fmt.Errorf("run length literal exceeds data at offset %d", i)
			}
			out.Write(data[i : i+n+1])
			i += n + 1
		default:
			if i >= len(data) {
				return nil, fmt.Errorf("run length repeat missing byte at offset %d", i)
			}
			out.Write(bytes.Repeat(data[i:i+1], 257-n))
			i++
		}
	}
	return out.Bytes(), nil
}
