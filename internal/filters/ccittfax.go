package filters

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/image/ccitt"
)

// CCITTFaxDecode decodes Group 3 or Group 4 fax data into packed 1-bit
// rows. /K < 0 selects Group 4. /Rows of 0 lets the decoder find the end
// of the image; /EncodedByteAlign and /BlackIs1 map to the decoder options.
func CCITTFaxDecode(data []byte, params Params) ([]byte, error) {
	columns := getIntParam(params, "Columns", 1728)
	rows := getIntParam(params, "Rows", 0)
	if columns <= 0 || rows < 0 {
		return nil, fmt.Errorf("invalid CCITT dimensions %dx%d", columns, rows)
	}
	if rows == 0 {
		rows = ccitt.AutoDetectHeight
	}

	sf := ccitt.Group3
	if getIntParam(params, "K", 0) < 0 {
		sf = ccitt.Group4
	}
	opts := &ccitt.Options{
		Align:  getBoolParam(params, "EncodedByteAlign", false),
		Invert: getBoolParam(params, "BlackIs1", false),
	}

	out, err := io.ReadAll(ccitt.NewReader(bytes.NewReader(data), ccitt.MSB, sf, columns, rows, opts))
	if err != nil {
		return nil, fmt.Errorf("ccitt decompression failed: %w", err)
	}
	return out, nil
}
