package filters

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
)

// FlateDecode inflates zlib data and undoes any /Predictor. A stream cut
// short is returned as far as it could be inflated.
func FlateDecode(data []byte, params Params) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib reader: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil && !(errors.Is(err, io.ErrUnexpectedEOF) && len(out) > 0) {
		return nil, fmt.Errorf("zlib decompression failed: %w", err)
	}
	return applyPredictor(out, params)
}

// FlateEncode deflates data at the default compression level.
func FlateEncode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// applyPredictor undoes /Predictor 2 (TIFF) or 10-15 (PNG). Predictor 1 or
// no parameters return data unchanged.
func applyPredictor(data []byte, params Params) ([]byte, error) {
	predictor := getIntParam(params, "Predictor", 1)
	if predictor == 1 {
		return data, nil
	}

	colors := getIntParam(params, "Colors", 1)
	bpc := getIntParam(params, "BitsPerComponent", 8)
	columns := getIntParam(params, "Columns", 1)
	if colors < 1 || columns < 1 || (bpc != 8 && predictor == 2) {
		return nil, fmt.Errorf("unsupported predictor parameters: colors=%d bpc=%d columns=%d", colors, bpc, columns)
	}
	bytesPerPixel := (colors*bpc + 7) / 8
	rowLen := (colors*bpc*columns + 7) / 8

	switch {
	case predictor == 2:
		return tiffPredictor(data, rowLen, bytesPerPixel)
	case predictor >= 10 && predictor <= 15:
		return pngPredictor(data, rowLen, bytesPerPixel)
	}
	return nil, fmt.Errorf("unsupported predictor: %d", predictor)
}

// tiffPredictor undoes TIFF predictor 2 for 8-bit components.
func tiffPredictor(data []byte, rowLen, bpp int) ([]byte, error) {
	if len(data)%rowLen != 0 {
		return nil, fmt.Errorf("data size %d is not a multiple of row size %d", len(data), rowLen)
	}
	out := append([]byte(nil), data...)
	for row := 0; row < len(out); row += rowLen {
		for i := bpp; i < rowLen; i++ {
			out[row+i] += out[row+i-bpp]
		}
	}
	return out, nil
}

// pngPredictor undoes PNG row filters. Each row starts with a filter type
// byte. A trailing partial row is dropped.
func pngPredictor(data []byte, rowLen, bpp int) ([]byte, error) {
	stride := rowLen + 1
	rows := len(data) / stride
	out := make([]byte, rows*rowLen)
	prev := make([]byte, rowLen)

	for r := 0; r < rows; r++ {
		filter := data[r*stride]
		src := data[r*stride+1 : (r+1)*stride]
		cur := out[r*rowLen : (r+1)*rowLen]
		for i := 0; i < rowLen; i++ {
			var left, upLeft byte
			if i >= bpp {
				left = cur[i-bpp]
				upLeft = prev[i-bpp]
			}
			up := prev[i]
			switch filter {
			case 0:
				cur[i] = src[i]
			case 1:
				cur[i] = src[i] + left
			case 2:
				cur[i] = src[i] + up
			case 3:
				cur[i] = src[i] + byte((int(left)+int(up))/2)
			case 4:
				cur[i] = src[i] + paethPredictor(left, up, upLeft)
			default:
				return nil, fmt.Errorf("unknown PNG filter type %d in row %d", filter, r)
			}
		}
		prev = cur
	}
	return out, nil
}

// paethPredictor picks the neighbour closest to left+up-upLeft.
func paethPredictor(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
