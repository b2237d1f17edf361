// Package filters implements the stream filters needed to read content
// streams, object streams and cross-reference streams.
//
// Decoders:
//
//   - FlateDecode, with TIFF and PNG predictors
//   - LZWDecode (github.com/hhrutter/lzw), with /EarlyChange
//   - ASCIIHexDecode and ASCII85Decode
//   - RunLengthDecode
//   - CCITTFaxDecode (golang.org/x/image/ccitt)
//
// FlateEncode is the only encoder; rewritten streams are always stored
// with FlateDecode.
//
// Decode parameters are passed as a Params map built from /DecodeParms:
//
//	decoded, err := filters.FlateDecode(data, filters.Params{
//		"Predictor": 12,
//		"Columns":   5,
//	})
package filters
