// Package core provides the low-level PDF syntax layer: object types, a
// restartable lexer, an object parser, cross-reference handling, object
// streams, stream filters and serialization.
//
// # Object Types
//
// Every PDF value satisfies the [Object] interface:
//
//   - [Null], [Bool], [Int], [Real]
//   - [String] - literal and hexadecimal strings, stored as raw bytes
//   - [Name] - names without the leading slash, #xx escapes decoded
//   - [Array] and [Dict]
//   - [Stream] - a dictionary plus encoded data
//   - [IndirectRef] - a "num gen R" reference
//
// # Parsing
//
// [Lexer] tokenizes a byte slice and can be repositioned at any offset.
// Unclassifiable bytes are returned as [TokenDelimiter] tokens and recorded
// as [ErrMalformedToken] conditions rather than stopping the scan.
//
// [Parser] builds objects from lexer tokens, including "num gen obj"
// definitions with their streams. Stream data is sized by /Length when that
// is trustworthy and by scanning for endstream otherwise.
//
// # Cross-Reference Data
//
// [XRefParser] reads classic xref tables and xref streams, following /Prev
// chains and /XRefStm hybrids. [MergeXRefTables] combines them with the
// newest entry winning. When the cross-reference data is unusable, [Repair]
// rebuilds a table by scanning the file for object headers.
//
// # Writing
//
// [AppendObject] and [Serialize] produce PDF syntax with sorted dictionary
// keys, so equal objects always serialize to equal bytes.
//
// # Errors
//
// Conditions are reported with the sentinel errors in errors.go, wrapped in
// [SyntaxError] when a byte offset is known.
package core
