// Package contentstream parses PDF content streams and removes images
// from them.
//
// # Parsing
//
// [Parser] splits a decoded stream into [Operation] values. Each operation
// records the byte span it came from, so a stream can be edited without
// re-serializing the parts that stay:
//
//	ops, _ := contentstream.NewParser(data).Parse()
//	for _, op := range ops {
//	    fmt.Printf("%s %v at %d\n", op.Operator, op.Operands, op.Start)
//	}
//
// Inline images (BI ... ID ... EI) become a single operation whose
// [InlineImage] holds the parameters and raw data. Malformed bytes are
// skipped; Parse itself does not fail.
//
// # Rewriting
//
// [Rewrite] applies removal decisions to a stream:
//
//	res := contentstream.Rewrite(data, contentstream.Decisions{
//	    XObject: decideByName,
//	    Inline:  decideInline,
//	}, contentstream.BlankFill)
//
// In [BlankFill] mode a removed image becomes "q 1 g 0 0 1 1 re f Q", a
// white rectangle over the image area, and a black fill color that only
// served the image is turned white. In [Strip] mode the image is deleted,
// together with any q ... Q block that held nothing else but state
// operators.
//
// A page with several content streams goes through [RewriteStreams],
// which treats them as one sequence but edits each stream in place.
//
// Everything outside the rewritten operations is copied byte for byte.
// When q and Q do not balance, the affected region is left alone and
// core.ErrStreamImbalance is reported in [Result.Errors].
package contentstream
