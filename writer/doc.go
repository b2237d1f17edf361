// Package writer serializes a loaded document back to PDF.
//
// The output is a full rewrite, not an incremental update: every object of
// the arena is written once, in ascending number order, followed by a
// classic cross-reference table and a trailer holding /Size, /Root, /Info
// and /ID.
//
//	var buf bytes.Buffer
//	if err := writer.Write(&buf, doc); err != nil {
//	    return err
//	}
package writer
