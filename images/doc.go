// Package images finds the images a page uses and decides which of them
// to remove.
//
// [Collect] inventories a page's XObject table, following form XObjects
// into their own resources up to a nesting limit. Inline images are found
// by the content-stream parser and turned into candidates with
// [FromInline].
//
// [Policy.Decide] is a pure function of a [Candidate]:
//
//   - an image with both dimensions known is removed when it is wider than
//     MinWidth and taller than MinHeight
//   - an inline image without dimensions is removed when its data exceeds
//     InlineThreshold bytes
//   - an XObject image without dimensions gets the UnknownXObject decision
package images
