// Package graphicsstate tracks the parts of the PDF graphics state that
// matter when content is removed from a stream: q/Q nesting, the current
// transformation matrix and the fill color most recently set.
//
// # Operator Classes
//
// [Classify] sorts operators into save/restore, state, color, path
// construction and painting classes. Painting includes path painting,
// shading, text showing and image operators.
//
// # Stack
//
// A [Stack] has one [Frame] per open q level:
//
//	st := graphicsstate.NewStack()
//	st.Save(i)             // q
//	st.Concat(m)           // cm
//	st.SetFill(i)          // g, rg, k, sc, scn
//	st.Painted()           // f, S, Tj, Do, ...
//	st.Restore()           // Q
//
// [Matrix.UnitSquare] gives the area an image covers under a CTM.
package graphicsstate
