package graphicsstate

// Frame is one q ... Q level. PendingFill is the index of the last fill
// color operation in effect with no path or painting operation after it,
// or -1. A new level starts with its parent's pending fill; FillDepth is
// the level that set it.
type Frame struct {
	Open        int
	CTM         Matrix
	PendingFill int
	FillDepth   int
}

// Stack tracks q/Q nesting while a content stream is scanned in order.
// The bottom frame stands for the stream's own level and is never popped.
type Stack struct {
	frames []Frame
}

// NewStack returns a stack holding only the stream level, with an
// identity CTM.
func NewStack() *Stack {
	return &Stack{frames: []Frame{{Open: -1, CTM: Identity(), PendingFill: -1}}}
}

// Save opens a level for the q operation at index. The new level starts
// with the current CTM and pending fill.
func (s *Stack) Save(index int) {
	top := s.Top()
	s.frames = append(s.frames, Frame{Open: index, CTM: top.CTM, PendingFill: top.PendingFill, FillDepth: top.FillDepth})
}

// Restore closes the innermost level. It reports false for a Q with no
// matching q.
func (s *Stack) Restore() (Frame, bool) {
	if len(s.frames) == 1 {
		return Frame{}, false
	}
	top := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return top, true
}

// Depth returns the number of open q levels.
func (s *Stack) Depth() int { return len(s.frames) - 1 }

// Top returns the innermost level.
func (s *Stack) Top() *Frame { return &s.frames[len(s.frames)-1] }

// Open returns the indices of q operations still open, outermost first.
func (s *Stack) Open() []int {
	out := make([]int, 0, len(s.frames)-1)
	for _, f := range s.frames[1:] {
		out = append(out, f.Open)
	}
	return out
}

// Concat applies a cm operation to the current CTM.
func (s *Stack) Concat(m Matrix) {
	top := s.Top()
	top.CTM = m.Multiply(top.CTM)
}

// SetFill records a fill color operation in the innermost level.
func (s *Stack) SetFill(index int) {
	top := s.Top()
	top.PendingFill = index
	top.FillDepth = s.Depth()
}

// Painted clears pending fill colors at every level: whatever was drawn
// used them.
func (s *Stack) Painted() {
	for i := range s.frames {
		s.frames[i].PendingFill = -1
	}
}
