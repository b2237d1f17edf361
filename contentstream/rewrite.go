package contentstream

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/tsawler/pdfstrip/core"
	"github.com/tsawler/pdfstrip/graphicsstate"
	"github.com/tsawler/pdfstrip/images"
)

// Mode selects what takes the place of a removed image.
type Mode int

const (
	// BlankFill paints a white rectangle over the area the image occupied.
	BlankFill Mode = iota
	// Strip deletes the image and any graphics state block that existed
	// only to place it.
	Strip
)

func (m Mode) String() string {
	if m == Strip {
		return "strip"
	}
	return "blank-fill"
}

// ParseMode parses "blank-fill" or "strip".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "blank-fill", "blankfill", "blank":
		return BlankFill, nil
	case "strip":
		return Strip, nil
	}
	return BlankFill, fmt.Errorf("unknown replacement mode %q", s)
}

// blankFill fills the unit square in its own graphics state. Images are
// painted into the unit square of the current transformation, so the
// rectangle covers exactly the image area.
const blankFill = "q 1 g 0 0 1 1 re f Q"

// Decisions supplies the verdicts for the images a stream invokes.
type Decisions struct {
	// XObject decides a Do operand. ok is false when the name is not an
	// image (a form, or nothing at all); such invocations are kept and not
	// counted.
	XObject func(name string) (d images.Decision, ok bool)

	// Inline decides an inline image.
	Inline func(img *InlineImage) images.Decision
}

// Result is the outcome of rewriting a page's content.
type Result struct {
	// Data is the rewritten content, streams joined by newlines.
	Data []byte
	// Streams holds the rewritten bytes of each input stream.
	Streams [][]byte

	Removed int
	Kept    int
	Changed bool

	// Remaining counts the Do invocations of each name left in Data.
	Remaining map[string]int

	// Placements lists the images the content paints, in order.
	Placements []Placement

	// Errors lists recoverable conditions: malformed tokens and
	// ErrStreamImbalance for q/Q mismatches.
	Errors []error
}

// Rewrite removes the images d decides to remove from a decoded content
// stream. Bytes outside the rewritten operations are copied unchanged, so a
// stream where everything is kept comes back identical. Operations inside
// a region with unbalanced q/Q are never rewritten.
func Rewrite(data []byte, d Decisions, mode Mode) *Result {
	return RewriteStreams([][]byte{data}, d, mode)
}

// RewriteStreams rewrites the content streams of one page, which form a
// single instruction sequence. q/Q balance is judged over the whole
// sequence, but each stream is edited separately and an operation that
// straddles two streams is left alone.
func RewriteStreams(streams [][]byte, d Decisions, mode Mode) *Result {
	data, segs := join(streams)
	p := NewParser(data)
	ops, _ := p.Parse()
	res := &Result{Data: data, Streams: streams, Remaining: map[string]int{}}
	res.Errors = append(res.Errors, p.Errors()...)

	frozen, blocks, errs := balance(ops)
	res.Errors = append(res.Errors, errs...)

	remove := make([]bool, len(ops))
	st := graphicsstate.NewStack()
	for i, op := range ops {
		switch op.Operator {
		case "q":
			st.Save(i)
		case "Q":
			st.Restore()
		case "cm":
			if m, ok := graphicsstate.MatrixFromOperands(op.Operands); ok {
				st.Concat(m)
			}
		}

		decision, isImage := d.decide(op)
		name, isDo := op.Name()
		if isImage {
			remove[i] = decision == images.Remove && !frozen[i] && !segs.crosses(op.Start, op.End)
			res.Placements = append(res.Placements, Placement{
				Name:    name,
				Inline:  op.Inline != nil,
				Removed: remove[i],
				BBox:    st.Top().CTM.UnitSquare(),
			})
		}
		if remove[i] {
			res.Removed++
			continue
		}
		if isImage {
			res.Kept++
		}
		if isDo {
			res.Remaining[name]++
		}
	}
	if res.Removed == 0 {
		return res
	}

	var edits []edit
	if mode == Strip {
		edits = stripEdits(ops, remove, blocks, segs)
	} else {
		edits = blankEdits(ops, remove, frozen, segs)
	}

	res.Streams = make([][]byte, len(streams))
	for k, sg := range segs {
		var local []edit
		for _, e := range edits {
			if e.start >= sg.start && e.end <= sg.end {
				local = append(local, edit{start: e.start - sg.start, end: e.end - sg.start, text: e.text})
			}
		}
		res.Streams[k] = apply(streams[k], local)
		if !bytes.Equal(res.Streams[k], streams[k]) {
			res.Changed = true
		}
	}
	res.Data, _ = join(res.Streams)
	return res
}

// segment is the range one stream occupies in the joined content.
type segment struct {
	start, end int
}

type segments []segment

// join concatenates streams with a newline between each pair.
func join(streams [][]byte) ([]byte, segments) {
	if len(streams) == 1 {
		return streams[0], segments{{0, len(streams[0])}}
	}
	segs := make(segments, len(streams))
	var buf bytes.Buffer
	for i, s := range streams {
		if i > 0 {
			buf.WriteByte('\n')
		}
		segs[i] = segment{buf.Len(), buf.Len() + len(s)}
		buf.Write(s)
	}
	return buf.Bytes(), segs
}

// crosses reports whether [start, end) is not inside a single stream.
func (s segments) crosses(start, end int) bool {
	for _, sg := range s {
		if start >= sg.start && end <= sg.end {
			return false
		}
	}
	return true
}

// Placement is one image painted by a stream. BBox is in the coordinate
// space of the stream, before any form matrix.
type Placement struct {
	Name    string
	Inline  bool
	Removed bool
	BBox    graphicsstate.BBox
}

func (d Decisions) decide(op Operation) (images.Decision, bool) {
	if op.Inline != nil {
		if d.Inline == nil {
			return images.Keep, true
		}
		return d.Inline(op.Inline), true
	}
	name, ok := op.Name()
	if !ok || d.XObject == nil {
		return images.Keep, false
	}
	return d.XObject(name)
}

// block is a matched q ... Q pair, by operation index.
type block struct {
	open, close int
}

// balance pairs q with Q. An unmatched Q freezes everything from the end
// of the previous unmatched Q up to itself; an unclosed q freezes
// everything from itself to the end of the stream. Blocks are returned in
// the order they close, so inner blocks come first.
func balance(ops []Operation) ([]bool, []block, []error) {
	frozen := make([]bool, len(ops))
	var blocks []block
	var errs []error
	st := graphicsstate.NewStack()
	segment := 0

	for i, op := range ops {
		switch op.Operator {
		case "q":
			st.Save(i)
		case "Q":
			f, ok := st.Restore()
			if !ok {
				for j := segment; j <= i; j++ {
					frozen[j] = true
				}
				segment = i + 1
				errs = append(errs, &core.SyntaxError{Pos: int64(op.Start), Msg: "Q without matching q", Err: core.ErrStreamImbalance})
				continue
			}
			blocks = append(blocks, block{f.Open, i})
		}
	}

	open := st.Open()
	for _, i := range open {
		errs = append(errs, &core.SyntaxError{Pos: int64(ops[i].Start), Msg: "q without matching Q", Err: core.ErrStreamImbalance})
	}
	if len(open) > 0 {
		for j := open[0]; j < len(ops); j++ {
			frozen[j] = true
		}
	}
	return frozen, blocks, errs
}

type edit struct {
	start, end int
	text       string
}

// stripEdits deletes removed images. A block holding nothing but state
// operators, removed images and other such blocks is deleted whole.
func stripEdits(ops []Operation, remove []bool, blocks []block, segs segments) []edit {
	var edits []edit
	covered := make([]bool, len(ops))
	for _, b := range blocks {
		if segs.crosses(ops[b.open].Start, ops[b.close].End) || !wrapsOnlyRemoved(ops, remove, covered, b) {
			continue
		}
		for j := b.open; j <= b.close; j++ {
			covered[j] = true
		}
		edits = append(edits, edit{start: ops[b.open].Start, end: ops[b.close].End})
	}
	for i, op := range ops {
		if remove[i] {
			edits = append(edits, edit{start: op.Start, end: op.End})
		}
	}
	return edits
}

func wrapsOnlyRemoved(ops []Operation, remove, covered []bool, b block) bool {
	found := false
	for j := b.open + 1; j < b.close; j++ {
		switch {
		case remove[j]:
			found = true
		case covered[j]:
			found = true
		default:
			c := graphicsstate.Classify(ops[j].Operator)
			if c != graphicsstate.ClassState && c != graphicsstate.ClassColor {
				return false
			}
		}
	}
	return found
}

// blankEdits paints over removed images. A black fill color still pending
// when a removed image is drawn, in its own q level or an enclosing one,
// and used by nothing else, is turned white.
func blankEdits(ops []Operation, remove, frozen []bool, segs segments) []edit {
	var edits []edit
	normalized := map[int]bool{}
	st := graphicsstate.NewStack()

	for i, op := range ops {
		if remove[i] {
			edits = append(edits, edit{start: op.Start, end: op.End, text: blankFill})
			top := st.Top()
			p := top.PendingFill
			if p < 0 || normalized[p] || frozen[p] || segs.crosses(ops[p].Start, ops[p].End) {
				continue
			}
			fill := ops[p]
			if graphicsstate.IsBlackFill(fill.Operator, fill.Operands) && unusedAfter(ops, remove, i, st.Depth()-top.FillDepth) {
				normalized[p] = true
				edits = append(edits, edit{start: fill.Start, end: fill.End, text: graphicsstate.WhiteFill(fill.Operator)})
			}
			continue
		}
		switch graphicsstate.Classify(op.Operator) {
		case graphicsstate.ClassSave:
			st.Save(i)
		case graphicsstate.ClassRestore:
			st.Restore()
		case graphicsstate.ClassColor:
			if graphicsstate.IsFillColor(op.Operator) {
				st.SetFill(i)
			}
		case graphicsstate.ClassPath, graphicsstate.ClassPaint:
			st.Painted()
		}
	}
	return edits
}

// unusedAfter reports whether the fill color in effect at ops[i] goes out
// of scope, or is replaced, before anything else is drawn with it. The
// color was set up levels above the one ops[i] is in.
func unusedAfter(ops []Operation, remove []bool, i, up int) bool {
	depth := 0
	for k := i + 1; k < len(ops); k++ {
		if remove[k] {
			continue
		}
		switch graphicsstate.Classify(ops[k].Operator) {
		case graphicsstate.ClassSave:
			depth++
		case graphicsstate.ClassRestore:
			if depth == -up {
				return true
			}
			depth--
		case graphicsstate.ClassColor:
			if depth == -up && graphicsstate.IsFillColor(ops[k].Operator) {
				return true
			}
		case graphicsstate.ClassPath, graphicsstate.ClassPaint:
			return false
		}
	}
	return true
}

// apply performs edits on data. Edits contained in an earlier one are
// dropped. A deletion that would leave an empty line takes the line
// break with it.
func apply(data []byte, edits []edit) []byte {
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].start != edits[j].start {
			return edits[i].start < edits[j].start
		}
		return edits[i].end > edits[j].end
	})

	var buf bytes.Buffer
	buf.Grow(len(data))
	last := 0
	for _, e := range edits {
		if e.start < last {
			continue
		}
		end := e.end
		if e.text == "" && end < len(data) && data[end] == '\n' && (e.start == 0 || data[e.start-1] == '\n') {
			end++
		}
		buf.Write(data[last:e.start])
		buf.WriteString(e.text)
		last = end
	}
	buf.Write(data[last:])
	return buf.Bytes()
}
