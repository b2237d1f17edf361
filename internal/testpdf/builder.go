// Package testpdf assembles small PDF files for tests. Offsets in the
// generated cross-reference table are exact.
package testpdf

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/tsawler/pdfstrip/core"
)

// Builder collects numbered objects and a trailer.
type Builder struct {
	version    string
	bodies     map[int][]byte
	trailer    core.Dict
	compressed map[int][2]int
}

// New returns a builder for a PDF 1.7 file.
func New() *Builder {
	return &Builder{version: "1.7", bodies: make(map[int][]byte), trailer: core.Dict{}, compressed: make(map[int][2]int)}
}

// Version sets the header version, such as "1.4".
func (b *Builder) Version(v string) *Builder {
	b.version = v
	return b
}

// Add stores obj as object num, generation 0.
func (b *Builder) Add(num int, obj core.Object) *Builder {
	b.bodies[num] = core.Serialize(obj)
	return b
}

// AddRaw stores body verbatim between "num 0 obj" and "endobj".
func (b *Builder) AddRaw(num int, body string) *Builder {
	b.bodies[num] = []byte(body)
	return b
}

// Trailer sets a trailer entry. /Size is always computed.
func (b *Builder) Trailer(key string, value core.Object) *Builder {
	b.trailer[key] = value
	return b
}

// Root sets /Root to object num.
func (b *Builder) Root(num int) *Builder {
	return b.Trailer("Root", core.IndirectRef{Number: num})
}

// Bytes renders the file with a classic xref table.
func (b *Builder) Bytes() []byte {
	var buf bytes.Buffer
	offsets, maxNum := b.writeBody(&buf)

	xrefAt := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", maxNum+1)
	buf.WriteString("0000000000 65535 f \n")
	for n := 1; n <= maxNum; n++ {
		if off, ok := offsets[n]; ok {
			fmt.Fprintf(&buf, "%010d 00000 n \n", off)
		} else {
			buf.WriteString("0000000000 00000 f \n")
		}
	}
	buf.WriteString("trailer\n")
	buf.Write(core.Serialize(b.trailerDict(maxNum)))
	fmt.Fprintf(&buf, "\nstartxref\n%d\n%%%%EOF\n", xrefAt)
	return buf.Bytes()
}

// InStream records that object num lives at index in object stream
// stream. Only BytesXRefStream can express this.
func (b *Builder) InStream(num, stream, index int) *Builder {
	b.compressed[num] = [2]int{stream, index}
	return b
}

// BytesXRefStream renders the file with a cross-reference stream, written
// as the highest-numbered object.
func (b *Builder) BytesXRefStream() []byte {
	var buf bytes.Buffer
	offsets, maxNum := b.writeBody(&buf)
	for n := range b.compressed {
		if n > maxNum {
			maxNum = n
		}
	}
	xrefNum := maxNum + 1
	xrefAt := buf.Len()
	offsets[xrefNum] = xrefAt

	var rows []byte
	for n := 0; n <= xrefNum; n++ {
		if c, ok := b.compressed[n]; ok {
			rows = append(rows, 2, 0, 0, byte(c[0]>>8), byte(c[0]), byte(c[1]>>8), byte(c[1]))
			continue
		}
		off, ok := offsets[n]
		if !ok {
			rows = append(rows, 0, 0, 0, 0, 0, 0, 0)
			continue
		}
		rows = append(rows, 1, byte(off>>24), byte(off>>16), byte(off>>8), byte(off), 0, 0)
	}

	dict := b.trailerDict(xrefNum)
	dict["Type"] = core.Name("XRef")
	dict["W"] = core.Array{core.Int(1), core.Int(4), core.Int(2)}
	fmt.Fprintf(&buf, "%d 0 obj\n", xrefNum)
	buf.Write(core.Serialize(&core.Stream{Dict: dict, Data: rows}))
	fmt.Fprintf(&buf, "\nendobj\nstartxref\n%d\n%%%%EOF\n", xrefAt)
	return buf.Bytes()
}

// BytesNoXRef renders the objects and a trailer dictionary but no xref
// table and a bogus startxref, forcing readers into repair.
func (b *Builder) BytesNoXRef() []byte {
	var buf bytes.Buffer
	_, maxNum := b.writeBody(&buf)
	buf.WriteString("trailer\n")
	buf.Write(core.Serialize(b.trailerDict(maxNum)))
	buf.WriteString("\nstartxref\n999999\n%%EOF\n")
	return buf.Bytes()
}

func (b *Builder) writeBody(buf *bytes.Buffer) (map[int]int, int) {
	fmt.Fprintf(buf, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", b.version)
	nums := make([]int, 0, len(b.bodies))
	for n := range b.bodies {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	offsets := make(map[int]int, len(nums))
	maxNum := 0
	for _, n := range nums {
		offsets[n] = buf.Len()
		fmt.Fprintf(buf, "%d 0 obj\n", n)
		buf.Write(b.bodies[n])
		buf.WriteString("\nendobj\n")
		maxNum = n
	}
	return offsets, maxNum
}

func (b *Builder) trailerDict(maxNum int) core.Dict {
	t := b.trailer.Clone()
	t["Size"] = core.Int(maxNum + 1)
	return t
}

// Ref is shorthand for a generation-0 reference.
func Ref(num int) core.IndirectRef { return core.IndirectRef{Number: num} }

// Stream returns an unfiltered stream with the given dictionary entries.
func Stream(dict core.Dict, data string) *core.Stream {
	if dict == nil {
		dict = core.Dict{}
	}
	return &core.Stream{Dict: dict, Data: []byte(data)}
}

// Image returns an image XObject of the given size with dummy samples.
func Image(width, height int) *core.Stream {
	return Stream(core.Dict{
		"Type":             core.Name("XObject"),
		"Subtype":          core.Name("Image"),
		"Width":            core.Int(width),
		"Height":           core.Int(height),
		"ColorSpace":       core.Name("DeviceGray"),
		"BitsPerComponent": core.Int(8),
		"Filter":           core.Name("DCTDecode"),
	}, "\xff\xd8 not really a jpeg \xff\xd9")
}

// Form returns a form XObject with the given resources and content.
func Form(resources core.Dict, content string) *core.Stream {
	dict := core.Dict{
		"Type":    core.Name("XObject"),
		"Subtype": core.Name("Form"),
		"BBox":    core.Array{core.Int(0), core.Int(0), core.Int(612), core.Int(792)},
	}
	if resources != nil {
		dict["Resources"] = resources
	}
	return Stream(dict, content)
}

// XObjects returns a resource dictionary with an /XObject table of
// generation-0 references.
func XObjects(names map[string]int) core.Dict {
	table := core.Dict{}
	for name, num := range names {
		table[name] = Ref(num)
	}
	return core.Dict{"XObject": table}
}

// SinglePage builds a one-page document: catalog 1, pages 2, page 3 and
// content stream 4, with resources and further objects supplied by the
// caller starting at number 5.
func SinglePage(resources core.Dict, content string) *Builder {
	b := New()
	b.Add(1, core.Dict{"Type": core.Name("Catalog"), "Pages": Ref(2)})
	b.Add(2, core.Dict{"Type": core.Name("Pages"), "Kids": core.Array{Ref(3)}, "Count": core.Int(1)})
	page := core.Dict{
		"Type":     core.Name("Page"),
		"Parent":   Ref(2),
		"MediaBox": core.Array{core.Int(0), core.Int(0), core.Int(612), core.Int(792)},
		"Contents": Ref(4),
	}
	if resources != nil {
		page["Resources"] = resources
	}
	b.Add(3, page)
	b.Add(4, Stream(nil, content))
	return b.Root(1)
}
