package core

import (
	"fmt"
	"io"
)

// ObjectStream is a decoded /Type /ObjStm stream (PDF 1.5). It holds N
// objects; the header before /First lists object numbers and offsets.
type ObjectStream struct {
	stream  *Stream
	n       int
	first   int
	offsets []objectStreamOffset
	decoded []byte
}

// objectStreamOffset pairs an object number with its offset after /First.
type objectStreamOffset struct {
	ObjNum int
	Offset int
}

// NewObjectStream validates the stream dictionary. Decoding is deferred to
// the first object access.
func NewObjectStream(stream *Stream) (*ObjectStream, error) {
	if stream == nil {
		return nil, fmt.Errorf("stream is nil")
	}
	if t, _ := stream.Dict.GetName("Type"); t != "ObjStm" {
		return nil, fmt.Errorf("stream is not an object stream, got type: %v", stream.Dict.Get("Type"))
	}
	n, ok := stream.Dict.GetInt("N")
	if !ok || n < 0 {
		return nil, fmt.Errorf("object stream has invalid /N: %v", stream.Dict.Get("N"))
	}
	first, ok := stream.Dict.GetInt("First")
	if !ok || first < 0 {
		return nil, fmt.Errorf("object stream has invalid /First: %v", stream.Dict.Get("First"))
	}
	return &ObjectStream{stream: stream, n: int(n), first: int(first)}, nil
}

// N returns the declared object count.
func (os *ObjectStream) N() int { return os.n }

func (os *ObjectStream) decode() error {
	if os.decoded != nil {
		return nil
	}
	decoded, err := os.stream.Decode()
	if err != nil {
		return fmt.Errorf("failed to decode object stream: %w", err)
	}
	if os.first > len(decoded) {
		return fmt.Errorf("First offset (%d) exceeds decoded data length (%d)", os.first, len(decoded))
	}

	p := NewParser(decoded[:os.first])
	offsets := make([]objectStreamOffset, 0, os.n)
	for i := 0; i < os.n; i++ {
		num, err1 := p.ParseObject()
		off, err2 := p.ParseObject()
		if err1 == io.EOF || err2 == io.EOF {
			break // short header: keep what was listed
		}
		numInt, ok1 := num.(Int)
		offInt, ok2 := off.(Int)
		if err1 != nil || err2 != nil || !ok1 || !ok2 {
			return fmt.Errorf("object stream header entry %d is malformed", i)
		}
		offsets = append(offsets, objectStreamOffset{ObjNum: int(numInt), Offset: int(offInt)})
	}
	os.decoded = decoded
	os.offsets = offsets
	return nil
}

// GetObjectByIndex parses the object at position index in the header.
// It returns the object and its number.
func (os *ObjectStream) GetObjectByIndex(index int) (Object, int, error) {
	if err := os.decode(); err != nil {
		return nil, 0, err
	}
	if index < 0 || index >= len(os.offsets) {
		return nil, 0, fmt.Errorf("index %d out of range [0, %d)", index, len(os.offsets))
	}

	start := os.first + os.offsets[index].Offset
	end := len(os.decoded)
	if index+1 < len(os.offsets) {
		end = os.first + os.offsets[index+1].Offset
	}
	if start < os.first || start >= len(os.decoded) || end > len(os.decoded) || end < start {
		return nil, 0, fmt.Errorf("object %d has offset outside object stream", os.offsets[index].ObjNum)
	}

	obj, err := NewParser(os.decoded[start:end]).ParseObject()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse object at index %d: %w", index, err)
	}
	return obj, os.offsets[index].ObjNum, nil
}

// Objects parses every object in the stream. Objects that fail to parse
// are skipped; the first such error is returned alongside the rest.
func (os *ObjectStream) Objects() ([]IndirectObject, error) {
	if err := os.decode(); err != nil {
		return nil, err
	}
	var firstErr error
	out := make([]IndirectObject, 0, len(os.offsets))
	for i := range os.offsets {
		obj, num, err := os.GetObjectByIndex(i)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		out = append(out, IndirectObject{Ref: IndirectRef{Number: num}, Object: obj})
	}
	return out, firstErr
}
