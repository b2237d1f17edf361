package filters

import (
	"bytes"
	"testing"

	"github.com/hhrutter/lzw"
)

func lzwEncode(t *testing.T, data []byte, earlyChange bool) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := lzw.NewWriter(&buf, earlyChange)
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLZWDecode(t *testing.T) {
	want := bytes.Repeat([]byte("BT /F1 12 Tf (TOBEORNOTTOBEORTOBEORNOT) Tj ET\n"), 60)
	tests := []struct {
		name   string
		early  bool
		params Params
	}{
		{"default early change", true, nil},
		{"explicit early change", true, Params{"EarlyChange": 1}},
		{"no early change", false, Params{"EarlyChange": 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LZWDecode(lzwEncode(t, want, tt.early), tt.params)
			if err != nil {
				t.Fatalf("LZWDecode() error = %v", err)
			}
			if !bytes.Equal(got, want) {
				t.Errorf("LZWDecode() returned %d bytes, want %d", len(got), len(want))
			}
		})
	}
}

func TestLZWDecodePredictor(t *testing.T) {
	raw := []byte{1, 10, 10, 10}
	got, err := LZWDecode(lzwEncode(t, raw, true), Params{"Predictor": 11, "Columns": 3})
	if err != nil {
		t.Fatalf("LZWDecode() error = %v", err)
	}
	if want := []byte{10, 20, 30}; !bytes.Equal(got, want) {
		t.Errorf("LZWDecode() = %v, want %v", got, want)
	}
}

func TestRunLengthDecode(t *testing.T) {
	tests := []struct {
		name    string
		in      []byte
		want    []byte
		wantErr bool
	}{
		{"literal", []byte{2, 'a', 'b', 'c', 128}, []byte("abc"), false},
		{"repeat", []byte{254, 'x', 128}, []byte("xxx"), false},
		{"mixed", []byte{0, 'q', 255, ' ', 1, 'c', 'm', 128}, []byte("q  cm"), false},
		{"no EOD", []byte{1, 'o', 'k'}, []byte("ok"), false},
		{"data after EOD", []byte{0, 'a', 128, 0, 'b'}, []byte("a"), false},
		{"short literal", []byte{4, 'a', 'b'}, nil, true},
		{"repeat without byte", []byte{200}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RunLengthDecode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("RunLengthDecode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !bytes.Equal(got, tt.want) {
				t.Errorf("RunLengthDecode() = %q, want %q", got, tt.want)
			}
		})
	}
}
