package core

import (
	"fmt"

	"github.com/tsawler/pdfstrip/internal/filters"
)

// Decode applies the stream's /Filter chain to its data. Image codecs
// (DCT, JPX, JBIG2) are left encoded.
func (s *Stream) Decode() ([]byte, error) {
	return s.DecodeWith(nil)
}

// DecodeWith is Decode with /Filter, /DecodeParms and their array elements
// allowed to be indirect references, resolved through r.
func (s *Stream) DecodeWith(r ReferenceResolver) ([]byte, error) {
	names, params, err := s.filterChain(r)
	if err != nil {
		return nil, err
	}
	data := s.Data
	for i, name := range names {
		data, err = decodeWithFilter(data, name, params[i])
		if err != nil {
			if len(names) == 1 {
				return nil, err
			}
			return nil, fmt.Errorf("filter %d (%s) failed: %w", i, name, err)
		}
	}
	return data, nil
}

// SetDecoded replaces the stream contents with data. Streams that carried
// filters are re-encoded with FlateDecode; unfiltered streams stay plain.
func (s *Stream) SetDecoded(data []byte) error {
	delete(s.Dict, "DecodeParms")
	if !s.Dict.Has("Filter") {
		s.Data = data
		s.Dict["Length"] = Int(len(data))
		return nil
	}
	encoded, err := filters.FlateEncode(data)
	if err != nil {
		return fmt.Errorf("failed to encode stream: %w", err)
	}
	s.Data = encoded
	s.Dict["Filter"] = Name("FlateDecode")
	s.Dict["Length"] = Int(len(encoded))
	return nil
}

// filterChain returns filter names with their matching decode parameters.
func (s *Stream) filterChain(r ReferenceResolver) ([]string, []Dict, error) {
	paramsObj := deref(s.Dict.Get("DecodeParms"), r)
	filter := deref(s.Dict.Get("Filter"), r)
	switch f := filter.(type) {
	case nil, Null:
		return nil, nil, nil
	case Name:
		return []string{string(f)}, []Dict{paramsObjToDict(paramsObj)}, nil
	case Array:
		names := make([]string, len(f))
		params := make([]Dict, len(f))
		paramsArray, perFilter := paramsObj.(Array)
		for i, elem := range f {
			name, ok := deref(elem, r).(Name)
			if !ok {
				return nil, nil, fmt.Errorf("filter %d is not a name: %T", i, elem)
			}
			names[i] = string(name)
			if perFilter {
				params[i] = paramsObjToDict(deref(paramsArray.Get(i), r))
			} else {
				params[i] = paramsObjToDict(paramsObj)
			}
		}
		return names, params, nil
	}
	return nil, nil, fmt.Errorf("invalid Filter type: %T", filter)
}

// deref resolves obj when it is a reference and r is set. An unresolvable
// reference becomes nil.
func deref(obj Object, r ReferenceResolver) Object {
	ref, ok := obj.(IndirectRef)
	if !ok || r == nil {
		return obj
	}
	v, err := r.ResolveReference(ref)
	if err != nil {
		return nil
	}
	return v
}

// decodeWithFilter applies one filter. Abbreviated names are the inline
// image forms.
func decodeWithFilter(data []byte, filterName string, params Dict) ([]byte, error) {
	switch filterName {
	case "FlateDecode", "Fl":
		return filters.FlateDecode(data, dictToParams(params))
	case "ASCIIHexDecode", "AHx":
		return filters.ASCIIHexDecode(data)
	case "ASCII85Decode", "A85":
		return filters.ASCII85Decode(data)
	case "LZWDecode", "LZW":
		return filters.LZWDecode(data, dictToParams(params))
	case "RunLengthDecode", "RL":
		return filters.RunLengthDecode(data)
	case "CCITTFaxDecode", "CCF":
		return filters.CCITTFaxDecode(data, dictToParams(params))
	case "DCTDecode", "DCT", "JPXDecode", "JBIG2Decode":
		return data, nil
	case "Crypt":
		return nil, ErrUnsupportedEncryption
	}
	return nil, fmt.Errorf("unknown filter: %s", filterName)
}

func paramsObjToDict(obj Object) Dict {
	dict, _ := obj.(Dict)
	return dict
}

// dictToParams converts decode parameters to filter arguments.
func dictToParams(dict Dict) filters.Params {
	if dict == nil {
		return nil
	}
	params := make(filters.Params, len(dict))
	for k, v := range dict {
		switch obj := v.(type) {
		case Int:
			params[k] = int(obj)
		case Real:
			params[k] = float64(obj)
		case Bool:
			params[k] = bool(obj)
		case String:
			params[k] = string(obj)
		case Name:
			params[k] = string(obj)
		default:
			params[k] = v
		}
	}
	return params
}
