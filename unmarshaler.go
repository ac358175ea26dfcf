package pbstruct

import (
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"google.golang.org/protobuf/types/known/structpb"
)

// Parse decodes a JSON object into a Struct. Duplicate object names are
// rejected at every level.
func Parse(data []byte) (*structpb.Struct, error) {
	var b Builder
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return b.Build()
}

// UnmarshalJSONFrom reads a JSON object and adds its members as fields in
// document order. It implements json.UnmarshalerFrom.
func (b *Builder) UnmarshalJSONFrom(dec *jsontext.Decoder) error {
	if k := dec.PeekKind(); k != '{' {
		return fmt.Errorf("%w: expected JSON object, got %v", ErrUnsupportedType, k)
	}
	return decodeObject(dec, b)
}

// decodeObject reads a JSON object into b. The opening '{' has not been
// consumed yet.
func decodeObject(dec *jsontext.Decoder, b *Builder) error {
	if _, err := dec.ReadToken(); err != nil { // '{'
		return fmt.Errorf("read object open: %w", err)
	}
	for dec.PeekKind() != '}' {
		tok, err := dec.ReadToken()
		if err != nil {
			return fmt.Errorf("read object key: %w", err)
		}
		name := tok.String()
		v, err := decodeValue(dec)
		if err != nil {
			return fmt.Errorf("read object value for key %q: %w", name, err)
		}
		b.Add(name, v)
	}
	if _, err := dec.ReadToken(); err != nil { // '}'
		return fmt.Errorf("read object close: %w", err)
	}
	return b.Err()
}

func decodeValue(dec *jsontext.Decoder) (*structpb.Value, error) {
	switch dec.PeekKind() {
	case '{':
		var nested Builder
		if err := decodeObject(dec, &nested); err != nil {
			return nil, err
		}
		s, err := nested.Build()
		if err != nil {
			return nil, err
		}
		return structpb.NewStructValue(s), nil
	case '[':
		list, err := decodeArray(dec)
		if err != nil {
			return nil, err
		}
		return structpb.NewListValue(list), nil
	}

	tok, err := dec.ReadToken()
	if err != nil {
		return nil, err
	}
	switch tok.Kind() {
	case 'n':
		return Null(), nil
	case 't', 'f':
		return structpb.NewBoolValue(tok.Bool()), nil
	case '"':
		return structpb.NewStringValue(tok.String()), nil
	case '0':
		return structpb.NewNumberValue(tok.Float()), nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok.Kind())
	}
}

// decodeArray decodes a JSON array into a list.
func decodeArray(dec *jsontext.Decoder) (*structpb.ListValue, error) {
	if _, err := dec.ReadToken(); err != nil { // '['
		return nil, fmt.Errorf("read array open: %w", err)
	}
	list := &structpb.ListValue{Values: []*structpb.Value{}}
	for dec.PeekKind() != ']' {
		elem, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("read array element %d: %w", len(list.Values), err)
		}
		list.Values = append(list.Values, elem)
	}
	if _, err := dec.ReadToken(); err != nil { // ']'
		return nil, fmt.Errorf("read array close: %w", err)
	}
	return list, nil
}
