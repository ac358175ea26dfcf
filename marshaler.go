package pbstruct

import (
	"fmt"
	"maps"
	"slices"

	"github.com/go-json-experiment/json/jsontext"
	"google.golang.org/protobuf/types/known/structpb"
)

// MarshalJSONTo writes the fields as a JSON object in insertion order. Keys
// of nested structs are written sorted. It implements json.MarshalerTo.
func (b *Builder) MarshalJSONTo(enc *jsontext.Encoder) error {
	if err := enc.WriteToken(jsontext.BeginObject); err != nil {
		return err
	}
	for _, name := range b.names {
		if err := enc.WriteToken(jsontext.String(name)); err != nil {
			return err
		}
		if err := encodeValue(enc, b.fields[name]); err != nil {
			return fmt.Errorf("write field %q: %w", name, err)
		}
	}
	return enc.WriteToken(jsontext.EndObject)
}

func encodeValue(enc *jsontext.Encoder, v *structpb.Value) error {
	switch k := v.GetKind().(type) {
	case nil, *structpb.Value_NullValue:
		return enc.WriteToken(jsontext.Null)
	case *structpb.Value_BoolValue:
		return enc.WriteToken(jsontext.Bool(k.BoolValue))
	case *structpb.Value_NumberValue:
		return enc.WriteToken(jsontext.Float(k.NumberValue))
	case *structpb.Value_StringValue:
		return enc.WriteToken(jsontext.String(k.StringValue))
	case *structpb.Value_StructValue:
		return encodeStruct(enc, k.StructValue)
	case *structpb.Value_ListValue:
		if err := enc.WriteToken(jsontext.BeginArray); err != nil {
			return err
		}
		for i, elem := range k.ListValue.GetValues() {
			if err := encodeValue(enc, elem); err != nil {
				return fmt.Errorf("write element %d: %w", i, err)
			}
		}
		return enc.WriteToken(jsontext.EndArray)
	default:
		return fmt.Errorf("%w: value kind %T", ErrUnsupportedType, k)
	}
}

func encodeStruct(enc *jsontext.Encoder, s *structpb.Struct) error {
	if err := enc.WriteToken(jsontext.BeginObject); err != nil {
		return err
	}
	fields := s.GetFields()
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		if err := enc.WriteToken(jsontext.String(k)); err != nil {
			return err
		}
		if err := encodeValue(enc, fields[k]); err != nil {
			return fmt.Errorf("write field %q: %w", k, err)
		}
	}
	return enc.WriteToken(jsontext.EndObject)
}
