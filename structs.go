package pbstruct

import (
	"fmt"
	"iter"
	"maps"
	"slices"

	"google.golang.org/protobuf/types/known/structpb"
)

// FieldValue is the set of types StructOf accepts as a field value.
type FieldValue interface {
	bool | string |
		int | int32 | int64 | uint32 | uint64 | float32 | float64 |
		*structpb.ListValue | *structpb.Struct | *structpb.Value
}

// StructOf returns a Struct with the single field (name, value).
//
// It panics if value is a nil message; use Null() for an explicit null.
func StructOf[V FieldValue](name string, value V) *structpb.Struct {
	v := fieldValue(value)
	if v == nil {
		panic(fmt.Errorf("pbstruct: field %q: %w", name, ErrNilValue))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{name: v}}
}

func fieldValue(value any) *structpb.Value {
	switch v := value.(type) {
	case bool:
		return structpb.NewBoolValue(v)
	case string:
		return structpb.NewStringValue(v)
	case int:
		return structpb.NewNumberValue(float64(v))
	case int32:
		return structpb.NewNumberValue(float64(v))
	case int64:
		return structpb.NewNumberValue(float64(v))
	case uint32:
		return structpb.NewNumberValue(float64(v))
	case uint64:
		return structpb.NewNumberValue(float64(v))
	case float32:
		return structpb.NewNumberValue(float64(v))
	case float64:
		return structpb.NewNumberValue(v)
	case *structpb.ListValue:
		if v == nil {
			return nil
		}
		return structpb.NewListValue(v)
	case *structpb.Struct:
		if v == nil {
			return nil
		}
		return structpb.NewStructValue(v)
	case *structpb.Value:
		return v
	}
	return nil
}

// ToStruct collects the (name, value) pairs of seq into a Struct. A repeated
// name fails with ErrDuplicateKey and a nil value with ErrNilValue.
func ToStruct(seq iter.Seq2[string, *structpb.Value]) (*structpb.Struct, error) {
	b := NewBuilder()
	for name, v := range seq {
		b.Add(name, v)
	}
	return b.Build()
}

// ToStructFunc collects seq into a Struct, deriving each field's name and
// value from an element.
func ToStructFunc[T any](seq iter.Seq[T], key func(T) string, value func(T) *structpb.Value) (*structpb.Struct, error) {
	b := NewBuilder()
	for elem := range seq {
		b.Add(key(elem), value(elem))
	}
	return b.Build()
}

// Flatten merges the fields of every struct in seq into one Struct. A name
// present in more than one input fails with ErrDuplicateKey.
func Flatten(seq iter.Seq[*structpb.Struct]) (*structpb.Struct, error) {
	b := NewBuilder()
	for s := range seq {
		b.AddAllFields(s)
	}
	return b.Build()
}

// Fields returns the fields of s in sorted name order.
func Fields(s *structpb.Struct) iter.Seq2[string, *structpb.Value] {
	return func(yield func(string, *structpb.Value) bool) {
		fields := s.GetFields()
		for _, k := range slices.Sorted(maps.Keys(fields)) {
			if !yield(k, fields[k]) {
				return
			}
		}
	}
}
