package pbstruct

import (
	"iter"

	"google.golang.org/protobuf/types/known/structpb"
)

// Null returns a new null value.
func Null() *structpb.Value { return structpb.NewNullValue() }

// True returns a new boolean true value.
func True() *structpb.Value { return structpb.NewBoolValue(true) }

// False returns a new boolean false value.
func False() *structpb.Value { return structpb.NewBoolValue(false) }

// NullableString returns a string value for s, or a null value if s is nil.
func NullableString(s *string) *structpb.Value {
	if s == nil {
		return Null()
	}
	return structpb.NewStringValue(*s)
}

// NumberList returns a list of number values.
func NumberList(values ...float64) *structpb.ListValue {
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(values))}
	for _, v := range values {
		list.Values = append(list.Values, structpb.NewNumberValue(v))
	}
	return list
}

// StringList returns a list of string values.
func StringList(values ...string) *structpb.ListValue {
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(values))}
	for _, v := range values {
		list.Values = append(list.Values, structpb.NewStringValue(v))
	}
	return list
}

// StructList returns a list of struct values. Nil structs become null values.
func StructList(values ...*structpb.Struct) *structpb.ListValue {
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(values))}
	for _, v := range values {
		if v == nil {
			list.Values = append(list.Values, Null())
			continue
		}
		list.Values = append(list.Values, structpb.NewStructValue(v))
	}
	return list
}

// ListOf returns a list holding values. Nil values become null values.
func ListOf(values ...*structpb.Value) *structpb.ListValue {
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(values))}
	for _, v := range values {
		list.Values = append(list.Values, nullIfNil(v))
	}
	return list
}

// ToListValue collects seq into a list. Nil values become null values.
func ToListValue(seq iter.Seq[*structpb.Value]) *structpb.ListValue {
	list := &structpb.ListValue{Values: []*structpb.Value{}}
	for v := range seq {
		list.Values = append(list.Values, nullIfNil(v))
	}
	return list
}

func nullIfNil(v *structpb.Value) *structpb.Value {
	if v == nil {
		return Null()
	}
	return v
}
