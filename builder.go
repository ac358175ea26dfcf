package pbstruct

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/go-json-experiment/json/jsontext"
	"github.com/hashicorp/go-multierror"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Builder assembles a heterogeneous structpb.Struct field by field. The zero
// value is ready to use.
//
// Unlike a plain Fields map, adding a name twice is an error. Errors are
// sticky: the failing field is skipped, every failure is recorded, and Build
// reports them all. This keeps call chains fluent:
//
//	s, err := pbstruct.NewBuilder().
//		AddString("kind", "pod").
//		AddBool("ready", true).
//		Build()
//
// A Builder is not safe for concurrent use.
type Builder struct {
	names  []string
	fields map[string]*structpb.Value
	err    *multierror.Error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add adds the field (name, value). Use Null() to add an explicit null.
func (b *Builder) Add(name string, value *structpb.Value) *Builder {
	if value == nil {
		return b.fail(name, ErrNilValue)
	}
	if _, exists := b.fields[name]; exists {
		return b.fail(name, ErrDuplicateKey)
	}
	if b.fields == nil {
		b.fields = make(map[string]*structpb.Value)
	}
	b.fields[name] = value
	b.names = append(b.names, name)
	return b
}

// AddBool adds a boolean field.
func (b *Builder) AddBool(name string, value bool) *Builder {
	return b.Add(name, structpb.NewBoolValue(value))
}

// AddNumber adds a number field.
func (b *Builder) AddNumber(name string, value float64) *Builder {
	return b.Add(name, structpb.NewNumberValue(value))
}

// AddString adds a string field.
func (b *Builder) AddString(name, value string) *Builder {
	return b.Add(name, structpb.NewStringValue(value))
}

// AddList adds a list field. See NumberList, StringList and friends.
func (b *Builder) AddList(name string, value *structpb.ListValue) *Builder {
	if value == nil {
		return b.fail(name, ErrNilValue)
	}
	return b.Add(name, structpb.NewListValue(value))
}

// AddValues adds a list field holding values.
func (b *Builder) AddValues(name string, values ...*structpb.Value) *Builder {
	for _, v := range values {
		if v == nil {
			return b.fail(name, ErrNilValue)
		}
	}
	return b.AddList(name, &structpb.ListValue{Values: slices.Clone(values)})
}

// AddStruct adds a nested struct field.
func (b *Builder) AddStruct(name string, value *structpb.Struct) *Builder {
	if value == nil {
		return b.fail(name, ErrNilValue)
	}
	return b.Add(name, structpb.NewStructValue(value))
}

// AddBuilder adds the struct built by value as a nested field. Errors
// recorded by value are carried over.
func (b *Builder) AddBuilder(name string, value *Builder) *Builder {
	switch {
	case value == nil:
		return b.fail(name, ErrNilValue)
	case value == b:
		return b.fail(name, ErrSelfReference)
	}
	s, err := value.Build()
	if err != nil {
		return b.fail(name, err)
	}
	return b.AddStruct(name, s)
}

// AddMap adds value as a nested struct field.
func (b *Builder) AddMap(name string, value map[string]*structpb.Value) *Builder {
	nested := NewBuilder().AddAll(value)
	return b.AddBuilder(name, nested)
}

// AddMultimap adds value as a nested struct mapping each key to a list.
func (b *Builder) AddMultimap(name string, value map[string][]*structpb.Value) *Builder {
	nested := NewBuilder().AddAllMultimap(value)
	return b.AddBuilder(name, nested)
}

// AddTable adds value as a nested struct mapping each row key to a struct of
// its columns.
func (b *Builder) AddTable(name string, value map[string]map[string]*structpb.Value) *Builder {
	nested := NewBuilder().AddAllTable(value)
	return b.AddBuilder(name, nested)
}

// AddAll adds every entry of fields, in sorted key order.
func (b *Builder) AddAll(fields map[string]*structpb.Value) *Builder {
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		b.Add(k, fields[k])
	}
	return b
}

// AddAllMultimap adds every entry of fields as a list field, in sorted key
// order.
func (b *Builder) AddAllMultimap(fields map[string][]*structpb.Value) *Builder {
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		b.AddValues(k, fields[k]...)
	}
	return b
}

// AddAllTable adds every row of table as a struct field, in sorted row key
// order.
func (b *Builder) AddAllTable(table map[string]map[string]*structpb.Value) *Builder {
	for _, k := range slices.Sorted(maps.Keys(table)) {
		b.AddMap(k, table[k])
	}
	return b
}

// AddAllFields adds every field of s, in sorted key order.
func (b *Builder) AddAllFields(s *structpb.Struct) *Builder {
	if s == nil {
		return b.fail("", ErrNilValue)
	}
	return b.AddAll(s.GetFields())
}

// AddAllFieldsFrom adds every field of other, in other's insertion order.
// Errors recorded by other are not carried over.
func (b *Builder) AddAllFieldsFrom(other *Builder) *Builder {
	switch {
	case other == nil:
		return b.fail("", ErrNilValue)
	case other == b:
		return b.fail("", ErrSelfReference)
	}
	for _, name := range other.names {
		b.Add(name, other.fields[name])
	}
	return b
}

// Len returns the number of fields added so far.
func (b *Builder) Len() int {
	return len(b.names)
}

// Fields returns the fields added so far in insertion order.
func (b *Builder) Fields() []Field {
	out := make([]Field, 0, len(b.names))
	for _, name := range b.names {
		out = append(out, Field{Name: name, Value: b.fields[name]})
	}
	return out
}

// Err returns every error recorded so far, or nil.
func (b *Builder) Err() error {
	return b.err.ErrorOrNil()
}

// Build returns a new Struct holding a deep copy of every added field, or the
// recorded errors.
func (b *Builder) Build() (*structpb.Struct, error) {
	if err := b.Err(); err != nil {
		return nil, err
	}
	s := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(b.names))}
	for _, name := range b.names {
		s.Fields[name] = proto.Clone(b.fields[name]).(*structpb.Value)
	}
	return s, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *structpb.Struct {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

// String returns the fields as a JSON object in insertion order, followed by
// any recorded errors.
func (b *Builder) String() string {
	var sb strings.Builder
	enc := jsontext.NewEncoder(&sb)
	if err := b.MarshalJSONTo(enc); err != nil {
		return fmt.Sprintf("<invalid: %v>", err)
	}
	out := strings.TrimSuffix(sb.String(), "\n")
	if err := b.Err(); err != nil {
		out += " (" + err.Error() + ")"
	}
	return out
}

func (b *Builder) fail(name string, err error) *Builder {
	if name != "" {
		err = fmt.Errorf("field %q: %w", name, err)
	}
	b.err = multierror.Append(b.err, err)
	return b
}
