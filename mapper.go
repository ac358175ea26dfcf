package pbstruct

import (
	"cmp"
	"encoding"
	"encoding/base64"
	"fmt"
	"iter"
	"maps"
	"reflect"
	"slices"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/hashicorp/go-hclog"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Mapper converts arbitrary Go values into document values.
//
// Conversion rules, in order:
//   - types with a converter in the registry use it
//   - nil and nil pointers become null
//   - *structpb.Value, *structpb.Struct, *structpb.ListValue, *Builder and
//     structpb.NullValue are used as they are
//   - []byte becomes a base64 string
//   - other proto messages go through their protojson form
//   - encoding.TextMarshaler implementations become strings
//   - bool, string and every integer and float kind map to bool, string and
//     number
//   - maps with string keys become structs, slices and arrays become lists,
//     pointers are followed
//   - anything else is handed to the fallback
//
// The default fallback marshals the value with json v2 and reads the result
// back as a document value, so Go structs map field by field honoring json
// tags. Registered converters and proto messages nested in such a value are
// still rendered by the rules above. Values that cannot be marshaled fail with
// ErrUnsupportedType.
//
// The zero value has no converters and uses the JSON fallback. A nil *Mapper
// behaves as DefaultMapper.
type Mapper struct {
	registry   *Registry
	fallback   func(any) (*structpb.Value, error)
	noFallback bool
	logger     hclog.Logger
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithRegistry sets the converters consulted before the built-in rules.
func WithRegistry(r *Registry) Option {
	return func(m *Mapper) { m.registry = r }
}

// WithFallback replaces the conversion used for values no other rule covers.
// A nil fn disables the fallback, so such values fail with
// ErrUnsupportedType.
func WithFallback(fn func(any) (*structpb.Value, error)) Option {
	return func(m *Mapper) {
		m.fallback = fn
		m.noFallback = fn == nil
	}
}

// WithLogger sets the logger used for debug output about fallback
// conversions. A nil logger discards output.
func WithLogger(l hclog.Logger) Option {
	return func(m *Mapper) {
		if l == nil {
			l = hclog.NewNullLogger()
		}
		m.logger = l
	}
}

// NewMapper returns a Mapper configured by opts. Without options it has no
// registered converters and uses the JSON fallback.
func NewMapper(opts ...Option) *Mapper {
	m := &Mapper{logger: hclog.NewNullLogger()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Mapper) log() hclog.Logger {
	if m.logger == nil {
		return hclog.NewNullLogger()
	}
	return m.logger
}

// DefaultMapper converts standard library types with Stdlib converters.
var DefaultMapper = NewMapper(WithRegistry(mustRegistry(Stdlib())))

func mustRegistry(regs ...Registration) *Registry {
	r, err := NewRegistry(regs...)
	if err != nil {
		panic(err)
	}
	return r
}

// ToValue converts v to a document value.
func (m *Mapper) ToValue(v any) (*structpb.Value, error) {
	if m == nil {
		m = DefaultMapper
	}
	return m.convert(v, nil)
}

// Struct returns a Struct with the field (name, value) followed by the
// name/value pairs in kvs. Every name in kvs must be a string.
func (m *Mapper) Struct(name string, value any, kvs ...any) (*structpb.Struct, error) {
	if m == nil {
		m = DefaultMapper
	}
	if len(kvs)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of key/value arguments (%d)", ErrInvalidKey, len(kvs))
	}
	b := NewBuilder()
	m.add(b, name, value)
	for i := 0; i < len(kvs); i += 2 {
		k, ok := kvs[i].(string)
		if !ok {
			return nil, fmt.Errorf("%w: argument %d is %T, not string", ErrInvalidKey, i, kvs[i])
		}
		m.add(b, k, kvs[i+1])
	}
	return b.Build()
}

func (m *Mapper) add(b *Builder, name string, value any) {
	v, err := m.ToValue(value)
	if err != nil {
		b.fail(name, err)
		return
	}
	b.Add(name, v)
}

// MapToStruct converts every entry of fields into a field of a new Struct. A
// nil m uses DefaultMapper.
func MapToStruct[V any](m *Mapper, fields map[string]V) (*structpb.Struct, error) {
	return SeqToStruct(m, sortedSeq(fields))
}

// TableToStruct converts table into a Struct mapping each row key to a nested
// Struct of its columns. A nil m uses DefaultMapper.
func TableToStruct[V any](m *Mapper, table map[string]map[string]V) (*structpb.Struct, error) {
	if m == nil {
		m = DefaultMapper
	}
	b := NewBuilder()
	for row, cols := range sortedSeq(table) {
		s, err := MapToStruct(m, cols)
		if err != nil {
			b.fail(row, err)
			continue
		}
		b.AddStruct(row, s)
	}
	return b.Build()
}

// SeqToStruct collects the (name, value) pairs of seq into a Struct,
// converting each value. A nil m uses DefaultMapper.
func SeqToStruct[V any](m *Mapper, seq iter.Seq2[string, V]) (*structpb.Struct, error) {
	if m == nil {
		m = DefaultMapper
	}
	b := NewBuilder()
	for name, v := range seq {
		m.add(b, name, v)
	}
	return b.Build()
}

func sortedSeq[V any](m map[string]V) iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for _, k := range slices.Sorted(maps.Keys(m)) {
			if !yield(k, m[k]) {
				return
			}
		}
	}
}

// convert is ToValue with the set of maps, slices and pointers currently
// being visited, for cycle detection.
func (m *Mapper) convert(v any, visiting map[visitKey]struct{}) (*structpb.Value, error) {
	if out, ok, err := m.registry.convert(v); ok {
		return out, err
	}

	switch x := v.(type) {
	case nil:
		return Null(), nil
	case *structpb.Value:
		return nullIfNil(x), nil
	case *structpb.Struct:
		if x == nil {
			return Null(), nil
		}
		return structpb.NewStructValue(x), nil
	case *structpb.ListValue:
		if x == nil {
			return Null(), nil
		}
		return structpb.NewListValue(x), nil
	case structpb.NullValue:
		return Null(), nil
	case *Builder:
		if x == nil {
			return Null(), nil
		}
		s, err := x.Build()
		if err != nil {
			return nil, err
		}
		return structpb.NewStructValue(s), nil
	case []byte:
		return structpb.NewStringValue(base64.StdEncoding.EncodeToString(x)), nil
	case proto.Message:
		return m.fromMessage(x)
	case encoding.TextMarshaler:
		if rv := reflect.ValueOf(x); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return Null(), nil
		}
		text, err := x.MarshalText()
		if err != nil {
			return nil, fmt.Errorf("marshal %T as text: %w", v, err)
		}
		return structpb.NewStringValue(string(text)), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return structpb.NewBoolValue(rv.Bool()), nil
	case reflect.String:
		return structpb.NewStringValue(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return structpb.NewNumberValue(float64(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return structpb.NewNumberValue(float64(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return structpb.NewNumberValue(rv.Float()), nil
	case reflect.Pointer:
		if rv.IsNil() {
			return Null(), nil
		}
		return m.descend(rv, visiting, func(visiting map[visitKey]struct{}) (*structpb.Value, error) {
			return m.convert(rv.Elem().Interface(), visiting)
		})
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: map key type %s is not a string", ErrInvalidKey, rv.Type().Key())
		}
		return m.descend(rv, visiting, func(visiting map[visitKey]struct{}) (*structpb.Value, error) {
			return m.fromMap(rv, visiting)
		})
	case reflect.Slice:
		if rv.Len() == 0 {
			return structpb.NewListValue(&structpb.ListValue{Values: []*structpb.Value{}}), nil
		}
		return m.descend(rv, visiting, func(visiting map[visitKey]struct{}) (*structpb.Value, error) {
			return m.fromList(rv, visiting)
		})
	case reflect.Array:
		return m.fromList(rv, visiting)
	}

	fallback := m.fallback
	if fallback == nil {
		if m.noFallback {
			return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
		}
		fallback = m.jsonFallback
	}
	m.log().Debug("converting value with fallback", "type", fmt.Sprintf("%T", v))
	out, err := fallback(v)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("fallback for %T: %w", v, ErrNilValue)
	}
	return out, nil
}

// visitKey identifies a map, slice or pointer being converted. Slices that
// share a backing array but differ in length are distinct values.
type visitKey struct {
	ptr uintptr
	len int
}

// descend runs fn with rv marked as being visited. Revisiting rv before fn
// returns means the value refers back to itself.
func (m *Mapper) descend(rv reflect.Value, visiting map[visitKey]struct{}, fn func(map[visitKey]struct{}) (*structpb.Value, error)) (*structpb.Value, error) {
	key := visitKey{ptr: rv.Pointer()}
	if key.ptr == 0 {
		return fn(visiting)
	}
	if rv.Kind() == reflect.Slice {
		key.len = rv.Len()
	}
	if _, ok := visiting[key]; ok {
		return nil, fmt.Errorf("%w: %s", ErrCycle, rv.Type())
	}
	if visiting == nil {
		visiting = make(map[visitKey]struct{})
	}
	visiting[key] = struct{}{}
	defer delete(visiting, key)
	return fn(visiting)
}

func (m *Mapper) fromMap(rv reflect.Value, visiting map[visitKey]struct{}) (*structpb.Value, error) {
	keys := rv.MapKeys()
	slices.SortFunc(keys, func(a, b reflect.Value) int {
		return cmp.Compare(a.String(), b.String())
	})
	b := NewBuilder()
	for _, k := range keys {
		v, err := m.convert(rv.MapIndex(k).Interface(), visiting)
		if err != nil {
			b.fail(k.String(), err)
			continue
		}
		b.Add(k.String(), v)
	}
	s, err := b.Build()
	if err != nil {
		return nil, err
	}
	return structpb.NewStructValue(s), nil
}

func (m *Mapper) fromList(rv reflect.Value, visiting map[visitKey]struct{}) (*structpb.Value, error) {
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, rv.Len())}
	for i := range rv.Len() {
		v, err := m.convert(rv.Index(i).Interface(), visiting)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		list.Values = append(list.Values, v)
	}
	return structpb.NewListValue(list), nil
}

func (m *Mapper) fromMessage(msg proto.Message) (*structpb.Value, error) {
	if !msg.ProtoReflect().IsValid() {
		return Null(), nil
	}
	data, err := protojson.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", msg.ProtoReflect().Descriptor().FullName(), err)
	}
	out := &structpb.Value{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("read %s as value: %w", msg.ProtoReflect().Descriptor().FullName(), err)
	}
	return out, nil
}

// jsonFallback renders v through its json v2 encoding. Values inside v that
// have a registered converter, and proto messages, are written as the
// document value m produces for them.
func (m *Mapper) jsonFallback(v any) (*structpb.Value, error) {
	data, err := json.Marshal(v, json.WithMarshalers(json.MarshalToFunc(m.marshalNested)))
	if err != nil {
		return nil, fmt.Errorf("%w: %T: %w", ErrUnsupportedType, v, err)
	}
	out := &structpb.Value{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("read JSON of %T as value: %w", v, err)
	}
	return out, nil
}

func (m *Mapper) marshalNested(enc *jsontext.Encoder, v any) error {
	out, ok, err := m.registry.convert(v)
	if !ok {
		msg, isMsg := v.(proto.Message)
		if !isMsg {
			return json.SkipFunc
		}
		out, err = m.fromMessage(msg)
	}
	if err != nil {
		return err
	}
	return encodeValue(enc, out)
}
