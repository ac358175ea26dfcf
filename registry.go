package pbstruct

import (
	"fmt"
	"reflect"
	"sync"

	"google.golang.org/protobuf/types/known/structpb"
)

type converterEntry struct {
	fn reflect.Value
	in reflect.Type
}

// Registry holds converters from specific Go types to document values. It is
// consulted by a Mapper before any of its built-in rules apply to a type.
// The zero value is an empty Registry ready to use. A Registry is safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[reflect.Type]converterEntry
}

func newRegistry() *Registry {
	return &Registry{entries: make(map[reflect.Type]converterEntry)}
}

var (
	valueType = reflect.TypeOf((*structpb.Value)(nil))
	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

func validateConverterSignature(fn any) (reflect.Value, reflect.Type, error) {
	fnVal := reflect.ValueOf(fn)
	if fnVal.Kind() != reflect.Func {
		return fnVal, nil, fmt.Errorf("converter invalid function signature (got %T)", fn)
	}
	typ := fnVal.Type()
	if typ.NumIn() != 1 || typ.NumOut() != 2 {
		return fnVal, nil, fmt.Errorf("converter invalid function signature (expected 1 input, 2 outputs; got %d, %d)", typ.NumIn(), typ.NumOut())
	}
	if typ.In(0).Kind() == reflect.Interface {
		return fnVal, nil, fmt.Errorf("converter invalid function signature (param must be a concrete type; got %s)", typ.In(0))
	}
	if typ.Out(0) != valueType {
		return fnVal, nil, fmt.Errorf("converter invalid function signature (first result must be *structpb.Value; got %s)", typ.Out(0))
	}
	if typ.Out(1) != errorType {
		return fnVal, nil, fmt.Errorf("converter invalid function signature (second result must be error; got %s)", typ.Out(1))
	}
	return fnVal, typ.In(0), nil
}

// Register adds fn as the converter for its parameter type. fn must have the
// form func(T) (*structpb.Value, error) for a concrete type T, and T must not
// already have a converter.
func (r *Registry) Register(fn any) error {
	fnVal, in, err := validateConverterSignature(fn)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries == nil {
		r.entries = make(map[reflect.Type]converterEntry)
	}
	if _, exists := r.entries[in]; exists {
		return fmt.Errorf("converter for %s already registered", in)
	}
	r.entries[in] = converterEntry{fn: fnVal, in: in}
	return nil
}

// Lookup reports whether a converter is registered for t.
func (r *Registry) Lookup(t reflect.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[t]
	return ok
}

// convert runs the converter registered for the dynamic type of v. ok is
// false when there is none.
func (r *Registry) convert(v any) (out *structpb.Value, ok bool, err error) {
	if r == nil || v == nil {
		return nil, false, nil
	}
	r.mu.RLock()
	ent, ok := r.entries[reflect.TypeOf(v)]
	r.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	results := ent.fn.Call([]reflect.Value{reflect.ValueOf(v)})
	if errVal := results[1].Interface(); errVal != nil {
		return nil, true, fmt.Errorf("converter for %s: %w", ent.in, errVal.(error))
	}
	out, _ = results[0].Interface().(*structpb.Value)
	if out == nil {
		return nil, true, fmt.Errorf("converter for %s: %w", ent.in, ErrNilValue)
	}
	return out, true, nil
}

// RegisterFunc is the type-safe form of Registry.Register.
func RegisterFunc[T any](r *Registry, fn func(T) (*structpb.Value, error)) error {
	return r.Register(fn)
}

// MustRegisterFunc is like RegisterFunc but panics on error.
func MustRegisterFunc[T any](r *Registry, fn func(T) (*structpb.Value, error)) {
	if err := RegisterFunc(r, fn); err != nil {
		panic(err)
	}
}
