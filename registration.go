package pbstruct

import "google.golang.org/protobuf/types/known/structpb"

// Registration is a deferred converter registration. Packages that know how
// to render their own types expose values of this type so callers opt in
// explicitly instead of relying on import side-effects (init functions).
//
// For example, in a package "money":
//
//	var Amount = pbstruct.NewConverter(func(a Amount) (*structpb.Value, error) { ... })
//
// Usage:
//
//	r, _ := pbstruct.NewRegistry(pbstruct.Stdlib(), money.Amount)
//	m := pbstruct.NewMapper(pbstruct.WithRegistry(r))
type Registration func(r *Registry) error

// NewConverter wraps fn into a Registration for type T.
func NewConverter[T any](fn func(T) (*structpb.Value, error)) Registration {
	return func(r *Registry) error {
		return RegisterFunc(r, fn)
	}
}

// Group groups multiple registrations into one, e.g.:
//
//	pbstruct.NewRegistry(pbstruct.Group(pbstruct.TimeConverter, pbstruct.DurationConverter), custom)
func Group(regs ...Registration) Registration {
	return func(r *Registry) error { return Apply(r, regs...) }
}

// Apply applies one or more registrations to an existing registry. Stops at
// the first error and returns it.
func Apply(r *Registry, regs ...Registration) error {
	for _, reg := range regs {
		if err := reg(r); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry constructs a new registry and applies the provided registrations.
func NewRegistry(regs ...Registration) (*Registry, error) {
	r := newRegistry()
	if err := Apply(r, regs...); err != nil {
		return nil, err
	}
	return r, nil
}
