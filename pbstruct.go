// Package pbstruct builds google.protobuf.Struct documents from ordinary Go
// data without spelling out every intermediate structpb.Value.
//
// The document model itself belongs to
// google.golang.org/protobuf/types/known/structpb; this package only composes
// against it:
//
//	s := pbstruct.NewBuilder().
//		AddString("name", "example").
//		AddNumber("replicas", 3).
//		AddList("zones", pbstruct.StringList("a", "b")).
//		MustBuild()
//
// Arbitrary Go values (maps, slices, Go structs, time.Time, ...) are converted
// by a Mapper:
//
//	s, err := pbstruct.DefaultMapper.Struct("labels", map[string]string{"env": "prod"})
package pbstruct

import (
	"errors"

	"google.golang.org/protobuf/types/known/structpb"
)

// Field is a single named value of a document, as kept by a Builder.
type Field struct {
	Name  string
	Value *structpb.Value
}

var (
	// ErrDuplicateKey is returned when a field name is added twice.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrNilValue is returned when a nil message is passed where a value is
	// required. Use Null() to add an explicit null.
	ErrNilValue = errors.New("nil value")
	// ErrSelfReference is returned when a Builder is added to itself.
	ErrSelfReference = errors.New("builder added to itself")
	// ErrInvalidKey is returned for malformed key/value argument lists.
	ErrInvalidKey = errors.New("invalid key")
	// ErrUnsupportedType is returned when a Go value has no document form.
	ErrUnsupportedType = errors.New("unsupported type")
	// ErrCycle is returned when a Go value refers back to itself.
	ErrCycle = errors.New("cyclic value")
)
