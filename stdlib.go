package pbstruct

import (
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// NewTimeConverter returns a Registration rendering time.Time as a string in
// the given layout.
func NewTimeConverter(layout string) Registration {
	return NewConverter(func(t time.Time) (*structpb.Value, error) {
		return structpb.NewStringValue(t.Format(layout)), nil
	})
}

// NewDurationConverter returns a Registration rendering time.Duration as its
// String form, e.g. "1h30m0s".
func NewDurationConverter() Registration {
	return NewConverter(func(d time.Duration) (*structpb.Value, error) {
		return structpb.NewStringValue(d.String()), nil
	})
}

var (
	// TimeConverter renders time.Time as an RFC 3339 string with
	// nanoseconds, e.g. "2023-10-01T12:00:00.5Z".
	TimeConverter = NewTimeConverter(time.RFC3339Nano)
	// DurationConverter renders time.Duration as "5m30s".
	DurationConverter = NewDurationConverter()
)

// Stdlib groups the converters for standard library types.
func Stdlib() Registration {
	return Group(TimeConverter, DurationConverter)
}
