package pbstruct

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/testing/protocmp"
	"google.golang.org/protobuf/types/known/structpb"
)

func requireProtoEqual(t *testing.T, want, got proto.Message) {
	t.Helper()
	require.Empty(t, cmp.Diff(want, got, protocmp.Transform()))
}

func TestConstants(t *testing.T) {
	t.Run("null", func(t *testing.T) {
		requireProtoEqual(t, structpb.NewNullValue(), Null())
	})

	t.Run("true and false", func(t *testing.T) {
		requireProtoEqual(t, structpb.NewBoolValue(true), True())
		requireProtoEqual(t, structpb.NewBoolValue(false), False())
	})

	t.Run("fresh instance per call", func(t *testing.T) {
		a := True()
		a.Kind = &structpb.Value_BoolValue{BoolValue: false}
		assert.True(t, True().GetBoolValue())
	})
}

func TestNullableString(t *testing.T) {
	t.Run("nil is null", func(t *testing.T) {
		requireProtoEqual(t, Null(), NullableString(nil))
	})

	t.Run("non-nil is string", func(t *testing.T) {
		s := "value"
		requireProtoEqual(t, structpb.NewStringValue("value"), NullableString(&s))
	})

	t.Run("empty string is not null", func(t *testing.T) {
		s := ""
		requireProtoEqual(t, structpb.NewStringValue(""), NullableString(&s))
	})
}

func TestLists(t *testing.T) {
	t.Run("number list", func(t *testing.T) {
		want := &structpb.ListValue{Values: []*structpb.Value{
			structpb.NewNumberValue(1),
			structpb.NewNumberValue(2.5),
		}}
		requireProtoEqual(t, want, NumberList(1, 2.5))
	})

	t.Run("string list", func(t *testing.T) {
		want := &structpb.ListValue{Values: []*structpb.Value{
			structpb.NewStringValue("a"),
			structpb.NewStringValue("b"),
		}}
		requireProtoEqual(t, want, StringList("a", "b"))
	})

	t.Run("struct list with nil element", func(t *testing.T) {
		s := StructOf("k", 1)
		want := &structpb.ListValue{Values: []*structpb.Value{
			structpb.NewStructValue(s),
			structpb.NewNullValue(),
		}}
		requireProtoEqual(t, want, StructList(s, nil))
	})

	t.Run("list of values with nil element", func(t *testing.T) {
		want := &structpb.ListValue{Values: []*structpb.Value{
			structpb.NewBoolValue(true),
			structpb.NewNullValue(),
		}}
		requireProtoEqual(t, want, ListOf(True(), nil))
	})

	t.Run("empty lists are not nil", func(t *testing.T) {
		require.NotNil(t, NumberList().GetValues())
		require.NotNil(t, StringList().GetValues())
		require.NotNil(t, ListOf().GetValues())
	})
}

func TestToListValue(t *testing.T) {
	t.Run("collects in order", func(t *testing.T) {
		got := ToListValue(slices.Values([]*structpb.Value{
			structpb.NewStringValue("x"),
			nil,
			structpb.NewNumberValue(3),
		}))
		want := &structpb.ListValue{Values: []*structpb.Value{
			structpb.NewStringValue("x"),
			structpb.NewNullValue(),
			structpb.NewNumberValue(3),
		}}
		requireProtoEqual(t, want, got)
	})

	t.Run("empty sequence", func(t *testing.T) {
		got := ToListValue(slices.Values([]*structpb.Value(nil)))
		require.Len(t, got.GetValues(), 0)
	})
}
