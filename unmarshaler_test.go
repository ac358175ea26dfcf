package pbstruct

import (
	"bytes"
	"testing"

	json "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func parse(t *testing.T, src string) *structpb.Struct {
	t.Helper()
	s, err := Parse([]byte(src))
	require.NoError(t, err)
	return s
}

func TestParse(t *testing.T) {
	t.Run("empty object -> empty struct", func(t *testing.T) {
		s := parse(t, `{}`)
		require.Len(t, s.GetFields(), 0)
	})

	t.Run("primitives", func(t *testing.T) {
		s := parse(t, `{"n":null,"t":true,"f":false,"s":"str","num":-1.25e2}`)
		assert.Equal(t, map[string]any{
			"n":   nil,
			"t":   true,
			"f":   false,
			"s":   "str",
			"num": float64(-125),
		}, s.AsMap())
	})

	t.Run("nested objects and arrays", func(t *testing.T) {
		s := parse(t, `{"obj":{"x":[1,{"y":2},[]]},"arr":[]}`)
		assert.Equal(t, map[string]any{
			"obj": map[string]any{
				"x": []any{float64(1), map[string]any{"y": float64(2)}, []any{}},
			},
			"arr": []any{},
		}, s.AsMap())
	})

	t.Run("duplicate names rejected", func(t *testing.T) {
		_, err := Parse([]byte(`{"a":1,"a":2}`))
		require.Error(t, err)
	})

	t.Run("nested duplicate names rejected", func(t *testing.T) {
		_, err := Parse([]byte(`{"a":{"b":1,"b":2}}`))
		require.Error(t, err)
	})

	t.Run("non-object rejected", func(t *testing.T) {
		for _, src := range []string{`[]`, `1`, `"s"`} {
			_, err := Parse([]byte(src))
			require.Error(t, err, "expected error for %s", src)
		}
	})

	t.Run("malformed input rejected", func(t *testing.T) {
		for _, src := range []string{`{`, `{"a":}`, `{"a":1,}`, `{"a":1} trailing`} {
			_, err := Parse([]byte(src))
			require.Error(t, err, "expected error for %s", src)
		}
	})
}

func TestBuilder_UnmarshalJSONFrom(t *testing.T) {
	t.Run("preserves document order", func(t *testing.T) {
		var b Builder
		err := json.Unmarshal([]byte(`{"z":1,"a":2,"m":3}`), &b)
		require.NoError(t, err)

		fields := b.Fields()
		require.Len(t, fields, 3)
		assert.Equal(t, "z", fields[0].Name)
		assert.Equal(t, "a", fields[1].Name)
		assert.Equal(t, "m", fields[2].Name)
	})

	t.Run("appends to existing fields", func(t *testing.T) {
		b := NewBuilder().AddString("existing", "x")
		dec := jsontext.NewDecoder(bytes.NewReader([]byte(`{"new":true}`)))
		require.NoError(t, b.UnmarshalJSONFrom(dec))
		assert.Equal(t, map[string]any{"existing": "x", "new": true}, b.MustBuild().AsMap())
	})

	t.Run("conflict with existing field", func(t *testing.T) {
		b := NewBuilder().AddString("k", "x")
		dec := jsontext.NewDecoder(bytes.NewReader([]byte(`{"k":true}`)))
		err := b.UnmarshalJSONFrom(dec)
		assert.ErrorIs(t, err, ErrDuplicateKey)
	})

	t.Run("decodes as a field of a larger value", func(t *testing.T) {
		var out struct {
			Doc *Builder `json:"doc"`
		}
		err := json.Unmarshal([]byte(`{"doc":{"k":"v"}}`), &out)
		require.NoError(t, err)
		require.NotNil(t, out.Doc)
		assert.Equal(t, map[string]any{"k": "v"}, out.Doc.MustBuild().AsMap())
	})
}
