package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asterai-io/asterai-sub000/component/wit"
)

func TestFromJSONPrimitives(t *testing.T) {
	v, err := FromJSON("hello", wit.Type{Kind: wit.KindString})
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	v, err = FromJSON(true, wit.Type{Kind: wit.KindBool})
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = FromJSON(float64(42), wit.Type{Kind: wit.KindU32})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), v)

	v, err = FromJSON(float64(-7), wit.Type{Kind: wit.KindS32})
	require.NoError(t, err)
	assert.Equal(t, int64(-7), v)
}

func TestFromJSONRejectsWrongShape(t *testing.T) {
	_, err := FromJSON(42, wit.Type{Kind: wit.KindString})
	assert.Error(t, err)

	_, err = FromJSON(float64(-1), wit.Type{Kind: wit.KindU32})
	assert.Error(t, err)
}

func recordType() wit.Type {
	return wit.Type{
		Kind: wit.KindRecord,
		Fields: []wit.RecordField{
			{Name: "name", Type: wit.Type{Kind: wit.KindString}},
			{Name: "age", Type: wit.Type{Kind: wit.KindU32}},
		},
	}
}

func TestRecordRoundTripsThroughJSON(t *testing.T) {
	ty := recordType()
	input := map[string]any{"name": "ada", "age": float64(36)}

	v, err := FromJSON(input, ty)
	require.NoError(t, err)

	fields, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ada", fields["name"])
	assert.Equal(t, uint64(36), fields["age"])

	out, err := ToJSON(v, ty)
	require.NoError(t, err)
	outFields, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ada", outFields["name"])
	assert.Equal(t, uint64(36), outFields["age"])
}

func TestToJSONNestedRecordProducesObjectNotTodoPanic(t *testing.T) {
	nested := wit.Type{
		Kind: wit.KindRecord,
		Fields: []wit.RecordField{
			{Name: "inner", Type: recordType()},
		},
	}
	value := map[string]any{
		"inner": map[string]any{"name": "grace", "age": uint64(85)},
	}

	out, err := ToJSON(value, nested)
	require.NoError(t, err)

	obj, ok := out.(map[string]any)
	require.True(t, ok)
	inner, ok := obj["inner"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "grace", inner["name"])
}

func TestListAndTupleRoundTrip(t *testing.T) {
	listType := wit.Type{Kind: wit.KindList, Elem: &wit.Type{Kind: wit.KindString}}
	v, err := FromJSON([]any{"a", "b", "c"}, listType)
	require.NoError(t, err)
	out, err := ToJSON(v, listType)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b", "c"}, out)

	tupleType := wit.Type{Kind: wit.KindTuple, Tuple: []wit.Type{
		{Kind: wit.KindString}, {Kind: wit.KindBool},
	}}
	v, err = FromJSON([]any{"x", true}, tupleType)
	require.NoError(t, err)
	out, err = ToJSON(v, tupleType)
	require.NoError(t, err)
	assert.Equal(t, []any{"x", true}, out)
}

func TestOptionNoneAndSome(t *testing.T) {
	ty := wit.Type{Kind: wit.KindOption, Elem: &wit.Type{Kind: wit.KindString}}

	v, err := FromJSON(nil, ty)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = FromJSON("present", ty)
	require.NoError(t, err)
	assert.Equal(t, "present", v)

	out, err := ToJSON(v, ty)
	require.NoError(t, err)
	assert.Equal(t, "present", out)
}

func TestEnumRejectsUnknownCase(t *testing.T) {
	ty := wit.Type{Kind: wit.KindEnum, Cases: []string{"red", "green", "blue"}}
	v, err := FromJSON("green", ty)
	require.NoError(t, err)
	assert.Equal(t, "green", v)

	_, err = FromJSON("purple", ty)
	assert.Error(t, err)
}

func TestFlagsRoundTrip(t *testing.T) {
	ty := wit.Type{Kind: wit.KindFlags, Flags: []string{"read", "write", "exec"}}
	v, err := FromJSON([]any{"read", "exec"}, ty)
	require.NoError(t, err)
	assert.Equal(t, []string{"read", "exec"}, v)

	out, err := ToJSON(v, ty)
	require.NoError(t, err)
	assert.Equal(t, []string{"read", "exec"}, out)
}
