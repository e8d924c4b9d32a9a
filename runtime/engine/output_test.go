package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asterai-io/asterai-sub000/component"
	"github.com/asterai-io/asterai-sub000/component/wit"
	"github.com/asterai-io/asterai-sub000/pkgname"
)

func testFunctionInterface(outputType *wit.Type) component.FunctionInterface {
	comp, err := component.New(pkgname.Name{Namespace: "asterai", Name: "hello", Version: "0.1.0"})
	if err != nil {
		panic(err)
	}
	return component.FunctionInterface{
		PackageName: comp.PackageName(),
		Name:        component.NewFunctionName("asterai:hello/greet", "greet"),
		Output:      outputType,
		Component:   comp,
	}
}

func TestNewOutputWithoutDeclaredTypeHasNoFunctionOutput(t *testing.T) {
	fn := testFunctionInterface(nil)
	out, err := NewOutput("ignored", fn, nil)
	require.NoError(t, err)
	assert.Nil(t, out.FunctionOutput)
	assert.Nil(t, out.ResponseText)
}

func TestNewOutputStructValueProducesJSONObject(t *testing.T) {
	ty := recordType()
	fn := testFunctionInterface(&ty)
	value := map[string]any{"name": "ada", "age": uint64(36)}

	out, err := NewOutput(value, fn, nil)
	require.NoError(t, err)
	require.NotNil(t, out.FunctionOutput)

	fields, ok := out.FunctionOutput.Value.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ada", fields["name"])
	require.NotNil(t, out.ResponseText)
	assert.Contains(t, *out.ResponseText, "ada")
}

func TestNewOutputNumberValue(t *testing.T) {
	ty := wit.Type{Kind: wit.KindU32}
	fn := testFunctionInterface(&ty)

	out, err := NewOutput(uint64(7), fn, nil)
	require.NoError(t, err)
	require.NotNil(t, out.FunctionOutput)
	assert.Equal(t, uint64(7), out.FunctionOutput.Value)
	assert.Equal(t, "7", *out.ResponseText)
}

func TestNewOutputResponseOverrideWins(t *testing.T) {
	ty := wit.Type{Kind: wit.KindString}
	fn := testFunctionInterface(&ty)
	override := "custom response"

	out, err := NewOutput("hello", fn, &override)
	require.NoError(t, err)
	require.NotNil(t, out.ResponseText)
	assert.Equal(t, override, *out.ResponseText)
}

func TestOutputSequenceIsMonotonic(t *testing.T) {
	ty := wit.Type{Kind: wit.KindString}
	fn := testFunctionInterface(&ty)

	first, err := NewOutput("a", fn, nil)
	require.NoError(t, err)
	second, err := NewOutput("b", fn, nil)
	require.NoError(t, err)

	require.NotNil(t, first.FunctionOutput)
	require.NotNil(t, second.FunctionOutput)
	assert.Greater(t, second.FunctionOutput.Sequence, first.FunctionOutput.Sequence)
}
