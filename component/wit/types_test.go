package wit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/asterai-io/asterai-sub000/component/wit"
)

func TestDisplayPrimitive(t *testing.T) {
	assert.Equal(t, "string", wit.Display(wit.Type{Kind: wit.KindString}))
	assert.Equal(t, "u32", wit.Display(wit.Type{Kind: wit.KindU32}))
}

func TestDisplayNamedTypeUsesName(t *testing.T) {
	ty := wit.Type{Kind: wit.KindRecord, Name: "config"}
	assert.Equal(t, "config", wit.Display(ty))
}

func TestDisplayOption(t *testing.T) {
	elem := wit.Type{Kind: wit.KindString}
	ty := wit.Type{Kind: wit.KindOption, Elem: &elem}
	assert.Equal(t, "option<string>", wit.Display(ty))
}

func TestDisplayTuple(t *testing.T) {
	ty := wit.Type{
		Kind:  wit.KindTuple,
		Tuple: []wit.Type{{Kind: wit.KindU32}, {Kind: wit.KindString}},
	}
	assert.Equal(t, "tuple<u32, string>", wit.Display(ty))
}

func TestDisplayResult(t *testing.T) {
	ok := wit.Type{Kind: wit.KindString}
	ty := wit.Type{Kind: wit.KindResult, ResultOk: &ok}
	assert.Equal(t, "result<string, _>", wit.Display(ty))
}

func TestDisplayAnonymousCompoundKinds(t *testing.T) {
	assert.Equal(t, "record", wit.Display(wit.Type{Kind: wit.KindRecord}))
	assert.Equal(t, "variant", wit.Display(wit.Type{Kind: wit.KindVariant}))
	assert.Equal(t, "enum", wit.Display(wit.Type{Kind: wit.KindEnum}))
	assert.Equal(t, "flags", wit.Display(wit.Type{Kind: wit.KindFlags}))
}
