package engine

import (
	"encoding/json"
	"sync/atomic"

	"github.com/asterai-io/asterai-sub000/component"
	"github.com/asterai-io/asterai-sub000/component/wit"
)

// sequence is the monotonic counter behind FunctionOutput.Sequence,
// letting a downstream consumer order multiple intermediate outputs
// published by a single guest invocation. Generalizes
// asterai/src/runtime/output.rs's PluginOutput, which had no ordering
// concept.
var sequence atomic.Uint64

// nextSequence returns the next call-output sequence number.
func nextSequence() uint64 {
	return sequence.Add(1)
}

// FunctionOutput is the structured result of one component function call
// that declared an output type.
type FunctionOutput struct {
	Sequence uint64
	Type     wit.Type
	Value    any // JSON-ready, produced by ToJSON
	Function component.FunctionInterface
}

// Output is the full result of a call_function invocation: the structured
// output (if the function declared one) plus a response text: the
// override passed to NewOutput, or else the function output rendered as
// JSON. CallFunction passes no override and no host function sets one,
// so direct calls always carry the rendered fallback.
type Output struct {
	FunctionOutput *FunctionOutput
	ResponseText   *string
}

// NewOutput builds an Output the way runtime/src/runtime/mod.rs's
// ComponentOutput::from does: wrap value if the function declared an
// output type, and fall back to a stringified value for the response
// text when nothing overrode it.
func NewOutput(value Value, fn component.FunctionInterface, responseOverride *string) (*Output, error) {
	var functionOutput *FunctionOutput
	if fn.Output != nil && value != nil {
		jsonValue, err := ToJSON(value, *fn.Output)
		if err != nil {
			return nil, err
		}
		functionOutput = &FunctionOutput{
			Sequence: nextSequence(),
			Type:     *fn.Output,
			Value:    jsonValue,
			Function: fn,
		}
	}
	responseText := responseOverride
	if responseText == nil && functionOutput != nil {
		rendered := renderForResponse(functionOutput.Value)
		responseText = &rendered
	}
	return &Output{FunctionOutput: functionOutput, ResponseText: responseText}, nil
}

func renderForResponse(value any) string {
	b, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(b)
}
