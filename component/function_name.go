package component

import (
	"encoding/json"
	"strings"
)

// FunctionName identifies a function exported by a component, either
// through a named interface ("greet" in "asterai:hello/greet") or directly
// at the world root when Interface is empty. Grounded on
// asterai/src/component/function_name.rs.
type FunctionName struct {
	Interface string // empty when the function is a world-root export
	Name      string
}

// NewFunctionName constructs a FunctionName; pass an empty interface for a
// world-root function.
func NewFunctionName(interfaceName, name string) FunctionName {
	return FunctionName{Interface: interfaceName, Name: name}
}

func (n FunctionName) String() string {
	if n.Interface == "" {
		return n.Name
	}
	return n.Interface + "/" + n.Name
}

// ParseFunctionName splits on the last "/": everything before is the
// interface, everything after is the function name. A string with no "/"
// is a world-root function name.
func ParseFunctionName(s string) FunctionName {
	idx := strings.LastIndex(s, "/")
	if idx == -1 {
		return FunctionName{Name: s}
	}
	return FunctionName{Interface: s[:idx], Name: s[idx+1:]}
}

func (n FunctionName) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.String())
}

func (n *FunctionName) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*n = ParseFunctionName(s)
	return nil
}
