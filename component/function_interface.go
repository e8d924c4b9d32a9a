package component

import (
	"github.com/asterai-io/asterai-sub000/component/wit"
	"github.com/asterai-io/asterai-sub000/pkgname"
)

// FunctionInterface is a single function exported by a component, together
// with the package the function's signature belongs to (which may be the
// component's own package, or an external package such as wasi:cli when
// the component implements wasi:cli/run). Grounded on
// runtime/src/component/function_interface.rs.
type FunctionInterface struct {
	PackageName pkgname.Name
	Name        FunctionName
	Inputs      []wit.FunctionParam
	Output      *wit.Type
	Component   Component
}

// ExportName returns the linker export path for this function, e.g.
// "asterai:hello/greet@0.2.0" followed by the function name as a second
// lookup, or the bare function name when this is a world-root function
// with no owning interface.
func (f FunctionInterface) ExportName() string {
	if f.Name.Interface == "" {
		return f.Name.Name
	}
	return f.Component.ID().String() + "/" + f.Name.Interface + "@" + f.Component.Version()
}
