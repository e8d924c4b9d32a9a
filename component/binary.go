package component

import (
	"context"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero"

	"github.com/asterai-io/asterai-sub000/asterror"
	"github.com/asterai-io/asterai-sub000/component/wit"
	"github.com/asterai-io/asterai-sub000/pkgname"
)

// Binary pairs a component's resolved WIT world with its binary, cached in
// one of two states: Raw (not yet compiled) or Compiled (compiled once and
// reused for every subsequent instantiation). Grounded on
// runtime/src/component/binary.rs's ComponentBinary /
// WasmtimeComponentBinary, adapted from wasmtime's Engine/Component to
// wazero's Runtime/CompiledModule.
type Binary struct {
	component Component
	doc       *wit.Document

	mu       sync.Mutex
	raw      []byte
	compiled wazero.CompiledModule
}

// FromBytes decodes a component binary's WIT world and wraps it, uncompiled,
// for lazy compilation on first use.
func FromBytes(ctx context.Context, c Component, binary []byte) (*Binary, error) {
	doc, err := wit.FromBytes(ctx, binary)
	if err != nil {
		return nil, err
	}
	return &Binary{component: c, doc: doc, raw: binary}, nil
}

// Component returns the identity this binary was decoded for.
func (b *Binary) Component() Component { return b.component }

// Doc returns the decoded WIT world for reflection.
func (b *Binary) Doc() *wit.Document { return b.doc }

// CompiledModule returns the cached compiled module, compiling it against
// rt on first call. Concurrent callers serialize on the same compile; none
// triggers a second compilation.
func (b *Binary) CompiledModule(ctx context.Context, rt wazero.Runtime) (wazero.CompiledModule, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.compiled != nil {
		return b.compiled, nil
	}
	compiled, err := rt.CompileModule(ctx, b.raw)
	if err != nil {
		return nil, asterror.Wrap(asterror.KindCompileFailed, err,
			"failed to compile component module for "+b.component.String())
	}
	b.compiled = compiled
	b.raw = nil
	return compiled, nil
}

// Functions lists every function this component exports, from both
// interface exports and world-root exports.
func (b *Binary) Functions() []FunctionInterface {
	ownPackage := b.component.PackageName()
	out := make([]FunctionInterface, 0)
	for _, iface := range b.doc.ExportedInterfaces() {
		ifaceName := interfaceLocalName(iface.Name)
		declaring := ownPackage
		if slash := strings.Index(iface.Name, "/"); slash != -1 {
			ref := iface.Name[:slash]
			if at := strings.LastIndex(iface.Name, "@"); at > slash {
				ref += iface.Name[at:]
			}
			if parsed, err := pkgname.Parse(ref); err == nil {
				declaring = parsed
			}
		}
		for _, fn := range iface.Functions {
			out = append(out, FunctionInterface{
				PackageName: declaring,
				Name:        NewFunctionName(ifaceName, fn.Name),
				Inputs:      fn.Params,
				Output:      fn.ReturnType,
				Component:   b.component,
			})
		}
	}
	for _, fn := range b.doc.WorldFunctions() {
		out = append(out, FunctionInterface{
			PackageName: ownPackage,
			Name:        NewFunctionName("", fn.Name),
			Inputs:      fn.Params,
			Output:      fn.ReturnType,
			Component:   b.component,
		})
	}
	return out
}

// ImportsCount returns the number of interface-shaped imports this
// component's world declares.
func (b *Binary) ImportsCount() int {
	return len(b.doc.ImportedInterfaces())
}

// ImportedInterfaces passes through to the decoded WIT document, letting
// Binary satisfy the dependency analyser's interface-reflection needs
// without exposing the document itself.
func (b *Binary) ImportedInterfaces() []wit.ImportedInterface {
	return b.doc.ImportedInterfaces()
}

// ExportedInterfaces passes through to the decoded WIT document.
func (b *Binary) ExportedInterfaces() []wit.ExportedInterface {
	return b.doc.ExportedInterfaces()
}

func interfaceLocalName(fullyQualified string) string {
	name := fullyQualified
	if slash := strings.LastIndex(name, "/"); slash != -1 {
		name = name[slash+1:]
	}
	if at := strings.Index(name, "@"); at != -1 {
		name = name[:at]
	}
	return name
}
