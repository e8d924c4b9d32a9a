package wit

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	witpkg "go.bytecodealliance.org/wit"

	"github.com/asterai-io/asterai-sub000/asterror"
)

// Document is a read-only wrapper around a decoded component's resolved
// WIT world: its imports, exports, and world-root functions. Grounded on
// runtime/src/component/wit.rs's ComponentWit.
type Document struct {
	world    *witpkg.World
	resolved *witpkg.Resolve
}

// FromBytes decodes a compiled component binary's WIT world.
//
// Decoding shells out to `wasm-tools component wit - --json` (the binary
// is written to its stdin), the
// toolchain's own canonical way of turning a component binary into its WIT
// resolve, then parses that JSON with go.bytecodealliance.org/wit instead
// of reimplementing a WIT decoder in this module. WrongArtifactKind
// (surfaced as asterror.KindMalformedInput) is returned when the input is a
// WIT-only package with no core module to instantiate.
func FromBytes(ctx context.Context, binary []byte) (*Document, error) {
	witJSON, err := decodeToJSON(ctx, binary)
	if err != nil {
		return nil, err
	}
	resolved, world, err := witpkg.LoadJSON(witJSON)
	if err != nil {
		return nil, asterror.Wrap(asterror.KindMalformedInput, err, "failed to parse WIT resolve JSON")
	}
	if world == nil {
		return nil, asterror.New(asterror.KindMalformedInput,
			"decoded artifact has no world; a WIT-only package cannot be instantiated as a component")
	}
	return &Document{world: world, resolved: resolved}, nil
}

func decodeToJSON(ctx context.Context, binary []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "wasm-tools", "component", "wit", "-", "--json")
	cmd.Stdin = bytes.NewReader(binary)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, asterror.Wrap(asterror.KindMalformedInput, err,
			fmt.Sprintf("wasm-tools failed to decode component: %s", stderr.String()))
	}
	return stdout.Bytes(), nil
}

// WorldDocs returns the world-level documentation comment, if any.
func (d *Document) WorldDocs() string {
	return d.world.Docs
}

// ImportedInterfaces lists every interface-shaped import of the world, in
// declaration order.
func (d *Document) ImportedInterfaces() []ImportedInterface {
	out := make([]ImportedInterface, 0, len(d.world.Imports))
	for _, item := range d.world.Imports {
		iface, ok := item.AsInterface()
		if !ok {
			continue
		}
		out = append(out, ImportedInterface{Name: formatInterfaceName(d.resolved, iface)})
	}
	return out
}

// ExportedInterfaces lists every interface-shaped export of the world
// along with the functions each interface exposes.
func (d *Document) ExportedInterfaces() []ExportedInterface {
	out := make([]ExportedInterface, 0, len(d.world.Exports))
	for _, item := range d.world.Exports {
		iface, ok := item.AsInterface()
		if !ok {
			continue
		}
		functions := make([]Function, 0, len(iface.Functions))
		for _, fn := range iface.Functions {
			functions = append(functions, buildFunction(d.resolved, fn))
		}
		out = append(out, ExportedInterface{
			Name:      formatInterfaceName(d.resolved, iface),
			Docs:      iface.Docs,
			Functions: functions,
		})
	}
	return out
}

// WorldFunctions lists functions exported directly at the world root. These
// are not composable with other components: per the Component Model
// composition rules, only the host can call them, since composition only
// wires up interface-shaped exports/imports.
func (d *Document) WorldFunctions() []Function {
	out := make([]Function, 0)
	for _, item := range d.world.Exports {
		fn, ok := item.AsFunction()
		if !ok {
			continue
		}
		out = append(out, buildFunction(d.resolved, fn))
	}
	return out
}

func buildFunction(resolved *witpkg.Resolve, fn *witpkg.Function) Function {
	params := make([]FunctionParam, 0, len(fn.Params))
	for _, p := range fn.Params {
		params = append(params, FunctionParam{Name: p.Name, Type: resolveType(resolved, p.Type)})
	}
	var returnType *Type
	if fn.Result != nil {
		t := resolveType(resolved, fn.Result)
		returnType = &t
	}
	return Function{
		Name:       fn.Name,
		Docs:       fn.Docs,
		Params:     params,
		ReturnType: returnType,
	}
}

func formatInterfaceName(resolved *witpkg.Resolve, iface *witpkg.Interface) string {
	name := iface.Name
	if name == "" {
		name = "unknown"
	}
	pkg := iface.Package
	if pkg == nil {
		return name
	}
	version := ""
	if pkg.Version != "" {
		version = "@" + pkg.Version
	}
	return fmt.Sprintf("%s:%s/%s%s", pkg.Namespace, pkg.Name, name, version)
}
