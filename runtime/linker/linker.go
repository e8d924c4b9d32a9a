// Package linker implements the stub-and-resolve protocol that lets a set
// of components import each other's exports regardless of instantiation
// order, including import cycles. Grounded on
// runtime/src/runtime/link_components/dep_stub.rs.
//
// A component's exports are not yet callable at the point another
// component's imports must be wired into the linker, since that component
// may not be instantiated until later (or, in a cycle, may itself be
// waiting on the first component). So instead of wiring a real call, every
// cross-component import is pre-registered as a forwarding stub backed by
// a single-writer slot. Right after each component is instantiated, its
// real exports are used to fill in the slots its stubs forward to.
package linker

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/asterai-io/asterai-sub000/asterror"
	"github.com/asterai-io/asterai-sub000/component"
)

// slotKey identifies one forwarding stub: the instance export name (e.g.
// "asterai:hello/greet@0.2.0") plus the function name within it.
type slotKey struct {
	instanceName string
	functionName string
}

// resolvedFunc is what a stub forwards to, once known.
type resolvedFunc struct {
	fn        api.Function
	component component.Component
	function  component.FunctionInterface
}

// slot is a single-writer cell: only the first Set takes effect (later
// calls are no-ops), and Get returns (nil, false) until Set has been called.
type slot struct {
	mu       sync.Mutex
	resolved *resolvedFunc
}

func (s *slot) Set(r *resolvedFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resolved == nil {
		s.resolved = r
	}
}

func (s *slot) Get() (*resolvedFunc, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolved, s.resolved != nil
}

// Stubs is the opaque handle returned by RegisterComponentStubs and
// consumed once per instantiated component by ResolveComponentStubs.
type Stubs struct {
	slots map[slotKey]*slot
}

// RegisterComponentStubs pre-registers a forwarding host module for every
// function exported by any component in components, so every component
// can be instantiated and linked against these stubs in any order.
func RegisterComponentStubs(ctx context.Context, rt wazero.Runtime, components []*component.Binary) (*Stubs, error) {
	stubs := &Stubs{slots: make(map[slotKey]*slot)}

	byInstance := make(map[string][]component.FunctionInterface)
	for _, comp := range components {
		for _, fn := range comp.Functions() {
			instName := fn.ExportName()
			if fn.Name.Interface == "" {
				// World-root functions are called directly by the host,
				// not composed with other components; no stub needed.
				continue
			}
			byInstance[instName] = append(byInstance[instName], fn)
		}
	}

	for instName, fns := range byInstance {
		builder := rt.NewHostModuleBuilder(instName)
		for _, fn := range fns {
			key := slotKey{instanceName: instName, functionName: fn.Name.Name}
			s := &slot{}
			stubs.slots[key] = s
			builder.NewFunctionBuilder().
				WithGoModuleFunction(forwardingStub(s), paramTypes(fn), resultTypes(fn)).
				Export(fn.Name.Name)
		}
		if _, err := builder.Instantiate(ctx); err != nil {
			return nil, asterror.Wrap(asterror.KindInstantiateFailed, err,
				"failed to instantiate forwarding stub module "+instName)
		}
	}
	return stubs, nil
}

// ResolveComponentStubs fills in every stub slot that binary's just-built
// instance satisfies. Call this once per component immediately after
// instantiation, after all components' stubs have been registered.
func ResolveComponentStubs(binary *component.Binary, instance api.Module, stubs *Stubs) error {
	for _, fn := range binary.Functions() {
		if fn.Name.Interface == "" {
			continue
		}
		key := slotKey{instanceName: fn.ExportName(), functionName: fn.Name.Name}
		s, ok := stubs.slots[key]
		if !ok {
			continue
		}
		exported := instance.ExportedFunction(fn.Name.Name)
		if exported == nil {
			continue
		}
		s.Set(&resolvedFunc{fn: exported, component: binary.Component(), function: fn})
	}
	return nil
}

// forwardingStub returns a wazero GoModuleFunction that forwards every
// call to whatever s has been resolved to by the time it is invoked. If
// the instantiate-resolve loop did not complete before the first call
// reaches this stub, that is a programmer error (spec's
// KindUnresolvedStub), not a recoverable condition.
func forwardingStub(s *slot) api.GoModuleFunction {
	return api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
		resolved, ok := s.Get()
		if !ok {
			panic(asterror.New(asterror.KindUnresolvedStub,
				"component function call reached an unresolved linker stub"))
		}
		results, err := resolved.fn.Call(ctx, stack...)
		if err != nil {
			panic(asterror.Wrap(asterror.KindGuestTrap, err,
				"guest trap while forwarding to "+resolved.function.Name.String()))
		}
		copy(stack, results)
	})
}

// paramTypes and resultTypes give each stub one i64 per declared
// parameter and at most one i64 result; they do not apply the Canonical
// ABI's flattening of a WIT signature. The value-conversion layer in runtime/engine
// operates above this: these slots only need to carry numbers through.
func paramTypes(fn component.FunctionInterface) []api.ValueType {
	types := make([]api.ValueType, len(fn.Inputs))
	for i := range fn.Inputs {
		types[i] = api.ValueTypeI64
	}
	return types
}

func resultTypes(fn component.FunctionInterface) []api.ValueType {
	if fn.Output == nil {
		return nil
	}
	return []api.ValueType{api.ValueTypeI64}
}
