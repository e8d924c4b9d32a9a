package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/asterai-io/asterai-sub000/asterror"
	"github.com/asterai-io/asterai-sub000/component"
	"github.com/asterai-io/asterai-sub000/component/wit"
	"github.com/asterai-io/asterai-sub000/pkgname"
	"github.com/asterai-io/asterai-sub000/runtime/linker"
)

// runFunctionName is the function every instance exposing wasi:cli/run
// exports, used by RunAll to drive CLI-shaped components.
var runFunctionName = component.NewFunctionName("run", "run")

// reallocExportName is the canonical-ABI allocator every component
// compiled against a modern wit-bindgen emits, used to hand host-produced
// bytes (string and JSON-encoded aggregate arguments) into guest memory
// without the host needing to own or guess at the guest's allocator.
// Mirrors runtime/hostapi/abi.go's constant of the same name for the
// opposite (guest-calls-host) direction.
const reallocExportName = "cabi_realloc"

// Instance is one instantiated component within an Engine.
type Instance struct {
	Binary *component.Binary
	Module api.Module
}

// Engine owns the wazero runtime, one store's worth of instantiated
// components, and the "last calling component" marker used to attribute
// host-side introspection (logging, cron/WS ownership) to the component
// that triggered it. Grounded on runtime/src/runtime/wasm_instance.rs's
// ComponentRuntimeEngine, adapted from wasmtime's single-Store-many-
// Instance model to wazero's equivalent.
type Engine struct {
	runtime wazero.Runtime
	log     *zap.Logger

	mu         sync.Mutex
	instances  []*Instance
	lastCaller component.Component
}

// New instantiates every component in binaries against rt, wiring
// cross-component imports through runtime/linker's stub-and-resolve
// protocol so instantiation order (including cycles) does not matter for
// component-to-component calls.
//
// Components are instantiated in ascending order of import count so that
// components with no dependencies are ready first, matching
// wasm_instance.rs's own sort (fewer imports first is the more commonly
// satisfiable order, though the stub layer makes the order a performance
// concern rather than a correctness one).
func New(ctx context.Context, rt wazero.Runtime, log *zap.Logger, binaries []*component.Binary, cfg Config) (*Engine, error) {
	sorted := make([]*component.Binary, len(binaries))
	copy(sorted, binaries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ImportsCount() < sorted[j].ImportsCount()
	})

	stubs, err := linker.RegisterComponentStubs(ctx, rt, sorted)
	if err != nil {
		return nil, err
	}

	e := &Engine{runtime: rt, log: log}
	for _, binary := range sorted {
		compiled, err := binary.CompiledModule(ctx, rt)
		if err != nil {
			return nil, err
		}
		mod, err := rt.InstantiateModule(ctx, compiled, cfg.moduleConfig(log, binary.Component()))
		if err != nil {
			return nil, asterror.Wrap(asterror.KindInstantiateFailed, err,
				"failed to instantiate component "+binary.Component().String())
		}
		if err := linker.ResolveComponentStubs(binary, mod, stubs); err != nil {
			return nil, err
		}
		e.instances = append(e.instances, &Instance{Binary: binary, Module: mod})
	}
	return e, nil
}

// Instances returns every instantiated component, in instantiation order.
func (e *Engine) Instances() []*Instance {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Instance(nil), e.instances...)
}

// setLastCaller records the component that triggered the call currently
// in flight, so host-side introspection functions (get-runtime-info,
// logging, cron/WS registration) can attribute themselves to it.
func (e *Engine) setLastCaller(c component.Component) {
	e.mu.Lock()
	e.lastCaller = c
	e.mu.Unlock()
}

// LastCaller returns the most recently invoked component.
func (e *Engine) LastCaller() component.Component {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastCaller
}

// FindFunction resolves a function by component, name, and optional
// owning-package filter, replicating runtime/src/runtime/mod.rs's
// find_function: an exact (package, name) match wins outright; failing
// that, an interface-qualified name that had no exact match is reported
// not-found rather than falling back to a basename search; a bare
// (interface-less) name falls back to matching by function name alone
// across every interface the component exports, succeeding only when
// exactly one interface defines that name and erroring as ambiguous
// otherwise.
func (e *Engine) FindFunction(id component.ID, name component.FunctionName, pkg *pkgname.Name) (*component.FunctionInterface, error) {
	functions := e.componentFunctions(id)

	for _, f := range functions {
		if matchesPackage(f.PackageName, pkg) && f.Name == name {
			found := f
			return &found, nil
		}
	}
	if name.Interface != "" {
		return nil, asterror.New(asterror.KindNotFound,
			fmt.Sprintf("function %q not found on component %s", name.String(), id.String()))
	}

	var matches []component.FunctionInterface
	for _, f := range functions {
		if matchesPackage(f.PackageName, pkg) && f.Name.Name == name.Name {
			matches = append(matches, f)
		}
	}
	switch len(matches) {
	case 0:
		return nil, asterror.New(asterror.KindNotFound,
			fmt.Sprintf("function %q not found on component %s", name.Name, id.String()))
	case 1:
		return &matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Name.String()
		}
		return nil, asterror.New(asterror.KindAmbiguousFunction,
			fmt.Sprintf("function %q is ambiguous, found in multiple interfaces: %v; use the full interface/function format", name.Name, names))
	}
}

func (e *Engine) componentFunctions(id component.ID) []component.FunctionInterface {
	var out []component.FunctionInterface
	for _, inst := range e.Instances() {
		if inst.Binary.Component().ID() != id {
			continue
		}
		out = append(out, inst.Binary.Functions()...)
	}
	return out
}

func matchesPackage(candidate pkgname.Name, filter *pkgname.Name) bool {
	if filter == nil {
		return true
	}
	if candidate.Namespace != filter.Namespace || candidate.Name != filter.Name {
		return false
	}
	return filter.Version == "" || filter.Version == candidate.Version
}

// CallFunction invokes fn with inputs converted from JSON, returning the
// structured output if fn declares one. This sets the last-caller marker
// before invoking the guest, mirroring wasm_instance.rs's
// set_last_plugin.
func (e *Engine) CallFunction(ctx context.Context, fn component.FunctionInterface, inputs []any) (*Output, error) {
	inst := e.instanceFor(fn.Component)
	if inst == nil {
		return nil, asterror.New(asterror.KindNotFound,
			"instance not found for function "+fn.Name.String())
	}

	if len(inputs) != len(fn.Inputs) {
		return nil, asterror.New(asterror.KindMalformedInput,
			fmt.Sprintf("argument arity mismatch: function %s expects %d arguments, got %d",
				fn.Name.String(), len(fn.Inputs), len(inputs)))
	}

	e.setLastCaller(fn.Component)
	e.log.Debug("calling component function",
		zap.String("component", fn.Component.String()),
		zap.String("function", fn.Name.String()))

	values := make([]Value, len(inputs))
	for i, raw := range inputs {
		v, err := FromJSON(raw, fn.Inputs[i].Type)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	guestFunc := inst.Module.ExportedFunction(fn.Name.Name)
	if guestFunc == nil {
		return nil, asterror.New(asterror.KindNotFound, "function export not found: "+fn.Name.String())
	}
	result, err := callGuestFunction(ctx, inst.Module, guestFunc, values, fn)
	if err != nil {
		return nil, asterror.Wrap(asterror.KindGuestTrap, err,
			"guest trap calling "+fn.Name.String())
	}

	return NewOutput(result, fn, nil)
}

func (e *Engine) instanceFor(c component.Component) *Instance {
	for _, inst := range e.Instances() {
		if inst.Binary.Component() == c {
			return inst
		}
	}
	return nil
}

// callGuestFunction is the seam between this engine's JSON-typed Value
// model and wazero's numeric calling convention. Primitives and char
// lower to a single stack word; string and every other supported
// aggregate type (list/tuple/record/enum/option/flags) are written into
// the guest's own linear memory via its cabi_realloc export and passed
// as a (ptr, len) pair, mirroring the (ptr, len)/cabi_realloc convention
// runtime/hostapi/abi.go already uses for the opposite direction (guest
// calling host). The return value is lifted out the same way, keyed off
// the function's declared output type, rather than handed back as a raw
// stack word.
func callGuestFunction(ctx context.Context, mod api.Module, fn api.Function, args []Value, iface component.FunctionInterface) (Value, error) {
	stack, err := lowerArgs(ctx, mod, args, iface.Inputs)
	if err != nil {
		return nil, err
	}
	results, err := fn.Call(ctx, stack...)
	if err != nil {
		return nil, err
	}
	if iface.Output == nil {
		return nil, nil
	}
	return liftResult(mod, results, iface.Output)
}

// lowerArgs converts each decoded Value into the stack words its
// declared parameter type requires, in order.
func lowerArgs(ctx context.Context, mod api.Module, values []Value, params []wit.FunctionParam) ([]uint64, error) {
	stack := make([]uint64, 0, len(values))
	for i, v := range values {
		words, err := lowerValue(ctx, mod, v, params[i].Type)
		if err != nil {
			return nil, err
		}
		stack = append(stack, words...)
	}
	return stack, nil
}

// lowerValue lowers one Value into one or more stack words. Primitives
// and char occupy a single word; string and the remaining aggregate
// kinds are written into guest memory and passed as a (ptr, len) pair.
func lowerValue(ctx context.Context, mod api.Module, v Value, ty wit.Type) ([]uint64, error) {
	switch ty.Kind {
	case wit.KindBool:
		if b, _ := v.(bool); b {
			return []uint64{1}, nil
		}
		return []uint64{0}, nil
	case wit.KindU8, wit.KindU16, wit.KindU32, wit.KindU64:
		n, _ := v.(uint64)
		return []uint64{n}, nil
	case wit.KindS8, wit.KindS16, wit.KindS32, wit.KindS64:
		n, _ := v.(int64)
		return []uint64{uint64(n)}, nil
	case wit.KindF32:
		f, _ := v.(float64)
		return []uint64{uint64(math.Float32bits(float32(f)))}, nil
	case wit.KindF64:
		f, _ := v.(float64)
		return []uint64{math.Float64bits(f)}, nil
	case wit.KindChar:
		s, _ := v.(string)
		runes := []rune(s)
		if len(runes) == 0 {
			return []uint64{0}, nil
		}
		return []uint64{uint64(runes[0])}, nil
	case wit.KindString:
		s, _ := v.(string)
		return lowerGuestBytes(ctx, mod, []byte(s))
	default:
		// list, tuple, record, enum, option, and flags all cross the
		// host/guest boundary as JSON bytes over the same (ptr, len)
		// convention as string; the guest's generated bindings decode
		// them against the statically known parameter type.
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, asterror.Wrap(asterror.KindMalformedInput, err, "failed to encode argument")
		}
		return lowerGuestBytes(ctx, mod, encoded)
	}
}

// lowerGuestBytes writes data into guest memory by calling the
// component's own cabi_realloc export, returning the (ptr, len) pair as
// two stack words.
func lowerGuestBytes(ctx context.Context, mod api.Module, data []byte) ([]uint64, error) {
	realloc := mod.ExportedFunction(reallocExportName)
	if realloc == nil {
		return nil, asterror.New(asterror.KindGuestTrap, "component does not export cabi_realloc")
	}
	results, err := realloc.Call(ctx, 0, 0, 1, uint64(len(data)))
	if err != nil {
		return nil, err
	}
	ptr := uint32(results[0])
	if len(data) > 0 && !mod.Memory().Write(ptr, data) {
		return nil, asterror.New(asterror.KindGuestTrap, "cabi_realloc returned an out-of-bounds buffer")
	}
	return []uint64{uint64(ptr), uint64(len(data))}, nil
}

// liftResult converts the guest's raw result words back into a Value,
// per ty's kind, mirroring lowerValue in the opposite direction.
func liftResult(mod api.Module, results []uint64, ty *wit.Type) (Value, error) {
	if ty == nil || len(results) == 0 {
		return nil, nil
	}
	switch ty.Kind {
	case wit.KindBool:
		return results[0] != 0, nil
	case wit.KindU8, wit.KindU16, wit.KindU32, wit.KindU64:
		return results[0], nil
	case wit.KindS8, wit.KindS16, wit.KindS32, wit.KindS64:
		return int64(results[0]), nil
	case wit.KindF32:
		return float64(math.Float32frombits(uint32(results[0]))), nil
	case wit.KindF64:
		return math.Float64frombits(results[0]), nil
	case wit.KindChar:
		return string(rune(uint32(results[0]))), nil
	case wit.KindString:
		return liftGuestString(mod, results)
	default:
		raw, err := liftGuestString(mod, results)
		if err != nil {
			return nil, err
		}
		var decoded any
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			return nil, asterror.Wrap(asterror.KindGuestTrap, err, "failed to decode guest return value")
		}
		return decoded, nil
	}
}

// liftGuestString reads a (ptr, len) result pair out of guest memory,
// the same convention lowerGuestBytes writes arguments with.
func liftGuestString(mod api.Module, results []uint64) (string, error) {
	if len(results) < 2 {
		return "", asterror.New(asterror.KindGuestTrap, "expected a (ptr, len) result pair")
	}
	ptr, length := uint32(results[0]), uint32(results[1])
	if length == 0 {
		return "", nil
	}
	buf, ok := mod.Memory().Read(ptr, length)
	if !ok {
		return "", asterror.New(asterror.KindGuestTrap, "guest returned an out-of-bounds buffer")
	}
	return string(buf), nil
}

// RunAll calls wasi:cli/run.run concurrently on every instance that
// exports it, logging (not failing) individual errors, matching
// runtime/src/runtime/mod.rs's run: a misbehaving component must not
// block the others from running.
func (e *Engine) RunAll(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)
	for _, inst := range e.Instances() {
		inst := inst
		fn, err := e.FindFunction(inst.Binary.Component().ID(), runFunctionName, nil)
		if err != nil {
			if _, ok := asterror.KindOf(err); ok {
				continue // component does not implement wasi:cli/run
			}
			return err
		}
		group.Go(func() error {
			if _, err := e.CallFunction(ctx, *fn, nil); err != nil {
				e.log.Error("run_all: component run failed",
					zap.String("component", inst.Binary.Component().String()),
					zap.Error(err))
			}
			return nil
		})
	}
	return group.Wait()
}
