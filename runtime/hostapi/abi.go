// Package hostapi implements the Host Capability Set (§4.9): the standard
// system-interface bindings every component gets for free (stdio is wired
// through runtime/engine's per-component log writers; filesystem and
// network access are wired through wazero's own ModuleConfig/FSConfig at
// store construction), plus the runtime's own introspection, cron, and
// WebSocket host imports. Grounded on
// asterai/src/runtime/{wit_bindings,std_out_err}.rs and the teacher's own
// imports/wasi_snapshot_preview1 registration idiom (a host module per
// WIT interface, one Go function per WIT function).
package hostapi

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/tetratelabs/wazero/api"

	"github.com/asterai-io/asterai-sub000/asterror"
)

// reallocExportName is the canonical-ABI allocator every component
// compiled against a modern wit-bindgen emits, used to hand host-produced
// bytes (JSON envelopes, in this runtime) back into guest memory without
// the host needing to own or guess at the guest's allocator.
const reallocExportName = "cabi_realloc"

// envelope is the uniform JSON shape every host capability function
// returns: either a value on success, or an error string on failure. The
// component's generated bindings unwrap this the same way they would
// unwrap a WIT result<T, string>.
type envelope struct {
	OK    bool   `json:"ok"`
	Value any    `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

func okEnvelope(value any) []byte {
	b, _ := json.Marshal(envelope{OK: true, Value: value})
	return b
}

func errEnvelope(err error) []byte {
	b, _ := json.Marshal(envelope{OK: false, Error: err.Error()})
	return b
}

// jsonUnmarshalStrict decodes a host import's JSON-encoded argument,
// rejecting unknown fields so a malformed guest-side request record
// surfaces as an error rather than silently dropping fields.
func jsonUnmarshalStrict(raw string, v any) error {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return asterror.Wrap(asterror.KindMalformedInput, err, "malformed request JSON")
	}
	return nil
}

// readString reads a (ptr, len) pair out of mod's linear memory, the
// standard WASI calling convention for passing a string into a host
// import.
func readString(mod api.Module, ptr, length uint32) (string, bool) {
	if length == 0 {
		return "", true
	}
	buf, ok := mod.Memory().Read(ptr, length)
	if !ok {
		return "", false
	}
	return string(buf), true
}

// lowerBytes writes data into guest memory by calling the component's own
// cabi_realloc export to obtain a buffer, returning the (ptr, len) pair a
// host import conventionally returns for a string/list result.
func lowerBytes(ctx context.Context, mod api.Module, data []byte) (ptr, length uint32, err error) {
	realloc := mod.ExportedFunction(reallocExportName)
	if realloc == nil {
		return 0, 0, errors.New("component does not export cabi_realloc")
	}
	results, err := realloc.Call(ctx, 0, 0, 1, uint64(len(data)))
	if err != nil {
		return 0, 0, err
	}
	ptr = uint32(results[0])
	if len(data) > 0 && !mod.Memory().Write(ptr, data) {
		return 0, 0, errors.New("cabi_realloc returned an out-of-bounds buffer")
	}
	return ptr, uint32(len(data)), nil
}

// writeEnvelope lowers an envelope into guest memory and writes its
// (ptr, len) into the last two stack slots, the convention every host
// capability function in this package follows for its return value.
func writeEnvelope(ctx context.Context, mod api.Module, stack []uint64, data []byte) {
	ptr, length, err := lowerBytes(ctx, mod, data)
	if err != nil {
		// The guest's own allocator failed; there is no buffer left to
		// report the failure through, so the call surfaces as a trap.
		panic(err)
	}
	stack[0] = uint64(ptr)
	stack[1] = uint64(length)
}

var i32 = api.ValueTypeI32
var i64 = api.ValueTypeI64

var errOutOfBoundsRead = errors.New("out-of-bounds read from guest memory")
