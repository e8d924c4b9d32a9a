package hostapi

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/asterai-io/asterai-sub000/runtime/engine"
	"github.com/asterai-io/asterai-sub000/runtime/ws"
)

const wsModule = "asterai:host-ws/connection@0.1.0"

// bindWS registers connect, send, and close. connect takes the owning
// component from ref.Engine's last-calling-component marker, the same
// attribution rule bindCron uses; send and close act on a connection id
// without consulting the caller.
func bindWS(ctx context.Context, rt wazero.Runtime, ref *engine.Ref, mgr *ws.Manager) error {
	builder := rt.NewHostModuleBuilder(wsModule)

	connectFn := func(ctx context.Context, mod api.Module, stack []uint64) {
		connect(ctx, mod, stack, ref, mgr)
	}
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(connectFn),
			[]api.ValueType{i32, i32, i32, i32, i32}, []api.ValueType{i32, i32}).
		Export("connect")

	sendFn := func(ctx context.Context, mod api.Module, stack []uint64) {
		send(ctx, mod, stack, mgr)
	}
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(sendFn),
			[]api.ValueType{i64, i32, i32}, []api.ValueType{i32, i32}).
		Export("send")

	closeFn := func(ctx context.Context, mod api.Module, stack []uint64) {
		closeConnection(ctx, mod, stack, mgr)
	}
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(closeFn), []api.ValueType{i64}, []api.ValueType{i32, i32}).
		Export("close")

	_, err := builder.Instantiate(ctx)
	return err
}

// connect implements connect(url, headers-json, auto-reconnect) ->
// connection-id | error. Stack layout: [url_ptr, url_len, headers_ptr,
// headers_len, auto_reconnect] -> [ptr, len]. headers-json is a JSON
// object of string to string, matching the ws-config record's headers
// field.
func connect(ctx context.Context, mod api.Module, stack []uint64, ref *engine.Ref, mgr *ws.Manager) {
	url, _ := readString(mod, uint32(stack[0]), uint32(stack[1]))
	headersJSON, _ := readString(mod, uint32(stack[2]), uint32(stack[3]))
	autoReconnect := stack[4] != 0

	var headers map[string]string
	if headersJSON != "" {
		if err := json.Unmarshal([]byte(headersJSON), &headers); err != nil {
			writeEnvelope(ctx, mod, stack, errEnvelope(err))
			return
		}
	}

	owner := ref.Engine.LastCaller().ID()
	id, err := mgr.Connect(ctx, ws.Config{URL: url, Headers: headers, AutoReconnect: autoReconnect}, owner)
	if err != nil {
		writeEnvelope(ctx, mod, stack, errEnvelope(err))
		return
	}
	writeEnvelope(ctx, mod, stack, okEnvelope(strconv.FormatUint(uint64(id), 10)))
}

// send implements send(connection-id, data) -> () | error. Stack layout:
// [id, data_ptr, data_len] -> [ptr, len].
func send(ctx context.Context, mod api.Module, stack []uint64, mgr *ws.Manager) {
	id := ws.ConnectionID(stack[0])
	data, ok := mod.Memory().Read(uint32(stack[1]), uint32(stack[2]))
	if !ok {
		writeEnvelope(ctx, mod, stack, errEnvelope(errOutOfBoundsRead))
		return
	}
	buf := append([]byte(nil), data...)
	if err := mgr.Send(ctx, id, buf); err != nil {
		writeEnvelope(ctx, mod, stack, errEnvelope(err))
		return
	}
	writeEnvelope(ctx, mod, stack, okEnvelope(nil))
}

// closeConnection implements close(connection-id) -> (). Stack layout:
// [id] -> [ptr, len].
func closeConnection(ctx context.Context, mod api.Module, stack []uint64, mgr *ws.Manager) {
	mgr.Close(ws.ConnectionID(stack[0]))
	writeEnvelope(ctx, mod, stack, okEnvelope(nil))
}
