package hostapi

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/asterai-io/asterai-sub000/internal/version"
)

const (
	hostAPIModule          = "asterai:host/api@0.1.0"
	getRuntimeInfoFuncName = "get-runtime-info"
)

type runtimeInfo struct {
	Version string `json:"version"`
}

// bindRuntimeInfo registers asterai:host/api@0.1.0.get-runtime-info. The
// key and user-id parameters are accepted (existing compiled components
// already pass them) and logged, resolving spec's Open Question about
// their otherwise-unused intent, rather than silently dropping them.
func bindRuntimeInfo(ctx context.Context, rt wazero.Runtime, log *zap.Logger) error {
	fn := func(ctx context.Context, mod api.Module, stack []uint64) {
		getRuntimeInfo(ctx, mod, stack, log)
	}
	_, err := rt.NewHostModuleBuilder(hostAPIModule).
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(fn), []api.ValueType{i32, i32, i32, i32, i32}, []api.ValueType{i32, i32}).
		Export(getRuntimeInfoFuncName).
		Instantiate(ctx)
	return err
}

// getRuntimeInfo implements get-runtime-info(key: string, user-id:
// option<string>) -> { version: string }. Stack layout:
// [key_ptr, key_len, user_id_ptr, user_id_len, has_user_id] -> [ptr, len].
func getRuntimeInfo(ctx context.Context, mod api.Module, stack []uint64, log *zap.Logger) {
	key, _ := readString(mod, uint32(stack[0]), uint32(stack[1]))
	fields := []zap.Field{zap.String("key", key)}
	if stack[4] != 0 {
		userID, _ := readString(mod, uint32(stack[2]), uint32(stack[3]))
		fields = append(fields, zap.String("user_id", userID))
	}
	log.Info("get-runtime-info called", fields...)

	writeEnvelope(ctx, mod, stack, okEnvelope(runtimeInfo{Version: version.Version}))
}
