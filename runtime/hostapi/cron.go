package hostapi

import (
	"context"
	"strconv"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/asterai-io/asterai-sub000/component"
	"github.com/asterai-io/asterai-sub000/runtime/cron"
	"github.com/asterai-io/asterai-sub000/runtime/engine"
)

const cronModule = "asterai:host-cron/scheduler@0.1.0"

// selfTarget is the sentinel target-component-name meaning "the component
// that is creating this schedule", matching spec §8 scenario 6's
// create-schedule("...", "self", "heartbeat", "[]").
const selfTarget = "self"

// bindCron registers create-schedule, cancel-schedule, and
// list-schedules. Every function resolves "owner" as ref.Engine's current
// last-calling-component marker, since the engine sets that immediately
// before dispatching into whichever guest export made this host call.
func bindCron(ctx context.Context, rt wazero.Runtime, ref *engine.Ref, mgr *cron.Manager) error {
	builder := rt.NewHostModuleBuilder(cronModule)

	createFn := func(ctx context.Context, mod api.Module, stack []uint64) {
		createSchedule(ctx, mod, stack, ref, mgr)
	}
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(createFn),
			[]api.ValueType{i32, i32, i32, i32, i32, i32, i32, i32}, []api.ValueType{i32, i32}).
		Export("create-schedule")

	cancelFn := func(ctx context.Context, mod api.Module, stack []uint64) {
		cancelSchedule(ctx, mod, stack, ref, mgr)
	}
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(cancelFn), []api.ValueType{i64}, []api.ValueType{i32, i32}).
		Export("cancel-schedule")

	listFn := func(ctx context.Context, mod api.Module, stack []uint64) {
		listSchedules(ctx, mod, stack, ref, mgr)
	}
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(listFn), nil, []api.ValueType{i32, i32}).
		Export("list-schedules")

	_, err := builder.Instantiate(ctx)
	return err
}

type scheduleView struct {
	ID       uint64 `json:"id"`
	Cron     string `json:"cron"`
	Target   string `json:"target"`
	Function string `json:"function"`
	ArgsJSON string `json:"args_json"`
}

// createSchedule implements create-schedule(cron-expr, target-component,
// target-function, args-json) -> schedule-id | error. Stack layout:
// [cron_ptr, cron_len, target_ptr, target_len, func_ptr, func_len,
//
//	args_ptr, args_len] -> [ptr, len].
func createSchedule(ctx context.Context, mod api.Module, stack []uint64, ref *engine.Ref, mgr *cron.Manager) {
	cronExpr, _ := readString(mod, uint32(stack[0]), uint32(stack[1]))
	targetName, _ := readString(mod, uint32(stack[2]), uint32(stack[3]))
	funcName, _ := readString(mod, uint32(stack[4]), uint32(stack[5]))
	argsJSON, _ := readString(mod, uint32(stack[6]), uint32(stack[7]))

	owner := ref.Engine.LastCaller().ID()

	target := owner
	if targetName != selfTarget {
		parsed, err := component.ParseID(targetName)
		if err != nil {
			writeEnvelope(ctx, mod, stack, errEnvelope(err))
			return
		}
		target = parsed
	}

	id, err := mgr.CreateSchedule(cronExpr, target, component.NewFunctionName("", funcName), argsJSON, owner)
	if err != nil {
		writeEnvelope(ctx, mod, stack, errEnvelope(err))
		return
	}
	writeEnvelope(ctx, mod, stack, okEnvelope(strconv.FormatUint(uint64(id), 10)))
}

// cancelSchedule implements cancel-schedule(id) -> () | error. Stack
// layout: [id] -> [ptr, len].
func cancelSchedule(ctx context.Context, mod api.Module, stack []uint64, ref *engine.Ref, mgr *cron.Manager) {
	owner := ref.Engine.LastCaller().ID()
	if err := mgr.CancelSchedule(cron.ScheduleID(stack[0]), owner); err != nil {
		writeEnvelope(ctx, mod, stack, errEnvelope(err))
		return
	}
	writeEnvelope(ctx, mod, stack, okEnvelope(nil))
}

// listSchedules implements list-schedules() -> list of schedule info,
// scoped to the caller's own schedules. Stack layout: [] -> [ptr, len].
func listSchedules(ctx context.Context, mod api.Module, stack []uint64, ref *engine.Ref, mgr *cron.Manager) {
	owner := ref.Engine.LastCaller().ID()
	infos := mgr.ListSchedules(owner)
	views := make([]scheduleView, len(infos))
	for i, info := range infos {
		views[i] = scheduleView{
			ID:       uint64(info.ID),
			Cron:     info.Cron,
			Target:   info.Target.String(),
			Function: info.Function.String(),
			ArgsJSON: info.ArgsJSON,
		}
	}
	writeEnvelope(ctx, mod, stack, okEnvelope(views))
}
