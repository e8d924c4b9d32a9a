// Package cron implements the scheduling host capability: components
// create, cancel, and list cron-triggered calls into themselves or other
// components, each schedule owning a background tick loop. Grounded on
// runtime/src/runtime/cron.rs.
package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/asterai-io/asterai-sub000/asterror"
	"github.com/asterai-io/asterai-sub000/component"
	"github.com/asterai-io/asterai-sub000/runtime/engine"
)

// ScheduleID identifies one created schedule, unique for the lifetime of
// the Manager.
type ScheduleID uint64

// ScheduleInfo describes a schedule's parameters, returned verbatim by
// ListSchedules.
type ScheduleInfo struct {
	ID       ScheduleID
	Cron     string
	Target   component.ID
	Function component.FunctionName
	ArgsJSON string
	Owner    component.ID
}

type scheduleEntry struct {
	info   ScheduleInfo
	cancel context.CancelFunc
}

// Manager owns every live schedule. Schedule creation validates against
// the long-lived shared store (cheap, no extra instantiation), but each
// tick dispatches through a fresh store: a scheduled call must not share
// mutable guest state with the shared store's direct-call or WebSocket
// callers, matching runtime/src/runtime/cron.rs's own per-tick fresh
// instantiation.
type Manager struct {
	mu        sync.RWMutex
	schedules map[ScheduleID]*scheduleEntry
	nextID    atomic.Uint64

	factory  *engine.Factory
	storeCfg engine.Config
	log      *zap.Logger
}

// NewManager constructs a Manager. factory may be nil at construction
// time and supplied later via Rewire: the factory's host bindings
// typically need a reference to this very Manager before the factory
// itself can be built (the same bind-before-instantiate ordering
// engine.Ref resolves for host capability functions), so callers
// construct the Manager first and wire the factory in once it exists.
func NewManager(factory *engine.Factory, storeCfg engine.Config, log *zap.Logger) *Manager {
	return &Manager{
		schedules: make(map[ScheduleID]*scheduleEntry),
		factory:   factory,
		storeCfg:  storeCfg,
		log:       log,
	}
}

// Rewire supplies (or replaces) the factory and store config used to
// validate and dispatch schedules.
func (m *Manager) Rewire(factory *engine.Factory, storeCfg engine.Config) {
	m.factory = factory
	m.storeCfg = storeCfg
}

// cronParser accepts 5-field (min hour dom month dow) and 6-field
// (sec min hour dom month dow) expressions natively; normalizeCronExpr
// handles the 7-field (with trailing year) case this runtime's wire
// format also accepts, since robfig/cron has no year field concept.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// normalizeCronExpr accepts 5, 6, or 7 whitespace-separated fields. A
// 7-field expression's trailing year field is dropped before parsing,
// since robfig/cron has no year concept; 5- and 6-field expressions pass
// through unchanged; the underlying parser already treats seconds as
// optional. Any other field count is rejected.
func normalizeCronExpr(expr string) (string, error) {
	fields := strings.Fields(expr)
	switch len(fields) {
	case 5, 6:
		return expr, nil
	case 7:
		return strings.Join(fields[:6], " "), nil
	default:
		return "", asterror.New(asterror.KindMalformedInput,
			fmt.Sprintf("expected 5, 6, or 7 cron fields, got %d", len(fields)))
	}
}

// CreateSchedule validates cronExpr, target, function, and argsJSON
// before any side effect, then starts a background tick loop and returns
// its id.
func (m *Manager) CreateSchedule(cronExpr string, target component.ID, function component.FunctionName, argsJSON string, owner component.ID) (ScheduleID, error) {
	normalized, err := normalizeCronExpr(cronExpr)
	if err != nil {
		return 0, err
	}
	schedule, err := cronParser.Parse(normalized)
	if err != nil {
		return 0, asterror.Wrap(asterror.KindMalformedInput, err, "invalid cron expression")
	}

	sharedEng, err := m.factory.Shared(context.Background(), m.storeCfg)
	if err != nil {
		return 0, err
	}
	fn, err := sharedEng.FindFunction(target, function, nil)
	if err != nil {
		return 0, err
	}
	if err := validateArgs(argsJSON, *fn); err != nil {
		return 0, err
	}

	id := ScheduleID(m.nextID.Add(1))
	ctx, cancel := context.WithCancel(context.Background())
	info := ScheduleInfo{
		ID:       id,
		Cron:     cronExpr,
		Target:   target,
		Function: function,
		ArgsJSON: argsJSON,
		Owner:    owner,
	}
	entry := &scheduleEntry{info: info, cancel: cancel}

	m.mu.Lock()
	m.schedules[id] = entry
	m.mu.Unlock()

	go m.tickLoop(ctx, schedule, info)
	return id, nil
}

// CancelSchedule cancels id if owner created it; any other owner, or an
// unknown id, reports not-found rather than revealing the schedule
// exists.
func (m *Manager) CancelSchedule(id ScheduleID, owner component.ID) error {
	m.mu.Lock()
	entry, ok := m.schedules[id]
	if !ok || entry.info.Owner != owner {
		m.mu.Unlock()
		return asterror.New(asterror.KindNotFound, fmt.Sprintf("schedule %d not found", id))
	}
	delete(m.schedules, id)
	m.mu.Unlock()

	entry.cancel()
	m.log.Info("cron schedule cancelled", zap.Uint64("schedule_id", uint64(id)))
	return nil
}

// ListSchedules returns every schedule owner created.
func (m *Manager) ListSchedules(owner component.ID) []ScheduleInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ScheduleInfo
	for _, entry := range m.schedules {
		if entry.info.Owner == owner {
			out = append(out, entry.info)
		}
	}
	return out
}

// CancelAll cancels every outstanding schedule, used on shutdown.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	entries := make([]*scheduleEntry, 0, len(m.schedules))
	for id, entry := range m.schedules {
		entries = append(entries, entry)
		delete(m.schedules, id)
	}
	m.mu.Unlock()

	for _, entry := range entries {
		entry.cancel()
		m.log.Info("cron schedule cancelled", zap.Uint64("schedule_id", uint64(entry.info.ID)))
	}
}

func (m *Manager) tickLoop(ctx context.Context, schedule cron.Schedule, info ScheduleInfo) {
	m.log.Info("cron schedule started",
		zap.Uint64("schedule_id", uint64(info.ID)),
		zap.String("cron", info.Cron),
		zap.String("target", info.Target.String()))
	for {
		next := schedule.Next(time.Now().UTC())
		if next.IsZero() {
			m.log.Info("cron schedule has no more upcoming times", zap.Uint64("schedule_id", uint64(info.ID)))
			return
		}
		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
		m.dispatch(ctx, info)
	}
}

// dispatch builds a fresh store for this single tick, closing it once the
// call (and any component-to-component fan-out it triggers) completes.
func (m *Manager) dispatch(ctx context.Context, info ScheduleInfo) {
	args, err := decodeArgs(info.ArgsJSON)
	if err != nil {
		m.log.Error("cron schedule args no longer valid",
			zap.Uint64("schedule_id", uint64(info.ID)), zap.Error(err))
		return
	}

	fresh, closeFresh, err := m.factory.Fresh(ctx, m.storeCfg)
	if err != nil {
		m.log.Error("cron schedule fresh store build failed",
			zap.Uint64("schedule_id", uint64(info.ID)), zap.Error(err))
		return
	}
	defer func() {
		if err := closeFresh(ctx); err != nil {
			m.log.Error("cron schedule fresh store close failed",
				zap.Uint64("schedule_id", uint64(info.ID)), zap.Error(err))
		}
	}()

	fn, err := fresh.FindFunction(info.Target, info.Function, nil)
	if err != nil {
		m.log.Error("cron schedule target no longer resolvable",
			zap.Uint64("schedule_id", uint64(info.ID)), zap.Error(err))
		return
	}
	if _, err := fresh.CallFunction(ctx, *fn, args); err != nil {
		m.log.Error("cron schedule call failed",
			zap.Uint64("schedule_id", uint64(info.ID)), zap.Error(err))
		return
	}
	m.log.Info("cron schedule executed", zap.Uint64("schedule_id", uint64(info.ID)))
}

func decodeArgs(argsJSON string) ([]any, error) {
	if argsJSON == "" {
		return nil, nil
	}
	var args []any
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return nil, asterror.Wrap(asterror.KindMalformedInput, err, "args-json must be a JSON array")
	}
	return args, nil
}

// validateArgs checks that argsJSON deserializes into fn's declared
// parameter types without performing the call.
func validateArgs(argsJSON string, fn component.FunctionInterface) error {
	args, err := decodeArgs(argsJSON)
	if err != nil {
		return err
	}
	if len(args) != len(fn.Inputs) {
		return asterror.New(asterror.KindMalformedInput,
			fmt.Sprintf("expected %d args, got %d", len(fn.Inputs), len(args)))
	}
	for i, arg := range args {
		if _, err := engine.FromJSON(arg, fn.Inputs[i].Type); err != nil {
			return err
		}
	}
	return nil
}
