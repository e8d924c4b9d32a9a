package engine

import (
	"context"
	"io"
	"sync"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/asterai-io/asterai-sub000/component"
)

// preopenGuestPath is where a configured host directory is mounted inside
// every store, matching spec's "Configuration injection" rule (§4.5).
const preopenGuestPath = "/workdir"

// Config carries the per-store configuration the shared store and every
// fresh store are built from: the environment's configuration variables,
// pushed into each component's WASI environment, and an optional host
// directory preopened read-write at /workdir.
type Config struct {
	Vars       map[string]string
	PreopenDir string
}

func (c Config) moduleConfig(log *zap.Logger, comp component.Component) wazero.ModuleConfig {
	cfg := wazero.NewModuleConfig().
		WithName(comp.String()).
		WithStdout(componentWriter(log, comp, "stdout")).
		WithStderr(componentWriter(log, comp, "stderr"))
	for k, v := range c.Vars {
		cfg = cfg.WithEnv(k, v)
	}
	if c.PreopenDir != "" {
		cfg = cfg.WithFSConfig(wazero.NewFSConfig().WithDirMount(c.PreopenDir, preopenGuestPath))
	}
	return cfg
}

// componentWriter adapts a component's stdout/stderr into structured log
// lines tagged with its id, matching asterai/src/runtime/std_out_err.rs's
// per-app stdio redirection.
func componentWriter(log *zap.Logger, comp component.Component, stream string) io.Writer {
	return &logWriter{log: log, component: comp.String(), stream: stream}
}

type logWriter struct {
	log       *zap.Logger
	component string
	stream    string
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.log.Info(string(p), zap.String("component", w.component), zap.String("stream", w.stream))
	return len(p), nil
}

// Ref is a forward reference to an Engine that is filled in immediately
// after New returns. A HostBinder runs before any component is
// instantiated (so that host imports are registered before anything that
// might call them), so it cannot capture a real *Engine yet; it closes
// over a Ref instead and only dereferences Ref.Engine once a guest
// actually invokes the host function, by which point instantiation —
// and therefore the Ref's assignment — has long completed.
type Ref struct {
	Engine *Engine
}

// HostBinder registers the runtime's own host capabilities (hostapi.Binder
// registers the introspection API, cron, WebSockets and outbound HTTP) on
// rt before any component in the set is instantiated. WASI settings (env
// vars, stdio, the preopened directory) come from Config.moduleConfig, not
// from the binder.
type HostBinder func(ctx context.Context, rt wazero.Runtime, ref *Ref) error

// Factory builds engines that all compile against one shared
// wazero.CompilationCache, so spinning up a fresh, isolated wazero.Runtime
// per HTTP request or cron firing (the "Fresh Store" of spec §3) costs a
// cache lookup rather than a recompilation, while the long-lived shared
// store is built once and kept for the process's lifetime. Grounded on
// experimental/compilation_cache.go's CompilationCache, repurposed here
// to back the shared-vs-fresh store split rather than cross-process
// persistence.
type Factory struct {
	log      *zap.Logger
	cache    wazero.CompilationCache
	binaries []*component.Binary
	bind     HostBinder

	mu            sync.Mutex
	sharedEngine  *Engine
	sharedRuntime wazero.Runtime
}

// NewFactory constructs a Factory. bind is invoked once per built runtime
// (both the single shared one and every fresh one) to wire host imports.
func NewFactory(log *zap.Logger, binaries []*component.Binary, bind HostBinder) *Factory {
	return &Factory{
		log:      log,
		cache:    wazero.NewCompilationCache(),
		binaries: binaries,
		bind:     bind,
	}
}

// Shared builds (on first call) and returns the long-lived engine used
// for direct calls and WebSocket callbacks.
func (f *Factory) Shared(ctx context.Context, cfg Config) (*Engine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sharedEngine != nil {
		return f.sharedEngine, nil
	}
	eng, rt, err := f.build(ctx, cfg)
	if err != nil {
		return nil, err
	}
	f.sharedEngine = eng
	f.sharedRuntime = rt
	return eng, nil
}

// Fresh builds an isolated engine for a single HTTP request or cron
// firing, sharing only the compiled-module cache with every other store.
// The caller must invoke the returned closer once the call completes.
func (f *Factory) Fresh(ctx context.Context, cfg Config) (*Engine, func(context.Context) error, error) {
	eng, rt, err := f.build(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return eng, rt.Close, nil
}

func (f *Factory) build(ctx context.Context, cfg Config) (*Engine, wazero.Runtime, error) {
	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCompilationCache(f.cache))
	ref := &Ref{}
	if err := f.bind(ctx, rt, ref); err != nil {
		_ = rt.Close(ctx)
		return nil, nil, err
	}
	eng, err := New(ctx, rt, f.log, f.binaries, cfg)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, nil, err
	}
	ref.Engine = eng
	return eng, rt, nil
}

// Close releases the shared runtime. Fresh runtimes are released by the
// closer Fresh returns, one per call.
func (f *Factory) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sharedRuntime == nil {
		return nil
	}
	return f.sharedRuntime.Close(ctx)
}
