package hostapi

import (
	"context"
	"net/http"
	"time"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/asterai-io/asterai-sub000/runtime/cron"
	"github.com/asterai-io/asterai-sub000/runtime/engine"
	"github.com/asterai-io/asterai-sub000/runtime/ws"
)

// Dependencies are the process-wide collaborators every store's host
// capability bindings are built from. Cron and WebSocket managers are
// singletons shared across the shared store and every fresh store, since
// schedules and connections outlive any single request; only the WASI
// environment (vars, preopens) and the "who is calling" marker are
// per-store.
type Dependencies struct {
	Log        *zap.Logger
	Cron       *cron.Manager
	WS         *ws.Manager
	HTTPClient *http.Client
}

// NewHTTPClient builds a new outbound client on each call. The one passed
// to Binder as Dependencies.HTTPClient backs the
// asterai:host-http/outgoing-handler@0.1.0 fetch binding of every fresh and
// shared store, connection-pooled across every guest outbound call.
// Grounded on asterai/src/runtime/env.rs's
// per-environment HTTP client.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: http.DefaultTransport,
	}
}

// Binder returns an engine.HostBinder that wires deps' capabilities into
// every runtime the engine.Factory builds. Each capability group is
// instantiated once per runtime as its own host module; nothing here lets
// a module name already instantiated on that runtime be registered again.
func Binder(deps Dependencies) engine.HostBinder {
	return func(ctx context.Context, rt wazero.Runtime, ref *engine.Ref) error {
		if err := bindRuntimeInfo(ctx, rt, deps.Log); err != nil {
			return err
		}
		if err := bindCron(ctx, rt, ref, deps.Cron); err != nil {
			return err
		}
		if err := bindWS(ctx, rt, ref, deps.WS); err != nil {
			return err
		}
		if err := bindOutgoingHTTP(ctx, rt, deps.HTTPClient); err != nil {
			return err
		}
		return nil
	}
}
