// Package httpd implements the HTTP Router (§4.6): components that export
// an inbound HTTP handler are reachable over a forwarding route keyed by
// their own namespace/name, each request served by a fresh store.
//
// The real wasi:http/incoming-handler interface takes resource-typed
// parameters (an owned request handle, an outparam resource for the
// response) that this runtime's value-conversion layer does not model
// (§4.5 explicitly leaves resource unsupported). Routing here instead
// targets a JSON-friendly handler shape local to this runtime,
// `asterai:host-http/incoming-handler@0.1.0.handle`, the same
// simplification WS callbacks already make for `asterai:host-ws/
// incoming-handler` over the real wasi-sockets shapes. Grounded on
// `runtime/src/runtime/http.rs`'s route table and per-request dispatch.
package httpd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/asterai-io/asterai-sub000/asterror"
	"github.com/asterai-io/asterai-sub000/component"
	"github.com/asterai-io/asterai-sub000/runtime/engine"
)

// handlerFunctionName is the function a component must export to receive
// inbound HTTP requests: asterai:host-http/incoming-handler@0.1.0.handle.
var handlerFunctionName = component.NewFunctionName("incoming-handler", "handle")

// Route is one registered inbound HTTP handler.
type Route struct {
	Component component.ID
}

// Request is the inbound request, already stripped of its routing
// prefix, handed to the target component.
type Request struct {
	Method  string
	URI     string // path + "?" + query, prefix already stripped
	Headers map[string]string
	Body    []byte
}

// Response is what the target component returned.
type Response struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

// Router holds the route table built once at startup and dispatches
// inbound requests through fresh stores.
type Router struct {
	routes  map[string]Route
	factory *engine.Factory
	cfg     engine.Config
	log     *zap.Logger
}

// NewRouter walks every binary's exports, registering a route for each
// one exporting the inbound HTTP handler function, keyed by
// "{namespace}/{name}" as §4.6 specifies.
func NewRouter(ctx context.Context, factory *engine.Factory, cfg engine.Config, binaries []*component.Binary, log *zap.Logger) (*Router, error) {
	sharedEng, err := factory.Shared(ctx, cfg)
	if err != nil {
		return nil, err
	}

	routes := make(map[string]Route)
	for _, binary := range binaries {
		id := binary.Component().ID()
		if _, err := sharedEng.FindFunction(id, handlerFunctionName, nil); err != nil {
			continue
		}
		key := routeKey(id)
		routes[key] = Route{Component: id}
		log.Info("http route registered", zap.String("route", key))
	}
	return &Router{routes: routes, factory: factory, cfg: cfg, log: log}, nil
}

// routeKey renders the "{component-namespace}/{component-name}" key §4.6
// specifies.
func routeKey(id component.ID) string {
	return fmt.Sprintf("%s/%s", id.Namespace(), id.Name())
}

// Lookup returns the route for a given "namespace/name" key, or false if
// no component registered it.
func (r *Router) Lookup(key string) (Route, bool) {
	route, ok := r.routes[key]
	return route, ok
}

// Dispatch fabricates a fresh store and calls the target component's
// handler with req, per §4.6 steps 2-5.
func (r *Router) Dispatch(ctx context.Context, route Route, req Request) (*Response, error) {
	fresh, closeFresh, err := r.factory.Fresh(ctx, r.cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := closeFresh(ctx); err != nil {
			r.log.Error("http dispatch fresh store close failed", zap.Error(err))
		}
	}()

	fn, err := fresh.FindFunction(route.Component, handlerFunctionName, nil)
	if err != nil {
		return nil, err
	}

	bodyArg := make([]any, len(req.Body))
	for i, b := range req.Body {
		bodyArg[i] = float64(b)
	}
	headersArg := make(map[string]any, len(req.Headers))
	for k, v := range req.Headers {
		headersArg[k] = v
	}

	args := []any{req.Method, req.URI, headersArg, bodyArg}
	output, err := fresh.CallFunction(ctx, *fn, args)
	if err != nil {
		return nil, asterror.Wrap(asterror.KindGuestTrap, err, "http handler call failed")
	}
	if output.FunctionOutput == nil {
		return nil, asterror.New(asterror.KindGuestTrap, "http handler produced no response")
	}

	return decodeResponse(output.FunctionOutput.Value)
}
