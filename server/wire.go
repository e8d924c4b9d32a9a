// Package server implements the direct-call wire protocol (§6) and mounts
// it alongside runtime/httpd's forwarding routes on one gorilla/mux
// router, grounded on cli/src/cli_ext/component_runtime.rs's role as the
// wire-protocol consumer driving a ComponentRuntime.
package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/asterai-io/asterai-sub000/asterror"
	"github.com/asterai-io/asterai-sub000/component"
	"github.com/asterai-io/asterai-sub000/runtime/engine"
)

// callRequest is the direct-call wire request: {component, function, args}.
type callRequest struct {
	Component string `json:"component"`
	Function  string `json:"function"`
	Args      []any  `json:"args"`
}

// callResponse is the direct-call wire response: {output}.
type callResponse struct {
	Output any `json:"output"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server wires the direct-call handler to the shared store.
type Server struct {
	factory *engine.Factory
	cfg     engine.Config
	log     *zap.Logger
}

// New constructs a Server dispatching direct calls against factory's
// shared store, matching §4.5's direct-call path (not a fresh store per
// call, unlike HTTP forwarding and cron).
func New(factory *engine.Factory, cfg engine.Config, log *zap.Logger) *Server {
	return &Server{factory: factory, cfg: cfg, log: log}
}

// HandleCall implements POST /v1/call.
func (s *Server) HandleCall(w http.ResponseWriter, r *http.Request) {
	var req callRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, asterror.New(asterror.KindMalformedInput, "malformed request body: "+err.Error()))
		return
	}

	id, err := component.ParseID(req.Component)
	if err != nil {
		writeError(w, err)
		return
	}
	fnName := component.ParseFunctionName(req.Function)

	eng, err := s.factory.Shared(r.Context(), s.cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	fn, err := eng.FindFunction(id, fnName, nil)
	if err != nil {
		writeError(w, err)
		return
	}

	output, err := eng.CallFunction(r.Context(), *fn, req.Args)
	if err != nil {
		writeError(w, err)
		return
	}

	var value any
	if output.FunctionOutput != nil {
		value = output.FunctionOutput.Value
	}
	writeJSON(w, http.StatusOK, callResponse{Output: value})
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, asterror.HTTPStatus(err), errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
