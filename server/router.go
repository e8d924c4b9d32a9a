package server

import (
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/asterai-io/asterai-sub000/environment"
	"github.com/asterai-io/asterai-sub000/runtime/httpd"
)

// Config holds the process-wide HTTP surface settings: the bearer secret
// gating /v1/..., empty to disable authentication.
type Config struct {
	BearerSecret string
}

// NewRouter builds the one gorilla/mux router serving both the
// direct-call wire protocol and env's HTTP forwarding routes, per §6's
// "both served by one router" expansion.
func NewRouter(srv *Server, router *httpd.Router, env *environment.Environment, cfg Config, log *zap.Logger) *mux.Router {
	m := mux.NewRouter()
	m.Use(WithRequestID(log))

	v1 := m.PathPrefix("/v1").Subrouter()
	v1.Use(BearerAuth(cfg.BearerSecret))
	v1.HandleFunc("/call", srv.HandleCall).Methods("POST")

	router.Mount(m, env)
	return m
}
