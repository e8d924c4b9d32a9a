package httpd

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/asterai-io/asterai-sub000/environment"
)

// Mount registers one forwarding handler per registered route under
// env's namespace/name prefix, matching §4.6's
// "/{env-ns}/{env-name}/{comp-ns}/{comp-name}" path shape.
func (r *Router) Mount(router *mux.Router, env *environment.Environment) {
	envPrefix := fmt.Sprintf("/%s/%s", env.Metadata.Namespace, env.Metadata.Name)
	for key, route := range r.routes {
		prefix := envPrefix + "/" + key
		router.PathPrefix(prefix).Handler(r.forwardingHandler(prefix, route))
	}
}

func (r *Router) forwardingHandler(prefix string, route Route) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}

		headers := make(map[string]string, len(req.Header))
		for k := range req.Header {
			headers[k] = req.Header.Get(k)
		}

		uri := req.URL.Path
		if req.URL.RawQuery != "" {
			uri += "?" + req.URL.RawQuery
		}

		resp, err := r.Dispatch(req.Context(), route, Request{
			Method:  req.Method,
			URI:     stripRoutePrefix(uri, prefix),
			Headers: headers,
			Body:    body,
		})
		if err != nil {
			r.log.Error("http dispatch failed", zap.String("route", prefix), zap.Error(err))
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		for k, v := range resp.Headers {
			w.Header().Set(k, v)
		}
		status := resp.Status
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = w.Write(resp.Body)
	})
}
