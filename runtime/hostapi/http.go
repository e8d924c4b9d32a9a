package hostapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/asterai-io/asterai-sub000/asterror"
)

const httpModule = "asterai:host-http/outgoing-handler@0.1.0"

// outgoingRequest mirrors the outgoing-request record: headers are a flat
// string-to-string map (multi-valued headers are joined by the caller,
// matching this runtime's existing single-valued header treatment
// elsewhere) and body is base64-encoded to survive JSON transport
// unscathed.
type outgoingRequest struct {
	Method     string            `json:"method"`
	URL        string            `json:"url"`
	Headers    map[string]string `json:"headers"`
	BodyBase64 string            `json:"body_base64"`
	TimeoutMS  int               `json:"timeout_ms"`
}

type incomingResponse struct {
	Status     int               `json:"status"`
	Headers    map[string]string `json:"headers"`
	BodyBase64 string            `json:"body_base64"`
}

// bindOutgoingHTTP registers fetch, the one outbound HTTP capability
// every component gets, backed by a single pooled client shared across
// every fresh and shared store.
func bindOutgoingHTTP(ctx context.Context, rt wazero.Runtime, client *http.Client) error {
	fn := func(ctx context.Context, mod api.Module, stack []uint64) {
		fetch(ctx, mod, stack, client)
	}
	_, err := rt.NewHostModuleBuilder(httpModule).
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(fn), []api.ValueType{i32, i32}, []api.ValueType{i32, i32}).
		Export("fetch").
		Instantiate(ctx)
	return err
}

// fetch implements fetch(request-json) -> response-json | error. Stack
// layout: [req_ptr, req_len] -> [ptr, len].
func fetch(ctx context.Context, mod api.Module, stack []uint64, client *http.Client) {
	raw, ok := readString(mod, uint32(stack[0]), uint32(stack[1]))
	if !ok {
		writeEnvelope(ctx, mod, stack, errEnvelope(errOutOfBoundsRead))
		return
	}

	var req outgoingRequest
	if err := jsonUnmarshalStrict(raw, &req); err != nil {
		writeEnvelope(ctx, mod, stack, errEnvelope(err))
		return
	}
	if req.TimeoutMS > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutMS)*time.Millisecond)
		defer cancel()
	}

	var body io.Reader
	if req.BodyBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.BodyBase64)
		if err != nil {
			writeEnvelope(ctx, mod, stack, errEnvelope(asterror.Wrap(asterror.KindMalformedInput, err, "body-base64 is not valid base64")))
			return
		}
		body = bytes.NewReader(decoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		writeEnvelope(ctx, mod, stack, errEnvelope(asterror.Wrap(asterror.KindMalformedInput, err, "invalid outgoing request")))
		return
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		writeEnvelope(ctx, mod, stack, errEnvelope(asterror.Wrap(asterror.KindTransportError, err, "outgoing request failed")))
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		writeEnvelope(ctx, mod, stack, errEnvelope(asterror.Wrap(asterror.KindTransportError, err, "failed to read response body")))
		return
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	writeEnvelope(ctx, mod, stack, okEnvelope(incomingResponse{
		Status:     resp.StatusCode,
		Headers:    headers,
		BodyBase64: base64.StdEncoding.EncodeToString(respBody),
	}))
}
