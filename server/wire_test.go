package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/asterai-io/asterai-sub000/runtime/engine"
)

func TestHandleCallRejectsMalformedJSON(t *testing.T) {
	srv := New(engine.NewFactory(zap.NewNop(), nil, noopBinder), engine.Config{}, zap.NewNop())
	req := httptest.NewRequest(http.MethodPost, "/v1/call", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	srv.HandleCall(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleCallRejectsInvalidComponentID(t *testing.T) {
	srv := New(engine.NewFactory(zap.NewNop(), nil, noopBinder), engine.Config{}, zap.NewNop())
	body := `{"component": "not-a-valid-id-missing-colon@1.0.0", "function": "f", "args": []}`
	req := httptest.NewRequest(http.MethodPost, "/v1/call", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.HandleCall(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func noopBinder(ctx context.Context, rt wazero.Runtime, ref *engine.Ref) error {
	return nil
}
