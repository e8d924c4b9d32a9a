package httpd

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asterai-io/asterai-sub000/component"
)

func TestStripRoutePrefixStripsPathKeepsQuery(t *testing.T) {
	got := stripRoutePrefix("/ns/env/acme/srv/items?x=1", "/ns/env/acme/srv")
	assert.Equal(t, "/items?x=1", got)
}

func TestStripRoutePrefixEmptyRemainderBecomesSlash(t *testing.T) {
	got := stripRoutePrefix("/ns/env/acme/srv", "/ns/env/acme/srv")
	assert.Equal(t, "/", got)
}

func TestStripRoutePrefixNoQuery(t *testing.T) {
	got := stripRoutePrefix("/ns/env/acme/srv/a/b", "/ns/env/acme/srv")
	assert.Equal(t, "/a/b", got)
}

func TestDecodeResponseDefaultsStatusTo200(t *testing.T) {
	resp, err := decodeResponse(map[string]any{
		"headers":     map[string]any{"content-type": "text/plain"},
		"body_base64": base64.StdEncoding.EncodeToString([]byte("hi")),
	})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "text/plain", resp.Headers["content-type"])
	assert.Equal(t, []byte("hi"), resp.Body)
}

func TestDecodeResponseReadsStatus(t *testing.T) {
	resp, err := decodeResponse(map[string]any{"status": float64(404)})
	require.NoError(t, err)
	assert.Equal(t, 404, resp.Status)
}

func TestDecodeResponseRejectsNonRecord(t *testing.T) {
	_, err := decodeResponse("not a record")
	assert.Error(t, err)
}

func TestRouteKeyFormatsNamespaceSlashName(t *testing.T) {
	id, err := component.ParseID("acme:srv")
	require.NoError(t, err)
	assert.Equal(t, "acme/srv", routeKey(id))
}
