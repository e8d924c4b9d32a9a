package pkgname_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asterai-io/asterai-sub000/pkgname"
)

func TestParseColonForm(t *testing.T) {
	n, err := pkgname.Parse("asterai:test@0.1.0")
	require.NoError(t, err)
	assert.Equal(t, "asterai", n.Namespace)
	assert.Equal(t, "test", n.Name)
	assert.Equal(t, "0.1.0", n.Version)
	assert.Equal(t, "asterai:test@0.1.0", n.String())
}

func TestParseWithoutVersion(t *testing.T) {
	n, err := pkgname.Parse("asterai:test")
	require.NoError(t, err)
	assert.False(t, n.HasVersion())
	assert.Equal(t, "asterai:test", n.String())
}

func TestParseSlashForm(t *testing.T) {
	n, err := pkgname.Parse("wasi/http@0.2.0")
	require.NoError(t, err)
	assert.Equal(t, "wasi", n.Namespace)
	assert.Equal(t, "http", n.Name)
	assert.Equal(t, "0.2.0", n.Version)
}

func TestParseRejectsMissingSeparator(t *testing.T) {
	_, err := pkgname.Parse("nosep")
	assert.Error(t, err)
}

func TestParseRejectsInvalidVersion(t *testing.T) {
	_, err := pkgname.Parse("asterai:test@not-a-version")
	assert.Error(t, err)
}

func TestWithoutVersion(t *testing.T) {
	n, err := pkgname.Parse("asterai:test@0.1.0")
	require.NoError(t, err)
	id := n.WithoutVersion()
	assert.Equal(t, "asterai:test", id.String())
	assert.False(t, id.HasVersion())
}
