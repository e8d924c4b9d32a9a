package environment_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asterai-io/asterai-sub000/component"
	"github.com/asterai-io/asterai-sub000/environment"
)

func TestSaveTOMLThenLoadTOMLRoundTrips(t *testing.T) {
	env := environment.New("acme", "prod", "1.0.0")
	c, err := component.Parse("acme:srv@1.2.0")
	require.NoError(t, err)
	env.AddComponent(c)
	env.SetVar("LOG_LEVEL", "debug")

	path := filepath.Join(t.TempDir(), "env.toml")
	require.NoError(t, environment.SaveTOML(env, path))

	loaded, err := environment.LoadTOML(path)
	require.NoError(t, err)
	assert.Equal(t, env.Metadata, loaded.Metadata)
	assert.Equal(t, env.Components, loaded.Components)
	assert.Equal(t, env.Vars, loaded.Vars)
}
