package environment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asterai-io/asterai-sub000/component"
	"github.com/asterai-io/asterai-sub000/environment"
)

func TestNewEnvironmentIsLocalByDefault(t *testing.T) {
	env := environment.New("asterai", "demo", "0.0.0")
	assert.True(t, env.IsLocal())
	assert.Equal(t, "asterai:demo", env.DisplayRef())
}

func TestPushedEnvironmentDisplaysVersion(t *testing.T) {
	env := environment.New("asterai", "demo", "1.2.0")
	assert.False(t, env.IsLocal())
	assert.Equal(t, "asterai:demo@1.2.0", env.DisplayRef())
}

func TestAddAndRemoveComponent(t *testing.T) {
	env := environment.New("asterai", "demo", "0.0.0")
	c, err := component.Parse("asterai:fs@1.0.0")
	require.NoError(t, err)

	env.AddComponent(c)
	assert.Equal(t, []string{"asterai:fs@1.0.0"}, env.ComponentRefs())

	removed := env.RemoveComponent("asterai", "fs")
	assert.True(t, removed)
	assert.Empty(t, env.ComponentRefs())

	assert.False(t, env.RemoveComponent("asterai", "fs"))
}

func TestSetAndGetVar(t *testing.T) {
	env := environment.New("asterai", "demo", "0.0.0")
	env.SetVar("API_KEY", "secret")
	v, ok := env.GetVar("API_KEY")
	require.True(t, ok)
	assert.Equal(t, "secret", v)

	_, ok = env.GetVar("MISSING")
	assert.False(t, ok)
}
