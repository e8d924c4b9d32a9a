package component_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asterai-io/asterai-sub000/component"
)

func TestComponentDisplay(t *testing.T) {
	c, err := component.Parse("asterai:test@0.1.0")
	require.NoError(t, err)
	assert.Equal(t, "asterai:test@0.1.0", c.String())
}

func TestComponentIDDisplay(t *testing.T) {
	id, err := component.ParseID("asterai:test")
	require.NoError(t, err)
	assert.Equal(t, "asterai:test", id.String())
}

func TestComponentIDDerivedFromComponent(t *testing.T) {
	c, err := component.Parse("asterai:test@0.1.0")
	require.NoError(t, err)
	assert.Equal(t, "asterai:test", c.ID().String())
}

func TestParseRejectsMissingVersion(t *testing.T) {
	_, err := component.Parse("asterai:test")
	assert.Error(t, err)
}

func TestParseRejectsComponentSuffix(t *testing.T) {
	_, err := component.Parse("asterai:test-component@0.1.0")
	assert.Error(t, err)
}

func TestParseIDRejectsVersion(t *testing.T) {
	_, err := component.ParseID("asterai:test@0.1.0")
	assert.Error(t, err)
}

func TestParseSetSplitsOnComma(t *testing.T) {
	set, err := component.ParseSet("asterai:a@0.1.0,asterai:b@0.2.0")
	require.NoError(t, err)
	assert.Len(t, set, 2)
}
