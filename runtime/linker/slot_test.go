package linker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotIsUnresolvedUntilSet(t *testing.T) {
	s := &slot{}
	_, ok := s.Get()
	assert.False(t, ok)
}

func TestSlotSetIsSingleWriter(t *testing.T) {
	s := &slot{}
	first := &resolvedFunc{}
	second := &resolvedFunc{}
	s.Set(first)
	s.Set(second)

	resolved, ok := s.Get()
	assert.True(t, ok)
	assert.Same(t, first, resolved)
}
