package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedRunID(t *testing.T) {
	gen := NewFixedRunID("run-abc")
	assert.Equal(t, "run-abc", gen.Generate())
	assert.Equal(t, "run-abc", gen.Generate())

	assert.Equal(t, "test-run-default", NewFixedRunID("").Generate())
}

func TestSequentialRunIDs(t *testing.T) {
	gen := NewSequentialRunIDs("run-1", "run-2")
	assert.Equal(t, "run-1", gen.Generate())
	assert.Equal(t, "run-2", gen.Generate())

	assert.Panics(t, func() { gen.Generate() })
}
