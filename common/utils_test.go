package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssertTrue(t *testing.T) {
	assert.NotPanics(t, func() { AssertTrue(true, "unused %d", 1) })
	assert.PanicsWithValue(t, "assertion failed: layer 3 of 2", func() {
		AssertTrue(false, "layer %d of %d", 3, 2)
	})
	assert.PanicsWithValue(t, "assertion failed: no args", func() { AssertTrue(false, "no args") })
}
