package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, Clamp(-3.5, 0, 255))
	assert.Equal(t, 255.0, Clamp(300.0, 0, 255))
	assert.Equal(t, 12, Clamp(12, 20, 10))
	assert.Equal(t, uint8(250), ToByte(250.9))
	assert.Equal(t, uint8(0), ToByte(-1))
}
