package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeonMatchesStripBytes(t *testing.T) {
	t.Parallel()

	// painted as [B, G, R, W] = [0x14, 0xFF, 0x39, 100]
	assert.Equal(t, NewColor(0x39, 0xFF, 0x14, 100), ColorNeon)
	assert.Equal(t, uint8(0x39), ColorNeon.R())
	assert.Equal(t, uint8(0xFF), ColorNeon.G())
	assert.Equal(t, uint8(0x14), ColorNeon.B())
	assert.Equal(t, uint8(100), ColorNeon.W())
	assert.Equal(t, "#39ff14", ColorNeon.Hex())
}

func TestParseColor(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected Color
	}{
		{"white", ColorWhite},
		{" RED ", ColorRed},
		{"neon", ColorNeon},
		{"#FF00FF", NewColor(0xFF, 0x00, 0xFF, 0)},
		{"0x6439FF14", ColorNeon},
		{"0x0", ColorOff},
	}

	for _, testCase := range testCases {
		c, err := ParseColor(testCase.input)
		require.NoError(t, err, testCase.input)
		assert.Equal(t, testCase.expected, c, testCase.input)
	}
}

func TestParseColorErrors(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "mauve", "#GG0000", "0xZZ", "0x1FFFFFFFF"} {
		_, err := ParseColor(input)
		require.Error(t, err, input)
	}
}

func TestScale(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ColorWhite, ColorWhite.Scale(255))
	assert.Equal(t, ColorOff, ColorNeon.Scale(0))
	assert.Equal(t, NewColor(200, 0, 0, 0), ColorRed.Scale(200))
	assert.Equal(t, NewColor(0x1C, 0x80, 0x0A, 50), ColorNeon.Scale(128))
}
