package colorutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRGBToHSV(t *testing.T) {
	h, s, v := RGBToHSV(255, 0, 0)
	assert.InDelta(t, 0, h, 0.01)
	assert.InDelta(t, 255, s, 0.01)
	assert.InDelta(t, 255, v, 0.01)

	h, _, _ = RGBToHSV(0, 0, 255)
	assert.InDelta(t, 120, h, 0.01)

	_, s, v = RGBToHSV(128, 128, 128)
	assert.InDelta(t, 0, s, 0.01)
	assert.InDelta(t, 128, v, 0.01)
}

func TestNumberColorOutOfRange(t *testing.T) {
	assert.Equal(t, Black, NumberColor(-1))
	assert.Equal(t, Black, NumberColor(9))
	assert.Equal(t, uint8(255), NumberColor(1).B)
}
