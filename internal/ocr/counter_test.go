package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCounter(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"040", 40},
		{" 0 4 0\n", 40},
		{"-05", -5},
		{"999", 999},
		{"12-", 12},
	}
	for _, tt := range tests {
		got, err := ParseCounter(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseCounterRejects(t *testing.T) {
	for _, in := range []string{"", "--", "1234", "\n"} {
		_, err := ParseCounter(in)
		assert.Error(t, err, "%q", in)
	}
}
