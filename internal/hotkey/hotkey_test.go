package hotkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHotkey(t *testing.T) {
	keys, err := ParseHotkey("Ctrl+Shift+R")
	require.NoError(t, err)
	assert.Equal(t, []string{"ctrl", "shift", "r"}, keys)

	keys, err = ParseHotkey(DefaultHotkey)
	require.NoError(t, err)
	assert.Equal(t, []string{"f8"}, keys)

	keys, err = ParseHotkey(" control + win + q ")
	require.NoError(t, err)
	assert.Equal(t, []string{"ctrl", "cmd", "q"}, keys)

	_, err = ParseHotkey("ctrl++q")
	assert.Error(t, err)
	_, err = ParseHotkey("")
	assert.Error(t, err)
}
