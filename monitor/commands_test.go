package monitor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultCommands(t *testing.T) {
	table := DefaultCommands()

	payload, ok := table.Lookup('a')
	require.True(t, ok)
	require.Equal(t, "Send command A\n", string(payload))

	upper, ok := table.Lookup('A')
	require.True(t, ok)
	require.Equal(t, payload, upper)

	payload, ok = table.Lookup('B')
	require.True(t, ok)
	require.Equal(t, "Send command BBBB\n", string(payload))

	_, ok = table.Lookup('c')
	require.False(t, ok)
	_, ok = table.Lookup(ExitKey)
	require.False(t, ok)

	require.Equal(t, []byte("ABab"), table.Keys())
}

func TestCommandTable_Merge(t *testing.T) {
	base := DefaultCommands()
	merged := base.Merge(CommandTable{
		'c': []byte("C\r"),
		'a': []byte("override\n"),
		'B': nil,
	})

	require.Equal(t, []byte("Aabc"), merged.Keys())
	payload, _ := merged.Lookup('a')
	require.Equal(t, "override\n", string(payload))

	// The receiver is untouched.
	payload, _ = base.Lookup('a')
	require.Equal(t, "Send command A\n", string(payload))
	_, ok := base.Lookup('B')
	require.True(t, ok)
}
