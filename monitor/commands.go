package monitor

import (
	"bytes"
	"sort"
)

// CommandTable maps a key press to the bytes sent to the device.
type CommandTable map[byte][]byte

// DefaultCommands returns the built-in table: a/A and b/B send the two
// test commands.
func DefaultCommands() CommandTable {
	return CommandTable{
		'a': []byte("Send command A\n"),
		'A': []byte("Send command A\n"),
		'b': []byte("Send command BBBB\n"),
		'B': []byte("Send command BBBB\n"),
	}
}

// Lookup returns the payload bound to key.
func (t CommandTable) Lookup(key byte) ([]byte, bool) {
	payload, ok := t[key]
	return payload, ok
}

// Merge returns a new table holding t's entries overridden by other's.
// A nil or empty payload in other removes the binding.
func (t CommandTable) Merge(other CommandTable) CommandTable {
	merged := make(CommandTable, len(t)+len(other))
	for k, v := range t {
		merged[k] = bytes.Clone(v)
	}
	for k, v := range other {
		if len(v) == 0 {
			delete(merged, k)
			continue
		}
		merged[k] = bytes.Clone(v)
	}
	return merged
}

// Keys returns the bound keys in ascending order.
func (t CommandTable) Keys() []byte {
	keys := make([]byte, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
