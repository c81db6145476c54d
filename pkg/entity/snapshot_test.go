package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{name: "nil", value: nil, expected: ""},
		{name: "string", value: "draft", expected: "draft"},
		{name: "bool", value: true, expected: "true"},
		{name: "integral float", value: float64(30), expected: "30"},
		{name: "fractional float", value: 2.75, expected: "2.75"},
		{name: "int", value: 7, expected: "7"},
		{name: "int64", value: int64(1234567890), expected: "1234567890"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, Stringify(tt.value))
		})
	}
}

func TestSnapshotGet(t *testing.T) {
	t.Parallel()

	snapshot := Snapshot{"status": "open"}

	value, ok := snapshot.Get("status")
	assert.True(t, ok)
	assert.Equal(t, "open", value)

	_, ok = snapshot.Get("missing")
	assert.False(t, ok)

	var empty Snapshot

	_, ok = empty.Get("status")
	assert.False(t, ok)
}

func TestIsEmpty(t *testing.T) {
	t.Parallel()

	assert.True(t, IsEmpty(nil, false))
	assert.True(t, IsEmpty(nil, true))
	assert.True(t, IsEmpty("", true))
	assert.True(t, IsEmpty([]any{}, true))
	assert.True(t, IsEmpty(map[string]any{}, true))
	assert.False(t, IsEmpty("x", true))
	assert.False(t, IsEmpty([]any{"a"}, true))
	assert.False(t, IsEmpty(float64(0), true))
	assert.False(t, IsEmpty(false, true))
}
