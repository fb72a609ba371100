package query

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSlice(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected []any
		ok       bool
	}{
		{"nil", nil, nil, false},
		{"scalar", 10, nil, false},
		{"string", "abc", nil, false},
		{"bytes", []byte("abc"), nil, false},
		{"raw json", json.RawMessage(`[1,2]`), nil, false},
		{"any slice", []any{1, "a"}, []any{1, "a"}, true},
		{"int slice", []int{1, 2}, []any{1, 2}, true},
		{"string array", [2]string{"a", "b"}, []any{"a", "b"}, true},
		{"empty slice", []string{}, []any{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ok := toSlice(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestSortedKeys(t *testing.T) {
	keys := sortedKeys(map[string]any{"name": 1, "`city`": 2, "Age": 3, "department": 4})
	assert.Equal(t, []string{"Age", "`city`", "department", "name"}, keys)
	assert.Empty(t, sortedKeys(map[string]any{}))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0, ","))
	assert.Equal(t, "?", placeholders(1, ","))
	assert.Equal(t, "?,?,?", placeholders(3, ","))
	assert.Equal(t, "?, ?", placeholders(2, ", "))
}

func TestToRows(t *testing.T) {
	rows, err := toRows([]map[string]any{{"a": 1}, {"a": 2}})
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"a": 1}, {"a": 2}}, rows)

	_, err = toRows(map[string]any{"a": 1})
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = toRows([]any{map[string]any{"a": 1}, 5})
	require.ErrorIs(t, err, ErrInvalidPayload)
	assert.Contains(t, err.Error(), "row 1")
}

func TestToRow(t *testing.T) {
	_, err := toRow(nil)
	assert.ErrorIs(t, err, ErrInvalidPayload)

	row, err := toRow(map[string]any{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1}, row)
}

func TestJoinFragments(t *testing.T) {
	f := joinFragments([]Fragment{
		{SQL: "a = ?", Binds: []any{1}},
		{},
		{SQL: "b = ?", Binds: []any{2}},
	}, " AND ")
	assert.Equal(t, "a = ? AND b = ?", f.SQL)
	assert.Equal(t, []any{1, 2}, f.Binds)
	assert.True(t, joinFragments(nil, ", ").empty())
}
