package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type address struct {
	City string `json:"city"`
}

type account struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	Email   string   `json:"email,omitempty"`
	Tags    []string `json:"tags"`
	Address address  `json:"address"`
	secret  string
}

func TestStructToMap(t *testing.T) {
	row, err := StructToMap(account{ID: 1, Name: "Ada", Tags: []string{"a"}, Address: address{City: "London"}, secret: "x"})
	require.NoError(t, err)

	assert.Equal(t, json.Number("1"), row["id"])
	assert.Equal(t, "Ada", row["name"])
	assert.Equal(t, []any{"a"}, row["tags"])
	assert.Equal(t, json.RawMessage(`{"city":"London"}`), row["address"])
	assert.NotContains(t, row, "email")
	assert.NotContains(t, row, "secret")
	assert.Len(t, row, 4)
}

func TestStructToMap_LargeIntegers(t *testing.T) {
	type ledger struct {
		ID     int64   `json:"id"`
		Amount uint64  `json:"amount"`
		Rate   float64 `json:"rate"`
	}
	row, err := StructToMap(ledger{ID: 9007199254740993, Amount: 18446744073709551615, Rate: 1.25})
	require.NoError(t, err)
	assert.Equal(t, json.Number("9007199254740993"), row["id"])
	assert.Equal(t, json.Number("18446744073709551615"), row["amount"])
	assert.Equal(t, json.Number("1.25"), row["rate"])

	back, err := MapToStruct[ledger](row)
	require.NoError(t, err)
	assert.Equal(t, ledger{ID: 9007199254740993, Amount: 18446744073709551615, Rate: 1.25}, back)
}

func TestStructToMap_Pointer(t *testing.T) {
	row, err := StructToMap(&account{Name: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", row["name"])
}

func TestStructToMap_Errors(t *testing.T) {
	var nilAccount *account
	tests := []struct {
		name  string
		input any
	}{
		{"nil", nil},
		{"nil pointer", nilAccount},
		{"scalar", 42},
		{"map", map[string]any{"a": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := StructToMap(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestMapToStruct(t *testing.T) {
	acc, err := MapToStruct[account](map[string]any{
		"id":      int64(7),
		"name":    "Ada",
		"tags":    []string{"x"},
		"address": json.RawMessage(`{"city":"Paris"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, account{ID: 7, Name: "Ada", Tags: []string{"x"}, Address: address{City: "Paris"}}, acc)

	_, err = MapToStruct[account](nil)
	assert.Error(t, err)

	_, err = MapToStruct[int](map[string]any{})
	assert.Error(t, err)

	_, err = MapToStruct[account](map[string]any{"id": "not a number"})
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	in := account{ID: 3, Name: "Grace", Email: "grace@example.com", Tags: []string{"cobol"}, Address: address{City: "Arlington"}}
	row, err := StructToMap(in)
	require.NoError(t, err)
	out, err := MapToStruct[account](row)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
