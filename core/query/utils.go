package query

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/asaidimu/go-chainsql/utils"
)

// toSlice flattens any slice or array value into []any. Byte slices are
// scalars, not lists.
func toSlice(v any) ([]any, bool) {
	switch val := v.(type) {
	case nil, []byte, json.RawMessage:
		return nil, false
	case []any:
		return val, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// sortedKeys returns the keys of row in byte-wise lexicographic order.
func sortedKeys(row map[string]any) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func placeholders(n int, sep string) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?"+sep, n-1) + "?"
}

// toRow converts a single-row payload into a map. Structs go through their
// JSON field names.
func toRow(v any) (map[string]any, error) {
	switch row := v.(type) {
	case nil:
		return nil, fmt.Errorf("%w: payload is nil", ErrInvalidPayload)
	case map[string]any:
		out := make(map[string]any, len(row))
		for k, val := range row {
			out[k] = val
		}
		return out, nil
	}
	row, err := utils.StructToMap(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return row, nil
}

// toRows converts a multi-row payload into a slice of maps.
func toRows(v any) ([]map[string]any, error) {
	items, ok := toSlice(v)
	if !ok {
		return nil, fmt.Errorf("%w: expected a list of rows, got %T", ErrInvalidPayload, v)
	}
	rows := make([]map[string]any, 0, len(items))
	for i, item := range items {
		row, err := toRow(item)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func joinFragments(frags []Fragment, sep string) Fragment {
	var out Fragment
	parts := make([]string, 0, len(frags))
	for _, f := range frags {
		if f.SQL == "" {
			continue
		}
		parts = append(parts, f.SQL)
		out.Binds = append(out.Binds, f.Binds...)
	}
	out.SQL = strings.Join(parts, sep)
	return out
}
