package sqlite

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/asaidimu/go-chainsql/core/query"
)

// Args implements query.Dialect. Booleans become 0/1 and composite values
// become JSON text, matching how SQLite stores them.
func (Dialect) Args(binds []any) ([]any, error) {
	args := make([]any, len(binds))
	for i, v := range binds {
		arg, err := prepareValueForQuery(v)
		if err != nil {
			return nil, fmt.Errorf("bind %d: %w", i, err)
		}
		args[i] = arg
	}
	return args, nil
}

func prepareValueForQuery(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string, []byte, time.Time, driver.Valuer:
		return v, nil
	case json.RawMessage:
		return string(v), nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		return v.Float64()
	}

	switch reflect.ValueOf(value).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		jsonBytes, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize %T to JSON: %w", value, err)
		}
		return string(jsonBytes), nil
	}
	return value, nil
}

// JSONContains matches rows whose JSON array column holds value.
func JSONContains(column string, value any) query.Statement {
	return query.Statement{Raw: &query.Fragment{
		SQL:   fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s) WHERE json_each.value = ?)", column),
		Binds: []any{value},
	}}
}
