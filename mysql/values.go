package mysql

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/asaidimu/go-chainsql/core/query"
)

// Args implements query.Dialect. Composite values are stored as JSON text.
func (Dialect) Args(binds []any) ([]any, error) {
	args := make([]any, len(binds))
	for i, v := range binds {
		arg, err := prepareValue(v)
		if err != nil {
			return nil, fmt.Errorf("bind %d: %w", i, err)
		}
		args[i] = arg
	}
	return args, nil
}

func prepareValue(value any) (any, error) {
	switch v := value.(type) {
	case nil, bool, string, []byte, time.Time, driver.Valuer:
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

// JSONContains builds JSON_CONTAINS(column, ?). value is encoded as a JSON
// document before binding, as the function expects.
func JSONContains(column string, value any) (query.Statement, error) {
	doc, err := json.Marshal(value)
	if err != nil {
		return query.Statement{}, fmt.Errorf("encode JSON_CONTAINS candidate: %w", err)
	}
	return query.Statement{Raw: &query.Fragment{
		SQL:   fmt.Sprintf("JSON_CONTAINS(%s, ?)", column),
		Binds: []any{string(doc)},
	}}, nil
}
