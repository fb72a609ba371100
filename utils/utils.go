// Package utils converts between Go structs and the map payloads the
// statement builder binds. MapToStruct goes the other way, for callers that
// scan result rows into maps.
package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// StructToMap turns a struct (or pointer to one) into a column map keyed by
// its JSON field names, so `json:"name,omitempty"` tags decide which columns
// a payload carries. Numbers are kept as json.Number so integers above 2^53
// survive. Nested objects are kept as json.RawMessage and bound as JSON text.
//
//	type User struct {
//		Name string `json:"name"`
//		Age  int    `json:"age,omitempty"`
//	}
//	row, _ := StructToMap(User{Name: "Ada"}) // map[name:Ada]
func StructToMap[T any](record T) (map[string]any, error) {
	val := reflect.ValueOf(record)
	if !val.IsValid() {
		return nil, fmt.Errorf("record cannot be nil")
	}
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, fmt.Errorf("record cannot be a nil pointer")
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("record must be a struct or a pointer to a struct, got %s", val.Kind())
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("StructToMap: marshal record: %w", err)
	}
	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("StructToMap: unmarshal record: %w", err)
	}

	row := make(map[string]any, len(fields))
	for key, value := range fields {
		nested, ok := value.(map[string]any)
		if !ok {
			row[key] = value
			continue
		}
		doc, err := json.Marshal(nested)
		if err != nil {
			return nil, fmt.Errorf("StructToMap: re-marshal %q: %w", key, err)
		}
		row[key] = json.RawMessage(doc)
	}
	return row, nil
}

// MapToStruct is the inverse of StructToMap. It turns rows scanned into
// map[string]any back into typed records.
func MapToStruct[T any](input map[string]any) (T, error) {
	var zero T
	if input == nil {
		return zero, fmt.Errorf("MapToStruct: input map cannot be nil")
	}
	typ := reflect.TypeOf(zero)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return zero, fmt.Errorf("MapToStruct: T must be a struct type, got %s", typ.Kind())
	}

	raw, err := json.Marshal(input)
	if err != nil {
		return zero, fmt.Errorf("MapToStruct: marshal input: %w", err)
	}
	var result T
	if err := json.Unmarshal(raw, &result); err != nil {
		return zero, fmt.Errorf("MapToStruct: unmarshal into %s: %w", typ.Name(), err)
	}
	return result, nil
}
