// Package jsonx is the JSON codec used for every cluster payload.
//
// Numbers decode to json.Number so integers wider than 53 bits (document ids,
// epoch nanos, long fields) survive a decode/encode cycle unchanged. Maps
// encode with sorted keys so generated request bodies are stable.
package jsonx

import (
	"bytes"
	"encoding/json"

	jsoniter "github.com/json-iterator/go"

	cerrors "github.com/canonica-labs/esql/internal/errors"
)

var api = jsoniter.Config{
	EscapeHTML:  false,
	SortMapKeys: true,
	UseNumber:   true,
}.Froze()

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}

// Marshal encodes v.
func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

// MarshalString encodes v as a string.
func MarshalString(v any) (string, error) {
	return api.MarshalToString(v)
}

// MarshalIndent encodes v for display.
func MarshalIndent(v any) ([]byte, error) {
	return api.MarshalIndent(v, "", "  ")
}

// Valid reports whether data is a single valid JSON value.
func Valid(data []byte) bool {
	return api.Valid(data)
}

// Decode is Unmarshal with failures reported as a format error of the
// given operation.
func Decode(operation string, data []byte, v any) error {
	if err := api.Unmarshal(data, v); err != nil {
		return cerrors.NewFormat(operation, "response is not valid JSON", err)
	}
	return nil
}

// DecodeObject decodes data into a generic object.
func DecodeObject(operation string, data []byte) (map[string]any, error) {
	var out map[string]any
	if err := Decode(operation, data, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, cerrors.NewFormat(operation, "expected a JSON object", nil)
	}
	return out, nil
}

// Compact removes insignificant whitespace so the value fits on one line.
func Compact(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
