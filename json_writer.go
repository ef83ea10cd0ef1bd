package riskplan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
)

// ObjectWriter helps construct a JSON object with a specific field order.
// Its zero value is ready to use.
//
// Unlike json.Marshal, non finite floats are written as null: NaN is a legitimate result of
// several indicators (e.g. a Sharpe ratio with zero volatility).
type ObjectWriter struct {
	buf bytes.Buffer
	err error
}

// Embed appends the fields from a raw JSON object (provided as a byte slice)
// into the current JSON object being built. It strips the outer braces of the
// embedded JSON, effectively merging its contents.
func (w *ObjectWriter) Embed(rawJSON []byte) *ObjectWriter {
	if w.err != nil {
		return w
	}
	trimmed := bytes.TrimSpace(rawJSON)
	if len(trimmed) >= 2 && trimmed[0] == '{' && trimmed[len(trimmed)-1] == '}' {
		trimmed = trimmed[1 : len(trimmed)-1]
	}
	if len(trimmed) > 0 {
		w.buf.Write(trimmed)
		w.buf.WriteString(",")
	}
	return w
}

// EmbedFrom marshals the given Go value into a JSON object and then embeds
// its fields into the current JSON object being built.
func (w *ObjectWriter) EmbedFrom(v any) *ObjectWriter {
	if w.err != nil {
		return w
	}
	rawJSON, err := json.Marshal(v)
	if err != nil {
		w.err = fmt.Errorf("failed to marshal for embedding: %w", err)
		return w
	}
	return w.Embed(rawJSON)
}

// Append adds a new key-value pair to the JSON object.
func (w *ObjectWriter) Append(key string, value any) *ObjectWriter {
	if w.err != nil {
		return w
	}
	valBytes, err := json.Marshal(finite(value))
	if err != nil {
		w.err = fmt.Errorf("failed to marshal value for key %q: %w", key, err)
		return w
	}
	keyBytes, _ := json.Marshal(key)
	w.buf.Write(keyBytes)
	w.buf.WriteString(":")
	w.buf.Write(valBytes)
	w.buf.WriteString(",")
	return w
}

// Optional appends a key-value pair to the JSON object only if the provided
// value is not its type's zero value.
func (w *ObjectWriter) Optional(key string, value any) *ObjectWriter {
	if w.err != nil {
		return w
	}
	v := reflect.ValueOf(value)
	if !v.IsValid() || v.IsZero() {
		return w
	}
	return w.Append(key, value)
}

// MarshalJSON finalizes the JSON object construction, wraps the content in
// braces, and returns the complete JSON byte slice.
func (w *ObjectWriter) MarshalJSON() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	content := bytes.TrimSuffix(w.buf.Bytes(), []byte(","))
	final := make([]byte, 0, len(content)+2)
	final = append(final, '{')
	final = append(final, content...)
	final = append(final, '}')
	return final, nil
}

// finite replaces non finite floats (and slices of them) by values json can encode.
func finite(value any) any {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
	case []float64:
		res := make([]any, len(v))
		for i, x := range v {
			res[i] = finite(x)
		}
		return res
	case [][]float64:
		res := make([]any, len(v))
		for i, x := range v {
			res[i] = finite(x)
		}
		return res
	}
	return value
}
