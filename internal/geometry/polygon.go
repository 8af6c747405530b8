// Package geometry implements the polygon normalization, validation, and
// ring-construction pipeline for record submissions. Clients send the drawn
// polygon in several historical encodings (a list of [lat, lng] pairs, a list
// of {lat, lng} objects, or a JSON-encoded string of either); this package
// normalizes them before validation and derives closed GeoJSON rings at
// export time without ever mutating the stored value.
package geometry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
)

// PolygonField is the name of the submission field carrying the drawn polygon.
const PolygonField = "polygonCoordinate"

// Validation messages surfaced to the client as field-scoped errors.
const (
	msgInvalidJSON   = "Invalid JSON for polygonCoordinate"
	msgRequired      = "polygonCoordinate is required."
	msgNotList       = "polygonCoordinate must be a list of [lat, lng] pairs."
	msgTooFewPoints  = "polygonCoordinate must contain at least three [lat, lng] points."
	msgBadVertex     = "Each vertex must be a [lat, lng] pair."
	msgNonNumeric    = "Each vertex must contain two numbers: [lat, lng]."
	minPolygonPoints = 3
)

// FieldError is a validation failure scoped to a single submission field.
// It maps onto the structured field-error responses returned to the client.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// NormalizeFields prepares a raw submitted field map for validation. Browsers
// send empty strings for untouched form fields, so every value that trims to
// the empty string is replaced with nil. The polygon field additionally gets
// decoded when it arrives as a JSON-encoded string; a string that is not
// valid JSON is a field error.
func NormalizeFields(fields map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for key, value := range fields {
		if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
			out[key] = nil
			continue
		}
		out[key] = value
	}

	if raw, ok := out[PolygonField]; ok {
		if s, ok := raw.(string); ok {
			parsed, err := decodeJSON([]byte(s))
			if err != nil {
				return nil, &FieldError{Field: PolygonField, Message: msgInvalidJSON}
			}
			out[PolygonField] = parsed
		}
	}

	return out, nil
}

// ValidatePolygon enforces the shape contract for the polygon field before
// persistence: present, a sequence of at least three vertices, each vertex a
// pair of numbers. Checks run in that order and the first failing vertex
// wins. On success the sequence is returned as a concrete slice with the
// vertex values left exactly as submitted; float coercion happens only at
// export time.
func ValidatePolygon(value any) ([]any, error) {
	if value == nil {
		return nil, &FieldError{Field: PolygonField, Message: msgRequired}
	}

	seq, ok := asSequence(value)
	if !ok {
		return nil, &FieldError{Field: PolygonField, Message: msgNotList}
	}

	if len(seq) < minPolygonPoints {
		return nil, &FieldError{Field: PolygonField, Message: msgTooFewPoints}
	}

	out := make([]any, 0, len(seq))
	for _, vertex := range seq {
		pair, ok := asSequence(vertex)
		if !ok || len(pair) != 2 {
			return nil, &FieldError{Field: PolygonField, Message: msgBadVertex}
		}
		if _, ok := toFloat(pair[0]); !ok {
			return nil, &FieldError{Field: PolygonField, Message: msgNonNumeric}
		}
		if _, ok := toFloat(pair[1]); !ok {
			return nil, &FieldError{Field: PolygonField, Message: msgNonNumeric}
		}
		out = append(out, []any{pair[0], pair[1]})
	}

	return out, nil
}

// asSequence converts any slice or array value into []any. Strings and byte
// slices are not sequences for validation purposes.
func asSequence(value any) ([]any, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case []any:
		return v, true
	case string, []byte, json.RawMessage:
		return nil, false
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// decodeJSON parses JSON keeping numbers as json.Number so stored vertex
// values retain their submitted textual form. The input must be exactly one
// JSON value; trailing data is an error.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return v, nil
}
