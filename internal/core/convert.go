package core

// convert.go turns loosely typed raw values into the canonical field types.
//
// Delimited and markup sources deliver every value as text, while the document
// source delivers JSON values (json.Number, string, []any, nested objects).
// Every helper accepts either shape and reports failures as *NormalizationError
// so the caller can attribute the failure to one row.

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Text returns the trimmed string form of a raw value.
// The second result is false when the value is absent (nil).
func Text(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return strings.TrimSpace(fmt.Sprint(t)), true
	}
}

// Float parses a raw value as a finite float64.
func Float(field string, v any) (float64, error) {
	var s string
	switch t := v.(type) {
	case nil:
		return 0, &NormalizationError{Field: field, Reason: "missing value"}
	case float64:
		return t, nil
	case json.Number:
		s = t.String()
	case string:
		s = strings.TrimSpace(t)
	default:
		return 0, &NormalizationError{Field: field, Value: fmt.Sprint(t), Reason: "not a number"}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &NormalizationError{Field: field, Value: s, Reason: "not a number"}
	}
	return f, nil
}

// RatingsFromText parses a comma-separated list such as "3.0,4.5" or "{3.0,4.5}".
// Outer braces are stripped; every token must be numeric.
func RatingsFromText(field string, v any) ([]float64, error) {
	s, ok := v.(string)
	if !ok {
		if v == nil {
			return nil, &NormalizationError{Field: field, Reason: "missing value"}
		}
		return nil, &NormalizationError{Field: field, Value: fmt.Sprint(v), Reason: "expected comma-separated text"}
	}

	s = strings.Trim(strings.TrimSpace(s), "{}")
	tokens := strings.Split(s, ",")
	ratings := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		f, err := Float(field, tok)
		if err != nil {
			return nil, err
		}
		ratings = append(ratings, f)
	}
	return ratings, nil
}

// RatingsFromList parses a JSON array of numbers or numeric strings.
func RatingsFromList(field string, v any) ([]float64, error) {
	items, ok := v.([]any)
	if !ok {
		if v == nil {
			return nil, &NormalizationError{Field: field, Reason: "missing value"}
		}
		return nil, &NormalizationError{Field: field, Value: fmt.Sprint(v), Reason: "expected an array"}
	}

	ratings := make([]float64, 0, len(items))
	for _, item := range items {
		f, err := Float(field, item)
		if err != nil {
			return nil, err
		}
		ratings = append(ratings, f)
	}
	return ratings, nil
}

// Mean returns the arithmetic mean of values. Callers guarantee len(values) > 0.
func Mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Field resolves a dotted path such as "coordinates.latitude" through nested
// objects. Returns nil when any step is missing.
func Field(raw RawRecord, path string) any {
	var cur any = map[string]any(raw)
	for _, key := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[key]
	}
	return cur
}
