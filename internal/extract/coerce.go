package extract

import (
	"math"
	"reflect"
	"strconv"
	"strings"
)

// roundToInt rounds numbers and numeric strings ("85", "85.5", "85%") landing in integer fields.
func roundToInt(from reflect.Type, to reflect.Type, data any) (any, error) {
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
	default:
		return data, nil
	}
	if from.Kind() != reflect.Float64 && from.Kind() != reflect.String {
		return data, nil
	}

	f := Float(data)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return data, nil
	}
	return int64(math.Round(f)), nil
}

// Float converts a loosely typed JSON value; NaN means "not a number".
func Float(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		trimmed := strings.TrimSuffix(strings.TrimSpace(val), "%")
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func String(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// Strings keeps the non-blank string members of a JSON array.
func Strings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		if s, ok := v.([]string); ok {
			items = make([]any, len(s))
			for i := range s {
				items[i] = s[i]
			}
		}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := String(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ClampInt bounds n to [lo, hi].
func ClampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// NonNil replaces a nil slice with an empty one.
func NonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
