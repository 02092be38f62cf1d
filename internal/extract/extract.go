// Package extract pulls structured JSON out of free-form model output.
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/devscout/internal/apperr"
)

var fenced = regexp.MustCompile("(?is)```[ \t]*(json)?[ \t]*\\r?\\n?(.*?)```")

// Structured finds the first JSON object in raw. It tries fenced blocks first, then each
// balanced brace span in order, then the widest brace span, then spans starting at later braces.
func Structured(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty response: %w", apperr.ErrUnparsable)
	}

	for _, m := range fenced.FindAllStringSubmatch(raw, -1) {
		body := strings.TrimSpace(m[2])
		labeled := m[1] != ""
		if !labeled && !strings.HasPrefix(body, "{") {
			continue
		}
		if obj, ok := decodeObject(body); ok {
			return obj, nil
		}
	}

	for _, span := range balancedSpans(raw) {
		if obj, ok := decodeObject(span); ok {
			return obj, nil
		}
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		if obj, ok := decodeObject(raw[start : end+1]); ok {
			return obj, nil
		}
	}

	// An unmatched brace in prose hides everything after it; retry from each later brace.
	for start >= 0 {
		next := strings.Index(raw[start+1:], "{")
		if next < 0 {
			break
		}
		start += next + 1
		for _, span := range balancedSpans(raw[start:]) {
			if obj, ok := decodeObject(span); ok {
				return obj, nil
			}
		}
	}

	return nil, fmt.Errorf("no json object found: %w", apperr.ErrUnparsable)
}

func decodeObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// balancedSpans returns the top-level {...} spans whose braces balance, ignoring braces inside strings.
func balancedSpans(s string) []string {
	var spans []string
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				spans = append(spans, s[start:i+1])
			}
		}
	}
	return spans
}

// Outcome is either a decoded value or a fallback with the reason parsing failed.
type Outcome[T any] struct {
	Value    T
	Fallback bool
	Reason   string
}

// Parse extracts the JSON object from raw and decodes it into T through json tags, converting
// loosely typed values ("85" into 85, 85.0 into 85).
func Parse[T any](raw string) Outcome[T] {
	var out Outcome[T]

	obj, err := Structured(raw)
	if err != nil {
		out.Fallback = true
		out.Reason = err.Error()
		return out
	}

	if err := Decode(obj, &out.Value); err != nil {
		var zero T
		out.Value = zero
		out.Fallback = true
		out.Reason = fmt.Sprintf("decode response: %v", err)
	}

	return out
}

// Decode maps an untyped object onto target using its json tags.
func Decode(input any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           target,
		DecodeHook:       roundToInt,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}
