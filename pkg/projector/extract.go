package projector

import "encoding/json"

// Tolerant extraction helpers for opaque provider payloads. Wrong-typed or
// missing fields read as absent; handlers never panic on malformed frames.

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asList(v any) ([]any, bool) {
	l, ok := v.([]any)
	return l, ok
}

func getString(m map[string]any, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	return asString(m[key])
}

func getInt(m map[string]any, key string) (int, bool) {
	if m == nil {
		return 0, false
	}
	return asInt(m[key])
}

func getBool(m map[string]any, key string) (bool, bool) {
	if m == nil {
		return false, false
	}
	return asBool(m[key])
}

func getMap(m map[string]any, key string) (map[string]any, bool) {
	if m == nil {
		return nil, false
	}
	return asMap(m[key])
}

func getList(m map[string]any, key string) ([]any, bool) {
	if m == nil {
		return nil, false
	}
	return asList(m[key])
}

// getStringList coerces a list value into its string elements, skipping
// anything that is not a string.
func getStringList(m map[string]any, key string) []string {
	list, ok := getList(m, key)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := asString(v); ok {
			out = append(out, s)
		}
	}
	return out
}

func strptr(s string) *string { return &s }

func intptr(i int) *int { return &i }
