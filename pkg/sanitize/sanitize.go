// Package sanitize redacts sensitive keys and truncates oversized strings in
// arbitrary JSON-like values before they reach the public stream. Every
// modification is reported as a notice carrying a dotted JSON path so clients
// can tell exactly what was touched.
package sanitize

import (
	"strconv"
	"strings"

	"github.com/agentwire/relay/pkg/stream"
)

// Redacted replaces the value of any sensitive key.
const Redacted = "<redacted>"

// sensitiveKeySubstrings flags object keys whose lowercased form contains any
// of these substrings. The value is replaced wholesale, never partially.
var sensitiveKeySubstrings = []string{
	"api_key",
	"apikey",
	"authorization",
	"token",
	"secret",
	"password",
	"passphrase",
	"bearer",
	"client_secret",
	"access_token",
	"refresh_token",
	"id_token",
}

// SensitiveKey reports whether an object key must be redacted.
func SensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeySubstrings {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// Value walks a JSON-like value, replaces values of sensitive keys with
// Redacted, and truncates strings longer than maxStringChars. rootPath is the
// path prefix used in notices (e.g. "arguments_json"). The input is never
// mutated; maps and slices are copied on write.
func Value(v any, maxStringChars int, rootPath string) (any, []stream.Notice) {
	var notices []stream.Notice
	out := walk(v, maxStringChars, rootPath, &notices)
	return out, notices
}

func walk(v any, maxChars int, path string, notices *[]stream.Notice) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			childPath := joinPath(path, k)
			if SensitiveKey(k) {
				out[k] = Redacted
				*notices = append(*notices, stream.Notice{Type: stream.NoticeRedacted, Path: childPath})
				continue
			}
			out[k] = walk(inner, maxChars, childPath, notices)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = walk(inner, maxChars, path+"["+strconv.Itoa(i)+"]", notices)
		}
		return out
	case string:
		truncated, notice := TruncateString(val, maxChars, path)
		if notice != nil {
			*notices = append(*notices, *notice)
		}
		return truncated
	default:
		// Scalars (numbers, bools, nil) pass through untouched.
		return v
	}
}

// TruncateString caps s at maxChars characters, cutting on a rune boundary
// so the result stays valid UTF-8. Returns the (possibly truncated) string
// and a truncation notice when the cap was applied. maxChars <= 0 disables
// truncation.
func TruncateString(s string, maxChars int, path string) (string, *stream.Notice) {
	if maxChars <= 0 || len(s) <= maxChars {
		return s, nil
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s, nil
	}
	return string(runes[:maxChars]), &stream.Notice{Type: stream.NoticeTruncated, Path: path}
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}
