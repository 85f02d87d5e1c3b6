package social

import (
	"fmt"
	"time"
)

// Helpers for picking through untyped JSON trees. Wire payloads stay
// untyped only inside adapter translation functions; these helpers keep
// that picking terse and panic-free.

// ParseID extracts an id from a JSON-LD-ish value.
// Rather annoyingly, JSON-LD parameters could be a simple string or they
// can be expansive maps, so we should be prepared to handle either
// situation without dragging in a full JSON-LD implementation.
func ParseID(v any) (val string) {
	switch t := v.(type) {
	case string:
		// e.g. { "actor": "https://id" }
		val = t
	case map[string]any:
		// e.g. { "actor": { "name": "Alice", "id": "https://id" } }
		switch s := t["id"].(type) {
		case string:
			val = s
		case fmt.Stringer:
			val = s.String()
		}
	}
	return val
}

// JSONString returns m[key] when it's a string, else "".
func JSONString(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// JSONBool returns m[key] when it's a bool, else false.
func JSONBool(m map[string]any, key string) bool {
	if b, ok := m[key].(bool); ok {
		return b
	}
	return false
}

// JSONInt64 returns m[key] as an integer. JSON numbers decode to
// float64; string-typed ids like Twitter's id_str are not handled here.
func JSONInt64(m map[string]any, key string) int64 {
	if f, ok := m[key].(float64); ok {
		return int64(f)
	}
	return 0
}

// JSONObject returns m[key] when it's a nested object.
func JSONObject(m map[string]any, key string) (map[string]any, bool) {
	o, ok := m[key].(map[string]any)
	return o, ok
}

// JSONArray returns m[key] when it's an array.
func JSONArray(m map[string]any, key string) ([]any, bool) {
	a, ok := m[key].([]any)
	return a, ok
}

// JSONStrings flattens m[key] into a string list: a lone string becomes
// a one-element list, an array keeps its string and id-bearing members.
func JSONStrings(m map[string]any, key string) []string {
	switch t := m[key].(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, v := range t {
			if s := ParseID(v); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// ParseTime tries the timestamp formats the platforms actually emit.
func ParseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05.000Z",
		time.RubyDate, // Twitter: "Mon Jan 02 15:04:05 -0700 2006"
		"Mon Jan 02 15:04:05 -0700 2006",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
