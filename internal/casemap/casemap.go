// Package casemap rewrites storage-layer snake_case keys into the camelCase wire format.
package casemap

import "strings"

// SnakeToCamel converts "cover_image_url" to "coverImageUrl". Only an underscore followed
// by a lowercase ASCII letter is folded; anything else is kept as is.
func SnakeToCamel(s string) string {
	if !strings.Contains(s, "_") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' && i+1 < len(s) && s[i+1] >= 'a' && s[i+1] <= 'z' {
			b.WriteByte(s[i+1] - 'a' + 'A')
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// CamelToSnake is the inverse used to map payload keys back to columns.
func CamelToSnake(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			b.WriteByte('_')
			b.WriteByte(c - 'A' + 'a')
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Keys returns v with every object key rewritten by SnakeToCamel, recursively.
// Arrays are mapped element-wise; scalars pass through untouched.
func Keys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[SnakeToCamel(k)] = Keys(val)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = Keys(m)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Keys(e)
		}
		return out
	default:
		return v
	}
}
