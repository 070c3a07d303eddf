// Package redact masks sensitive fields in captured payloads before
// they are persisted or pushed to viewers.
package redact

import "strings"

// Sentinel replaces the value of any key that looks sensitive.
const Sentinel = "***_REDACTED_***"

// denylist substrings matched against lowercased keys.
var denylist = []string{"password", "credit_card", "card_number", "secret", "token", "ssn"}

// Redact returns a deep copy of a decoded JSON value with every value under
// a sensitive-looking key replaced by Sentinel, recursing through nested
// objects. Arrays pass through at the element level. The input is never
// mutated. Redact is total and idempotent.
func Redact(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if sensitiveKey(k) {
				out[k] = Sentinel
				continue
			}
			out[k] = Redact(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}

func sensitiveKey(k string) bool {
	lk := strings.ToLower(k)
	for _, d := range denylist {
		if strings.Contains(lk, d) {
			return true
		}
	}
	return false
}
