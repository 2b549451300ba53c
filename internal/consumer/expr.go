package consumer

import (
	"strconv"
	"strings"
)

// evaluateExpr substitutes ${path} expressions in s with values looked up in
// the token payload. The expression language is deliberately closed: a path
// is a dot-separated chain of map keys, nothing is ever compiled or executed,
// and an unresolved path yields the empty string.
//
// A leading "token." segment is accepted and stripped, so "${token.amount}"
// and "${amount}" read the same value.
func evaluateExpr(s string, payload map[string]any) string {
	if !strings.Contains(s, "${") {
		return s
	}

	var b strings.Builder
	for {
		start := strings.Index(s, "${")
		if start < 0 {
			b.WriteString(s)
			return b.String()
		}
		end := strings.Index(s[start:], "}")
		if end < 0 {
			// Unterminated expression; emit the rest verbatim.
			b.WriteString(s)
			return b.String()
		}
		end += start

		b.WriteString(s[:start])
		b.WriteString(lookupPath(s[start+2:end], payload))
		s = s[end+1:]
	}
}

func lookupPath(path string, payload map[string]any) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}

	segments := strings.Split(path, ".")
	if segments[0] == "token" && len(segments) > 1 {
		segments = segments[1:]
	}

	var current any = payload
	for _, seg := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current, ok = m[seg]
		if !ok {
			return ""
		}
	}
	return formatValue(current)
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		// JSON numbers decode as float64; integral values print without a
		// trailing ".0".
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return ""
	}
}
