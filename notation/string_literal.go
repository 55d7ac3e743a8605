package notation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// decodeDoubleQuoted JSON-decodes a double-quoted string literal with
// standard escapes; single-quoted strings are re-encoded and passed
// through this same JSON-style string decoder.
func decodeDoubleQuoted(raw string) (string, error) {
	var out string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return "", fmt.Errorf("invalid string literal %s: %w", raw, err)
	}
	return out, nil
}

// reencodeSingleQuoted converts a single-quoted literal (with backslash
// escapes for the quote character) into the equivalent
// double-quoted JSON literal: `'` is unescaped and bare `"` is escaped,
// ready to pass through the JSON-style string decoder above.
func reencodeSingleQuoted(raw string) string {
	inner := raw[1 : len(raw)-1]
	inner = strings.ReplaceAll(inner, `\'`, `'`)
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c == '"' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(c)
	}
	sb.WriteByte('"')
	return sb.String()
}

// decodeQuoted decodes either a single- or double-quoted grammar-notation
// string literal to its represented text.
func decodeQuoted(raw string) (string, error) {
	if strings.HasPrefix(raw, "'") {
		return decodeDoubleQuoted(reencodeSingleQuoted(raw))
	}
	return decodeDoubleQuoted(raw)
}

// decodeAngle decodes an angle-bracketed identifier `<name>`, honoring the
// `>>` escape for a literal `>` inside the name.
func decodeAngle(raw string) string {
	inner := raw[1 : len(raw)-1]
	return strings.ReplaceAll(inner, ">>", ">")
}
