package compiler

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var (
	numericDefault = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
	bareObjectKey  = regexp.MustCompile(`([{,]\s*)([A-Za-z_$][\w$]*)\s*:`)
)

// ParseDefaultValue interprets the text after '=' in an optional parameter.
// Order: JSON, JSON after quote repair, number, boolean, raw string.
func ParseDefaultValue(raw string) any {
	s := strings.TrimSpace(raw)
	if s == "" {
		return raw
	}
	if v, ok := parseStructured(s); ok {
		return v
	}
	if numericDefault.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	return raw
}

func parseStructured(s string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v, true
	}
	switch s[0] {
	case '{', '[', '\'':
	default:
		return nil, false
	}
	repaired := repairQuotes(s)
	if err := json.Unmarshal([]byte(repaired), &v); err == nil {
		return v, true
	}
	return nil, false
}

// repairQuotes turns JS-style literals ({a: 'b'}) into JSON ({"a": "b"}).
func repairQuotes(s string) string {
	out := strings.ReplaceAll(s, "'", `"`)
	return bareObjectKey.ReplaceAllString(out, `$1"$2":`)
}
