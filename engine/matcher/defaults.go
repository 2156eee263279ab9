package matcher

import (
	"regexp"
	"strconv"
)

// Built-in type names.
const (
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeFloat   = "float"
	TypeBoolean = "boolean"
	TypeText    = "text"
)

var (
	numberPattern  = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)
	integerPattern = regexp.MustCompile(`^[+-]?\d+$`)
	floatPattern   = regexp.MustCompile(`^[+-]?\d+\.\d+$`)
)

// -------- number / integer / float --------

func createNumberMatch() TypeMatcherFunc {
	return func(text string) (any, bool) {
		if !numberPattern.MatchString(text) {
			return nil, false
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, false
		}
		return f, true
	}
}

func createIntegerMatch() TypeMatcherFunc {
	return func(text string) (any, bool) {
		if !integerPattern.MatchString(text) {
			return nil, false
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			// out of int64 range
			return nil, false
		}
		return n, true
	}
}

func createFloatMatch() TypeMatcherFunc {
	return func(text string) (any, bool) {
		if !floatPattern.MatchString(text) {
			return nil, false
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, false
		}
		return f, true
	}
}

// -------- boolean / text --------

func createBooleanMatch() TypeMatcherFunc {
	return func(text string) (any, bool) {
		switch text {
		case "true":
			return true, true
		case "false":
			return false, true
		default:
			return nil, false
		}
	}
}

func createTextMatch() TypeMatcherFunc {
	return func(text string) (any, bool) { return text, true }
}

func registerDefaults(reg map[string]TypeMatcher) {
	reg[TypeNumber] = createNumberMatch()
	reg[TypeInteger] = createIntegerMatch()
	reg[TypeFloat] = createFloatMatch()
	reg[TypeBoolean] = createBooleanMatch()
	reg[TypeText] = createTextMatch()
}
