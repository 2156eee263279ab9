package matcher

import "github.com/zhinjs/segment-matcher-sub000/engine"

// Core type definitions for the type registry and field extraction.

// TypeMatcher validates the text of a parameter and converts it to a typed value.
// ok=false means "this token did not match"; it is never an error.
type TypeMatcher interface {
	MatchType(text string) (value any, ok bool)
}

// TypeMatcherFunc adapts a plain function to TypeMatcher.
type TypeMatcherFunc func(text string) (any, bool)

func (f TypeMatcherFunc) MatchType(text string) (any, bool) { return f(text) }

// FieldRule extracts a value from a segment. See FieldName, FieldNames and FieldFunc.
type FieldRule interface {
	extract(seg engine.Segment) any
	validate(kind string) error
}
