package engine

import (
	"fmt"
	"strings"
)

// TokenKind names a token variant.
type TokenKind int

const (
	TokenLiteral TokenKind = iota
	TokenTypedLiteral
	TokenParameter
	TokenRestParameter
)

func (k TokenKind) String() string {
	switch k {
	case TokenLiteral:
		return "literal"
	case TokenTypedLiteral:
		return "typed_literal"
	case TokenParameter:
		return "parameter"
	case TokenRestParameter:
		return "rest_parameter"
	default:
		return fmt.Sprintf("TokenKind(%d)", int(k))
	}
}

// DefaultDataType is the parameter type used when a pattern omits one.
const DefaultDataType = "text"

// Token is one compiled unit of a pattern. Implementations are immutable values.
type Token interface {
	Kind() TokenKind
	// IsOptional reports whether failing this token leaves the overall match intact.
	IsOptional() bool
	String() string
	token()
}

// Literal requires a text segment starting with Text.
type Literal struct {
	Text string `json:"text"`
	// Optional is only set on the synthetic single-space separator.
	Optional bool `json:"optional,omitempty"`
}

func (Literal) Kind() TokenKind    { return TokenLiteral }
func (l Literal) IsOptional() bool { return l.Optional }
func (Literal) token()             {}

func (l Literal) String() string {
	if l.Optional {
		return fmt.Sprintf("literal(%q)?", l.Text)
	}
	return fmt.Sprintf("literal(%q)", l.Text)
}

// TypedLiteral requires a segment of SegmentKind whose mapped value equals Value.
// Without a value only the kind is checked.
type TypedLiteral struct {
	SegmentKind string `json:"segment_kind"`
	Value       string `json:"value,omitempty"`
	HasValue    bool   `json:"has_value"`
}

func (TypedLiteral) Kind() TokenKind  { return TokenTypedLiteral }
func (TypedLiteral) IsOptional() bool { return false }
func (TypedLiteral) token()           {}

func (t TypedLiteral) String() string {
	if !t.HasValue {
		return fmt.Sprintf("typed_literal{%s}", t.SegmentKind)
	}
	return fmt.Sprintf("typed_literal{%s:%s}", t.SegmentKind, t.Value)
}

// Parameter extracts a value from the next segment into Name.
type Parameter struct {
	Name       string `json:"name"`
	DataType   string `json:"data_type"`
	Optional   bool   `json:"optional"`
	Default    any    `json:"default,omitempty"`
	HasDefault bool   `json:"has_default"`
}

func (Parameter) Kind() TokenKind    { return TokenParameter }
func (p Parameter) IsOptional() bool { return p.Optional }
func (Parameter) token()             {}

// DefaultValue returns a private copy of the declared default.
func (p Parameter) DefaultValue() (any, bool) {
	if !p.HasDefault {
		return nil, false
	}
	return CloneValue(p.Default), true
}

func (p Parameter) String() string {
	var b strings.Builder
	if p.Optional {
		b.WriteString("[")
	} else {
		b.WriteString("<")
	}
	b.WriteString(p.Name)
	b.WriteString(":")
	b.WriteString(p.DataType)
	if p.HasDefault {
		fmt.Fprintf(&b, "=%v", p.Default)
	}
	if p.Optional {
		b.WriteString("]")
	} else {
		b.WriteString(">")
	}
	return b.String()
}

// RestParameter collects a run of trailing segments.
// An empty DataType collects everything.
type RestParameter struct {
	Name     string `json:"name"`
	DataType string `json:"data_type,omitempty"`
}

func (RestParameter) Kind() TokenKind  { return TokenRestParameter }
func (RestParameter) IsOptional() bool { return true }
func (RestParameter) token()           {}

func (r RestParameter) String() string {
	if r.DataType == "" {
		return fmt.Sprintf("[...%s]", r.Name)
	}
	return fmt.Sprintf("[...%s:%s]", r.Name, r.DataType)
}

// CloneTokens copies a token slice. Tokens are values, so a shallow copy suffices.
func CloneTokens(in []Token) []Token {
	return append([]Token(nil), in...)
}

// AllOptional reports whether every token is optional or a rest parameter.
func AllOptional(tokens []Token) bool {
	for _, t := range tokens {
		if !t.IsOptional() {
			return false
		}
	}
	return true
}
