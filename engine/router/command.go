package router

import (
	"context"
	"fmt"

	"github.com/zhinjs/segment-matcher-sub000/engine"
	"github.com/zhinjs/segment-matcher-sub000/engine/compiler"
	"github.com/zhinjs/segment-matcher-sub000/engine/matcher"
)

// HandlerFunc runs over a successful match. Returned values are collected in order.
type HandlerFunc func(ctx context.Context, res *engine.MatchResult) (any, error)

// Command is a named pattern with its handler chain.
type Command struct {
	Name        string
	Pattern     string
	Description string

	tokens   []engine.Token
	mapping  matcher.FieldMapping
	handlers []HandlerFunc
}

// NewCommand compiles pattern with the shared compiler. An empty name defaults to the pattern.
func NewCommand(name, pattern string) (*Command, error) {
	return newCommand(compiler.Compile, name, pattern)
}

func newCommand(compile func(string) ([]engine.Token, error), name, pattern string) (*Command, error) {
	tokens, err := compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("command %q: %w", name, err)
	}
	if name == "" {
		name = pattern
	}
	return &Command{Name: name, Pattern: pattern, tokens: tokens}, nil
}

// Action appends handlers to the chain.
func (c *Command) Action(fns ...HandlerFunc) *Command {
	c.handlers = append(c.handlers, fns...)
	return c
}

// Describe sets the help text.
func (c *Command) Describe(desc string) *Command {
	c.Description = desc
	return c
}

// WithFieldMapping sets per-command overrides on top of the engine mapping.
func (c *Command) WithFieldMapping(fm matcher.FieldMapping) *Command {
	c.mapping = fm
	return c
}

func (c *Command) Tokens() []engine.Token { return engine.CloneTokens(c.tokens) }

func (c *Command) HandlerCount() int { return len(c.handlers) }

// Match runs the command's pattern on e.
func (c *Command) Match(e *matcher.Engine, segments []engine.Segment) (*engine.MatchResult, error) {
	return e.Match(c.tokens, segments, c.mapping)
}

// Run calls handlers in order, stopping at the first error or when ctx is done.
func (c *Command) Run(ctx context.Context, res *engine.MatchResult) ([]any, error) {
	out := make([]any, 0, len(c.handlers))
	for i, h := range c.handlers {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		v, err := h(ctx, res)
		if err != nil {
			return out, fmt.Errorf("handler %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
