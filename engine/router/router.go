package router

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/zhinjs/segment-matcher-sub000/engine"
	"github.com/zhinjs/segment-matcher-sub000/engine/compiler"
	"github.com/zhinjs/segment-matcher-sub000/engine/matcher"
)

// Dispatch is one command that matched an input.
type Dispatch struct {
	Command *Command
	Result  *engine.MatchResult
	Outputs []any
}

// Router holds commands in registration order and dispatches inputs to them.
type Router struct {
	cfg      engine.Config
	engine   *matcher.Engine
	compiler *compiler.Compiler
	logger   zerolog.Logger

	mu        sync.RWMutex
	commands  []*Command
	prefilter *LiteralPrefilter
}

type Option func(*Router)

// WithEngine sets the matching engine (type registry, field mapping).
func WithEngine(e *matcher.Engine) Option {
	return func(r *Router) { r.engine = e }
}

func WithLogger(l zerolog.Logger) Option {
	return func(r *Router) { r.logger = l }
}

func New(cfg engine.Config, opts ...Option) *Router {
	r := &Router{
		cfg:      cfg,
		compiler: compiler.WithConfig(cfg),
		logger:   zerolog.Nop(),
	}
	for _, o := range opts {
		o(r)
	}
	if r.engine == nil {
		r.engine = matcher.New(matcher.WithCompiler(r.compiler), matcher.WithLogger(r.logger))
	}
	r.prefilter = buildPrefilter(nil, cfg)
	return r
}

// Command compiles pattern, registers it and returns it for chaining.
func (r *Router) Command(name, pattern string) (*Command, error) {
	cmd, err := newCommand(r.compiler.Compile, name, pattern)
	if err != nil {
		return nil, err
	}
	r.Add(cmd)
	return cmd, nil
}

// Add registers commands.
func (r *Router) Add(cmds ...*Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmds...)
	r.prefilter = buildPrefilter(r.commands, r.cfg)
	r.logger.Debug().
		Int("commands", len(r.commands)).
		Str("prefilter", r.prefilter.Stats().Summary()).
		Msg("router commands updated")
}

// Commands returns the registered commands in order.
func (r *Router) Commands() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Command(nil), r.commands...)
}

func (r *Router) Stats() PrefilterStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.prefilter.Stats()
}

// Dispatch matches segments against the commands and runs the handlers of the
// first match, or of every match under DispatchAll. Dispatches completed before
// an error are returned with it.
func (r *Router) Dispatch(ctx context.Context, segments []engine.Segment) ([]Dispatch, error) {
	r.mu.RLock()
	commands := r.commands
	candidates := r.prefilter.Candidates(segments)
	r.mu.RUnlock()

	r.logger.Trace().
		Int("segments", len(segments)).
		Int("candidates", len(candidates)).
		Int("commands", len(commands)).
		Msg("dispatch")

	out := make([]Dispatch, 0, 1)
	for _, i := range candidates {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		cmd := commands[i]
		res, err := cmd.Match(r.engine, segments)
		if err != nil {
			return out, fmt.Errorf("command %q: %w", cmd.Name, err)
		}
		if res == nil {
			continue
		}
		r.logger.Debug().Str("command", cmd.Name).Interface("params", res.Params).Msg("command matched")

		outputs, err := cmd.Run(ctx, res)
		out = append(out, Dispatch{Command: cmd, Result: res, Outputs: outputs})
		if err != nil {
			return out, fmt.Errorf("command %q: %w", cmd.Name, err)
		}
		if r.cfg.Strategy == engine.DispatchFirst {
			break
		}
	}
	return out, nil
}
