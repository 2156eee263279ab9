package matcher

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/zhinjs/segment-matcher-sub000/engine"
	"github.com/zhinjs/segment-matcher-sub000/engine/compiler"
)

// Engine matches compiled tokens against message segments.
// An Engine is safe for concurrent use; each Match works on a private copy of its input.
type Engine struct {
	types    *TypeRegistry
	mapping  FieldMapping
	compiler *compiler.Compiler
	logger   zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTypeRegistry installs a scoped type registry.
func WithTypeRegistry(r *TypeRegistry) Option {
	return func(e *Engine) { e.types = r }
}

// WithFieldMapping overrides engine-wide defaults per kind.
func WithFieldMapping(fm FieldMapping) Option {
	return func(e *Engine) { e.mapping = e.mapping.Merge(fm) }
}

// WithCompiler sets the compiler used by MatchPattern.
func WithCompiler(c *compiler.Compiler) Option {
	return func(e *Engine) { e.compiler = c }
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New returns an Engine with the built-in types and the default field mapping.
func New(opts ...Option) *Engine {
	e := &Engine{
		types:    NewTypeRegistry(),
		mapping:  DefaultFieldMapping(),
		compiler: compiler.New(),
		logger:   zerolog.Nop(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Types() *TypeRegistry { return e.types }

func (e *Engine) FieldMapping() FieldMapping { return e.mapping }

func (e *Engine) Compiler() *compiler.Compiler { return e.compiler }

// MatchPattern compiles pattern (memoized) and matches it.
func (e *Engine) MatchPattern(pattern string, segments []engine.Segment, mapping FieldMapping) (*engine.MatchResult, error) {
	tokens, err := e.compiler.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return e.Match(tokens, segments, mapping)
}

// Match walks tokens and segments in lockstep.
//
// A nil result with a nil error means the pattern did not match. mapping overrides
// the engine's field mapping per kind; pass the zero FieldMapping for none.
// Malformed input (a segment without kind, an unusable mapping rule) returns a
// *engine.ValidationError.
func (e *Engine) Match(tokens []engine.Token, segments []engine.Segment, mapping FieldMapping) (*engine.MatchResult, error) {
	if err := mapping.Validate(); err != nil {
		return nil, err
	}
	for i, s := range segments {
		if s.Kind == "" {
			return nil, engine.NewValidationError(fmt.Sprintf("segments[%d]", i), "missing kind")
		}
	}

	if len(tokens) == 0 {
		res := engine.NewMatchResult()
		res.Remaining = engine.CloneSegments(segments)
		return res, nil
	}
	if len(segments) == 0 && !engine.AllOptional(tokens) {
		return nil, nil
	}

	rules := e.mapping
	if mapping.Len() > 0 {
		rules = rules.Merge(mapping)
	}
	ctx := newMatchContext(segments, rules)

	for ti, tok := range tokens {
		if e.matchToken(ctx, tokens, ti) {
			continue
		}
		switch t := tok.(type) {
		case engine.Literal:
			if t.Optional {
				continue
			}
		case engine.Parameter:
			if t.Optional {
				ctx.result.SetParam(t.Name, e.defaultFor(t))
				continue
			}
		case engine.RestParameter:
			ctx.result.SetParam(t.Name, []any{})
			continue
		}
		e.logger.Trace().
			Int("token_index", ti).
			Str("token", tok.String()).
			Msg("required token did not match")
		return nil, nil
	}

	ctx.result.Remaining = ctx.remaining()
	if !ctx.result.IsValid() {
		return nil, nil
	}
	return ctx.result, nil
}

// matchToken attempts tokens[ti] at the current position. It leaves ctx untouched
// when it reports false.
func (e *Engine) matchToken(ctx *matchContext, tokens []engine.Token, ti int) bool {
	switch t := tokens[ti].(type) {
	case engine.Literal:
		return e.matchLiteral(ctx, t)
	case engine.TypedLiteral:
		return e.matchTypedLiteral(ctx, t)
	case engine.Parameter:
		return e.matchParameter(ctx, t, splitsBlob(tokens, ti))
	case engine.RestParameter:
		return e.matchRest(ctx, t)
	default:
		return false
	}
}

// -------------------- literal --------------------

func (e *Engine) matchLiteral(ctx *matchContext, lit engine.Literal) bool {
	seg, ok := ctx.current()
	if !ok {
		return false
	}
	text, ok := ctx.textOf(seg)
	if !ok || !strings.HasPrefix(text, lit.Text) {
		return false
	}
	ctx.consume(seg.WithText(lit.Text), text[len(lit.Text):])
	return true
}

// -------------------- typed literal --------------------

func (e *Engine) matchTypedLiteral(ctx *matchContext, tl engine.TypedLiteral) bool {
	seg, ok := ctx.current()
	if !ok || !ctx.isKind(seg, tl.SegmentKind) {
		return false
	}
	if !tl.HasValue {
		ctx.consume(seg.Clone(), "")
		return true
	}

	value, _ := ctx.resolve(seg)
	if value != nil && stringify(value) == tl.Value {
		ctx.consume(seg.Clone(), "")
		return true
	}

	// text may also contain the value: split into before / matched / after
	if tl.SegmentKind != engine.KindText || tl.Value == "" {
		return false
	}
	text, ok := ctx.textOf(seg)
	if !ok {
		return false
	}
	idx := strings.Index(text, tl.Value)
	if idx < 0 {
		return false
	}
	if before := text[:idx]; before != "" {
		ctx.result.AddMatched(seg.WithText(before))
	}
	ctx.consume(seg.WithText(tl.Value), text[idx+len(tl.Value):])
	return true
}

// -------------------- parameter --------------------

// splitsBlob reports whether a parameter at ti shares its text with later tokens,
// in which case it takes only the next word. The optional separator space does not count.
func splitsBlob(tokens []engine.Token, ti int) bool {
	for _, t := range tokens[ti+1:] {
		if lit, ok := t.(engine.Literal); ok && lit.Optional {
			continue
		}
		return true
	}
	return false
}

func (e *Engine) matchParameter(ctx *matchContext, p engine.Parameter, split bool) bool {
	seg, ok := ctx.current()
	if !ok {
		return false
	}

	switch {
	case p.DataType == engine.DefaultDataType:
		text, ok := ctx.textOf(seg)
		if !ok {
			return false
		}
		if !split {
			ctx.result.SetParam(p.Name, text)
			ctx.consume(seg.Clone(), "")
			return true
		}
		value, consumed, rest, ok := nextWord(text)
		if !ok {
			return false
		}
		ctx.result.SetParam(p.Name, value)
		ctx.consume(seg.WithText(consumed), rest)
		return true

	case e.types.HasSpecialMatcher(p.DataType):
		m, _ := e.types.Get(p.DataType)
		text, ok := ctx.textOf(seg)
		if !ok {
			return false
		}
		word, consumed, rest, ok := nextWord(text)
		if !ok {
			return false
		}
		value, ok := m.MatchType(word)
		if !ok {
			return false
		}
		ctx.result.SetParam(p.Name, value)
		ctx.consume(seg.WithText(consumed), rest)
		return true

	default:
		if !ctx.isKind(seg, p.DataType) {
			return false
		}
		value, _ := ctx.resolve(seg)
		ctx.result.SetParam(p.Name, value)
		ctx.consume(seg.Clone(), "")
		return true
	}
}

// defaultFor is the value recorded when an optional parameter is not matched.
// Declared scalar defaults are coerced through the type matcher when they fit.
func (e *Engine) defaultFor(p engine.Parameter) any {
	v, ok := p.DefaultValue()
	if !ok {
		if p.DataType == engine.DefaultDataType {
			return ""
		}
		return nil
	}
	m, ok := e.types.Get(p.DataType)
	if !ok || !e.types.HasSpecialMatcher(p.DataType) {
		return v
	}
	var raw string
	switch t := v.(type) {
	case string:
		raw = t
	case float64:
		raw = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		raw = strconv.FormatBool(t)
	default:
		return v
	}
	if coerced, ok := m.MatchType(raw); ok {
		return coerced
	}
	return v
}

// -------------------- rest parameter --------------------

// matchRest always succeeds, possibly with an empty collection.
func (e *Engine) matchRest(ctx *matchContext, r engine.RestParameter) bool {
	collected := make([]any, 0)
	switch {
	case r.DataType == "":
		for seg, ok := ctx.current(); ok; seg, ok = ctx.current() {
			collected = append(collected, restValue(ctx, seg))
			ctx.consume(seg.Clone(), "")
		}
	case e.types.HasSpecialMatcher(r.DataType):
		m, _ := e.types.Get(r.DataType)
		collected = e.collectTyped(ctx, m, collected)
	default:
		for seg, ok := ctx.current(); ok; seg, ok = ctx.current() {
			if ctx.isKind(seg, r.DataType) {
				collected = append(collected, restValue(ctx, seg))
				ctx.consume(seg.Clone(), "")
				continue
			}
			// an interior single space between two runs is tolerated, not collected
			if next, ok := ctx.at(1); ok && isSingleSpace(ctx.textOf(seg)) && ctx.isKind(next, r.DataType) {
				ctx.consume(seg.Clone(), "")
				continue
			}
			break
		}
	}
	ctx.result.SetParam(r.Name, collected)
	return true
}

// collectTyped reads space-separated words across text segments while each
// converts with m.
func (e *Engine) collectTyped(ctx *matchContext, m TypeMatcher, collected []any) []any {
	for seg, ok := ctx.current(); ok; seg, ok = ctx.current() {
		text, ok := ctx.textOf(seg)
		if !ok {
			break
		}
		body := strings.TrimLeft(text, " ")
		lead := text[:len(text)-len(body)]
		word, consumed, rest, ok := nextWord(body)
		if !ok {
			break
		}
		value, ok := m.MatchType(word)
		if !ok {
			break
		}
		if lead != "" {
			ctx.result.AddMatched(seg.WithText(lead))
		}
		collected = append(collected, value)
		ctx.consume(seg.WithText(consumed), rest)
	}
	return collected
}

// restValue is the mapped value of seg, or a copy of seg when its kind has no
// mapping or the mapping yields nothing.
func restValue(ctx *matchContext, seg *engine.Segment) any {
	if v, ok := ctx.resolve(seg); ok && v != nil {
		return v
	}
	return seg.Clone()
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// -------------------- package-level default --------------------

var defaultEngine = New()

// Default returns the shared package Engine.
func Default() *Engine { return defaultEngine }

// Match runs tokens against segments on the shared Engine.
func Match(tokens []engine.Token, segments []engine.Segment, mapping FieldMapping) (*engine.MatchResult, error) {
	return defaultEngine.Match(tokens, segments, mapping)
}

// MatchPattern compiles and matches on the shared Engine.
func MatchPattern(pattern string, segments []engine.Segment, mapping FieldMapping) (*engine.MatchResult, error) {
	return defaultEngine.MatchPattern(pattern, segments, mapping)
}
