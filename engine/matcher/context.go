package matcher

import (
	"github.com/zhinjs/segment-matcher-sub000/engine"
)

// matchContext is the working state of one Match call.
// It owns a deep copy of the input; nothing here is shared across calls.
//
// Split text is not spliced back into the slice. The unconsumed part of the
// current segment sits in a single pending slot that is always examined next,
// so every step either advances the cursor or shortens the pending text.
type matchContext struct {
	items   []engine.Segment
	pos     int
	pending *engine.Segment

	rules  FieldMapping
	result *engine.MatchResult

	// kindCache: identity-keyed memo of kind checks; dropped with the context
	kindCache map[kindKey]bool
}

type kindKey struct {
	seg  *engine.Segment
	kind string
}

func newMatchContext(segments []engine.Segment, rules FieldMapping) *matchContext {
	return &matchContext{
		items:     engine.CloneSegments(segments),
		rules:     rules,
		result:    engine.NewMatchResult(),
		kindCache: make(map[kindKey]bool),
	}
}

// at returns the k-th unconsumed segment, counting the pending remainder first.
func (c *matchContext) at(k int) (*engine.Segment, bool) {
	if c.pending != nil {
		if k == 0 {
			return c.pending, true
		}
		k--
	}
	i := c.pos + k
	if i < 0 || i >= len(c.items) {
		return nil, false
	}
	return &c.items[i], true
}

func (c *matchContext) current() (*engine.Segment, bool) { return c.at(0) }

// advance drops the current segment.
func (c *matchContext) advance() {
	if c.pending != nil {
		c.pending = nil
		return
	}
	if c.pos < len(c.items) {
		c.pos++
	}
}

// consume records matched as consumed from the current segment and leaves rest,
// when non-empty, as the next segment to examine.
func (c *matchContext) consume(matched engine.Segment, rest string) {
	cur, _ := c.current()
	c.result.AddMatched(matched)
	if rest == "" {
		c.advance()
		return
	}
	remainder := cur.WithText(rest)
	c.advance()
	c.pending = &remainder
}

// remaining copies every unconsumed segment.
func (c *matchContext) remaining() []engine.Segment {
	out := make([]engine.Segment, 0, len(c.items)-c.pos+1)
	if c.pending != nil {
		out = append(out, c.pending.Clone())
	}
	for _, s := range c.items[c.pos:] {
		out = append(out, s.Clone())
	}
	return out
}

// isKind reports seg.Kind == kind; text additionally requires a string text field.
func (c *matchContext) isKind(seg *engine.Segment, kind string) bool {
	key := kindKey{seg: seg, kind: kind}
	if v, ok := c.kindCache[key]; ok {
		return v
	}
	v := seg.Kind == kind
	if v && kind == engine.KindText {
		_, v = seg.TextValue()
	}
	c.kindCache[key] = v
	return v
}

// textOf returns the text of a text segment.
func (c *matchContext) textOf(seg *engine.Segment) (string, bool) {
	if !c.isKind(seg, engine.KindText) {
		return "", false
	}
	return seg.TextValue()
}

// resolve extracts seg's value through the effective field mapping.
func (c *matchContext) resolve(seg *engine.Segment) (any, bool) {
	return c.rules.Resolve(*seg)
}

// CacheSize reports the number of memoized kind checks.
func (c *matchContext) CacheSize() int {
	return len(c.kindCache)
}
