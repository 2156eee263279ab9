package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Well-known segment kinds.
const (
	KindText  = "text"
	KindFace  = "face"
	KindImage = "image"
	KindAt    = "at"
)

// TextField is the field of a text segment carrying its content.
const TextField = "text"

// Segment is one unit of a structured message.
type Segment struct {
	Kind   string         `json:"type"`
	Fields map[string]any `json:"data"`
}

// NewSegment builds a segment, copying fields.
func NewSegment(kind string, fields map[string]any) Segment {
	return Segment{Kind: kind, Fields: cloneMap(fields)}
}

// Text builds a text segment.
func Text(s string) Segment {
	return Segment{Kind: KindText, Fields: map[string]any{TextField: s}}
}

// Clone returns a deep copy of the segment.
func (s Segment) Clone() Segment {
	return Segment{Kind: s.Kind, Fields: cloneMap(s.Fields)}
}

// IsText reports whether the segment is a text segment.
func (s Segment) IsText() bool { return s.Kind == KindText }

// TextValue returns the text field of a text segment.
// ok is false for non-text segments and for text segments whose field is missing or not a string.
func (s Segment) TextValue() (string, bool) {
	if s.Kind != KindText {
		return "", false
	}
	v, ok := s.Fields[TextField].(string)
	return v, ok
}

// WithText returns a copy of s with its text field replaced.
func (s Segment) WithText(text string) Segment {
	cp := s.Clone()
	if cp.Fields == nil {
		cp.Fields = make(map[string]any, 1)
	}
	cp.Fields[TextField] = text
	return cp
}

func (s Segment) String() string {
	if t, ok := s.TextValue(); ok {
		return fmt.Sprintf("text(%q)", t)
	}
	b, _ := json.Marshal(s.Fields)
	return s.Kind + string(b)
}

// CloneSegments deep-copies a segment slice. A nil input yields an empty slice.
func CloneSegments(in []Segment) []Segment {
	out := make([]Segment, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}

// ---------------- MatchResult ----------------

// MatchResult accumulates what one Match call consumed and extracted.
type MatchResult struct {
	Matched   []Segment      `json:"matched"`
	Params    map[string]any `json:"params"`
	Remaining []Segment      `json:"remaining"`
}

// NewMatchResult returns an empty result.
func NewMatchResult() *MatchResult {
	return &MatchResult{
		Matched:   make([]Segment, 0),
		Params:    make(map[string]any),
		Remaining: make([]Segment, 0),
	}
}

// IsValid holds when anything was matched or any parameter was recorded,
// defaults included.
func (r *MatchResult) IsValid() bool {
	if r == nil {
		return false
	}
	return len(r.Params) > 0 || len(r.Matched) > 0
}

// AddMatched appends segments to the matched list.
func (r *MatchResult) AddMatched(segs ...Segment) {
	r.Matched = append(r.Matched, segs...)
}

// SetParam records an extracted parameter.
func (r *MatchResult) SetParam(name string, value any) {
	r.Params[name] = value
}

// Param returns a parameter and whether it was recorded.
func (r *MatchResult) Param(name string) (any, bool) {
	v, ok := r.Params[name]
	return v, ok
}

// MatchedText concatenates the text of all matched text segments.
func (r *MatchResult) MatchedText() string {
	var b strings.Builder
	for _, s := range r.Matched {
		if t, ok := s.TextValue(); ok {
			b.WriteString(t)
		}
	}
	return b.String()
}

// ---------------- deep copy helpers ----------------

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies JSON-like values (maps, slices, scalars).
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, it := range t {
			out[i] = CloneValue(it)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case Segment:
		return t.Clone()
	default:
		return v
	}
}
