package matcher

import (
	"maps"
	"sort"

	"github.com/zhinjs/segment-matcher-sub000/engine"
)

// FieldName reads one field directly.
type FieldName string

func (f FieldName) extract(seg engine.Segment) any {
	return seg.Fields[string(f)]
}

func (f FieldName) validate(kind string) error {
	if f == "" {
		return engine.NewValidationError("field_mapping."+kind, "empty field name")
	}
	return nil
}

// FieldNames tries fields in order; the first present non-nil value wins.
type FieldNames []string

func (f FieldNames) extract(seg engine.Segment) any {
	for _, name := range f {
		if v, ok := seg.Fields[name]; ok && v != nil {
			return v
		}
	}
	return nil
}

func (f FieldNames) validate(kind string) error {
	if len(f) == 0 {
		return engine.NewValidationError("field_mapping."+kind, "empty field list")
	}
	for _, name := range f {
		if name == "" {
			return engine.NewValidationError("field_mapping."+kind, "empty field name in list")
		}
	}
	return nil
}

// FieldFunc computes the value from the whole segment.
// Errors and panics are treated as "no value".
type FieldFunc func(seg engine.Segment) (any, error)

func (f FieldFunc) extract(seg engine.Segment) (v any) {
	defer func() {
		if r := recover(); r != nil {
			v = nil
		}
	}()
	v, err := f(seg)
	if err != nil {
		return nil
	}
	return v
}

func (f FieldFunc) validate(kind string) error {
	if f == nil {
		return engine.NewValidationError("field_mapping."+kind, "nil extraction function")
	}
	return nil
}

// Extract applies rule to seg. A nil rule yields nil.
func Extract(seg engine.Segment, rule FieldRule) any {
	if rule == nil {
		return nil
	}
	return rule.extract(seg)
}

// FieldMapping maps segment kinds to extraction rules so protocol dialects that
// rename fields need no change to the matching algorithm.
// The zero value is an empty mapping.
type FieldMapping struct {
	rules map[string]FieldRule
}

// NewFieldMapping creates an empty mapping.
func NewFieldMapping() FieldMapping {
	return FieldMapping{rules: make(map[string]FieldRule)}
}

// DefaultFieldMapping covers the common kinds.
func DefaultFieldMapping() FieldMapping {
	fm := NewFieldMapping()
	fm.LoadMappings(map[string]FieldRule{
		engine.KindText:  FieldName(engine.TextField),
		engine.KindFace:  FieldName("id"),
		"reply":          FieldName("id"),
		engine.KindImage: FieldNames{"url", "file", "src"},
		"record":         FieldNames{"url", "file", "src"},
		"video":          FieldNames{"url", "file", "src"},
		"file":           FieldNames{"url", "file", "src"},
		engine.KindAt:    FieldName("user_id"),
	})
	return fm
}

// LoadMappings adds rules, overwriting existing kinds.
func (fm *FieldMapping) LoadMappings(mappings map[string]FieldRule) {
	if fm.rules == nil {
		fm.rules = make(map[string]FieldRule)
	}
	for k, v := range mappings {
		fm.rules[k] = v
	}
}

// AddMapping sets the rule for one kind.
func (fm *FieldMapping) AddMapping(kind string, rule FieldRule) {
	if fm.rules == nil {
		fm.rules = make(map[string]FieldRule)
	}
	fm.rules[kind] = rule
}

// HasMapping reports whether kind has a rule.
func (fm FieldMapping) HasMapping(kind string) bool {
	_, ok := fm.rules[kind]
	return ok
}

// Rule returns the rule for kind.
func (fm FieldMapping) Rule(kind string) (FieldRule, bool) {
	r, ok := fm.rules[kind]
	return r, ok
}

// Kinds lists mapped kinds in sorted order.
func (fm FieldMapping) Kinds() []string {
	out := make([]string, 0, len(fm.rules))
	for k := range fm.rules {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of mapped kinds.
func (fm FieldMapping) Len() int { return len(fm.rules) }

// Mappings returns a copy of the rules.
func (fm FieldMapping) Mappings() map[string]FieldRule {
	if fm.rules == nil {
		return map[string]FieldRule{}
	}
	return maps.Clone(fm.rules)
}

// Merge returns a mapping with fm's rules overridden by other's, kind by kind.
func (fm FieldMapping) Merge(other FieldMapping) FieldMapping {
	out := NewFieldMapping()
	out.LoadMappings(fm.rules)
	out.LoadMappings(other.rules)
	return out
}

// Resolve extracts seg's value with the rule for its kind.
// ok is false when the kind has no rule.
func (fm FieldMapping) Resolve(seg engine.Segment) (any, bool) {
	rule, ok := fm.rules[seg.Kind]
	if !ok {
		return nil, false
	}
	return Extract(seg, rule), true
}

// Validate rejects nil rules, empty names and nil functions.
func (fm FieldMapping) Validate() error {
	for _, kind := range fm.Kinds() {
		rule := fm.rules[kind]
		if rule == nil {
			return engine.NewValidationError("field_mapping."+kind, "nil rule")
		}
		if err := rule.validate(kind); err != nil {
			return err
		}
	}
	return nil
}
