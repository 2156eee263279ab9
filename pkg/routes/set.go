package routes

import (
	"fmt"

	"github.com/zhinjs/segment-matcher-sub000/engine"
	"github.com/zhinjs/segment-matcher-sub000/engine/router"
)

// Route is one command declared in a route file or stored in the database.
type Route struct {
	Name        string `json:"name" yaml:"name"`
	Pattern     string `json:"pattern" yaml:"pattern"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Source      string `json:"source,omitempty" yaml:"-"`
}

// RouteSet is the content of one route file.
type RouteSet struct {
	Source   string
	Strategy string
	// segment kind -> field names tried in order
	FieldMapping map[string][]string
	Commands     []Route
}

// Merge concatenates sets in order. The first non-empty strategy wins and
// later field mappings override earlier ones per kind.
func Merge(sets ...RouteSet) RouteSet {
	var out RouteSet
	for _, s := range sets {
		if out.Strategy == "" {
			out.Strategy = s.Strategy
		}
		for kind, fields := range s.FieldMapping {
			if out.FieldMapping == nil {
				out.FieldMapping = make(map[string][]string)
			}
			out.FieldMapping[kind] = append([]string(nil), fields...)
		}
		out.Commands = append(out.Commands, s.Commands...)
	}
	return out
}

// Build registers every command of the set on a new router. A strategy in
// the set overrides cfg.Strategy. Handlers are attached by the caller.
func (s RouteSet) Build(cfg engine.Config, opts ...router.Option) (*router.Router, error) {
	if s.Strategy != "" {
		st, err := engine.ParseDispatchStrategy(s.Strategy)
		if err != nil {
			return nil, err
		}
		cfg = cfg.WithStrategy(st)
	}
	r := router.New(cfg, opts...)
	mapping := s.Mapping()
	for _, rt := range s.Commands {
		cmd, err := r.Command(rt.Name, rt.Pattern)
		if err != nil {
			if rt.Source != "" {
				return nil, fmt.Errorf("%s: %w", rt.Source, err)
			}
			return nil, err
		}
		cmd.Describe(rt.Description)
		if mapping.Len() > 0 {
			cmd.WithFieldMapping(mapping)
		}
	}
	return r, nil
}
