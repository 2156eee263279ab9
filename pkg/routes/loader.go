package routes

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zhinjs/segment-matcher-sub000/engine"
	"github.com/zhinjs/segment-matcher-sub000/engine/compiler"
	"github.com/zhinjs/segment-matcher-sub000/engine/matcher"
)

type rawCommand struct {
	Name        string `yaml:"name"`
	Pattern     string `yaml:"pattern"`
	Description string `yaml:"description"`
}

type rawRouteFile struct {
	Strategy     string         `yaml:"strategy"`
	FieldMapping map[string]any `yaml:"field_mapping"`
	Commands     []rawCommand   `yaml:"commands"`
}

// LoadRouteYAML parses one route file. Every pattern is compiled so a bad
// file is rejected before it reaches a router.
func LoadRouteYAML(b []byte) (RouteSet, error) {
	var rf rawRouteFile
	if err := yaml.Unmarshal(b, &rf); err != nil {
		return RouteSet{}, err
	}
	if len(rf.Commands) == 0 {
		return RouteSet{}, errors.New("missing commands block")
	}

	set := RouteSet{Strategy: strings.TrimSpace(rf.Strategy)}
	if set.Strategy != "" {
		if _, err := engine.ParseDispatchStrategy(set.Strategy); err != nil {
			return RouteSet{}, err
		}
	}

	if len(rf.FieldMapping) > 0 {
		set.FieldMapping = make(map[string][]string, len(rf.FieldMapping))
		for kind, node := range rf.FieldMapping {
			fields, err := parseFieldNode(node)
			if err != nil {
				return RouteSet{}, fmt.Errorf("field_mapping %s: %w", kind, err)
			}
			set.FieldMapping[kind] = fields
		}
	}

	seen := make(map[string]bool, len(rf.Commands))
	for i, rc := range rf.Commands {
		if strings.TrimSpace(rc.Pattern) == "" {
			return RouteSet{}, fmt.Errorf("command %d: empty pattern", i)
		}
		if _, err := compiler.Compile(rc.Pattern); err != nil {
			return RouteSet{}, fmt.Errorf("command %d: %w", i, err)
		}
		name := strings.TrimSpace(rc.Name)
		if name == "" {
			name = rc.Pattern
		}
		if seen[name] {
			return RouteSet{}, fmt.Errorf("command %d: duplicate name %q", i, name)
		}
		seen[name] = true
		set.Commands = append(set.Commands, Route{
			Name:        name,
			Pattern:     rc.Pattern,
			Description: strings.TrimSpace(rc.Description),
		})
	}
	return set, nil
}

// field_mapping values are a field name or a list of fallbacks.
func parseFieldNode(node any) ([]string, error) {
	switch v := node.(type) {
	case string:
		if v == "" {
			return nil, errors.New("empty field name")
		}
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, it := range v {
			s, ok := it.(string)
			if !ok || s == "" {
				return nil, fmt.Errorf("item %d not a field name", i)
			}
			out = append(out, s)
		}
		if len(out) == 0 {
			return nil, errors.New("empty field list")
		}
		return out, nil
	default:
		return nil, errors.New("must be string or list")
	}
}

func isYAML(p string) bool {
	l := strings.ToLower(p)
	return strings.HasSuffix(l, ".yml") || strings.HasSuffix(l, ".yaml")
}

// LoadDirRecursive loads every YAML route file under root in path order.
func LoadDirRecursive(root string) ([]RouteSet, error) {
	var paths []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(p) {
			return nil
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	out := make([]RouteSet, 0, len(paths))
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		set, err := LoadRouteYAML(b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		set.Source = p
		for i := range set.Commands {
			set.Commands[i].Source = p
		}
		out = append(out, set)
	}
	return out, nil
}

// Mapping converts the file's field_mapping into engine rules.
func (s RouteSet) Mapping() matcher.FieldMapping {
	fm := matcher.NewFieldMapping()
	for kind, fields := range s.FieldMapping {
		if len(fields) == 1 {
			fm.AddMapping(kind, matcher.FieldName(fields[0]))
			continue
		}
		fm.AddMapping(kind, matcher.FieldNames(fields))
	}
	return fm
}
