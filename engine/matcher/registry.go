package matcher

import (
	"sort"
	"sync"

	"github.com/zhinjs/segment-matcher-sub000/engine"
)

// TypeRegistry maps parameter type names to matchers.
// Registration is safe while matches are running; existing compiled patterns
// pick up new types on their next match.
type TypeRegistry struct {
	matchers map[string]TypeMatcher
	mu       sync.RWMutex
}

// NewTypeRegistry returns a registry holding the built-in types
// (number, integer, float, boolean, text).
func NewTypeRegistry() *TypeRegistry {
	r := NewEmptyTypeRegistry()
	registerDefaults(r.matchers)
	return r
}

// NewEmptyTypeRegistry returns a registry without any types.
func NewEmptyTypeRegistry() *TypeRegistry {
	return &TypeRegistry{matchers: make(map[string]TypeMatcher)}
}

// Register adds or replaces the matcher for name.
func (r *TypeRegistry) Register(name string, m TypeMatcher) *TypeRegistry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matchers[name] = m
	return r
}

// RegisterFunc is Register for plain functions.
func (r *TypeRegistry) RegisterFunc(name string, fn func(string) (any, bool)) *TypeRegistry {
	return r.Register(name, TypeMatcherFunc(fn))
}

// Get returns the matcher registered for name.
func (r *TypeRegistry) Get(name string) (TypeMatcher, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.matchers[name]
	return m, ok
}

// HasSpecialMatcher reports whether name goes through a registered matcher.
// Plain text is always false: the engine reads text directly.
func (r *TypeRegistry) HasSpecialMatcher(name string) bool {
	if name == engine.DefaultDataType {
		return false
	}
	_, ok := r.Get(name)
	return ok
}

// Names lists registered type names in sorted order.
func (r *TypeRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.matchers))
	for k := range r.matchers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Clone copies the registry so a caller can extend it without touching the original.
func (r *TypeRegistry) Clone() *TypeRegistry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := NewEmptyTypeRegistry()
	for k, v := range r.matchers {
		cp.matchers[k] = v
	}
	return cp
}
