package compiler

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/zhinjs/segment-matcher-sub000/engine"
)

// Compiler turns pattern strings into token sequences, memoized by exact source text.
// Safe for concurrent use: racing inserts of the same key store identical tokens.
type Compiler struct {
	cache        sync.Map // map[string][]engine.Token
	cacheEnabled bool

	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats reports compile cache usage.
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// New returns a Compiler with caching enabled.
func New() *Compiler {
	return &Compiler{cacheEnabled: true}
}

// WithConfig returns a Compiler honouring cfg.EnableCompileCache.
func WithConfig(cfg engine.Config) *Compiler {
	return &Compiler{cacheEnabled: cfg.EnableCompileCache}
}

// Compile parses pattern. The returned slice is the caller's to keep.
func (c *Compiler) Compile(pattern string) ([]engine.Token, error) {
	if c.cacheEnabled {
		if v, ok := c.cache.Load(pattern); ok {
			c.hits.Add(1)
			return engine.CloneTokens(v.([]engine.Token)), nil
		}
	}
	c.misses.Add(1)

	tokens, err := safeParse(pattern)
	if err != nil {
		return nil, err
	}
	if c.cacheEnabled {
		c.cache.Store(pattern, tokens)
	}
	return engine.CloneTokens(tokens), nil
}

// MustCompile is Compile that panics on error, for patterns known at init time.
func (c *Compiler) MustCompile(pattern string) []engine.Token {
	tokens, err := c.Compile(pattern)
	if err != nil {
		panic(err)
	}
	return tokens
}

func (c *Compiler) Stats() CacheStats {
	n := 0
	c.cache.Range(func(_, _ any) bool {
		n++
		return true
	})
	return CacheStats{Entries: n, Hits: c.hits.Load(), Misses: c.misses.Load()}
}

func (c *Compiler) ClearCache() {
	c.cache.Range(func(k, _ any) bool {
		c.cache.Delete(k)
		return true
	})
}

// safeParse converts internal faults into a ParseError.
func safeParse(pattern string) (tokens []engine.Token, err error) {
	defer func() {
		if r := recover(); r != nil {
			tokens = nil
			err = engine.NewParseError(pattern, 0, "internal error: %s", fmt.Sprint(r))
		}
	}()
	return parsePattern(pattern)
}

// -------------------- package-level default --------------------

var defaultCompiler = New()

// Compile parses pattern with the shared package cache.
func Compile(pattern string) ([]engine.Token, error) {
	return defaultCompiler.Compile(pattern)
}

// MustCompile parses pattern with the shared package cache and panics on error.
func MustCompile(pattern string) []engine.Token {
	return defaultCompiler.MustCompile(pattern)
}
