package engine

// Unified configuration for the segment matcher and its router.

import "fmt"

// -------------------- Enums --------------------

type DispatchStrategy int

const (
	// zero value dispatches to the first matching command only
	DispatchFirst DispatchStrategy = iota
	DispatchAll
)

func (s DispatchStrategy) String() string {
	switch s {
	case DispatchFirst:
		return "First"
	case DispatchAll:
		return "All"
	default:
		return fmt.Sprintf("DispatchStrategy(%d)", int(s))
	}
}

// ParseDispatchStrategy maps "first"/"all" (as found in route files) to a strategy.
func ParseDispatchStrategy(s string) (DispatchStrategy, error) {
	switch s {
	case "", "first", "First":
		return DispatchFirst, nil
	case "all", "All":
		return DispatchAll, nil
	default:
		return DispatchFirst, fmt.Errorf("unknown dispatch strategy %q", s)
	}
}

// -------------------- Config --------------------

type Config struct {
	// Dispatch to the first matching command or to every match
	Strategy DispatchStrategy `json:"strategy" yaml:"strategy"`

	// Memoize compiled patterns by source string
	EnableCompileCache bool `json:"enable_compile_cache" yaml:"enable_compile_cache"`

	// Skip commands whose leading literal cannot prefix the input
	EnablePrefilter bool `json:"enable_prefilter" yaml:"enable_prefilter"`

	// ASCII case-insensitive prefilter. Matching itself stays case-sensitive.
	PrefilterCaseInsensitive bool `json:"prefilter_case_insensitive" yaml:"prefilter_case_insensitive"`

	// Upper bound on prefilter patterns; 0 means no limit
	MaxPrefilterPatterns int `json:"max_prefilter_patterns" yaml:"max_prefilter_patterns"`
}

func DefaultConfig() Config {
	return Config{
		Strategy:                 DispatchFirst,
		EnableCompileCache:       true,
		EnablePrefilter:          true,
		PrefilterCaseInsensitive: false,
		MaxPrefilterPatterns:     1000,
	}
}

// DevelopmentConfig disables caching and prefiltering so every command is tried
// against every input.
func DevelopmentConfig() Config {
	return Config{
		Strategy:             DispatchAll,
		EnableCompileCache:   false,
		EnablePrefilter:      false,
		MaxPrefilterPatterns: 0,
	}
}

func (c Config) WithStrategy(s DispatchStrategy) Config {
	c.Strategy = s
	return c
}

func (c Config) WithCompileCache(enable bool) Config {
	c.EnableCompileCache = enable
	return c
}

func (c Config) WithPrefilter(enable bool) Config {
	c.EnablePrefilter = enable
	return c
}

func (c Config) WithPrefilterCaseInsensitive(enable bool) Config {
	c.PrefilterCaseInsensitive = enable
	return c
}

func (c Config) WithMaxPrefilterPatterns(n int) Config {
	c.MaxPrefilterPatterns = n
	return c
}
