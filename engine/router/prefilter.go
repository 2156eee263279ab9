package router

import (
	"fmt"
	"sort"
	"strings"

	ac "github.com/petar-dambovaliev/aho-corasick"

	"github.com/zhinjs/segment-matcher-sub000/engine"
)

//
// Leading-literal prefilter: one Aho-Corasick automaton over the first literal
// of every command, so a dispatch only runs the engine on commands whose
// leading literal can be a prefix of the first text segment.
//

// -------------------- Statistics --------------------

type PrefilterStats struct {
	// Distinct literals in the automaton
	PatternCount int `json:"pattern_count"`
	// Commands reachable through a literal
	IndexedCommands int `json:"indexed_commands"`
	// Commands tried on every dispatch (no leading literal, or over the limit)
	UnindexedCommands int `json:"unindexed_commands"`
}

func (s PrefilterStats) IsEffective() bool {
	return s.PatternCount > 0 && s.IndexedCommands > s.UnindexedCommands
}

func (s PrefilterStats) Summary() string {
	if s.PatternCount == 0 {
		return "No literals - prefilter disabled"
	}
	return fmt.Sprintf("AhoCorasick (%d literals, %d indexed, %d unindexed commands)",
		s.PatternCount, s.IndexedCommands, s.UnindexedCommands)
}

// -------------------- Prefilter --------------------

type LiteralPrefilter struct {
	// nil when there are no literals or the prefilter is disabled
	ac *ac.AhoCorasick
	// raw literals, index == automaton pattern index
	patterns []string
	// pattern index -> command indexes using that exact literal
	patternToCommands map[int][]int
	// pattern index -> indexes of shorter literals that are prefixes of it
	prefixes map[int][]int
	// commands tried regardless of input
	always []int

	stats PrefilterStats
	cfg   engine.Config
}

func (p *LiteralPrefilter) Stats() PrefilterStats { return p.stats }

// leadingLiteral returns the required literal a pattern must start with.
func leadingLiteral(tokens []engine.Token) (string, bool) {
	if len(tokens) == 0 {
		return "", false
	}
	lit, ok := tokens[0].(engine.Literal)
	if !ok || lit.Optional || lit.Text == "" {
		return "", false
	}
	return lit.Text, true
}

func buildPrefilter(commands []*Command, cfg engine.Config) *LiteralPrefilter {
	p := &LiteralPrefilter{
		patternToCommands: make(map[int][]int),
		prefixes:          make(map[int][]int),
		cfg:               cfg,
	}
	if !cfg.EnablePrefilter {
		for i := range commands {
			p.always = append(p.always, i)
		}
		p.stats.UnindexedCommands = len(commands)
		return p
	}

	keyFor := func(s string) string {
		if cfg.PrefilterCaseInsensitive {
			return strings.ToLower(s)
		}
		return s
	}
	dedupe := make(map[string]int)
	for i, cmd := range commands {
		lit, ok := leadingLiteral(cmd.tokens)
		if !ok {
			p.always = append(p.always, i)
			continue
		}
		idx, seen := dedupe[keyFor(lit)]
		if !seen {
			if cfg.MaxPrefilterPatterns > 0 && len(p.patterns) >= cfg.MaxPrefilterPatterns {
				p.always = append(p.always, i)
				continue
			}
			idx = len(p.patterns)
			p.patterns = append(p.patterns, lit)
			dedupe[keyFor(lit)] = idx
		}
		p.patternToCommands[idx] = append(p.patternToCommands[idx], i)
		p.stats.IndexedCommands++
	}
	p.stats.UnindexedCommands = len(p.always)
	p.stats.PatternCount = len(p.patterns)

	for i, a := range p.patterns {
		for j, b := range p.patterns {
			if i != j && len(b) < len(a) && strings.HasPrefix(keyFor(a), keyFor(b)) {
				p.prefixes[i] = append(p.prefixes[i], j)
			}
		}
	}

	if len(p.patterns) > 0 {
		builder := ac.NewAhoCorasickBuilder(ac.Opts{
			AsciiCaseInsensitive: cfg.PrefilterCaseInsensitive,
			MatchKind:            ac.LeftMostLongestMatch,
		})
		automaton := builder.Build(p.patterns)
		p.ac = &automaton
	}
	return p
}

// Candidates returns command indexes worth matching against segments,
// in registration order.
func (p *LiteralPrefilter) Candidates(segments []engine.Segment) []int {
	hit := make(map[int]bool, len(p.always))
	for _, i := range p.always {
		hit[i] = true
	}
	if p.ac != nil && len(segments) > 0 {
		if text, ok := segments[0].TextValue(); ok {
			if matches := p.ac.FindAll(text); len(matches) > 0 && matches[0].Start() == 0 {
				// the longest literal at 0 plus every shorter literal prefixing it
				idx := matches[0].Pattern()
				for _, c := range p.patternToCommands[idx] {
					hit[c] = true
				}
				for _, j := range p.prefixes[idx] {
					for _, c := range p.patternToCommands[j] {
						hit[c] = true
					}
				}
			}
		}
	}

	out := make([]int, 0, len(hit))
	for i := range hit {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
