package suite

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/entrhq/verify/pkg/scenario"
)

// Selector picks scenarios by name with glob patterns. A pattern prefixed
// with "!" excludes matching names.
type Selector struct {
	include []glob.Glob
	exclude []glob.Glob
}

// NewSelector compiles the patterns. Comma separated lists are split so a
// single -run flag can carry several patterns; commas inside {a,b}
// alternatives are left alone.
func NewSelector(patterns ...string) (*Selector, error) {
	s := &Selector{}
	for _, p := range splitPatterns(patterns) {
		target := &s.include
		if strings.HasPrefix(p, "!") {
			target = &s.exclude
			p = p[1:]
		}

		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid scenario pattern '%s': %w", p, err)
		}
		*target = append(*target, g)
	}
	return s, nil
}

// Match reports whether name is selected. Exclusions take precedence; no
// include patterns selects everything.
func (s *Selector) Match(name string) bool {
	for _, g := range s.exclude {
		if g.Match(name) {
			return false
		}
	}
	if len(s.include) == 0 {
		return true
	}
	for _, g := range s.include {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Select returns the matching scenarios sorted by name.
func (s *Selector) Select(set map[string]*scenario.Scenario) ([]*scenario.Scenario, error) {
	var out []*scenario.Scenario
	for _, name := range scenario.Names(set) {
		if s.Match(name) {
			out = append(out, set[name])
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no scenarios match; available: %s", strings.Join(scenario.Names(set), ", "))
	}
	return out, nil
}

// splitPatterns splits on commas outside {...} alternatives.
func splitPatterns(patterns []string) []string {
	var out []string
	for _, p := range patterns {
		depth, start := 0, 0
		for i, r := range p + "," {
			switch {
			case r == '{':
				depth++
			case r == '}' && depth > 0:
				depth--
			case r == ',' && depth == 0:
				if part := strings.TrimSpace(p[start:i]); part != "" {
					out = append(out, part)
				}
				start = i + 1
			}
		}
	}
	return out
}
