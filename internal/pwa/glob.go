package pwa

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ExpandBraces expands every {a,b} alternation in pattern into plain globs.
// Nested alternations are expanded depth first. A pattern with unbalanced
// braces is returned unchanged.
func ExpandBraces(pattern string) []string {
	open := strings.IndexByte(pattern, '{')
	if open < 0 {
		return []string{pattern}
	}
	closeIdx, alts := splitAlternation(pattern[open+1:])
	if closeIdx < 0 {
		return []string{pattern}
	}
	prefix := pattern[:open]
	suffix := pattern[open+1+closeIdx+1:]

	var out []string
	for _, alt := range alts {
		out = append(out, ExpandBraces(prefix+alt+suffix)...)
	}
	return out
}

// splitAlternation scans s (just past an opening brace) and returns the index
// of the matching closing brace together with the top-level alternatives.
func splitAlternation(s string) (int, []string) {
	depth := 0
	start := 0
	var alts []string
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			if depth == 0 {
				alts = append(alts, s[start:i])
				return i, alts
			}
			depth--
		case ',':
			if depth == 0 {
				alts = append(alts, s[start:i])
				start = i + 1
			}
		}
	}
	return -1, nil
}

// Extensions returns the set of literal file extensions selected by patterns.
// Patterns whose final segment has no literal extension contribute nothing.
func Extensions(patterns []string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, p := range patterns {
		for _, plain := range ExpandBraces(p) {
			ext := strings.TrimPrefix(path.Ext(plain), ".")
			if ext == "" || strings.ContainsAny(ext, "*?[") {
				continue
			}
			out[strings.ToLower(ext)] = struct{}{}
		}
	}
	return out
}

// Matcher selects build artifacts by glob.
type Matcher struct {
	patterns []string
}

// NewMatcher returns a Matcher over patterns. Invalid patterns never match.
func NewMatcher(patterns []string) *Matcher {
	m := &Matcher{}
	for _, p := range patterns {
		if doublestar.ValidatePattern(p) {
			m.patterns = append(m.patterns, p)
		}
	}
	return m
}

// Match reports whether the slash-separated relative path is selected.
func (m *Matcher) Match(rel string) bool {
	rel = strings.TrimPrefix(rel, "/")
	for _, p := range m.patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
