package pwa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandBraces(t *testing.T) {
	tests := []struct {
		pattern string
		want    []string
	}{
		{"**/*.html", []string{"**/*.html"}},
		{"**/*.{html,js}", []string{"**/*.html", "**/*.js"}},
		{"{a,b}/{c,d}", []string{"a/c", "a/d", "b/c", "b/d"}},
		{"x.{a,{b,c}}", []string{"x.a", "x.b", "x.c"}},
		{"broken{a,b", []string{"broken{a,b"}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandBraces(tt.pattern))
		})
	}
}

func TestExtensions_DefaultPattern(t *testing.T) {
	got := Extensions([]string{DefaultGlobPattern})
	for _, ext := range []string{"html", "js", "css", "png", "svg", "json", "ttf", "pf_fragment", "pf_index", "pf_meta", "pagefind", "wasm"} {
		assert.Contains(t, got, ext)
	}
	assert.Len(t, got, 12)
}

func TestExtensions_IgnoresWildcardExtensions(t *testing.T) {
	got := Extensions([]string{"**/*", "assets/*.*", "fonts/*.WOFF2"})
	assert.Equal(t, map[string]struct{}{"woff2": {}}, got)
}

func TestMatcher(t *testing.T) {
	m := NewMatcher([]string{DefaultGlobPattern, "[invalid"})
	cases := map[string]bool{
		"index.html":                         true,
		"guides/example/index.html":          true,
		"/_astro/app.3f2a.js":                true,
		"pagefind/fragment/en_1.pf_fragment": true,
		"pagefind/wasm.en.pagefind":          true,
		"images/logo.webp":                   false,
		"robots.txt":                         false,
	}
	for rel, want := range cases {
		assert.Equal(t, want, m.Match(rel), rel)
	}
}
