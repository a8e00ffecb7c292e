package pwa

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// KeyNormalizer strips ignored query parameters from request URLs so that
// requests differing only in those parameters share one cache entry.
type KeyNormalizer struct {
	ignore []*regexp.Regexp
}

// NewKeyNormalizer compiles the ignore expressions. Each expression is
// matched against parameter names.
func NewKeyNormalizer(exprs []string) (*KeyNormalizer, error) {
	n := &KeyNormalizer{}
	for _, e := range exprs {
		re, err := regexp.Compile(e)
		if err != nil {
			return nil, fmt.Errorf("ignore expression %q: %w", e, err)
		}
		n.ignore = append(n.ignore, re)
	}
	return n, nil
}

func (n *KeyNormalizer) ignored(name string) bool {
	for _, re := range n.ignore {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// Normalize returns the cache key for rawURL. The fragment is always dropped;
// remaining parameters keep their relative order.
func (n *KeyNormalizer) Normalize(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	u.Fragment = ""
	u.RawFragment = ""
	if u.RawQuery == "" {
		u.ForceQuery = false
		return u.String(), nil
	}

	kept := make([]string, 0)
	for _, pair := range strings.Split(u.RawQuery, "&") {
		if pair == "" {
			continue
		}
		rawName, _, _ := strings.Cut(pair, "=")
		name, err := url.QueryUnescape(rawName)
		if err != nil {
			name = rawName
		}
		if n.ignored(name) {
			continue
		}
		kept = append(kept, pair)
	}
	u.RawQuery = strings.Join(kept, "&")
	u.ForceQuery = false
	return u.String(), nil
}

// IgnoredParams lists the parameter names of rawURL that Normalize drops.
func (n *KeyNormalizer) IgnoredParams(rawURL string) ([]string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	var out []string
	for name := range u.Query() {
		if n.ignored(name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}
